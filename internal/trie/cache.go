package trie

import (
	"encoding/binary"
	"math"

	"github.com/CVDpl/go-marisa/internal/common"
	"github.com/CVDpl/go-marisa/internal/encoding"
)

// emptySlotWeight is FLT_MIN: a slot is taken only by a strictly heavier
// candidate. Unused slots keep its bit pattern in the link field on disk.
const emptySlotWeight = 0x00800000

// buildCacheSlot is a cache slot while a level is being built.
type buildCacheSlot struct {
	parent uint32
	child  uint32
	weight float32
}

// cacheSlot short-cuts one parent-child edge. link packs the child's label
// byte with its link extra (common.InvalidExtra for a plain label).
type cacheSlot struct {
	parent uint32
	child  uint32
	link   uint32
}

const cacheSlotSize = 12

func (c *cacheSlot) label() byte    { return byte(c.link) }
func (c *cacheSlot) extra() uint32  { return c.link >> 8 }
func (c *cacheSlot) isLink() bool   { return c.extra() != common.InvalidExtra }
func (c *cacheSlot) target() uint32 { return c.link }

func putCacheSlot(b []byte, c cacheSlot) {
	binary.LittleEndian.PutUint32(b[0:], c.parent)
	binary.LittleEndian.PutUint32(b[4:], c.child)
	binary.LittleEndian.PutUint32(b[8:], c.link)
}

func getCacheSlot(b []byte) cacheSlot {
	return cacheSlot{
		parent: binary.LittleEndian.Uint32(b[0:]),
		child:  binary.LittleEndian.Uint32(b[4:]),
		link:   binary.LittleEndian.Uint32(b[8:]),
	}
}

// reserveCache sizes the cache of a level with numKeys distinct keys. The
// first level always gets at least 256 slots so that children of one parent
// never collide.
func (t *LoudsTrie) reserveCache(cfg Config, trieID, numKeys int) []buildCacheSlot {
	size := 1
	if trieID == 1 {
		size = 256
	}
	for size < numKeys/int(cfg.cacheLevel) {
		size *= 2
	}
	t.cacheMask = uint32(size - 1)

	slots := make([]buildCacheSlot, size)
	w := math.Float32frombits(emptySlotWeight)
	for i := range slots {
		slots[i].weight = w
	}
	return slots
}

// labelCacheID hashes an edge of the first level by parent and label.
func (t *LoudsTrie) labelCacheID(parent uint32, label byte) uint32 {
	return (parent ^ parent<<5 ^ uint32(label)) & t.cacheMask
}

// nodeCacheID hashes an edge of a nested level by child.
func (t *LoudsTrie) nodeCacheID(child uint32) uint32 {
	return child & t.cacheMask
}

// offerCache keeps the heaviest edge seen for each slot.
func (t *LoudsTrie) offerCache(slots []buildCacheSlot, reverse bool, parent, child uint32, weight float32, label byte) {
	var id uint32
	if reverse {
		id = t.nodeCacheID(child)
	} else {
		id = t.labelCacheID(parent, label)
	}
	if weight > slots[id].weight {
		slots[id] = buildCacheSlot{parent: parent, child: child, weight: weight}
	}
}

// fillCache freezes the build slots once bases, link flags and extras are
// final.
func (t *LoudsTrie) fillCache(slots []buildCacheSlot) {
	t.cache = make([]cacheSlot, len(slots))
	for i, s := range slots {
		c := &t.cache[i]
		if s.child == 0 {
			c.parent = math.MaxUint32
			c.child = math.MaxUint32
			c.link = math.Float32bits(s.weight)
			continue
		}
		c.parent = s.parent
		c.child = s.child
		extra := common.InvalidExtra
		if t.linkFlags.Get(s.child) {
			extra = t.extras.Get(t.linkFlags.Rank1(s.child))
		}
		c.link = uint32(t.bases[s.child]) | extra<<8
	}
}

func (t *LoudsTrie) writeCache(w *encoding.Writer) error {
	return encoding.WriteVector(w, t.cache, putCacheSlot)
}

func (t *LoudsTrie) readCache(src encoding.Source) error {
	slots, err := encoding.ReadVector(src, getCacheSlot)
	if err != nil {
		return err
	}
	if n := len(slots); n == 0 || n&(n-1) != 0 {
		return corruptf("cache has %d slots", n)
	}
	t.cache = slots
	t.cacheMask = uint32(len(slots) - 1)
	return nil
}
