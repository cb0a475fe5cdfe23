package trie

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/CVDpl/go-marisa/internal/common"
	"github.com/CVDpl/go-marisa/internal/encoding"
)

// LoudsTrie is one level of a MARISA dictionary. Node labels live in bases;
// a node whose link flag is set carries a multi-byte label that is stored in
// the next level (or in the tail at the last level), addressed by the link
// formed from its base byte and its extra.
//
// A LoudsTrie is immutable once built or loaded and safe for concurrent use
// with one Agent per goroutine.
type LoudsTrie struct {
	louds         encoding.BitVector
	terminalFlags encoding.BitVector
	linkFlags     encoding.BitVector
	bases         []byte
	extras        encoding.FlatVector
	tail          Tail
	next          *LoudsTrie
	cache         []cacheSlot
	cacheMask     uint32
	numL1Nodes    uint32
	config        Config
}

// Build builds a dictionary from ks according to flags and records the
// assigned key IDs in ks.
func Build(ks *Keyset, flags int) (*LoudsTrie, error) {
	cfg, err := ParseConfig(flags)
	if err != nil {
		return nil, err
	}

	keys := make([]key, ks.Len())
	for i := range keys {
		keys[i] = key{data: ks.entries[i].data, weight: ks.entries[i].weight}
	}

	t := &LoudsTrie{}
	terminals, err := t.buildTrie(keys, cfg, 1)
	if err != nil {
		return nil, err
	}

	type terminalPair struct {
		terminal uint32
		index    uint32
	}
	pairs := make([]terminalPair, len(terminals))
	for i, term := range terminals {
		pairs[i] = terminalPair{terminal: term, index: uint32(i)}
	}
	slices.SortFunc(pairs, func(a, b terminalPair) int {
		if c := cmp.Compare(a.terminal, b.terminal); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	push := func(bit bool) {
		if err == nil {
			err = t.terminalFlags.PushBack(bit)
		}
	}
	var nodeID uint32
	for _, p := range pairs {
		for nodeID < p.terminal {
			push(false)
			nodeID++
		}
		if nodeID == p.terminal {
			push(true)
			nodeID++
		}
	}
	for int(nodeID) < len(t.bases) {
		push(false)
		nodeID++
	}
	push(false)
	if err != nil {
		return nil, err
	}
	t.terminalFlags.Build(false, true)

	for _, p := range pairs {
		ks.entries[p.index].id = t.terminalFlags.Rank1(p.terminal)
	}
	return t, nil
}

// buildTrie builds this level and everything below it from keys. It returns
// the node at which each key ends, indexed by the key's position in keys.
func (t *LoudsTrie) buildTrie(keys []key, cfg Config, trieID int) ([]uint32, error) {
	terminals, nextKeys, slots, err := t.buildCurrentTrie(keys, cfg, trieID)
	if err != nil {
		return nil, err
	}

	var nextTerminals []uint32
	if len(nextKeys) > 0 {
		if nextTerminals, err = t.buildNextTrie(nextKeys, cfg, trieID); err != nil {
			return nil, err
		}
	}

	if t.next != nil {
		n := t.next.config
		t.config, err = ParseConfig((n.numTries + 1) | int(n.tailMode) | int(n.nodeOrder))
	} else {
		t.config, err = ParseConfig(1 | int(t.tail.Mode()) | int(cfg.nodeOrder) | int(cfg.cacheLevel))
	}
	if err != nil {
		return nil, err
	}

	t.linkFlags.Build(false, false)
	var nodeID uint32
	for i, nt := range nextTerminals {
		for !t.linkFlags.Get(nodeID) {
			nodeID++
		}
		t.bases[nodeID] = byte(nt)
		nextTerminals[i] = nt >> 8
		nodeID++
	}
	t.extras = *encoding.NewFlatVector(nextTerminals)
	t.fillCache(slots)
	return terminals, nil
}

// buildCurrentTrie lays out one level breadth-first. Runs of keys that share
// more than one label below a node become link nodes; the shared labels are
// returned as the keys of the next level.
func (t *LoudsTrie) buildCurrentTrie(keys []key, cfg Config, trieID int) (terminals []uint32, nextKeys []key, slots []buildCacheSlot, err error) {
	for i := range keys {
		keys[i].id = uint32(i)
	}
	numKeys := sortKeys(keys)
	slots = t.reserveCache(cfg, trieID, numKeys)

	push := func(bv *encoding.BitVector, bit bool) {
		if err == nil {
			err = bv.PushBack(bit)
		}
	}

	push(&t.louds, true)
	push(&t.louds, false)
	t.bases = append(t.bases, 0)
	push(&t.linkFlags, false)

	queue := []keyRange{{begin: 0, end: len(keys), keyPos: 0}}
	head := 0
	var ranges []weightedRange
	for head < len(queue) {
		nodeID := t.linkFlags.Size() - uint32(len(queue)-head)

		r := queue[head]
		head++
		if head >= 4096 && head*2 >= len(queue) {
			queue = append(queue[:0], queue[head:]...)
			head = 0
		}

		for r.begin < r.end && keys[r.begin].length() == r.keyPos {
			keys[r.begin].terminal = nodeID
			r.begin++
		}
		if r.begin == r.end {
			push(&t.louds, false)
			continue
		}

		ranges = ranges[:0]
		weight := float64(keys[r.begin].weight)
		for i := r.begin + 1; i < r.end; i++ {
			if keys[i-1].at(r.keyPos) != keys[i].at(r.keyPos) {
				ranges = append(ranges, weightedRange{
					keyRange: keyRange{begin: r.begin, end: i, keyPos: r.keyPos},
					weight:   float32(weight),
				})
				r.begin = i
				weight = 0
			}
			weight += float64(keys[i].weight)
		}
		ranges = append(ranges, weightedRange{keyRange: r, weight: float32(weight)})
		if cfg.nodeOrder == WeightOrder {
			slices.SortStableFunc(ranges, func(a, b weightedRange) int {
				return cmp.Compare(b.weight, a.weight)
			})
		}

		if nodeID == 0 {
			t.numL1Nodes = uint32(len(ranges))
		}

		for i := range ranges {
			wr := &ranges[i]
			first := &keys[wr.begin]
			keyPos := wr.keyPos + 1
			for keyPos < first.length() {
				j := wr.begin + 1
				for ; j < wr.end; j++ {
					if keys[j-1].at(keyPos) != keys[j].at(keyPos) {
						break
					}
				}
				if j < wr.end {
					break
				}
				keyPos++
			}
			t.offerCache(slots, first.reverse, nodeID, uint32(len(t.bases)), wr.weight, first.at(wr.keyPos))

			if keyPos == wr.keyPos+1 {
				t.bases = append(t.bases, first.at(wr.keyPos))
				push(&t.linkFlags, false)
			} else {
				t.bases = append(t.bases, 0)
				push(&t.linkFlags, true)
				next := key{data: first.data, reverse: first.reverse, weight: wr.weight}
				next.substr(wr.keyPos, keyPos-wr.keyPos)
				nextKeys = append(nextKeys, next)
			}
			wr.keyPos = keyPos
			queue = append(queue, wr.keyRange)
			push(&t.louds, true)
		}
		push(&t.louds, false)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	push(&t.louds, false)
	if err != nil {
		return nil, nil, nil, err
	}
	t.louds.Build(trieID == 1, true)
	t.bases = slices.Clip(t.bases)

	terminals = make([]uint32, len(keys))
	for i := range keys {
		terminals[keys[i].id] = keys[i].terminal
	}
	return terminals, nextKeys, slots, nil
}

// buildNextTrie stores the labels of this level's link nodes, either in a
// nested level or, at the last level, in the tail. Both read keys backwards.
func (t *LoudsTrie) buildNextTrie(keys []key, cfg Config, trieID int) ([]uint32, error) {
	for i := range keys {
		keys[i].reverse = true
	}
	if trieID == cfg.numTries {
		tail, offsets, err := buildTail(keys, cfg.tailMode)
		if err != nil {
			return nil, err
		}
		t.tail = tail
		return offsets, nil
	}
	t.next = &LoudsTrie{}
	return t.next.buildTrie(keys, cfg, trieID+1)
}

// getLink returns the link of a link node.
func (t *LoudsTrie) getLink(nodeID uint32) uint32 {
	return uint32(t.bases[nodeID]) | t.extras.Get(t.linkFlags.Rank1(nodeID))<<8
}

// getLinkAt is getLink for a node whose link ID is already known.
func (t *LoudsTrie) getLinkAt(nodeID, linkID uint32) uint32 {
	return uint32(t.bases[nodeID]) | t.extras.Get(linkID)<<8
}

// updateLinkID advances a link ID across consecutive sibling link nodes.
func (t *LoudsTrie) updateLinkID(linkID, nodeID uint32) uint32 {
	if linkID == common.InvalidLinkID {
		return t.linkFlags.Rank1(nodeID)
	}
	return linkID + 1
}

// NumTries returns the number of levels, the tail excluded.
func (t *LoudsTrie) NumTries() int { return t.config.numTries }

// NumKeys returns the number of distinct keys.
func (t *LoudsTrie) NumKeys() uint32 { return t.terminalFlags.Num1s() }

// Size is NumKeys.
func (t *LoudsTrie) Size() uint32 { return t.NumKeys() }

func (t *LoudsTrie) Empty() bool { return t.NumKeys() == 0 }

// NumNodes returns the number of nodes in the first level.
func (t *LoudsTrie) NumNodes() uint32 {
	if t.louds.Size() < 2 {
		return 0
	}
	return t.louds.Size()/2 - 1
}

func (t *LoudsTrie) TailMode() TailMode     { return t.config.tailMode }
func (t *LoudsTrie) NodeOrder() NodeOrder   { return t.config.nodeOrder }
func (t *LoudsTrie) CacheLevel() CacheLevel { return t.config.cacheLevel }

// Flags returns the persisted configuration flags.
func (t *LoudsTrie) Flags() int { return t.config.Flags() }

// TotalSize returns the in-memory size of all levels in bytes.
func (t *LoudsTrie) TotalSize() uint64 {
	n := t.louds.TotalSize() + t.terminalFlags.TotalSize() + t.linkFlags.TotalSize() +
		uint64(len(t.bases)) + t.extras.TotalSize() + t.tail.TotalSize() +
		uint64(len(t.cache))*cacheSlotSize
	if t.next != nil {
		n += t.next.TotalSize()
	}
	return n
}

// IOSize returns the serialized size in bytes, header included.
func (t *LoudsTrie) IOSize() uint64 {
	n := uint64(common.HeaderSize) + t.louds.IOSize() + t.terminalFlags.IOSize() +
		t.linkFlags.IOSize() + encoding.SectionSize(uint64(len(t.bases))) +
		t.extras.IOSize() + t.tail.IOSize() + encoding.VectorSize(t.cache) + 8
	if t.next != nil {
		n += t.next.IOSize() - uint64(common.HeaderSize)
	}
	return n
}

func (t *LoudsTrie) String() string {
	return fmt.Sprintf("LoudsTrie(keys=%d nodes=%d tries=%d io_size=%d)",
		t.NumKeys(), t.NumNodes(), t.NumTries(), t.IOSize())
}
