package trie

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/CVDpl/go-marisa/internal/common"
	"github.com/CVDpl/go-marisa/internal/encoding"
)

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrCorrupt}, args...)...)
}

// WriteTo writes the dictionary in the MARISA file format.
func (t *LoudsTrie) WriteTo(w io.Writer) (int64, error) {
	ew := encoding.NewWriter(w)
	if err := ew.WriteBytes([]byte(common.Magic)); err != nil {
		return ew.Written(), err
	}
	err := t.write(ew)
	return ew.Written(), err
}

func (t *LoudsTrie) write(w *encoding.Writer) error {
	if err := t.louds.WriteTo(w); err != nil {
		return err
	}
	if err := t.terminalFlags.WriteTo(w); err != nil {
		return err
	}
	if err := t.linkFlags.WriteTo(w); err != nil {
		return err
	}
	if err := encoding.WriteBytesVector(w, t.bases); err != nil {
		return err
	}
	if err := t.extras.WriteTo(w); err != nil {
		return err
	}
	if err := t.tail.writeTo(w); err != nil {
		return err
	}
	if t.next != nil {
		if err := t.next.write(w); err != nil {
			return err
		}
	}
	if err := t.writeCache(w); err != nil {
		return err
	}
	if err := w.WriteUint32(t.numL1Nodes); err != nil {
		return err
	}
	return w.WriteUint32(uint32(t.config.Flags()))
}

// Read reads a dictionary from r. It consumes exactly the bytes of the
// dictionary.
func Read(r io.Reader) (*LoudsTrie, error) {
	return ReadFrom(encoding.NewReader(r))
}

// ReadFrom is Read on a caller-owned reader, which keeps count of the bytes
// consumed.
func ReadFrom(r *encoding.Reader) (*LoudsTrie, error) {
	return load(r)
}

// Map loads a dictionary from data without copying. The dictionary aliases
// data, which must stay valid and unmodified while it is in use. It returns
// the number of bytes consumed.
func Map(data []byte) (*LoudsTrie, int, error) {
	m := encoding.NewMapper(data)
	t, err := load(m)
	if err != nil {
		return nil, 0, err
	}
	return t, m.Offset(), nil
}

func load(src encoding.Source) (*LoudsTrie, error) {
	magic, err := src.Bytes(common.HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidMagic, err)
	}
	if !bytes.Equal(magic, []byte(common.Magic)) {
		return nil, common.ErrInvalidMagic
	}
	t := &LoudsTrie{}
	if err := t.read(src, 1); err != nil {
		return nil, err
	}
	n := uint32(len(t.bases))
	switch {
	case t.terminalFlags.Size() != n+1:
		return nil, corruptf("%d terminal flags for %d nodes", t.terminalFlags.Size(), n)
	case !t.terminalFlags.HasSelect1():
		return nil, corruptf("terminal flags have no select index")
	case t.terminalFlags.Get(n):
		return nil, corruptf("terminal flag set past the last node")
	}
	return t, nil
}

func (t *LoudsTrie) read(src encoding.Source, depth int) error {
	if depth > MaxNumTries {
		return corruptf("more than %d levels", MaxNumTries)
	}
	if err := t.louds.ReadFrom(src); err != nil {
		return err
	}
	if err := t.terminalFlags.ReadFrom(src); err != nil {
		return err
	}
	if err := t.linkFlags.ReadFrom(src); err != nil {
		return err
	}
	var err error
	if t.bases, err = encoding.ReadBytesVector(src); err != nil {
		return err
	}
	if err := t.extras.ReadFrom(src); err != nil {
		return err
	}
	if err := t.tail.readFrom(src); err != nil {
		return err
	}
	if t.linkFlags.Num1s() != 0 && t.tail.Empty() {
		t.next = &LoudsTrie{}
		if err := t.next.read(src, depth+1); err != nil {
			return err
		}
	}
	if err := t.readCache(src); err != nil {
		return err
	}
	if t.numL1Nodes, err = encoding.ReadUint32(src); err != nil {
		return err
	}
	flags, err := encoding.ReadUint32(src)
	if err != nil {
		return err
	}
	if t.config, err = ParseConfig(int(flags)); err != nil {
		return fmt.Errorf("%w: %w", common.ErrCorrupt, err)
	}
	return t.validate(depth)
}

// validate checks the shape invariants that the search code relies on to
// stay in bounds and to terminate. The next level, if any, is already
// validated.
func (t *LoudsTrie) validate(depth int) error {
	n := uint32(len(t.bases))
	switch {
	case n == 0:
		return corruptf("level has no nodes")
	case t.linkFlags.Size() != n:
		return corruptf("%d link flags for %d nodes", t.linkFlags.Size(), n)
	case t.louds.Size() != 2*n+2:
		return corruptf("%d louds bits for %d nodes", t.louds.Size(), n)
	case t.louds.Num1s() != n:
		return corruptf("%d louds ones for %d nodes", t.louds.Num1s(), n)
	case t.extras.Size() != t.linkFlags.Num1s():
		return corruptf("%d extras for %d link nodes", t.extras.Size(), t.linkFlags.Num1s())
	case t.numL1Nodes >= n:
		return corruptf("%d first-level nodes of %d", t.numL1Nodes, n)
	case !t.louds.HasSelect1():
		return corruptf("louds has no select1 index")
	case depth == 1 && !t.louds.HasSelect0():
		return corruptf("louds has no select0 index")
	case !t.linkFlags.Indexed():
		return corruptf("link flags have no rank index")
	}
	if err := t.validateLouds(); err != nil {
		return err
	}
	if err := t.validateLinks(); err != nil {
		return err
	}
	return t.validateCache(depth)
}

// validateLouds requires every node but the root to come after its parent,
// so that upward walks end, and the bit string to end in a 0 so that sibling
// scans do.
func (t *LoudsTrie) validateLouds() error {
	size := t.louds.Size()
	if !t.louds.Get(0) || t.louds.Get(1) || t.louds.Get(size-1) {
		return corruptf("louds has a malformed root or end")
	}
	var ones, zeros, l1 uint32 = 1, 1, 0
	for pos := uint32(2); pos < size; pos++ {
		if !t.louds.Get(pos) {
			zeros++
			continue
		}
		if zeros > ones {
			return corruptf("louds node %d comes before its parent", ones)
		}
		if zeros == 1 {
			l1++
		}
		ones++
	}
	if l1 != t.numL1Nodes {
		return corruptf("%d first-level nodes, header says %d", l1, t.numL1Nodes)
	}
	return nil
}

// validateLinks requires every link to point into the next level or at a
// suffix of the tail.
func (t *LoudsTrie) validateLinks() error {
	numLinks := t.linkFlags.Num1s()
	if numLinks == 0 {
		return nil
	}
	if t.next == nil && t.tail.Empty() {
		return corruptf("%d links with nowhere to point", numLinks)
	}
	var linkID uint32
	for nodeID := uint32(0); linkID < numLinks; nodeID++ {
		if !t.linkFlags.Get(nodeID) {
			continue
		}
		link := t.getLinkAt(nodeID, linkID)
		linkID++
		if t.next != nil {
			if link >= uint32(len(t.next.bases)) {
				return corruptf("node %d links to node %d of %d", nodeID, link, len(t.next.bases))
			}
			continue
		}
		if !t.tail.validOffset(link) {
			return corruptf("node %d links to tail offset %d of %d", nodeID, link, t.tail.Size())
		}
	}
	return nil
}

// validateCache requires each used slot to hold a real edge of this level,
// stored where the search will look for it.
func (t *LoudsTrie) validateCache(depth int) error {
	n := uint32(len(t.bases))
	for i := range t.cache {
		c := &t.cache[i]
		if c.parent == math.MaxUint32 && c.child == math.MaxUint32 {
			continue
		}
		if c.child == 0 || c.child >= n {
			return corruptf("cache slot %d holds node %d of %d", i, c.child, n)
		}
		if parent := t.louds.Select1(c.child) - c.child - 1; c.parent != parent {
			return corruptf("cache slot %d gives node %d parent %d, want %d", i, c.child, c.parent, parent)
		}
		link := uint32(t.bases[c.child]) | common.InvalidExtra<<8
		if t.linkFlags.Get(c.child) {
			link = t.getLink(c.child)
		}
		if c.link != link {
			return corruptf("cache slot %d has link %#x for node %d, want %#x", i, c.link, c.child, link)
		}
		var id uint32
		switch {
		case depth > 1:
			id = t.nodeCacheID(c.child)
		case !c.isLink():
			id = t.labelCacheID(c.parent, c.label())
		default:
			continue
		}
		if id != uint32(i) {
			return corruptf("cache slot %d belongs at %d", i, id)
		}
	}
	return nil
}
