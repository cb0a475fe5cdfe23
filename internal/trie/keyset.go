package trie

import (
	"fmt"
	"math"

	"github.com/CVDpl/go-marisa/internal/common"
)

const keysetBlockSize = 4096

type keysetEntry struct {
	data   []byte
	weight float32
	id     uint32
}

// Keyset collects the keys of a dictionary before it is built. Key bytes are
// copied into large blocks, so the caller may reuse its buffers. Duplicate
// keys are kept; their weights add up during the build.
type Keyset struct {
	blocks      [][]byte
	entries     []keysetEntry
	totalLength uint64
}

// Push appends a copy of k with the given weight.
func (ks *Keyset) Push(k []byte, weight float32) error {
	if uint64(len(k)) > common.MaxKeySize {
		return fmt.Errorf("key of %d bytes: %w", len(k), common.ErrTooLarge)
	}
	if uint64(len(ks.entries)) >= math.MaxUint32 {
		return fmt.Errorf("keyset holds %d keys: %w", len(ks.entries), common.ErrTooLarge)
	}
	ks.entries = append(ks.entries, keysetEntry{data: ks.store(k), weight: weight})
	ks.totalLength += uint64(len(k))
	return nil
}

// PushString is Push for a string key.
func (ks *Keyset) PushString(k string, weight float32) error {
	if uint64(len(k)) > common.MaxKeySize {
		return fmt.Errorf("key of %d bytes: %w", len(k), common.ErrTooLarge)
	}
	if uint64(len(ks.entries)) >= math.MaxUint32 {
		return fmt.Errorf("keyset holds %d keys: %w", len(ks.entries), common.ErrTooLarge)
	}
	dst := ks.alloc(len(k))
	copy(dst, k)
	ks.entries = append(ks.entries, keysetEntry{data: dst, weight: weight})
	ks.totalLength += uint64(len(k))
	return nil
}

func (ks *Keyset) store(k []byte) []byte {
	dst := ks.alloc(len(k))
	copy(dst, k)
	return dst
}

// alloc carves n bytes out of the current block. Keys larger than a quarter
// block get their own allocation.
func (ks *Keyset) alloc(n int) []byte {
	if n == 0 {
		return []byte{}
	}
	if n > keysetBlockSize/4 {
		return make([]byte, n)
	}
	if len(ks.blocks) == 0 || cap(ks.blocks[len(ks.blocks)-1])-len(ks.blocks[len(ks.blocks)-1]) < n {
		ks.blocks = append(ks.blocks, make([]byte, 0, keysetBlockSize))
	}
	b := &ks.blocks[len(ks.blocks)-1]
	start := len(*b)
	*b = (*b)[:start+n]
	return (*b)[start : start+n : start+n]
}

// Len returns the number of keys pushed, duplicates included.
func (ks *Keyset) Len() int { return len(ks.entries) }

// Key returns the i-th key. The slice must not be modified.
func (ks *Keyset) Key(i int) []byte { return ks.entries[i].data }

func (ks *Keyset) Weight(i int) float32 { return ks.entries[i].weight }

// ID returns the key ID assigned to the i-th key by the last build.
func (ks *Keyset) ID(i int) uint32 { return ks.entries[i].id }

// TotalLength returns the sum of all key lengths.
func (ks *Keyset) TotalLength() uint64 { return ks.totalLength }

// Reset empties ks and keeps its first block for reuse.
func (ks *Keyset) Reset() {
	if len(ks.blocks) > 0 {
		ks.blocks = ks.blocks[:1]
		ks.blocks[0] = ks.blocks[0][:0]
	}
	clear(ks.entries)
	ks.entries = ks.entries[:0]
	ks.totalLength = 0
}
