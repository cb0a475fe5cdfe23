//go:build unix

package utils

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Advice is an madvise hint for a mapping.
type Advice int

const (
	AdviceNormal     Advice = unix.MADV_NORMAL
	AdviceRandom     Advice = unix.MADV_RANDOM
	AdviceSequential Advice = unix.MADV_SEQUENTIAL
	AdviceWillNeed   Advice = unix.MADV_WILLNEED
)

// MmapSupported reports whether MapFile maps instead of reading.
const MmapSupported = true

// MemoryMap is a read-only view of a file region.
type MemoryMap struct {
	data   []byte
	mapped []byte
}

// MapFile maps length bytes of f starting at offset. A negative length maps
// to the end of the file. The file may be closed once MapFile returns.
func MapFile(f *os.File, offset, length int64, advice Advice) (*MemoryMap, error) {
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d", offset)
	}
	if length < 0 {
		st, err := f.Stat()
		if err != nil {
			return nil, err
		}
		if offset > st.Size() {
			return nil, fmt.Errorf("offset %d beyond end of file (%d bytes)", offset, st.Size())
		}
		length = st.Size() - offset
	}
	if length == 0 {
		return &MemoryMap{data: []byte{}}, nil
	}

	// mmap wants a page-aligned offset; map from the page start and slice.
	page := int64(os.Getpagesize())
	start := offset &^ (page - 1)
	delta := offset - start
	if length > int64(^uint(0)>>1)-delta {
		return nil, fmt.Errorf("mapping of %d bytes is too large", length)
	}

	mapped, err := unix.Mmap(int(f.Fd()), start, int(length+delta), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	if advice != AdviceNormal {
		// Advice is a hint; a failure leaves a working mapping.
		_ = unix.Madvise(mapped, int(advice))
	}
	return &MemoryMap{data: mapped[delta:], mapped: mapped}, nil
}

// Data returns the mapped bytes. They must not be modified.
func (m *MemoryMap) Data() []byte { return m.data }

// Close unmaps the region. Data must not be used afterwards.
func (m *MemoryMap) Close() error {
	if m.mapped == nil {
		return nil
	}
	err := unix.Munmap(m.mapped)
	m.mapped, m.data = nil, nil
	return err
}
