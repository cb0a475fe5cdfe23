//go:build !unix

package utils

import (
	"fmt"
	"io"
	"os"
)

type Advice int

const (
	AdviceNormal Advice = iota
	AdviceRandom
	AdviceSequential
	AdviceWillNeed
)

const MmapSupported = false

// MemoryMap holds a file region read into memory on platforms without mmap.
type MemoryMap struct {
	data []byte
}

func MapFile(f *os.File, offset, length int64, _ Advice) (*MemoryMap, error) {
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d", offset)
	}
	var r io.Reader = io.NewSectionReader(f, offset, 1<<62)
	if length >= 0 {
		r = io.NewSectionReader(f, offset, length)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if length >= 0 && int64(len(data)) != length {
		return nil, io.ErrUnexpectedEOF
	}
	return &MemoryMap{data: data}, nil
}

func (m *MemoryMap) Data() []byte { return m.data }

func (m *MemoryMap) Close() error {
	m.data = nil
	return nil
}
