package encoding

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/CVDpl/go-marisa/internal/common"
)

// A vector section is laid out as
//
//	uint64  payload size in bytes
//	[]byte  payload, elements in little-endian order
//	[]byte  zero padding up to a multiple of 8
//
// Elements are fixed-size and pointer-free, so on little-endian hosts a
// suitably aligned payload can be reinterpreted in place.

// padding returns the number of zero bytes that follow a payload of n bytes.
func padding(n uint64) int {
	return int((8 - n%8) % 8)
}

// SectionSize returns the serialized size of a vector whose payload is n
// bytes long.
func SectionSize(n uint64) uint64 {
	return 8 + n + uint64(padding(n))
}

// VectorSize returns the serialized size of v.
func VectorSize[T any](v []T) uint64 {
	var zero T
	return SectionSize(uint64(len(v)) * uint64(unsafe.Sizeof(zero)))
}

// WriteVector writes v as a vector section. put encodes one element into
// its little-endian form and is only used on big-endian hosts.
func WriteVector[T any](w *Writer, v []T, put func([]byte, T)) error {
	var zero T
	elem := int(unsafe.Sizeof(zero))
	size := uint64(len(v)) * uint64(elem)
	if err := w.WriteUint64(size); err != nil {
		return err
	}
	if len(v) > 0 {
		if !cpu.IsBigEndian {
			raw := unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), int(size))
			if err := w.WriteBytes(raw); err != nil {
				return err
			}
		} else {
			buf := make([]byte, 0, 4096)
			for _, x := range v {
				if len(buf)+elem > cap(buf) {
					if err := w.WriteBytes(buf); err != nil {
						return err
					}
					buf = buf[:0]
				}
				buf = buf[:len(buf)+elem]
				put(buf[len(buf)-elem:], x)
			}
			if err := w.WriteBytes(buf); err != nil {
				return err
			}
		}
	}
	return w.Pad(padding(size))
}

// ReadVector reads a vector section. When the payload is suitably aligned and
// the host is little-endian the result aliases the bytes handed out by src;
// otherwise get decodes each element into a fresh slice.
func ReadVector[T any](src Source, get func([]byte) T) ([]T, error) {
	var zero T
	elem := uint64(unsafe.Sizeof(zero))
	size, err := ReadUint64(src)
	if err != nil {
		return nil, err
	}
	if size > math.MaxInt-8 {
		return nil, fmt.Errorf("%w: vector of %d bytes", common.ErrCorrupt, size)
	}
	if size%elem != 0 {
		return nil, fmt.Errorf("%w: vector size %d is not a multiple of %d", common.ErrCorrupt, size, elem)
	}
	b, err := src.Bytes(int(size))
	if err != nil {
		return nil, err
	}
	if err := src.Skip(padding(size)); err != nil {
		return nil, err
	}
	n := int(size / elem)
	if n == 0 {
		return nil, nil
	}
	if !cpu.IsBigEndian && uintptr(unsafe.Pointer(&b[0]))%unsafe.Alignof(zero) == 0 {
		return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n), nil
	}
	out := make([]T, n)
	for i := range out {
		out[i] = get(b[uint64(i)*elem:])
	}
	return out, nil
}

// WriteBytesVector writes a byte vector section.
func WriteBytesVector(w *Writer, v []byte) error {
	if err := w.WriteUint64(uint64(len(v))); err != nil {
		return err
	}
	if err := w.WriteBytes(v); err != nil {
		return err
	}
	return w.Pad(padding(uint64(len(v))))
}

// ReadBytesVector reads a byte vector section.
func ReadBytesVector(src Source) ([]byte, error) {
	return ReadVector(src, func(b []byte) byte { return b[0] })
}

// WriteUint32Vector writes a vector of uint32.
func WriteUint32Vector(w *Writer, v []uint32) error {
	return WriteVector(w, v, binary.LittleEndian.PutUint32)
}

// ReadUint32Vector reads a vector of uint32.
func ReadUint32Vector(src Source) ([]uint32, error) {
	return ReadVector(src, binary.LittleEndian.Uint32)
}

// WriteUint64Vector writes a vector of uint64.
func WriteUint64Vector(w *Writer, v []uint64) error {
	return WriteVector(w, v, binary.LittleEndian.PutUint64)
}

// ReadUint64Vector reads a vector of uint64.
func ReadUint64Vector(src Source) ([]uint64, error) {
	return ReadVector(src, binary.LittleEndian.Uint64)
}
