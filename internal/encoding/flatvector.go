package encoding

import (
	"fmt"
	"math/bits"

	"github.com/CVDpl/go-marisa/internal/common"
)

// FlatVector stores unsigned integers with the minimum fixed bit width that
// fits the largest of them. Values may straddle two 64-bit units.
type FlatVector struct {
	units     []uint64
	valueSize uint32
	mask      uint32
	size      uint32
}

// NewFlatVector packs values.
func NewFlatVector(values []uint32) *FlatVector {
	var maxValue uint32
	for _, v := range values {
		maxValue = max(maxValue, v)
	}
	fv := &FlatVector{
		valueSize: uint32(bits.Len32(maxValue)),
		size:      uint32(len(values)),
	}
	if fv.valueSize != 0 {
		fv.mask = 0xFFFFFFFF >> (32 - fv.valueSize)
	}

	var numUnits uint64
	if len(values) > 0 {
		numUnits = 1
		if fv.valueSize != 0 {
			numUnits = (uint64(fv.valueSize)*uint64(len(values)) + 63) / 64
		}
	}
	fv.units = make([]uint64, numUnits)
	for i, v := range values {
		fv.set(uint32(i), v)
	}
	return fv
}

// set stores value at position i.
func (fv *FlatVector) set(i, value uint32) {
	if fv.valueSize == 0 {
		return
	}
	bitPos := uint64(i) * uint64(fv.valueSize)
	unitID := bitPos / 64
	bitOffset := bitPos % 64

	mask := uint64(fv.mask)
	fv.units[unitID] &^= mask << bitOffset
	fv.units[unitID] |= (uint64(value) & mask) << bitOffset

	// Spill into the next unit
	if bitOffset+uint64(fv.valueSize) > 64 {
		fv.units[unitID+1] &^= mask >> (64 - bitOffset)
		fv.units[unitID+1] |= (uint64(value) & mask) >> (64 - bitOffset)
	}
}

// Get returns the i-th value.
func (fv *FlatVector) Get(i uint32) uint32 {
	bitPos := uint64(i) * uint64(fv.valueSize)
	unitID := bitPos / 64
	bitOffset := bitPos % 64

	if bitOffset+uint64(fv.valueSize) <= 64 {
		return uint32(fv.units[unitID]>>bitOffset) & fv.mask
	}
	return uint32(fv.units[unitID]>>bitOffset|fv.units[unitID+1]<<(64-bitOffset)) & fv.mask
}

// Size returns the number of values.
func (fv *FlatVector) Size() uint32 { return fv.size }

// ValueSize returns the bit width of each value.
func (fv *FlatVector) ValueSize() uint32 { return fv.valueSize }

// Empty reports whether the vector holds no values.
func (fv *FlatVector) Empty() bool { return fv.size == 0 }

// TotalSize returns the in-memory size of the packed units.
func (fv *FlatVector) TotalSize() uint64 { return uint64(len(fv.units)) * 8 }

// IOSize returns the serialized size.
func (fv *FlatVector) IOSize() uint64 { return VectorSize(fv.units) + 16 }

// WriteTo serializes the vector.
func (fv *FlatVector) WriteTo(w *Writer) error {
	if err := WriteUint64Vector(w, fv.units); err != nil {
		return err
	}
	if err := w.WriteUint32(fv.valueSize); err != nil {
		return err
	}
	if err := w.WriteUint32(fv.mask); err != nil {
		return err
	}
	return w.WriteUint64(uint64(fv.size))
}

// ReadFrom replaces the vector with one read from src.
func (fv *FlatVector) ReadFrom(src Source) error {
	var tmp FlatVector
	var err error
	if tmp.units, err = ReadUint64Vector(src); err != nil {
		return err
	}
	if tmp.valueSize, err = ReadUint32(src); err != nil {
		return err
	}
	if tmp.valueSize > 32 {
		return fmt.Errorf("%w: flat vector value size %d", common.ErrCorrupt, tmp.valueSize)
	}
	if tmp.mask, err = ReadUint32(src); err != nil {
		return err
	}
	size, err := ReadUint64(src)
	if err != nil {
		return err
	}
	if size > 0xFFFFFFFF {
		return fmt.Errorf("%w: flat vector of %d values", common.ErrCorrupt, size)
	}
	tmp.size = uint32(size)
	if need := (uint64(tmp.valueSize)*size + 63) / 64; uint64(len(tmp.units)) < need {
		return fmt.Errorf("%w: flat vector needs %d units, has %d", common.ErrCorrupt, need, len(tmp.units))
	}
	*fv = tmp
	return nil
}
