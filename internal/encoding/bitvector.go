package encoding

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"slices"

	"github.com/CVDpl/go-marisa/internal/common"
)

// rankIndex holds the ranks for one 512-bit block: the absolute number of
// 1-bits before the block, and the 1-bits before each of the 64-bit units
// 1..7 relative to the block start, packed as 7/8/8/9 bits in lo and
// 9/9/9 bits in hi.
type rankIndex struct {
	abs uint32
	lo  uint32
	hi  uint32
}

const rankIndexSize = 12

func (r *rankIndex) setRel(k int, v uint32) {
	switch k {
	case 1:
		r.lo = r.lo&^0x7F | v&0x7F
	case 2:
		r.lo = r.lo&^(0xFF<<7) | (v&0xFF)<<7
	case 3:
		r.lo = r.lo&^(0xFF<<15) | (v&0xFF)<<15
	case 4:
		r.lo = r.lo&^(0x1FF<<23) | (v&0x1FF)<<23
	case 5:
		r.hi = r.hi&^0x1FF | v&0x1FF
	case 6:
		r.hi = r.hi&^(0x1FF<<9) | (v&0x1FF)<<9
	case 7:
		r.hi = r.hi&^(0x1FF<<18) | (v&0x1FF)<<18
	}
}

func (r *rankIndex) rel1() uint32 { return r.lo & 0x7F }
func (r *rankIndex) rel2() uint32 { return (r.lo >> 7) & 0xFF }
func (r *rankIndex) rel3() uint32 { return (r.lo >> 15) & 0xFF }
func (r *rankIndex) rel4() uint32 { return r.lo >> 23 }
func (r *rankIndex) rel5() uint32 { return r.hi & 0x1FF }
func (r *rankIndex) rel6() uint32 { return (r.hi >> 9) & 0x1FF }
func (r *rankIndex) rel7() uint32 { return (r.hi >> 18) & 0x1FF }

// rel returns the relative rank of unit k (0..7) inside the block.
func (r *rankIndex) rel(k uint32) uint32 {
	switch k {
	case 1:
		return r.rel1()
	case 2:
		return r.rel2()
	case 3:
		return r.rel3()
	case 4:
		return r.rel4()
	case 5:
		return r.rel5()
	case 6:
		return r.rel6()
	case 7:
		return r.rel7()
	}
	return 0
}

func putRankIndex(b []byte, r rankIndex) {
	binary.LittleEndian.PutUint32(b[0:], r.abs)
	binary.LittleEndian.PutUint32(b[4:], r.lo)
	binary.LittleEndian.PutUint32(b[8:], r.hi)
}

func getRankIndex(b []byte) rankIndex {
	return rankIndex{
		abs: binary.LittleEndian.Uint32(b[0:]),
		lo:  binary.LittleEndian.Uint32(b[4:]),
		hi:  binary.LittleEndian.Uint32(b[8:]),
	}
}

// BitVector is an append-only bit array with rank/select support.
//
// Bits are appended with PushBack and indexed with Build; after that the
// vector is read-only. Rank is O(1). Select uses one sample per 512 matching
// bits and finishes with a short scan or binary search over the blocks.
type BitVector struct {
	units    []uint64
	size     uint32
	num1s    uint32
	ranks    []rankIndex
	select0s []uint32
	select1s []uint32
}

// PushBack appends one bit.
func (bv *BitVector) PushBack(bit bool) error {
	if bv.size == common.MaxBitCount {
		return fmt.Errorf("bit vector: %w", common.ErrTooLarge)
	}
	if bv.size%64 == 0 {
		bv.units = append(bv.units, 0)
	}
	if bit {
		bv.units[bv.size/64] |= uint64(1) << (bv.size % 64)
		bv.num1s++
	}
	bv.size++
	return nil
}

// Get returns the bit at position i.
func (bv *BitVector) Get(i uint32) bool {
	return bv.units[i/64]&(uint64(1)<<(i%64)) != 0
}

// Build computes the rank index and, when requested, the select samples.
func (bv *BitVector) Build(enableSelect0, enableSelect1 bool) {
	numBits := bv.size
	numBlocks := numBits / 512
	if numBits%512 != 0 {
		numBlocks++
	}
	ranks := make([]rankIndex, numBlocks+1)
	var select0s, select1s []uint32

	var num0s, num1s uint32
	for unitID, unit := range bv.units {
		bitID := uint32(unitID) * 64
		rank := &ranks[bitID/512]
		if k := uint32(unitID) % 8; k == 0 {
			rank.abs = num1s
		} else {
			rank.setRel(int(k), num1s-rank.abs)
		}

		unitNum1s := uint32(bits.OnesCount64(unit))
		if enableSelect0 {
			unitNum0s := min(numBits-bitID, 64) - unitNum1s
			if skip := (0 - num0s) % 512; unitNum0s > skip {
				select0s = append(select0s, bitID+selectInWord(skip, ^unit))
			}
			num0s += unitNum0s
		}
		if enableSelect1 {
			if skip := (0 - num1s) % 512; unitNum1s > skip {
				select1s = append(select1s, bitID+selectInWord(skip, unit))
			}
		}
		num1s += unitNum1s
	}

	// Units past the end of a partial block count as empty.
	if numBits%512 != 0 {
		rank := &ranks[(numBits-1)/512]
		for k := (numBits-1)/64%8 + 1; k < 8; k++ {
			rank.setRel(int(k), num1s-rank.abs)
		}
	}
	ranks[len(ranks)-1].abs = num1s

	if enableSelect0 {
		select0s = append(select0s, numBits)
	}
	if enableSelect1 {
		select1s = append(select1s, numBits)
	}

	bv.num1s = num1s
	bv.ranks = ranks
	bv.select0s = select0s
	bv.select1s = select1s
}

// Rank1 returns the number of 1-bits in [0, i).
func (bv *BitVector) Rank1(i uint32) uint32 {
	rank := &bv.ranks[i/512]
	offset := rank.abs + rank.rel((i/64)%8)
	if rem := i % 64; rem != 0 {
		offset += uint32(bits.OnesCount64(bv.units[i/64] & (uint64(1)<<rem - 1)))
	}
	return offset
}

// Rank0 returns the number of 0-bits in [0, i).
func (bv *BitVector) Rank0(i uint32) uint32 {
	return i - bv.Rank1(i)
}

// Select0 returns the position of the i-th (0-based) 0-bit. The vector must
// have been built with select0 enabled.
func (bv *BitVector) Select0(i uint32) uint32 {
	selectID := i / 512
	if i%512 == 0 {
		return bv.select0s[selectID]
	}
	begin := bv.select0s[selectID] / 512
	end := (bv.select0s[selectID+1] + 511) / 512
	if begin+10 >= end {
		for i >= (begin+1)*512-bv.ranks[begin+1].abs {
			begin++
		}
	} else {
		for begin+1 < end {
			middle := (begin + end) / 2
			if i < middle*512-bv.ranks[middle].abs {
				end = middle
			} else {
				begin = middle
			}
		}
	}
	rankID := begin
	i -= rankID*512 - bv.ranks[rankID].abs

	rank := &bv.ranks[rankID]
	unitID := rankID * 8
	if i < 256-rank.rel4() {
		if i < 128-rank.rel2() {
			if i >= 64-rank.rel1() {
				unitID++
				i -= 64 - rank.rel1()
			}
		} else if i < 192-rank.rel3() {
			unitID += 2
			i -= 128 - rank.rel2()
		} else {
			unitID += 3
			i -= 192 - rank.rel3()
		}
	} else if i < 384-rank.rel6() {
		if i < 320-rank.rel5() {
			unitID += 4
			i -= 256 - rank.rel4()
		} else {
			unitID += 5
			i -= 320 - rank.rel5()
		}
	} else if i < 448-rank.rel7() {
		unitID += 6
		i -= 384 - rank.rel6()
	} else {
		unitID += 7
		i -= 448 - rank.rel7()
	}
	return unitID*64 + selectInWord(i, ^bv.units[unitID])
}

// Select1 returns the position of the i-th (0-based) 1-bit. The vector must
// have been built with select1 enabled.
func (bv *BitVector) Select1(i uint32) uint32 {
	selectID := i / 512
	if i%512 == 0 {
		return bv.select1s[selectID]
	}
	begin := bv.select1s[selectID] / 512
	end := (bv.select1s[selectID+1] + 511) / 512
	if begin+10 >= end {
		for i >= bv.ranks[begin+1].abs {
			begin++
		}
	} else {
		for begin+1 < end {
			middle := (begin + end) / 2
			if i < bv.ranks[middle].abs {
				end = middle
			} else {
				begin = middle
			}
		}
	}
	rankID := begin
	i -= bv.ranks[rankID].abs

	rank := &bv.ranks[rankID]
	unitID := rankID * 8
	if i < rank.rel4() {
		if i < rank.rel2() {
			if i >= rank.rel1() {
				unitID++
				i -= rank.rel1()
			}
		} else if i < rank.rel3() {
			unitID += 2
			i -= rank.rel2()
		} else {
			unitID += 3
			i -= rank.rel3()
		}
	} else if i < rank.rel6() {
		if i < rank.rel5() {
			unitID += 4
			i -= rank.rel4()
		} else {
			unitID += 5
			i -= rank.rel5()
		}
	} else if i < rank.rel7() {
		unitID += 6
		i -= rank.rel6()
	} else {
		unitID += 7
		i -= rank.rel7()
	}
	return unitID*64 + selectInWord(i, bv.units[unitID])
}

// Size returns the number of bits.
func (bv *BitVector) Size() uint32 { return bv.size }

// Num1s returns the number of 1-bits.
func (bv *BitVector) Num1s() uint32 { return bv.num1s }

// Num0s returns the number of 0-bits.
func (bv *BitVector) Num0s() uint32 { return bv.size - bv.num1s }

// Empty reports whether the vector holds no bits.
func (bv *BitVector) Empty() bool { return bv.size == 0 }

// TotalSize returns the in-memory footprint of the bits and index.
func (bv *BitVector) TotalSize() uint64 {
	return uint64(len(bv.units))*8 + uint64(len(bv.ranks))*rankIndexSize +
		uint64(len(bv.select0s)+len(bv.select1s))*4
}

// IOSize returns the serialized size.
func (bv *BitVector) IOSize() uint64 {
	return VectorSize(bv.units) + 8 + VectorSize(bv.ranks) +
		VectorSize(bv.select0s) + VectorSize(bv.select1s)
}

// WriteTo serializes the bits followed by the index.
func (bv *BitVector) WriteTo(w *Writer) error {
	if err := WriteUint64Vector(w, bv.units); err != nil {
		return err
	}
	if err := w.WriteUint32(bv.size); err != nil {
		return err
	}
	if err := w.WriteUint32(bv.num1s); err != nil {
		return err
	}
	if err := WriteVector(w, bv.ranks, putRankIndex); err != nil {
		return err
	}
	if err := WriteUint32Vector(w, bv.select0s); err != nil {
		return err
	}
	return WriteUint32Vector(w, bv.select1s)
}

// ReadFrom replaces the vector with one read from src.
func (bv *BitVector) ReadFrom(src Source) error {
	var tmp BitVector
	var err error
	if tmp.units, err = ReadUint64Vector(src); err != nil {
		return err
	}
	if tmp.size, err = ReadUint32(src); err != nil {
		return err
	}
	if tmp.num1s, err = ReadUint32(src); err != nil {
		return err
	}
	if tmp.num1s > tmp.size {
		return fmt.Errorf("%w: bit vector has %d ones in %d bits", common.ErrCorrupt, tmp.num1s, tmp.size)
	}
	if uint64(len(tmp.units)) != (uint64(tmp.size)+63)/64 {
		return fmt.Errorf("%w: bit vector has %d units for %d bits", common.ErrCorrupt, len(tmp.units), tmp.size)
	}
	if rem := tmp.size % 64; rem != 0 && tmp.units[len(tmp.units)-1]>>rem != 0 {
		return fmt.Errorf("%w: bit vector has bits set past its end", common.ErrCorrupt)
	}
	if tmp.ranks, err = ReadVector(src, getRankIndex); err != nil {
		return err
	}
	if tmp.select0s, err = ReadUint32Vector(src); err != nil {
		return err
	}
	if tmp.select1s, err = ReadUint32Vector(src); err != nil {
		return err
	}
	if err := tmp.checkIndex(); err != nil {
		return err
	}
	*bv = tmp
	return nil
}

// checkIndex rebuilds the index from the bits and requires the stored one to
// match it exactly. A vector that was never built, such as the end flags of a
// binary tail, has no index at all.
func (bv *BitVector) checkIndex() error {
	if len(bv.ranks) == 0 {
		if len(bv.select0s) != 0 || len(bv.select1s) != 0 {
			return fmt.Errorf("%w: bit vector has select samples but no rank index", common.ErrCorrupt)
		}
		var num1s uint32
		for _, u := range bv.units {
			num1s += uint32(bits.OnesCount64(u))
		}
		if num1s != bv.num1s {
			return fmt.Errorf("%w: bit vector claims %d ones, has %d", common.ErrCorrupt, bv.num1s, num1s)
		}
		return nil
	}
	ref := BitVector{units: bv.units, size: bv.size}
	ref.Build(len(bv.select0s) != 0, len(bv.select1s) != 0)
	switch {
	case ref.num1s != bv.num1s:
		return fmt.Errorf("%w: bit vector claims %d ones, has %d", common.ErrCorrupt, bv.num1s, ref.num1s)
	case !slices.Equal(ref.ranks, bv.ranks):
		return fmt.Errorf("%w: bit vector rank index does not match its bits", common.ErrCorrupt)
	case !slices.Equal(ref.select0s, bv.select0s):
		return fmt.Errorf("%w: bit vector select0 samples do not match its bits", common.ErrCorrupt)
	case !slices.Equal(ref.select1s, bv.select1s):
		return fmt.Errorf("%w: bit vector select1 samples do not match its bits", common.ErrCorrupt)
	}
	return nil
}

// HasSelect0 reports whether Select0 may be called.
func (bv *BitVector) HasSelect0() bool { return len(bv.select0s) != 0 }

// HasSelect1 reports whether Select1 may be called.
func (bv *BitVector) HasSelect1() bool { return len(bv.select1s) != 0 }

// Indexed reports whether Rank0 and Rank1 may be called.
func (bv *BitVector) Indexed() bool { return len(bv.ranks) != 0 }
