package encoding

import "math/bits"

// selectTable[k][b] is the position of the k-th (0-based) set bit of byte b.
var selectTable [8][256]uint8

func init() {
	for b := 0; b < 256; b++ {
		k := 0
		for pos := 0; pos < 8; pos++ {
			if b&(1<<pos) != 0 {
				selectTable[k][b] = uint8(pos)
				k++
			}
		}
	}
}

// selectInWord returns the position of the i-th (0-based) set bit of w, or
// 64 when w has fewer than i+1 set bits.
func selectInWord(i uint32, w uint64) uint32 {
	for shift := uint32(0); shift < 64; shift += 8 {
		b := uint8(w >> shift)
		c := uint32(bits.OnesCount8(b))
		if i < c {
			return shift + uint32(selectTable[i][b])
		}
		i -= c
	}
	return 64
}
