package encoding

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/CVDpl/go-marisa/internal/common"
)

func TestFlatVector(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	cases := map[string][]uint32{
		"empty":  nil,
		"zeros":  {0, 0, 0},
		"ones":   {1, 1, 0, 1},
		"width7": {127, 3, 64, 0, 99},
		"max":    {0xFFFFFFFF, 0, 0x80000000, 12345},
	}
	random := make([]uint32, 1000)
	for i := range random {
		random[i] = rng.Uint32() >> (rng.UintN(32))
	}
	cases["random"] = random

	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			fv := NewFlatVector(values)
			if int(fv.Size()) != len(values) {
				t.Fatalf("size = %d, want %d", fv.Size(), len(values))
			}
			for i, v := range values {
				if got := fv.Get(uint32(i)); got != v {
					t.Fatalf("Get(%d) = %d, want %d", i, got, v)
				}
			}

			var buf bytes.Buffer
			w := NewWriter(&buf)
			if err := fv.WriteTo(w); err != nil {
				t.Fatalf("WriteTo: %v", err)
			}
			if uint64(w.Written()) != fv.IOSize() {
				t.Fatalf("wrote %d bytes, IOSize = %d", w.Written(), fv.IOSize())
			}
			var back FlatVector
			if err := back.ReadFrom(NewMapper(buf.Bytes())); err != nil {
				t.Fatalf("ReadFrom: %v", err)
			}
			for i, v := range values {
				if got := back.Get(uint32(i)); got != v {
					t.Fatalf("mapped Get(%d) = %d, want %d", i, got, v)
				}
			}
		})
	}
}

func TestFlatVectorValueSize(t *testing.T) {
	if got := NewFlatVector([]uint32{0, 0}).ValueSize(); got != 0 {
		t.Errorf("value size for zeros = %d, want 0", got)
	}
	if got := NewFlatVector([]uint32{5, 255}).ValueSize(); got != 8 {
		t.Errorf("value size for 255 = %d, want 8", got)
	}
	if got := len(NewFlatVector([]uint32{0}).units); got != 1 {
		t.Errorf("zero-width vector has %d units, want 1", got)
	}
}

func TestFlatVectorRejectsWideValues(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_ = WriteUint64Vector(w, []uint64{0})
	_ = w.WriteUint32(33)
	_ = w.WriteUint32(0)
	_ = w.WriteUint64(1)

	var fv FlatVector
	if err := fv.ReadFrom(NewMapper(buf.Bytes())); !errors.Is(err, common.ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}

func TestVectorSectionPadding(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := WriteBytesVector(w, []byte("abc")); err != nil {
		t.Fatal(err)
	}
	want := []byte{3, 0, 0, 0, 0, 0, 0, 0, 'a', 'b', 'c', 0, 0, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("section = %v, want %v", buf.Bytes(), want)
	}
	if got := SectionSize(3); got != uint64(len(want)) {
		t.Fatalf("SectionSize(3) = %d, want %d", got, len(want))
	}
	got, err := ReadBytesVector(NewReader(bytes.NewReader(want)))
	if err != nil || string(got) != "abc" {
		t.Fatalf("ReadBytesVector = %q, %v", got, err)
	}
}

func TestVectorRejectsMisalignedSize(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_ = w.WriteUint64(6)
	_ = w.Pad(8)
	if _, err := ReadUint32Vector(NewMapper(buf.Bytes())); !errors.Is(err, common.ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}
