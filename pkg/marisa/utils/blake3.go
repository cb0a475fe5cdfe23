package utils

import (
	"encoding/hex"
	"io"
	"os"

	blake3 "lukechampine.com/blake3"
)

// DigestSize is the length of the BLAKE3 digests used for dictionary images.
const DigestSize = 32

// ComputeBLAKE3 returns the hex BLAKE3-256 digest of data.
func ComputeBLAKE3(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewBLAKE3 returns a streaming hasher whose hex digest HexSum reports.
func NewBLAKE3() *Hasher {
	return &Hasher{h: blake3.New(DigestSize, nil)}
}

// Hasher accumulates bytes written to it.
type Hasher struct {
	h *blake3.Hasher
	n int64
}

func (h *Hasher) Write(p []byte) (int, error) {
	n, err := h.h.Write(p)
	h.n += int64(n)
	return n, err
}

// Len returns the number of bytes hashed.
func (h *Hasher) Len() int64 { return h.n }

// HexSum returns the hex digest of everything written so far.
func (h *Hasher) HexSum() string { return hex.EncodeToString(h.h.Sum(nil)) }

// ComputeBLAKE3File returns the hex digest of the file at path and its size.
func ComputeBLAKE3File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := NewBLAKE3()
	if _, err := io.Copy(h, f); err != nil {
		return "", 0, err
	}
	return h.HexSum(), h.Len(), nil
}
