package encoding

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/CVDpl/go-marisa/internal/common"
)

// errTruncated is returned when a section runs past the end of its input.
var errTruncated = fmt.Errorf("%w: %w", common.ErrCorrupt, io.ErrUnexpectedEOF)

// readChunk bounds a single allocation while streaming a section whose size
// comes from untrusted input.
const readChunk = 1 << 20

// Writer serializes dictionary sections in little-endian order and counts the
// bytes it has written.
type Writer struct {
	w   io.Writer
	n   int64
	buf [8]byte
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 { return w.n }

// WriteBytes writes p as is.
func (w *Writer) WriteBytes(p []byte) error {
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return err
}

// WriteUint32 writes v as 4 little-endian bytes.
func (w *Writer) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	return w.WriteBytes(w.buf[:4])
}

// WriteUint64 writes v as 8 little-endian bytes.
func (w *Writer) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	return w.WriteBytes(w.buf[:8])
}

// Pad writes n zero bytes.
func (w *Writer) Pad(n int) error {
	clear(w.buf[:])
	for n > 0 {
		k := min(n, len(w.buf))
		if err := w.WriteBytes(w.buf[:k]); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// Source is the read side of the dictionary transport. Reader copies out of a
// stream, Mapper hands out views of memory it does not own.
type Source interface {
	// Bytes returns the next n bytes. The result must be treated as
	// read-only: it may alias a memory mapping.
	Bytes(n int) ([]byte, error)
	// Skip discards the next n bytes.
	Skip(n int) error
}

// Reader is a Source over an io.Reader. It never reads past the bytes it was
// asked for, so a dictionary can be followed by other data in the stream.
type Reader struct {
	r io.Reader
	n int64
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Consumed returns the number of bytes read so far.
func (r *Reader) Consumed() int64 { return r.n }

func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative section size", common.ErrCorrupt)
	}
	if n <= readChunk {
		b := make([]byte, n)
		k, err := io.ReadFull(r.r, b)
		r.n += int64(k)
		if err != nil {
			return nil, readErr(err)
		}
		return b, nil
	}
	// Grow incrementally so that a corrupt size cannot force a huge
	// allocation before the input runs out.
	b := make([]byte, 0, readChunk)
	for len(b) < n {
		k := min(n-len(b), readChunk)
		b = append(b, make([]byte, k)...)
		got, err := io.ReadFull(r.r, b[len(b)-k:])
		r.n += int64(got)
		if err != nil {
			return nil, readErr(err)
		}
	}
	return b, nil
}

func (r *Reader) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	k, err := io.CopyN(io.Discard, r.r, int64(n))
	r.n += k
	if err != nil {
		return readErr(err)
	}
	return nil
}

func readErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errTruncated
	}
	return err
}

// Mapper is a zero-copy Source over a byte slice, usually a memory mapping.
type Mapper struct {
	data []byte
	pos  int
}

// NewMapper wraps data. The returned views alias data.
func NewMapper(data []byte) *Mapper {
	return &Mapper{data: data}
}

// Offset returns the number of bytes consumed so far.
func (m *Mapper) Offset() int { return m.pos }

// Remaining returns the unconsumed tail of the input.
func (m *Mapper) Remaining() []byte { return m.data[m.pos:] }

func (m *Mapper) Bytes(n int) ([]byte, error) {
	if n < 0 || n > len(m.data)-m.pos {
		return nil, errTruncated
	}
	b := m.data[m.pos : m.pos+n : m.pos+n]
	m.pos += n
	return b, nil
}

func (m *Mapper) Skip(n int) error {
	_, err := m.Bytes(n)
	return err
}

// ReadUint32 reads a little-endian uint32 from src.
func ReadUint32(src Source) (uint32, error) {
	b, err := src.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 reads a little-endian uint64 from src.
func ReadUint64(src Source) (uint64, error) {
	b, err := src.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}
