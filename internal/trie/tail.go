package trie

import (
	"bytes"
	"fmt"

	"github.com/CVDpl/go-marisa/internal/common"
	"github.com/CVDpl/go-marisa/internal/encoding"
)

// Tail stores the suffixes that remain below the last trie level. Suffixes
// that end another stored suffix share its bytes. In text mode each suffix
// is NUL-terminated; in binary mode endFlags marks the last byte of each.
type Tail struct {
	buf      []byte
	endFlags encoding.BitVector
}

// buildTail stores entries and returns the offset of each entry, indexed by
// its position in entries. entries must be reverse-reading keys and are
// reordered.
func buildTail(entries []key, mode TailMode) (Tail, []uint32, error) {
	switch mode {
	case TextTail:
		for i := range entries {
			if bytes.IndexByte(entries[i].data, 0) >= 0 {
				mode = BinaryTail
				break
			}
		}
	case BinaryTail:
	default:
		return Tail{}, nil, fmt.Errorf("undefined tail mode %#x: %w", int(mode), common.ErrInvalidArgument)
	}

	for i := range entries {
		entries[i].id = uint32(i)
	}
	sortKeys(entries)

	var t Tail
	offsets := make([]uint32, len(entries))
	var last *key
	for i := len(entries); i > 0; i-- {
		cur := &entries[i-1]
		if cur.length() == 0 {
			return Tail{}, nil, fmt.Errorf("empty tail entry: %w", common.ErrOutOfRange)
		}
		lastLen, match := 0, 0
		if last != nil {
			lastLen = last.length()
			for match < cur.length() && match < lastLen && last.at(match) == cur.at(match) {
				match++
			}
		}
		if match == cur.length() && lastLen != 0 {
			// cur ends the previously stored suffix.
			offsets[cur.id] = offsets[last.id] + uint32(lastLen-match)
		} else {
			offsets[cur.id] = uint32(len(t.buf))
			t.buf = append(t.buf, cur.data...)
			if mode == TextTail {
				t.buf = append(t.buf, 0)
			} else {
				for j := 1; j < cur.length(); j++ {
					if err := t.endFlags.PushBack(false); err != nil {
						return Tail{}, nil, err
					}
				}
				if err := t.endFlags.PushBack(true); err != nil {
					return Tail{}, nil, err
				}
			}
			if uint64(len(t.buf)) > common.MaxKeySize {
				return Tail{}, nil, fmt.Errorf("tail of %d bytes: %w", len(t.buf), common.ErrTooLarge)
			}
		}
		last = cur
	}
	return t, offsets, nil
}

// Mode reports how suffixes are terminated.
func (t *Tail) Mode() TailMode {
	if t.endFlags.Empty() {
		return TextTail
	}
	return BinaryTail
}

// Empty reports whether the tail stores no suffixes.
func (t *Tail) Empty() bool { return len(t.buf) == 0 }

// Size returns the number of stored bytes.
func (t *Tail) Size() int { return len(t.buf) }

func (t *Tail) TotalSize() uint64 {
	return uint64(len(t.buf)) + t.endFlags.TotalSize()
}

func (t *Tail) IOSize() uint64 {
	return encoding.SectionSize(uint64(len(t.buf))) + t.endFlags.IOSize()
}

// validOffset reports whether a suffix starts at offset and ends inside the
// buffer.
func (t *Tail) validOffset(offset uint32) bool {
	if uint64(offset) >= uint64(len(t.buf)) {
		return false
	}
	return !t.endFlags.Empty() || t.buf[offset] != 0
}

// restore appends the suffix at offset to the key buffer.
func (t *Tail) restore(st *State, offset uint32) {
	if t.endFlags.Empty() {
		end := bytes.IndexByte(t.buf[offset:], 0)
		st.keyBuf = append(st.keyBuf, t.buf[offset:offset+uint32(end)]...)
		return
	}
	for {
		st.keyBuf = append(st.keyBuf, t.buf[offset])
		if t.endFlags.Get(offset) {
			return
		}
		offset++
	}
}

// match consumes the suffix at offset from the query. It fails if the query
// diverges or runs out first.
func (t *Tail) match(a *Agent, offset uint32) bool {
	st := a.state
	q := a.query
	if t.endFlags.Empty() {
		for {
			if t.buf[offset] != q[st.queryPos] {
				return false
			}
			st.queryPos++
			offset++
			if t.buf[offset] == 0 {
				return true
			}
			if st.queryPos >= len(q) {
				return false
			}
		}
	}
	for {
		if t.buf[offset] != q[st.queryPos] {
			return false
		}
		st.queryPos++
		if t.endFlags.Get(offset) {
			return true
		}
		offset++
		if st.queryPos >= len(q) {
			return false
		}
	}
}

// prefixMatch is match for predictive search: matched bytes go to the key
// buffer, and when the query runs out the rest of the suffix is appended.
func (t *Tail) prefixMatch(a *Agent, offset uint32) bool {
	st := a.state
	q := a.query
	if t.endFlags.Empty() {
		for {
			if t.buf[offset] != q[st.queryPos] {
				return false
			}
			st.keyBuf = append(st.keyBuf, t.buf[offset])
			st.queryPos++
			offset++
			if t.buf[offset] == 0 {
				return true
			}
			if st.queryPos >= len(q) {
				break
			}
		}
		end := bytes.IndexByte(t.buf[offset:], 0)
		st.keyBuf = append(st.keyBuf, t.buf[offset:offset+uint32(end)]...)
		return true
	}
	for {
		if t.buf[offset] != q[st.queryPos] {
			return false
		}
		st.keyBuf = append(st.keyBuf, t.buf[offset])
		st.queryPos++
		if t.endFlags.Get(offset) {
			return true
		}
		offset++
		if st.queryPos >= len(q) {
			break
		}
	}
	for {
		st.keyBuf = append(st.keyBuf, t.buf[offset])
		if t.endFlags.Get(offset) {
			return true
		}
		offset++
	}
}

func (t *Tail) writeTo(w *encoding.Writer) error {
	if err := encoding.WriteBytesVector(w, t.buf); err != nil {
		return err
	}
	return t.endFlags.WriteTo(w)
}

func (t *Tail) readFrom(src encoding.Source) error {
	var tmp Tail
	var err error
	if tmp.buf, err = encoding.ReadBytesVector(src); err != nil {
		return err
	}
	if err := tmp.endFlags.ReadFrom(src); err != nil {
		return err
	}
	if !tmp.endFlags.Empty() && int(tmp.endFlags.Size()) != len(tmp.buf) {
		return fmt.Errorf("%w: tail has %d end flags for %d bytes", common.ErrCorrupt, tmp.endFlags.Size(), len(tmp.buf))
	}
	if !tmp.endFlags.Empty() && !tmp.endFlags.Get(tmp.endFlags.Size()-1) {
		return fmt.Errorf("%w: binary tail has no final end flag", common.ErrCorrupt)
	}
	if tmp.endFlags.Empty() && len(tmp.buf) != 0 && tmp.buf[len(tmp.buf)-1] != 0 {
		return fmt.Errorf("%w: text tail is not NUL-terminated", common.ErrCorrupt)
	}
	*t = tmp
	return nil
}
