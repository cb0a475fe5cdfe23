package marisa

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/CVDpl/go-marisa/pkg/marisa/utils"
)

// WriteTo writes t in the marisa-trie file format.
func (t *Trie) WriteTo(w io.Writer) (int64, error) {
	if t.lt == nil {
		return 0, ErrNotInitialized
	}
	return t.lt.WriteTo(w)
}

// MarshalBinary returns t in the marisa-trie file format.
func (t *Trie) MarshalBinary() ([]byte, error) {
	return t.AppendBinary(nil)
}

// AppendBinary appends t in the marisa-trie file format to b.
func (t *Trie) AppendBinary(b []byte) ([]byte, error) {
	if t.lt == nil {
		return b, ErrNotInitialized
	}
	buf := bytes.NewBuffer(b)
	buf.Grow(int(t.lt.IOSize()))
	if _, err := t.lt.WriteTo(buf); err != nil {
		return b, err
	}
	return buf.Bytes(), nil
}

// Save writes t to path. The file is replaced atomically, so readers see
// either the old or the new dictionary.
func (t *Trie) Save(path string) error {
	if t.lt == nil {
		return ErrNotInitialized
	}
	start := time.Now()
	err := utils.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := t.lt.WriteTo(w)
		return err
	})
	if err != nil {
		LogError(t.log(), "failed to save dictionary", err, "path", path)
		return fmt.Errorf("save %s: %w", path, err)
	}
	t.stats.recordSave()
	LogLatency(t.log(), "save", start, "path", path, "bytes", t.lt.IOSize())
	return nil
}
