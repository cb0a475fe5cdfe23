package marisa

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/CVDpl/go-marisa/internal/encoding"
	"github.com/CVDpl/go-marisa/internal/trie"
	"github.com/CVDpl/go-marisa/pkg/marisa/utils"
)

// Open loads the dictionary stored in the file name. Unless
// opts.DisableMmap is set, the file is memory-mapped and the returned Trie
// must be closed to release the mapping.
func Open(name string, opts *Options) (*Trie, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &Trie{logger: opts.logger()}
	if opts != nil && opts.DisableMmap || !utils.MmapSupported {
		if _, err := t.ReadFrom(f); err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		return t, nil
	}
	advice := utils.AdviceRandom
	if opts != nil {
		advice = opts.MmapAdvice
	}
	if err := t.mapFile(f, 0, -1, advice); err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return t, nil
}

// New loads a dictionary from a copy of b.
func New(b []byte) (*Trie, error) {
	t := &Trie{}
	if err := t.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return t, nil
}

// Load reads a dictionary from r.
func Load(r io.Reader) (*Trie, error) {
	t := &Trie{}
	if _, err := t.ReadFrom(r); err != nil {
		return nil, err
	}
	return t, nil
}

// UnmarshalBinary replaces t with the dictionary in b. The whole of b must
// be one dictionary. t keeps its own copy of b.
func (t *Trie) UnmarshalBinary(b []byte) error {
	start := time.Now()
	data := slices.Clone(b)
	lt, n, err := trie.Map(data)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("load: %d trailing bytes: %w", len(data)-n, ErrCorrupt)
	}
	t.replace(lt, nil)
	t.loaded("unmarshal", start, n)
	return nil
}

// ReadFrom replaces t with the dictionary read from r. It reads exactly the
// bytes of the dictionary, so r may hold more data afterwards.
func (t *Trie) ReadFrom(r io.Reader) (int64, error) {
	start := time.Now()
	src := encoding.NewReader(r)
	lt, err := trie.ReadFrom(src)
	if err != nil {
		return src.Consumed(), fmt.Errorf("load: %w", err)
	}
	t.replace(lt, nil)
	t.loaded("read", start, int(src.Consumed()))
	return src.Consumed(), nil
}

// MapFile replaces t with the dictionary stored in f at offset. A negative
// length extends to the end of the file. The mapping stays alive until t is
// closed or replaced; f itself may be closed right away.
func (t *Trie) MapFile(f *os.File, offset, length int64) error {
	return t.mapFile(f, offset, length, utils.AdviceRandom)
}

func (t *Trie) mapFile(f *os.File, offset, length int64, advice utils.Advice) error {
	start := time.Now()
	mm, err := utils.MapFile(f, offset, length, advice)
	if err != nil {
		return fmt.Errorf("map: %w", err)
	}
	lt, n, err := trie.Map(mm.Data())
	if err == nil && length >= 0 && int64(n) != length {
		err = fmt.Errorf("%d trailing bytes: %w", length-int64(n), ErrCorrupt)
	}
	if err != nil {
		mm.Close()
		return fmt.Errorf("map: %w", err)
	}
	t.replace(lt, mm)
	t.loaded("map", start, n, "file", f.Name(), "offset", offset)
	return nil
}

func (t *Trie) loaded(how string, start time.Time, n int, fields ...interface{}) {
	t.stats.recordLoad(time.Since(start))
	LogLatency(t.log(), "load", start, append([]interface{}{
		"method", how,
		"bytes", n,
		"keys", t.lt.NumKeys(),
	}, fields...)...)
}
