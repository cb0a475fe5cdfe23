package marisa

import (
	"fmt"
	"iter"
	"time"

	"github.com/CVDpl/go-marisa/internal/trie"
)

// Key is a search result.
type Key struct {
	ID  uint32
	Key string
}

func (t *Trie) agent() *trie.Agent {
	if a, ok := t.agents.Get().(*trie.Agent); ok {
		return a
	}
	a := &trie.Agent{}
	_ = a.InitState() // a fresh agent has no state yet
	return a
}

func (t *Trie) release(a *trie.Agent) {
	a.SetQuery(nil)
	t.agents.Put(a)
}

// Lookup returns the ID of key.
func (t *Trie) Lookup(key string) (uint32, bool, error) {
	if t.lt == nil {
		return 0, false, nil
	}
	start := time.Now()
	a := t.agent()
	defer t.release(a)

	a.SetQueryString(key)
	ok := t.lt.Lookup(a)
	t.stats.recordLookup(ok, time.Since(start))
	if !ok {
		return 0, false, nil
	}
	return a.KeyID(), true, nil
}

// ReverseLookup returns the key with the given ID. IDs outside [0, Size())
// are not an error.
func (t *Trie) ReverseLookup(id uint32) (string, bool, error) {
	if t.lt == nil || id >= t.lt.NumKeys() {
		return "", false, nil
	}
	start := time.Now()
	a := t.agent()
	defer t.release(a)

	a.SetQueryID(id)
	if err := t.lt.ReverseLookup(a); err != nil {
		return "", false, err
	}
	t.stats.recordReverseLookup(time.Since(start))
	return string(a.Key()), true, nil
}

// CommonPrefixSearch returns up to limit keys that are prefixes of query,
// shortest first. A negative limit means no limit.
func (t *Trie) CommonPrefixSearch(query string, limit int) ([]Key, error) {
	return collect(t.CommonPrefixIter(query), limit)
}

// PredictiveSearch returns up to limit keys that start with query. A
// negative limit means no limit.
func (t *Trie) PredictiveSearch(query string, limit int) ([]Key, error) {
	return collect(t.PredictiveIter(query), limit)
}

// Dump returns up to limit keys in predictive search order. A negative
// limit means no limit.
func (t *Trie) Dump(limit int) ([]Key, error) {
	return t.PredictiveSearch("", limit)
}

func collect(it *Iterator, limit int) ([]Key, error) {
	defer it.Close()
	if it.t == nil {
		return nil, nil
	}
	var out []Key
	for limit != 0 && it.Next() {
		out = append(out, Key{ID: it.ID(), Key: it.Key()})
		limit--
	}
	return out, it.Err()
}

// CommonPrefixSearchSeq is CommonPrefixSearch as an iterator. Any error is
// stored in the pointer passed to the returned function once iteration
// stops.
func (t *Trie) CommonPrefixSearchSeq(query string) func(*error) iter.Seq2[uint32, string] {
	return seq(func() *Iterator { return t.CommonPrefixIter(query) })
}

// PredictiveSearchSeq is PredictiveSearch as an iterator.
func (t *Trie) PredictiveSearchSeq(query string) func(*error) iter.Seq2[uint32, string] {
	return seq(func() *Iterator { return t.PredictiveIter(query) })
}

// DumpSeq is Dump as an iterator.
func (t *Trie) DumpSeq() func(*error) iter.Seq2[uint32, string] {
	return t.PredictiveSearchSeq("")
}

func seq(open func() *Iterator) func(*error) iter.Seq2[uint32, string] {
	return func(errp *error) iter.Seq2[uint32, string] {
		return func(yield func(uint32, string) bool) {
			it := open()
			defer it.Close()
			for it.Next() {
				if !yield(it.ID(), it.Key()) {
					break
				}
			}
			if errp != nil {
				*errp = it.Err()
			}
		}
	}
}

type searchKind int

const (
	commonPrefixSearch searchKind = iota
	predictiveSearch
)

// Iterator steps through the results of a search. It must be closed to
// return its resources, and must not be used by more than one goroutine.
type Iterator struct {
	t     *Trie
	lt    *trie.LoudsTrie
	a     *trie.Agent
	kind  searchKind
	query string
	done  bool
	n     int
	err   error
}

// CommonPrefixIter starts a search for keys that are prefixes of query.
func (t *Trie) CommonPrefixIter(query string) *Iterator {
	return t.newIterator(commonPrefixSearch, query)
}

// PredictiveIter starts a search for keys that start with query.
func (t *Trie) PredictiveIter(query string) *Iterator {
	return t.newIterator(predictiveSearch, query)
}

func (t *Trie) newIterator(kind searchKind, query string) *Iterator {
	if t.lt == nil {
		return &Iterator{done: true}
	}
	it := &Iterator{t: t, lt: t.lt, a: t.agent(), kind: kind, query: query}
	it.a.SetQueryString(query)
	switch kind {
	case commonPrefixSearch:
		t.stats.recordCommonPrefixSearch()
	case predictiveSearch:
		t.stats.recordPredictiveSearch()
	}
	return it
}

// Next advances to the next result. It returns false, and Err reports
// ErrNotInitialized, if the Trie was closed or replaced since the search
// started.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if it.t.lt != it.lt {
		it.err = fmt.Errorf("search: dictionary closed or replaced: %w", ErrNotInitialized)
		it.done = true
		return false
	}
	var ok bool
	switch it.kind {
	case commonPrefixSearch:
		ok = it.lt.CommonPrefixSearch(it.a)
	case predictiveSearch:
		ok = it.lt.PredictiveSearch(it.a)
	}
	if !ok {
		it.done = true
		return false
	}
	it.n++
	return true
}

// ID returns the key ID of the current result, or 0 once the iterator is
// closed.
func (it *Iterator) ID() uint32 {
	if it.a == nil {
		return 0
	}
	return it.a.KeyID()
}

// Key returns the current result, or "" once the iterator is closed.
func (it *Iterator) Key() string {
	if it.a == nil {
		return ""
	}
	if it.kind == commonPrefixSearch {
		// Results are prefixes of the query.
		return it.query[:len(it.a.Key())]
	}
	return string(it.a.Key())
}

// Bytes returns the current result without copying. It is valid until the
// next call to Next.
func (it *Iterator) Bytes() []byte {
	if it.a == nil {
		return nil
	}
	return it.a.Key()
}

func (it *Iterator) Err() error { return it.err }

// Clone returns an iterator that continues independently from the current
// position.
func (it *Iterator) Clone() *Iterator {
	c := *it
	if it.a != nil {
		c.a = it.a.Clone()
	}
	return &c
}

// Close ends the search. It is safe to call more than once.
func (it *Iterator) Close() error {
	if it.a != nil {
		it.t.stats.recordKeys(it.n)
		it.t.release(it.a)
		it.a = nil
	}
	it.done = true
	return nil
}
