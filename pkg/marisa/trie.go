// Package marisa implements MARISA, a static and space-efficient trie
// dictionary. Keys are byte strings; each distinct key gets a dense ID in
// [0, Size()). Dictionaries are built once from a key set and are immutable
// afterwards. The on-disk format is compatible with marisa-trie 0.3.
package marisa

import (
	"fmt"
	"sync"

	"github.com/CVDpl/go-marisa/internal/trie"
	"github.com/CVDpl/go-marisa/pkg/marisa/utils"
)

// Trie is a read-only MARISA dictionary.
//
// The zero value is an empty, uninitialized dictionary on which every query
// returns nothing. Queries may run concurrently with each other. Build, the
// load methods and Close replace the dictionary and must not run
// concurrently with anything else on the same Trie.
type Trie struct {
	noCopy noCopy

	lt     *trie.LoudsTrie
	mm     *utils.MemoryMap
	logger Logger
	stats  *StatsCollector
	agents sync.Pool
}

// noCopy may be embedded into structs which must not be copied after the
// first use. See go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// SetLogger sets the destination of the dictionary's events.
func (t *Trie) SetLogger(l Logger) { t.logger = l }

func (t *Trie) log() Logger {
	if t.logger == nil {
		return NewNullLogger()
	}
	return t.logger
}

func (t *Trie) collector() *StatsCollector {
	if t.stats == nil {
		t.stats = NewStatsCollector()
	}
	return t.stats
}

// Stats returns query counters for t.
func (t *Trie) Stats() Stats { return t.collector().GetStats() }

// replace installs a new dictionary and releases the previous mapping.
func (t *Trie) replace(lt *trie.LoudsTrie, mm *utils.MemoryMap) {
	old := t.mm
	t.lt, t.mm = lt, mm
	t.agents = sync.Pool{}
	t.collector()
	if old != nil {
		if err := old.Close(); err != nil {
			LogError(t.log(), "failed to unmap dictionary", err)
		}
	}
}

// Close releases the memory mapping behind t, if any, and resets t to the
// zero dictionary.
func (t *Trie) Close() error {
	var err error
	if t.mm != nil {
		err = t.mm.Close()
		t.mm = nil
	}
	if t.lt != nil {
		t.log().Debug("dictionary closed", "keys", t.lt.NumKeys())
	}
	t.lt = nil
	t.agents = sync.Pool{}
	return err
}

// Mapped reports whether t aliases a memory mapping.
func (t *Trie) Mapped() bool { return t.mm != nil }

// Size returns the number of distinct keys.
func (t *Trie) Size() uint32 {
	if t.lt == nil {
		return 0
	}
	return t.lt.NumKeys()
}

// DiskSize returns the serialized size in bytes.
func (t *Trie) DiskSize() uint64 {
	if t.lt == nil {
		return 0
	}
	return t.lt.IOSize()
}

// TotalSize returns the in-memory size of the dictionary structures.
func (t *Trie) TotalSize() uint64 {
	if t.lt == nil {
		return 0
	}
	return t.lt.TotalSize()
}

// NumTries returns the number of trie levels.
func (t *Trie) NumTries() int {
	if t.lt == nil {
		return 0
	}
	return t.lt.NumTries()
}

// NumNodes returns the number of nodes in the first trie level.
func (t *Trie) NumNodes() uint32 {
	if t.lt == nil {
		return 0
	}
	return t.lt.NumNodes()
}

func (t *Trie) TailMode() TailMode {
	if t.lt == nil {
		return DefaultTail
	}
	return tailModeOf(t.lt.TailMode())
}

func (t *Trie) NodeOrder() NodeOrder {
	if t.lt == nil {
		return DefaultOrder
	}
	return nodeOrderOf(t.lt.NodeOrder())
}

// CacheLevel returns the cache level of a dictionary built in this process.
// The level is not persisted, so loaded dictionaries report NormalCache.
func (t *Trie) CacheLevel() CacheLevel {
	if t.lt == nil {
		return DefaultCache
	}
	return cacheLevelOf(t.lt.CacheLevel())
}

func (t *Trie) String() string {
	if t.lt == nil {
		return "*marisa.Trie(uninitialized)"
	}
	return fmt.Sprintf("*marisa.Trie(size=%d io_size=%d total_size=%d num_tries=%d num_nodes=%d tail_mode=%s node_order=%s)",
		t.Size(), t.DiskSize(), t.TotalSize(), t.NumTries(), t.NumNodes(), t.TailMode(), t.NodeOrder())
}
