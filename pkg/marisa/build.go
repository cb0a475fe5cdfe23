package marisa

import (
	"fmt"
	"iter"
	"time"

	"github.com/CVDpl/go-marisa/internal/trie"
)

// Build replaces t with a dictionary of keys, each with weight 1. Duplicate
// keys are stored once; their weights add up.
func (t *Trie) Build(keys iter.Seq[string], cfg Config) error {
	return t.BuildWeights(func(yield func(string, float32) bool) {
		for k := range keys {
			if !yield(k, 1) {
				return
			}
		}
	}, cfg)
}

// BuildWeights replaces t with a dictionary of weighted keys. With
// WeightOrder, heavier subtrees come first in predictive search and are
// favoured by the search cache.
func (t *Trie) BuildWeights(keys iter.Seq2[string, float32], cfg Config) error {
	flags, err := cfg.flags()
	if err != nil {
		return err
	}
	start := time.Now()

	var ks trie.Keyset
	for k, w := range keys {
		if err := ks.PushString(k, w); err != nil {
			return fmt.Errorf("key %d: %w", ks.Len(), err)
		}
	}

	lt, err := trie.Build(&ks, flags)
	if err != nil {
		LogError(t.log(), "dictionary build failed", err, "keys", ks.Len())
		return fmt.Errorf("build: %w", err)
	}
	t.replace(lt, nil)
	t.stats.recordBuild(time.Since(start))
	LogLatency(t.log(), "build", start,
		"keys", ks.Len(),
		"distinct", lt.NumKeys(),
		"nodes", lt.NumNodes(),
		"tries", lt.NumTries(),
		"io_size", lt.IOSize())
	return nil
}
