// Command marisa-benchmark builds dictionaries with a range of trie counts
// and measures build and query speed on the input keys.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"fortio.org/cli"
	"fortio.org/log"
	"github.com/c2h5oh/datasize"

	"github.com/CVDpl/go-marisa/internal/cmdutil"
	"github.com/CVDpl/go-marisa/pkg/marisa"
)

func main() {
	os.Exit(Main())
}

var cacheLevels = map[int]marisa.CacheLevel{
	1: marisa.TinyCache,
	2: marisa.SmallCache,
	3: marisa.NormalCache,
	4: marisa.LargeCache,
	5: marisa.HugeCache,
}

const rule = "------+------------+--------+--------+--------+--------+--------"

type bench struct {
	keys      []string
	weights   []float32
	printTime bool
	predict   bool
}

func Main() int {
	minTries := flag.Int("N", 1, "minimum number of tries")
	maxTries := flag.Int("n", 5, "maximum number of tries")
	binaryTail := flag.Bool("b", false, "build dictionaries with binary TAIL")
	labelOrder := flag.Bool("l", false, "arrange siblings in label order")
	cacheLevel := flag.Int("c", 3, "specify the cache size [1, 5]")
	predictOff := flag.Bool("p", false, "skip predictive search")
	printTime := flag.Bool("s", false, "print time [ns/key] instead of speed [1000 keys/s]")
	cli.ArgsHelp = "key files... (stdin when none or -)"
	cli.MaxArgs = -1
	cli.Main()

	if *minTries < marisa.MinNumTries || *maxTries > marisa.MaxNumTries || *minTries > *maxTries {
		return log.FErrf("Invalid trie range [%d, %d]", *minTries, *maxTries)
	}
	cfg := marisa.Config{TailMode: marisa.TextTail, NodeOrder: marisa.WeightOrder}
	if *binaryTail {
		cfg.TailMode = marisa.BinaryTail
	}
	if *labelOrder {
		cfg.NodeOrder = marisa.LabelOrder
	}
	level, ok := cacheLevels[*cacheLevel]
	if !ok {
		return log.FErrf("Option -c with an invalid argument: %d", *cacheLevel)
	}
	cfg.CacheLevel = level

	b := bench{printTime: *printTime, predict: !*predictOff}
	var total datasize.ByteSize
	for key, weight := range cmdutil.ReadKeyFiles(flag.Args()) {
		b.keys = append(b.keys, key)
		b.weights = append(b.weights, weight)
		total += datasize.ByteSize(len(key))
	}

	fmt.Printf("Number of tries: %d - %d\n", *minTries, *maxTries)
	fmt.Printf("TAIL mode: %s\n", cfg.TailMode)
	fmt.Printf("Node order: %s\n", cfg.NodeOrder)
	fmt.Printf("Cache level: %s\n", cfg.CacheLevel)
	fmt.Printf("Number of keys: %d\n", len(b.keys))
	fmt.Printf("Total length: %s\n", total.HR())

	unit := "[K/s]"
	if b.printTime {
		unit = "[ns]"
	}
	fmt.Println(rule)
	fmt.Printf("%6s %12s %8s %8s %8s %8s %8s\n", "#tries", "size", "build", "lookup", "reverse", "prefix", "predict")
	fmt.Printf("%6s %12s %8s %8s %8s %8s %8s\n", "", "", "", "", "lookup", "search", "search")
	fmt.Printf("%6s %12s %8s %8s %8s %8s %8s\n", "", "", unit, unit, unit, unit, unit)
	fmt.Println(rule)
	for n := *minTries; n <= *maxTries; n++ {
		cfg.NumTries = n
		if err := b.run(cfg); err != nil {
			fmt.Println()
			return log.FErrf("Benchmark with %d tries failed: %v", n, err)
		}
		fmt.Println()
	}
	fmt.Println(rule)
	return 0
}

// timed prints the speed or the per key time of fn over n keys.
func (b *bench) timed(n int, fn func() error) error {
	start := time.Now()
	if err := fn(); err != nil {
		return err
	}
	b.printElapsed(n, time.Since(start))
	return nil
}

func (b *bench) printElapsed(n int, elapsed time.Duration) {
	switch {
	case elapsed == 0 || n == 0:
		fmt.Printf(" %8s", "-")
	case b.printTime:
		fmt.Printf(" %8.1f", float64(elapsed.Nanoseconds())/float64(n))
	default:
		fmt.Printf(" %8.2f", float64(n)/elapsed.Seconds()/1000)
	}
}

func (b *bench) run(cfg marisa.Config) error {
	fmt.Printf("%6d", cfg.NumTries)

	var trie marisa.Trie
	start := time.Now()
	err := trie.BuildWeights(func(yield func(string, float32) bool) {
		for i, k := range b.keys {
			if !yield(k, b.weights[i]) {
				return
			}
		}
	}, cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	fmt.Printf(" %12s", datasize.ByteSize(trie.DiskSize()).HR())
	b.printElapsed(len(b.keys), elapsed)

	keys, err := trie.Dump(-1)
	if err != nil {
		return err
	}
	if len(keys) != int(trie.Size()) {
		return fmt.Errorf("dump returned %d of %d keys", len(keys), trie.Size())
	}
	byID := make([]string, len(keys))
	for _, k := range keys {
		byID[k.ID] = k.Key
	}
	if len(keys) == 0 {
		return nil
	}

	err = b.timed(len(keys), func() error {
		for _, k := range keys {
			id, ok, err := trie.Lookup(k.Key)
			if err != nil {
				return err
			}
			if !ok || id != k.ID {
				return fmt.Errorf("lookup of %q failed", k.Key)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	err = b.timed(len(keys), func() error {
		for _, k := range keys {
			key, ok, err := trie.ReverseLookup(k.ID)
			if err != nil {
				return err
			}
			if !ok || key != k.Key {
				return fmt.Errorf("reverse lookup of %d failed", k.ID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	err = b.timed(len(keys), func() error {
		for _, k := range keys {
			var err error
			for id, key := range trie.CommonPrefixSearchSeq(k.Key)(&err) {
				if byID[id] != key || !strings.HasPrefix(k.Key, key) {
					return fmt.Errorf("common prefix search of %q returned %q", k.Key, key)
				}
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || !b.predict {
		return err
	}
	return b.timed(len(keys), func() error {
		for _, k := range keys {
			var err error
			for id, key := range trie.PredictiveSearchSeq(k.Key)(&err) {
				if byID[id] != key || !strings.HasPrefix(key, k.Key) {
					return fmt.Errorf("predictive search of %q returned %q", k.Key, key)
				}
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
