// Command marisa-check verifies dictionary files: every key must round
// trip through lookup and reverse lookup, key IDs must be dense, and the
// file must match its JSON description when one exists.
package main

import (
	"flag"
	"fmt"
	"os"

	"fortio.org/cli"
	"fortio.org/log"
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/c2h5oh/datasize"

	"github.com/CVDpl/go-marisa/internal/cmdutil"
	"github.com/CVDpl/go-marisa/pkg/marisa"
)

func main() {
	os.Exit(Main())
}

func Main() int {
	infoSuffix := flag.String("info-suffix", ".json", "suffix of the description file checked next to each dictionary, empty to skip")
	dict := cmdutil.RegisterDictionaryFlags()
	cli.ArgsHelp = "dictionaries..."
	cli.MinArgs = 1
	cli.MaxArgs = -1
	cli.Main()

	failed := 0
	for _, name := range flag.Args() {
		if err := check(dict, name, *infoSuffix); err != nil {
			log.Errf("%s: %v", name, err)
			failed++
		}
	}
	if failed > 0 {
		return log.FErrf("%d of %d dictionaries failed", failed, flag.NArg())
	}
	return 0
}

func check(dict *cmdutil.DictionaryFlags, name, infoSuffix string) error {
	trie, err := dict.Open(name)
	if err != nil {
		return err
	}
	defer trie.Close()

	ids := roaring.New()
	var dumpErr error
	for id, key := range trie.DumpSeq()(&dumpErr) {
		got, ok, err := trie.Lookup(key)
		if err != nil {
			return err
		}
		if !ok || got != id {
			return fmt.Errorf("key %q has ID %d but looks up as %d (found %v)", key, id, got, ok)
		}
		back, _, err := trie.ReverseLookup(id)
		if err != nil {
			return err
		}
		if back != key {
			return fmt.Errorf("ID %d reverses to %q, want %q", id, back, key)
		}
		if !ids.CheckedAdd(id) {
			return fmt.Errorf("ID %d returned twice", id)
		}
	}
	if dumpErr != nil {
		return dumpErr
	}
	if ids.GetCardinality() != uint64(trie.Size()) {
		return fmt.Errorf("dump returned %d keys, dictionary has %d", ids.GetCardinality(), trie.Size())
	}
	if !ids.IsEmpty() && ids.Maximum() != trie.Size()-1 {
		return fmt.Errorf("key IDs are not dense: maximum %d for %d keys", ids.Maximum(), trie.Size())
	}

	if infoSuffix != "" {
		path := name + infoSuffix
		if _, err := os.Stat(path); err == nil {
			info, err := marisa.LoadInfo(path)
			if err != nil {
				return err
			}
			if err := info.Verify(name); err != nil {
				return err
			}
			if info.Keys != trie.Size() {
				return fmt.Errorf("%s records %d keys, dictionary has %d", path, info.Keys, trie.Size())
			}
			log.Infof("%s: matches %s (blake3 %s)", name, path, info.Blake3)
		}
	}

	log.Infof("%s: ok, %d keys, %d tries, %d nodes, %s on disk, %s in memory", name,
		trie.Size(), trie.NumTries(), trie.NumNodes(),
		datasize.ByteSize(trie.DiskSize()).HR(), datasize.ByteSize(trie.TotalSize()).HR())
	return nil
}
