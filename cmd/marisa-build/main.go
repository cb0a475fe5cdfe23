// Command marisa-build builds a dictionary from newline separated keys.
// A key may be followed by a tab and a weight.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"fortio.org/cli"
	"fortio.org/log"
	"fortio.org/struct2env"

	"github.com/CVDpl/go-marisa/internal/cmdutil"
	"github.com/CVDpl/go-marisa/pkg/marisa"
)

func main() {
	os.Exit(Main())
}

// Config holds the build defaults, which MARISA_* environment variables
// override and flags override in turn.
type Config struct {
	NumTries int
	Cache    string
	Tail     string
	Order    string
}

var config = Config{
	NumTries: 3,
	Cache:    marisa.NormalCache.String(),
	Tail:     marisa.TextTail.String(),
	Order:    marisa.WeightOrder.String(),
}

func EnvHelp(w io.Writer) {
	res, _ := struct2env.StructToEnvVars(config)
	str := struct2env.ToShellWithPrefix("MARISA_", res, true)
	fmt.Fprintln(w, "# marisa-build environment variables:")
	fmt.Fprint(w, str)
}

// cacheLevels maps -c values to cache levels.
var cacheLevels = map[int]marisa.CacheLevel{
	1: marisa.TinyCache,
	2: marisa.SmallCache,
	3: marisa.NormalCache,
	4: marisa.LargeCache,
	5: marisa.HugeCache,
}

func Main() int {
	cli.EnvHelpFuncs = append(cli.EnvHelpFuncs, EnvHelp)
	if errs := struct2env.SetFromEnv("MARISA_", &config); len(errs) > 0 {
		log.Errf("Error setting config from env: %v", errs)
	}
	cfg, err := config.build()
	if err != nil {
		return log.FErrf("Invalid MARISA_* environment: %v", err)
	}
	defaultCache := 3
	for c, l := range cacheLevels {
		if l == cfg.CacheLevel {
			defaultCache = c
		}
	}

	numTries := flag.Int("n", cfg.NumTries, fmt.Sprintf("limit the number of tries [%d, %d]", marisa.MinNumTries, marisa.MaxNumTries))
	textTail := flag.Bool("t", false, "build a dictionary with text TAIL")
	binaryTail := flag.Bool("b", false, "build a dictionary with binary TAIL (exclusive with -t)")
	weightOrder := flag.Bool("w", false, "arrange siblings in weight order")
	labelOrder := flag.Bool("l", false, "arrange siblings in label order (exclusive with -w)")
	cacheLevel := flag.Int("c", defaultCache, "specify the cache size [1, 5]")
	output := flag.String("o", "", "write the dictionary to `file` instead of stdout")
	infoFile := flag.String("info", "", "also write a JSON description with a BLAKE3 digest to `file`")
	cli.ArgsHelp = "key files... (stdin when none or -)"
	cli.MaxArgs = -1
	cli.Main()

	if *numTries < marisa.MinNumTries || *numTries > marisa.MaxNumTries {
		return log.FErrf("Option -n with an invalid argument: %d", *numTries)
	}
	cfg.NumTries = *numTries
	switch {
	case *textTail && *binaryTail:
		return log.FErrf("Options -t and -b are exclusive")
	case *textTail:
		cfg.TailMode = marisa.TextTail
	case *binaryTail:
		cfg.TailMode = marisa.BinaryTail
	}
	switch {
	case *weightOrder && *labelOrder:
		return log.FErrf("Options -w and -l are exclusive")
	case *weightOrder:
		cfg.NodeOrder = marisa.WeightOrder
	case *labelOrder:
		cfg.NodeOrder = marisa.LabelOrder
	}
	level, ok := cacheLevels[*cacheLevel]
	if !ok {
		return log.FErrf("Option -c with an invalid argument: %d", *cacheLevel)
	}
	cfg.CacheLevel = level

	var trie marisa.Trie
	trie.SetLogger(cmdutil.Logger{})
	if err := trie.BuildWeights(cmdutil.ReadKeyFiles(flag.Args()), cfg); err != nil {
		return log.FErrf("Failed to build a dictionary: %v", err)
	}
	fmt.Fprintf(os.Stderr, "#keys: %d\n", trie.Size())
	fmt.Fprintf(os.Stderr, "#nodes: %d\n", trie.NumNodes())
	fmt.Fprintf(os.Stderr, "size: %d\n", trie.DiskSize())

	if *output == "" || *output == "-" {
		if _, err := trie.WriteTo(os.Stdout); err != nil {
			return log.FErrf("Failed to write the dictionary to stdout: %v", err)
		}
	} else if err := trie.Save(*output); err != nil {
		return log.FErrf("Failed to write the dictionary: %v", err)
	}

	if *infoFile != "" {
		info, err := trie.Info()
		if err != nil {
			return log.FErrf("Failed to describe the dictionary: %v", err)
		}
		if err := info.SaveToFile(*infoFile); err != nil {
			return log.FErrf("Failed to write %s: %v", *infoFile, err)
		}
		log.Infof("Wrote %s (blake3 %s)", *infoFile, info.Blake3)
	}
	return 0
}

func (c Config) build() (marisa.Config, error) {
	var cfg marisa.Config
	var err error
	cfg.NumTries = c.NumTries
	if cfg.CacheLevel, err = marisa.ParseCacheLevel(c.Cache); err != nil {
		return cfg, err
	}
	if cfg.TailMode, err = marisa.ParseTailMode(c.Tail); err != nil {
		return cfg, err
	}
	if cfg.NodeOrder, err = marisa.ParseNodeOrder(c.Order); err != nil {
		return cfg, err
	}
	return cfg, nil
}
