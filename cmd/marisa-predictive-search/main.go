// Command marisa-predictive-search prints the keys of a dictionary that start
// with each line of stdin.
package main

import (
	"flag"
	"os"

	"fortio.org/cli"
	"fortio.org/log"

	"github.com/CVDpl/go-marisa/internal/cmdutil"
	"github.com/CVDpl/go-marisa/pkg/marisa"
)

func main() {
	os.Exit(Main())
}

func Main() int {
	limit := flag.Int("n", 10, "limit the number of printed results, -1 for all")
	dict := cmdutil.RegisterDictionaryFlags()
	cli.ArgsHelp = "dictionary"
	cli.MinArgs = 1
	cli.MaxArgs = 1
	cli.Main()

	trie, err := dict.Open(flag.Arg(0))
	if err != nil {
		return log.FErrf("Failed to load dictionary: %v", err)
	}
	defer trie.Close()

	err = cmdutil.SearchLoop(os.Stdin, os.Stdout, *limit, func(q string) ([]marisa.Key, error) {
		return trie.PredictiveSearch(q, -1)
	})
	if err != nil {
		return log.FErrf("Predictive search failed: %v", err)
	}
	return 0
}
