// Command marisa-lookup looks up each line of stdin in a dictionary and
// prints its key ID, or -1 when the key is missing.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"fortio.org/cli"
	"fortio.org/log"

	"github.com/CVDpl/go-marisa/internal/cmdutil"
)

func main() {
	os.Exit(Main())
}

func Main() int {
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

	out := bufio.NewWriter(os.Stdout)
	sc := cmdutil.Scanner(os.Stdin)
	for sc.Scan() {
		id, ok, err := trie.Lookup(sc.Text())
		if err != nil {
			return log.FErrf("Lookup failed: %v", err)
		}
		if ok {
			fmt.Fprintf(out, "%d\t%s\n", id, sc.Text())
		} else {
			fmt.Fprintf(out, "-1\t%s\n", sc.Text())
		}
	}
	if err := sc.Err(); err != nil {
		return log.FErrf("Failed to read queries: %v", err)
	}
	if err := out.Flush(); err != nil {
		return log.FErrf("Failed to write results: %v", err)
	}
	return 0
}
