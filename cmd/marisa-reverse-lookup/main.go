// Command marisa-reverse-lookup prints the key for each key ID read from
// stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"fortio.org/cli"
	"fortio.org/log"
	"fortio.org/safecast"

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
		line := strings.TrimSpace(sc.Text())
		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			log.Warnf("Ignoring %q: not a key ID", line)
			continue
		}
		id, err := safecast.Convert[uint32](n)
		if err != nil || id >= trie.Size() {
			fmt.Fprintf(out, "%d\tnot found\n", n)
			continue
		}
		key, _, err := trie.ReverseLookup(id)
		if err != nil {
			return log.FErrf("Reverse lookup of %d failed: %v", id, err)
		}
		fmt.Fprintf(out, "%d\t%s\n", id, key)
	}
	if err := sc.Err(); err != nil {
		return log.FErrf("Failed to read key IDs: %v", err)
	}
	if err := out.Flush(); err != nil {
		return log.FErrf("Failed to write results: %v", err)
	}
	return 0
}
