// Command marisa-dump prints every key of one or more dictionaries.
package main

import (
	"bufio"
	"flag"
	"fmt"
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
	delimiter := flag.String("d", "\n", "key `delimiter`")
	dict := cmdutil.RegisterDictionaryFlags()
	cli.ArgsHelp = "dictionaries... (stdin when none or -)"
	cli.MaxArgs = -1
	cli.Main()

	names := flag.Args()
	if len(names) == 0 {
		names = []string{"-"}
	}
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for _, name := range names {
		if code := dump(out, dict, name, *delimiter); code != 0 {
			return code
		}
	}
	return 0
}

func dump(out *bufio.Writer, dict *cmdutil.DictionaryFlags, name, delimiter string) int {
	var trie *marisa.Trie
	var err error
	if name == "-" {
		fmt.Fprintln(os.Stderr, "input: <stdin>")
		trie, err = marisa.Load(bufio.NewReader(os.Stdin))
	} else {
		fmt.Fprintf(os.Stderr, "input: %s\n", name)
		trie, err = dict.Open(name)
	}
	if err != nil {
		return log.FErrf("Failed to load dictionary %q: %v", name, err)
	}
	defer trie.Close()

	var keys int
	for _, key := range trie.DumpSeq()(&err) {
		out.WriteString(key)
		out.WriteString(delimiter)
		keys++
	}
	if err != nil {
		return log.FErrf("Failed to dump dictionary %q: %v", name, err)
	}
	if err := out.Flush(); err != nil {
		return log.FErrf("Failed to write keys: %v", err)
	}
	fmt.Fprintf(os.Stderr, "#keys: %d\n", keys)
	return 0
}
