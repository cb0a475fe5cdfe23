// Package cmdutil holds the pieces shared by the marisa-* commands.
package cmdutil

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fortio.org/log"

	"github.com/CVDpl/go-marisa/pkg/marisa"
)

// maxLine bounds the length of one input line.
const maxLine = 64 << 20

// DictionaryFlags selects how a command loads its dictionary.
type DictionaryFlags struct {
	Mmap *bool
	Read *bool
}

// RegisterDictionaryFlags adds -m and -r to the default flag set.
func RegisterDictionaryFlags() *DictionaryFlags {
	return &DictionaryFlags{
		Mmap: flag.Bool("m", false, "use memory-mapped i/o to load the dictionary (exclusive with -r)"),
		Read: flag.Bool("r", false, "read the entire dictionary into memory (exclusive with -m)"),
	}
}

// Open loads the dictionary name. Without -m or -r it maps the file where
// the platform supports it and reads it otherwise.
func (d *DictionaryFlags) Open(name string) (*marisa.Trie, error) {
	if *d.Mmap && *d.Read {
		return nil, errors.New("-m and -r are exclusive")
	}
	opts := marisa.DefaultOptions()
	opts.Logger = Logger{}
	opts.DisableMmap = *d.Read
	t, err := marisa.Open(name, opts)
	if err != nil {
		return nil, err
	}
	if *d.Mmap && !t.Mapped() {
		t.Close()
		return nil, fmt.Errorf("%s: memory mapping is not supported on this platform", name)
	}
	log.LogVf("loaded %v", t)
	return t, nil
}

// ReadKeys calls yield for each line of r. A trailing tab followed by a
// number sets the weight of the key; otherwise the weight is 1. It returns
// false if yield stopped the iteration.
func ReadKeys(r io.Reader, yield func(string, float32) bool) (bool, error) {
	sc := Scanner(r)
	for sc.Scan() {
		key, weight := ParseKeyLine(sc.Text())
		if !yield(key, weight) {
			return false, nil
		}
	}
	return true, sc.Err()
}

// ParseKeyLine splits a "key\tweight" line.
func ParseKeyLine(line string) (string, float32) {
	if i := strings.LastIndexByte(line, '\t'); i != -1 {
		if v, err := strconv.ParseFloat(line[i+1:], 32); err == nil {
			return line[:i], float32(v)
		}
	}
	return line, 1
}

// Scanner returns a line scanner that accepts long keys.
func Scanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	return sc
}

// ReadKeyFiles reads weighted keys from each named file, "-" being stdin.
// No names means stdin.
func ReadKeyFiles(names []string) func(yield func(string, float32) bool) {
	if len(names) == 0 {
		names = []string{"-"}
	}
	return func(yield func(string, float32) bool) {
		for _, name := range names {
			more, err := readKeyFile(name, yield)
			if err != nil {
				log.Fatalf("failed to read keys from %q: %v", name, err)
			}
			if !more {
				return
			}
		}
	}
}

func readKeyFile(name string, yield func(string, float32) bool) (bool, error) {
	if name == "-" {
		return ReadKeys(os.Stdin, yield)
	}
	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return ReadKeys(f, yield)
}

// Logger forwards library events to fortio.org/log.
type Logger struct{}

func (Logger) Debug(msg string, fields ...interface{}) { log.Debugf("%s%s", msg, formatFields(fields)) }
func (Logger) Info(msg string, fields ...interface{})  { log.Infof("%s%s", msg, formatFields(fields)) }
func (Logger) Warn(msg string, fields ...interface{})  { log.Warnf("%s%s", msg, formatFields(fields)) }
func (Logger) Error(msg string, fields ...interface{}) { log.Errf("%s%s", msg, formatFields(fields)) }

func formatFields(fields []interface{}) string {
	var sb strings.Builder
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", fields[i], fields[i+1])
	}
	return sb.String()
}

// SearchLoop runs search on each line of in and writes "N found" followed by
// at most limit "id\tkey" lines, or "not found". A negative limit prints
// every result.
func SearchLoop(in io.Reader, out io.Writer, limit int, search func(string) ([]marisa.Key, error)) error {
	w := bufio.NewWriter(out)
	sc := Scanner(in)
	for sc.Scan() {
		keys, err := search(sc.Text())
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Fprintln(w, "not found")
			continue
		}
		fmt.Fprintf(w, "%d found\n", len(keys))
		for i, k := range keys {
			if limit >= 0 && i >= limit {
				break
			}
			fmt.Fprintf(w, "%d\t%s\n", k.ID, k.Key)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return w.Flush()
}
