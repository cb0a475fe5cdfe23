package marisa

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"testing"
)

var fruit = []string{
	"apple", "application", "apply", "banana", "band", "bandana",
	"can", "candy", "cane", "a", "ap", "app",
}

func buildFruit(t *testing.T, cfg Config) *Trie {
	t.Helper()
	var tr Trie
	if err := tr.Build(slices.Values(fruit), cfg); err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	return &tr
}

func keysOf(ks []Key) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.Key
	}
	return out
}

func TestLookupRoundTrip(t *testing.T) {
	tr := buildFruit(t, Config{})
	if got := tr.Size(); got != uint32(len(fruit)) {
		t.Fatalf("Size = %d, want %d", got, len(fruit))
	}

	seen := make(map[uint32]string)
	for _, k := range fruit {
		id, ok, err := tr.Lookup(k)
		if err != nil || !ok {
			t.Fatalf("Lookup(%q) = %d, %v, %v", k, id, ok, err)
		}
		if id >= tr.Size() {
			t.Errorf("Lookup(%q) = %d, out of range", k, id)
		}
		if prev, dup := seen[id]; dup {
			t.Errorf("%q and %q share ID %d", prev, k, id)
		}
		seen[id] = k

		back, ok, err := tr.ReverseLookup(id)
		if err != nil || !ok || back != k {
			t.Errorf("ReverseLookup(%d) = %q, %v, %v; want %q", id, back, ok, err, k)
		}
	}

	for _, k := range []string{"", "b", "appl", "applications", "cans", "zebra"} {
		if _, ok, err := tr.Lookup(k); ok || err != nil {
			t.Errorf("Lookup(%q) found a key that was never added (err %v)", k, err)
		}
	}
	if _, ok, err := tr.ReverseLookup(tr.Size()); ok || err != nil {
		t.Errorf("ReverseLookup(Size()) = %v, %v", ok, err)
	}
}

func TestCommonPrefixSearch(t *testing.T) {
	tr := buildFruit(t, Config{NodeOrder: LabelOrder})

	got, err := tr.CommonPrefixSearch("application", -1)
	if err != nil {
		t.Fatalf("CommonPrefixSearch: %v", err)
	}
	want := []string{"a", "ap", "app", "application"}
	if !slices.Equal(keysOf(got), want) {
		t.Errorf("CommonPrefixSearch = %v, want %v", keysOf(got), want)
	}
	for _, k := range got {
		if id, _, _ := tr.Lookup(k.Key); id != k.ID {
			t.Errorf("%q reported ID %d, Lookup says %d", k.Key, k.ID, id)
		}
	}

	got, _ = tr.CommonPrefixSearch("application", 2)
	if !slices.Equal(keysOf(got), want[:2]) {
		t.Errorf("limited CommonPrefixSearch = %v", keysOf(got))
	}
	got, _ = tr.CommonPrefixSearch("xyz", -1)
	if len(got) != 0 {
		t.Errorf("CommonPrefixSearch(xyz) = %v", keysOf(got))
	}
}

func TestPredictiveSearchLabelOrder(t *testing.T) {
	tr := buildFruit(t, Config{NodeOrder: LabelOrder})

	got, err := tr.PredictiveSearch("ban", -1)
	if err != nil {
		t.Fatalf("PredictiveSearch: %v", err)
	}
	want := []string{"banana", "band", "bandana"}
	if !slices.Equal(keysOf(got), want) {
		t.Errorf("PredictiveSearch(ban) = %v, want %v", keysOf(got), want)
	}

	all, _ := tr.Dump(-1)
	sorted := slices.Clone(fruit)
	slices.Sort(sorted)
	if !slices.Equal(keysOf(all), sorted) {
		t.Errorf("Dump = %v, want %v", keysOf(all), sorted)
	}

	first, _ := tr.Dump(3)
	if !slices.Equal(keysOf(first), sorted[:3]) {
		t.Errorf("Dump(3) = %v", keysOf(first))
	}
	none, _ := tr.Dump(0)
	if len(none) != 0 {
		t.Errorf("Dump(0) = %v", keysOf(none))
	}
}

func TestWeightOrder(t *testing.T) {
	var tr Trie
	weights := map[string]float32{"ab": 1, "ac": 10, "ad": 5}
	err := tr.BuildWeights(func(yield func(string, float32) bool) {
		for _, k := range []string{"ab", "ac", "ad"} {
			if !yield(k, weights[k]) {
				return
			}
		}
	}, Config{NodeOrder: WeightOrder})
	if err != nil {
		t.Fatalf("BuildWeights: %v", err)
	}
	got, _ := tr.PredictiveSearch("a", -1)
	want := []string{"ac", "ad", "ab"}
	if !slices.Equal(keysOf(got), want) {
		t.Errorf("PredictiveSearch = %v, want %v", keysOf(got), want)
	}
}

func TestSeqAndIterator(t *testing.T) {
	tr := buildFruit(t, Config{NodeOrder: LabelOrder})

	var err error
	var got []string
	for _, k := range tr.PredictiveSearchSeq("can")(&err) {
		got = append(got, k)
	}
	if err != nil {
		t.Fatalf("PredictiveSearchSeq: %v", err)
	}
	if want := []string{"can", "candy", "cane"}; !slices.Equal(got, want) {
		t.Errorf("PredictiveSearchSeq = %v, want %v", got, want)
	}

	got = got[:0]
	for _, k := range tr.CommonPrefixSearchSeq("apply")(nil) {
		got = append(got, k)
		if k == "ap" {
			break
		}
	}
	if want := []string{"a", "ap"}; !slices.Equal(got, want) {
		t.Errorf("CommonPrefixSearchSeq = %v, want %v", got, want)
	}

	it := tr.PredictiveIter("band")
	defer it.Close()
	if !it.Next() || it.Key() != "band" {
		t.Fatalf("first result = %q", it.Key())
	}
	c := it.Clone()
	defer c.Close()
	if !it.Next() || it.Key() != "bandana" {
		t.Errorf("second result = %q", it.Key())
	}
	if !c.Next() || c.Key() != "bandana" || string(c.Bytes()) != "bandana" {
		t.Errorf("clone result = %q", c.Key())
	}
	if it.Next() || c.Next() {
		t.Error("iterators should be exhausted")
	}
	if err := it.Err(); err != nil {
		t.Errorf("Err: %v", err)
	}
}

func TestIteratorAfterClose(t *testing.T) {
	tr := buildFruit(t, Config{})
	it := tr.PredictiveIter("app")
	if !it.Next() {
		t.Fatal("no result for app")
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if it.Next() {
		t.Error("Next returned a result from a closed Trie")
	}
	if err := it.Err(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Err = %v, want ErrNotInitialized", err)
	}
	it.Close()
	if it.ID() != 0 || it.Key() != "" || it.Bytes() != nil || it.Next() {
		t.Errorf("closed iterator still yields %d %q", it.ID(), it.Key())
	}

	tr = buildFruit(t, Config{})
	cp := tr.CommonPrefixIter("apple")
	if !cp.Next() || cp.Key() != "a" {
		t.Fatalf("first prefix = %q", cp.Key())
	}
	cp.Close()
	cp.Close()
	if cp.Next() || cp.ID() != 0 || cp.Key() != "" {
		t.Errorf("closed iterator still yields %d %q", cp.ID(), cp.Key())
	}
	if err := cp.Err(); err != nil {
		t.Errorf("Err after Close = %v", err)
	}

	var rebuilt []string
	it = tr.PredictiveIter("ban")
	defer it.Close()
	for it.Next() {
		rebuilt = append(rebuilt, it.Key())
		if err := tr.Build(slices.Values([]string{"x"}), Config{}); err != nil {
			t.Fatalf("Build: %v", err)
		}
	}
	if len(rebuilt) != 1 || !errors.Is(it.Err(), ErrNotInitialized) {
		t.Errorf("search across a rebuild = %v, %v", rebuilt, it.Err())
	}
}

func TestMatchesNativeOutput(t *testing.T) {
	letters := func(yield func(string) bool) {
		for a := 'a'; a <= 'z'; a++ {
			for b := 'a'; b <= 'z'; b++ {
				for c := 'a'; c <= 'z'; c++ {
					if !yield(string(a) + string(b) + string(c)) {
						return
					}
				}
			}
		}
	}
	tests := []struct {
		name string
		sha  string
		keys iter.Seq[string]
	}{
		// printf | marisa-build | sha1sum -
		{"Empty", "1aa6c451104c2c1b24ecb66ecb84bde2403c49b1", slices.Values([]string{})},
		// echo | marisa-build | sha1sum -
		{"Blank", "db55aeb8613305b910d42cc00b56edb53e8a3ff0", slices.Values([]string{""})},
		// printf '%s\n' {a..z}{a..z}{a..z} | marisa-build | sha1sum -
		{"Letters", "bd9586bf7f6984ea693980058de34331f4e47eae", letters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tr Trie
			if err := tr.Build(tt.keys, Config{}); err != nil {
				t.Fatalf("Failed to build: %v", err)
			}
			buf, err := tr.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary: %v", err)
			}
			if sum := sha1.Sum(buf); hex.EncodeToString(sum[:]) != tt.sha {
				t.Errorf("sha1 %x does not match marisa-build 0.3.1 output %s", sum, tt.sha)
			}

			back, err := New(buf)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if back.Size() != tr.Size() {
				t.Errorf("reloaded Size = %d, want %d", back.Size(), tr.Size())
			}
		})
	}
}

func TestZeroTrie(t *testing.T) {
	var tr Trie
	if tr.Size() != 0 || tr.NumTries() != 0 || tr.DiskSize() != 0 {
		t.Errorf("zero Trie reports %v", &tr)
	}
	if _, ok, err := tr.Lookup("a"); ok || err != nil {
		t.Errorf("Lookup on zero Trie = %v, %v", ok, err)
	}
	if _, ok, err := tr.ReverseLookup(0); ok || err != nil {
		t.Errorf("ReverseLookup on zero Trie = %v, %v", ok, err)
	}
	if ks, err := tr.PredictiveSearch("", -1); len(ks) != 0 || err != nil {
		t.Errorf("PredictiveSearch on zero Trie = %v, %v", ks, err)
	}
	if _, err := tr.MarshalBinary(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("MarshalBinary on zero Trie: %v", err)
	}
	if err := tr.Save(t.TempDir() + "/x.marisa"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Save on zero Trie: %v", err)
	}
	if got := tr.String(); got != "*marisa.Trie(uninitialized)" {
		t.Errorf("String = %q", got)
	}
}

func TestEmptyKeySet(t *testing.T) {
	var tr Trie
	if err := tr.Build(slices.Values([]string(nil)), Config{}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tr.Size() != 0 {
		t.Errorf("Size = %d", tr.Size())
	}
	if _, ok, _ := tr.Lookup(""); ok {
		t.Error("empty dictionary contains the empty key")
	}
	data, err := tr.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	loaded, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if loaded.Size() != 0 {
		t.Errorf("loaded Size = %d", loaded.Size())
	}
}

func TestInvalidConfig(t *testing.T) {
	bad := []Config{
		{NumTries: MaxNumTries + 1},
		{NumTries: -1},
		{CacheLevel: TinyCache + 1},
		{TailMode: BinaryTail + 1},
		{NodeOrder: WeightOrder + 1},
	}
	for _, cfg := range bad {
		var tr Trie
		err := tr.Build(slices.Values(fruit), cfg)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Build(%+v) error = %v, want ErrInvalidArgument", cfg, err)
		}
	}
}

func TestConfigReported(t *testing.T) {
	tr := buildFruit(t, Config{NumTries: 1, CacheLevel: SmallCache, TailMode: BinaryTail, NodeOrder: LabelOrder})
	if tr.NumTries() != 1 {
		t.Errorf("NumTries = %d", tr.NumTries())
	}
	if tr.TailMode() != BinaryTail || tr.NodeOrder() != LabelOrder || tr.CacheLevel() != SmallCache {
		t.Errorf("reported %v %v %v", tr.TailMode(), tr.NodeOrder(), tr.CacheLevel())
	}

	for _, s := range []string{"huge", "tiny", "default"} {
		c, err := ParseCacheLevel(s)
		if err != nil || c.String() != s {
			t.Errorf("ParseCacheLevel(%q) = %v, %v", s, c, err)
		}
	}
	if _, err := ParseTailMode("gzip"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ParseTailMode(gzip): %v", err)
	}
	if o, err := ParseNodeOrder("weight"); err != nil || o != WeightOrder {
		t.Errorf("ParseNodeOrder(weight) = %v, %v", o, err)
	}
}

func TestConcurrentQueries(t *testing.T) {
	var tr Trie
	keys := make([]string, 2000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%05d", i)
	}
	if err := tr.Build(slices.Values(keys), Config{}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := w; i < len(keys); i += 8 {
				id, ok, _ := tr.Lookup(keys[i])
				if !ok {
					errs <- fmt.Errorf("lookup %q failed", keys[i])
					return
				}
				back, _, _ := tr.ReverseLookup(id)
				if back != keys[i] {
					errs <- fmt.Errorf("reverse lookup %d = %q, want %q", id, back, keys[i])
					return
				}
				if ks, _ := tr.CommonPrefixSearch(keys[i], -1); len(ks) != 1 {
					errs <- fmt.Errorf("%q has %d prefixes", keys[i], len(ks))
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	st := tr.Stats()
	if st.Lookups != uint64(len(keys)) || st.LookupHits != uint64(len(keys)) {
		t.Errorf("Stats lookups = %d hits = %d", st.Lookups, st.LookupHits)
	}
	if st.ReverseLookups != uint64(len(keys)) || st.CommonPrefixSearch != uint64(len(keys)) {
		t.Errorf("Stats reverse = %d cps = %d", st.ReverseLookups, st.CommonPrefixSearch)
	}
	if st.Builds != 1 {
		t.Errorf("Stats builds = %d", st.Builds)
	}
}
