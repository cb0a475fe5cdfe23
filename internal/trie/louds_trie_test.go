package trie

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CVDpl/go-marisa/internal/common"
)

type weightedKey struct {
	key    string
	weight float32
}

var slashKeys = []weightedKey{
	{"a/b/c", 1},
	{"b/c/d", 2},
	{"b/a/d", 1.5},
	{"b/c/e", 1.5},
	{"b/x/a", 1},
	{"b/x/b", 1},
	{"b/x/c", 2},
	{"b/x/d", 1},
	{"a/b", 1},
	{"a", 1},
	{"b", 1},
	{"c", 1}, {"c", 1}, {"c", 1}, {"c", 1}, {"c", 1}, {"c", 1},
	{"c", 1}, {"c", 1}, {"c", 1}, {"c", 1}, {"c", 1},
}

func buildTestTrie(t testing.TB, keys []string, flags int) (*LoudsTrie, *Keyset) {
	t.Helper()
	var ks Keyset
	for _, k := range keys {
		require.NoError(t, ks.PushString(k, 1))
	}
	lt, err := Build(&ks, flags)
	require.NoError(t, err)
	return lt, &ks
}

func buildWeightedTrie(t testing.TB, keys []weightedKey, flags int) *LoudsTrie {
	t.Helper()
	var ks Keyset
	for _, k := range keys {
		require.NoError(t, ks.PushString(k.key, k.weight))
	}
	lt, err := Build(&ks, flags)
	require.NoError(t, err)
	return lt
}

func newAgent(t testing.TB) *Agent {
	t.Helper()
	a := &Agent{}
	require.NoError(t, a.InitState())
	return a
}

// dump returns every key in predictive search order.
func dump(t testing.TB, lt *LoudsTrie) []string {
	t.Helper()
	return predict(t, lt, "")
}

func predict(t testing.TB, lt *LoudsTrie, prefix string) []string {
	t.Helper()
	a := newAgent(t)
	a.SetQuery([]byte(prefix))
	var out []string
	for lt.PredictiveSearch(a) {
		out = append(out, string(a.Key()))
	}
	return out
}

func randomKeys(rng *rand.Rand, n, maxLen int, alphabet string) []string {
	seen := make(map[string]struct{}, n)
	keys := make([]string, 0, n)
	for len(keys) < n {
		b := make([]byte, 1+rng.IntN(maxLen))
		for i := range b {
			b[i] = alphabet[rng.IntN(len(alphabet))]
		}
		if _, ok := seen[string(b)]; ok {
			continue
		}
		seen[string(b)] = struct{}{}
		keys = append(keys, string(b))
	}
	return keys
}

func TestBuildOrder(t *testing.T) {
	t.Run("Unweighted", func(t *testing.T) {
		keys := make([]weightedKey, len(slashKeys))
		for i, k := range slashKeys {
			keys[i] = weightedKey{k.key, 1}
		}
		lt := buildWeightedTrie(t, keys, 0)
		assert.Equal(t, uint32(12), lt.NumKeys())
		assert.Equal(t, []string{
			"c", "b", "b/x/a", "b/x/b", "b/x/c", "b/x/d",
			"b/c/d", "b/c/e", "b/a/d", "a", "a/b", "a/b/c",
		}, dump(t, lt))
	})
	t.Run("WeightOrder", func(t *testing.T) {
		lt := buildWeightedTrie(t, slashKeys, int(WeightOrder))
		assert.Equal(t, []string{
			"b", "b/x/c", "b/x/a", "b/x/b", "b/x/d",
			"b/c/d", "b/c/e", "b/a/d", "c", "a", "a/b", "a/b/c",
		}, dump(t, lt))
	})
	t.Run("LabelOrder", func(t *testing.T) {
		lt := buildWeightedTrie(t, slashKeys, int(LabelOrder))
		assert.Equal(t, []string{
			"a", "a/b", "a/b/c", "b", "b/a/d", "b/c/d",
			"b/c/e", "b/x/a", "b/x/b", "b/x/c", "b/x/d", "c",
		}, dump(t, lt))
	})
	t.Run("Config", func(t *testing.T) {
		lt := buildWeightedTrie(t, slashKeys, 1|int(HugeCache)|int(BinaryTail)|int(LabelOrder))
		assert.Equal(t, 1, lt.NumTries())
		assert.Equal(t, BinaryTail, lt.TailMode())
		assert.Equal(t, LabelOrder, lt.NodeOrder())
		assert.Equal(t, HugeCache, lt.CacheLevel())
	})
}

func TestBuildInvalidConfig(t *testing.T) {
	var ks Keyset
	require.NoError(t, ks.PushString("x", 1))
	_, err := Build(&ks, 0x100000)
	require.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = Build(&ks, int(TinyCache)|0x80)
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestEmptyTrie(t *testing.T) {
	lt, _ := buildTestTrie(t, nil, 0)
	assert.Equal(t, uint32(0), lt.NumKeys())
	assert.Equal(t, uint32(1), lt.NumNodes())

	a := newAgent(t)
	a.SetQuery(nil)
	assert.False(t, lt.Lookup(a))
	assert.False(t, lt.CommonPrefixSearch(a))
	assert.Empty(t, dump(t, lt))

	a.SetQueryID(0)
	require.ErrorIs(t, lt.ReverseLookup(a), common.ErrOutOfRange)
}

func TestEmptyKey(t *testing.T) {
	lt, ks := buildTestTrie(t, []string{"", "a", "ab"}, 0)
	require.Equal(t, uint32(3), lt.NumKeys())

	a := newAgent(t)
	a.SetQuery([]byte{})
	require.True(t, lt.Lookup(a))
	assert.Equal(t, ks.ID(0), a.KeyID())

	a.SetQueryID(ks.ID(0))
	require.NoError(t, lt.ReverseLookup(a))
	assert.Empty(t, a.Key())

	a.SetQuery([]byte("abc"))
	var got []string
	for lt.CommonPrefixSearch(a) {
		got = append(got, string(a.Key()))
	}
	assert.Equal(t, []string{"", "a", "ab"}, got)
}

func TestLookupRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, tc := range []struct {
		name  string
		flags int
	}{
		{"Default", 0},
		{"OneTrie", 1},
		{"TwoTries", 2},
		{"ManyTries", MaxNumTries},
		{"BinaryTail", int(BinaryTail)},
		{"LabelOrder", int(LabelOrder) | 4},
		{"TinyCache", int(TinyCache)},
		{"HugeCache", int(HugeCache) | 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			keys := randomKeys(rng, 3000, 24, "abcdefgh/.")
			lt, ks := buildTestTrie(t, keys, tc.flags)
			require.Equal(t, uint32(len(keys)), lt.NumKeys())

			ids := roaring.New()
			a := newAgent(t)
			for i, k := range keys {
				a.SetQuery([]byte(k))
				require.True(t, lt.Lookup(a), "lookup %q", k)
				require.Equal(t, ks.ID(i), a.KeyID(), "id of %q", k)
				require.Equal(t, k, string(a.Key()))
				ids.Add(a.KeyID())

				a.SetQueryID(a.KeyID())
				require.NoError(t, lt.ReverseLookup(a))
				require.Equal(t, k, string(a.Key()))
			}
			// IDs are dense in [0, n).
			assert.Equal(t, uint64(len(keys)), ids.GetCardinality())
			assert.Equal(t, uint32(len(keys)-1), ids.Maximum())

			for i := 0; i < 500; i++ {
				q := randomKeys(rng, 1, 26, "abcdefghij/.")[0]
				a.SetQuery([]byte(q))
				want := slices.Contains(keys, q)
				assert.Equal(t, want, lt.Lookup(a), "lookup %q", q)
			}
		})
	}
}

func TestBinaryKeys(t *testing.T) {
	keys := []string{"a\x00b", "a\x00bc", "\x00", "\x00\x00\x00", "xyz\x00", "plain"}
	lt, _ := buildTestTrie(t, keys, 1)
	assert.Equal(t, BinaryTail, lt.TailMode())

	a := newAgent(t)
	for _, k := range keys {
		a.SetQuery([]byte(k))
		require.True(t, lt.Lookup(a), "lookup %q", k)
		a.SetQueryID(a.KeyID())
		require.NoError(t, lt.ReverseLookup(a))
		assert.Equal(t, k, string(a.Key()))
	}
	got := dump(t, lt)
	sort.Strings(got)
	want := slices.Clone(keys)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestCommonPrefixSearch(t *testing.T) {
	lt, _ := buildTestTrie(t, []string{"a", "ad", "add", "addend", "addendum", "b", "adder"}, 0)
	a := newAgent(t)
	a.SetQuery([]byte("addendums"))
	var got []string
	var ids []uint32
	for lt.CommonPrefixSearch(a) {
		got = append(got, string(a.Key()))
		ids = append(ids, a.KeyID())
	}
	assert.Equal(t, []string{"a", "ad", "add", "addend", "addendum"}, got)
	assert.False(t, lt.CommonPrefixSearch(a), "search stays finished")

	lk := newAgent(t)
	for i, k := range got {
		lk.SetQuery([]byte(k))
		require.True(t, lt.Lookup(lk))
		assert.Equal(t, ids[i], lk.KeyID())
	}

	a.SetQuery([]byte("zzz"))
	assert.False(t, lt.CommonPrefixSearch(a))
}

func TestPredictiveSearch(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	keys := randomKeys(rng, 2000, 16, "abcd")
	for _, flags := range []int{0, 1, int(LabelOrder)} {
		t.Run(fmt.Sprintf("Flags%#x", flags), func(t *testing.T) {
			lt, _ := buildTestTrie(t, keys, flags)
			for _, prefix := range []string{"", "a", "ab", "abc", "dcba", "abcdabcd", "zz"} {
				var want []string
				for _, k := range keys {
					if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
						want = append(want, k)
					}
				}
				got := predict(t, lt, prefix)
				sort.Strings(got)
				sort.Strings(want)
				assert.Equal(t, want, got, "prefix %q", prefix)
			}
		})
	}
}

func TestPredictiveSearchIDs(t *testing.T) {
	lt, _ := buildTestTrie(t, []string{"app", "apple", "applet", "apply", "apt", "b"}, 0)
	a := newAgent(t)
	a.SetQuery([]byte("app"))
	r := newAgent(t)
	n := 0
	for lt.PredictiveSearch(a) {
		n++
		r.SetQueryID(a.KeyID())
		require.NoError(t, lt.ReverseLookup(r))
		assert.Equal(t, string(a.Key()), string(r.Key()))
	}
	assert.Equal(t, 4, n)
	assert.False(t, lt.PredictiveSearch(a))
}

func TestAgentClone(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	keys := randomKeys(rng, 500, 12, "xyz")
	lt, _ := buildTestTrie(t, keys, 0)

	a := newAgent(t)
	a.SetQuery([]byte("x"))
	for i := 0; i < 10; i++ {
		require.True(t, lt.PredictiveSearch(a))
	}
	c := a.Clone()
	assert.Equal(t, a.Key(), c.Key())

	var fromA, fromC []string
	for lt.PredictiveSearch(a) {
		fromA = append(fromA, string(a.Key()))
	}
	for lt.PredictiveSearch(c) {
		fromC = append(fromC, string(c.Key()))
	}
	assert.Equal(t, fromA, fromC)
	assert.NotEmpty(t, fromA)
}

func TestAgentInitStateTwice(t *testing.T) {
	a := newAgent(t)
	assert.True(t, a.HasState())
	require.ErrorIs(t, a.InitState(), common.ErrLogic)
}

func TestSetQueryResetsSearch(t *testing.T) {
	lt, _ := buildTestTrie(t, []string{"a", "ab", "abc"}, 0)
	a := newAgent(t)
	a.SetQuery([]byte("abc"))
	require.True(t, lt.CommonPrefixSearch(a))
	assert.Equal(t, "a", string(a.Key()))

	a.SetQuery([]byte("ab"))
	var got []string
	for lt.CommonPrefixSearch(a) {
		got = append(got, string(a.Key()))
	}
	assert.Equal(t, []string{"a", "ab"}, got)
}

func TestDuplicateKeysShareID(t *testing.T) {
	lt, ks := buildTestTrie(t, []string{"dup", "other", "dup", "dup"}, 0)
	assert.Equal(t, uint32(2), lt.NumKeys())
	assert.Equal(t, ks.ID(0), ks.ID(2))
	assert.Equal(t, ks.ID(0), ks.ID(3))
	assert.NotEqual(t, ks.ID(0), ks.ID(1))
}

func TestLongSharedSuffixes(t *testing.T) {
	suffix := bytes.Repeat([]byte("suffix"), 50)
	var keys []string
	for i := 0; i < 200; i++ {
		keys = append(keys, fmt.Sprintf("%03d%s", i, suffix))
		keys = append(keys, fmt.Sprintf("%03d%s", i, suffix[:len(suffix)/2]))
	}
	for _, flags := range []int{1, 2, 3} {
		lt, _ := buildTestTrie(t, keys, flags)
		a := newAgent(t)
		for _, k := range keys {
			a.SetQuery([]byte(k))
			require.True(t, lt.Lookup(a), "lookup %q", k)
			a.SetQueryID(a.KeyID())
			require.NoError(t, lt.ReverseLookup(a))
			require.Equal(t, k, string(a.Key()))
		}
		assert.Len(t, predict(t, lt, "10"), 20)
	}
}

func TestSizes(t *testing.T) {
	lt, _ := buildTestTrie(t, []string{"one", "two", "three", "four", "five"}, 0)
	assert.Equal(t, 3, lt.NumTries())
	assert.Equal(t, uint32(lt.louds.Size()/2-1), lt.NumNodes())
	assert.Positive(t, lt.TotalSize())

	var buf bytes.Buffer
	n, err := lt.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, uint64(n), lt.IOSize())
	assert.Zero(t, lt.IOSize()%8)
}
