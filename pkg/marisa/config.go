package marisa

import (
	"fmt"

	"github.com/CVDpl/go-marisa/internal/trie"
)

// CacheLevel trades dictionary size for lookup speed. Larger caches speed up
// searches.
type CacheLevel int

const (
	DefaultCache CacheLevel = iota
	HugeCache
	LargeCache
	NormalCache
	SmallCache
	TinyCache
)

// TailMode selects how the suffixes below the last trie level are stored.
type TailMode int

const (
	DefaultTail TailMode = iota
	// TextTail stores NUL-terminated suffixes. A build falls back to
	// BinaryTail if a suffix contains a NUL byte.
	TextTail
	// BinaryTail marks suffix ends in a separate bit vector.
	BinaryTail
)

// NodeOrder selects the order of sibling nodes, which is also the order
// predictive search returns keys in.
type NodeOrder int

const (
	DefaultOrder NodeOrder = iota
	// LabelOrder sorts siblings by label, giving lexicographic results.
	LabelOrder
	// WeightOrder puts heavier siblings first.
	WeightOrder
)

const (
	MinNumTries = trie.MinNumTries
	MaxNumTries = trie.MaxNumTries
)

// Config is a build configuration. Zero fields select the defaults: three
// tries, normal cache, text tail, weight order.
type Config struct {
	NumTries   int
	CacheLevel CacheLevel
	TailMode   TailMode
	NodeOrder  NodeOrder
}

var cacheLevels = [...]trie.CacheLevel{
	HugeCache:   trie.HugeCache,
	LargeCache:  trie.LargeCache,
	NormalCache: trie.NormalCache,
	SmallCache:  trie.SmallCache,
	TinyCache:   trie.TinyCache,
}

var tailModes = [...]trie.TailMode{
	TextTail:   trie.TextTail,
	BinaryTail: trie.BinaryTail,
}

var nodeOrders = [...]trie.NodeOrder{
	LabelOrder:  trie.LabelOrder,
	WeightOrder: trie.WeightOrder,
}

// flags converts c to the validated flag word of the trie layer.
func (c Config) flags() (int, error) {
	var f int
	switch {
	case c.NumTries == 0:
	case c.NumTries >= MinNumTries && c.NumTries <= MaxNumTries:
		f |= c.NumTries
	default:
		return 0, fmt.Errorf("num tries %d not in [%d, %d]: %w", c.NumTries, MinNumTries, MaxNumTries, ErrInvalidArgument)
	}
	switch {
	case c.CacheLevel == DefaultCache:
	case c.CacheLevel > 0 && int(c.CacheLevel) < len(cacheLevels):
		f |= int(cacheLevels[c.CacheLevel])
	default:
		return 0, fmt.Errorf("cache level %d: %w", c.CacheLevel, ErrInvalidArgument)
	}
	switch {
	case c.TailMode == DefaultTail:
	case c.TailMode > 0 && int(c.TailMode) < len(tailModes):
		f |= int(tailModes[c.TailMode])
	default:
		return 0, fmt.Errorf("tail mode %d: %w", c.TailMode, ErrInvalidArgument)
	}
	switch {
	case c.NodeOrder == DefaultOrder:
	case c.NodeOrder > 0 && int(c.NodeOrder) < len(nodeOrders):
		f |= int(nodeOrders[c.NodeOrder])
	default:
		return 0, fmt.Errorf("node order %d: %w", c.NodeOrder, ErrInvalidArgument)
	}
	if _, err := trie.ParseConfig(f); err != nil {
		return 0, err
	}
	return f, nil
}

func cacheLevelOf(c trie.CacheLevel) CacheLevel {
	for i, v := range cacheLevels {
		if v == c && i != 0 {
			return CacheLevel(i)
		}
	}
	return DefaultCache
}

func tailModeOf(m trie.TailMode) TailMode {
	for i, v := range tailModes {
		if v == m && i != 0 {
			return TailMode(i)
		}
	}
	return DefaultTail
}

func nodeOrderOf(o trie.NodeOrder) NodeOrder {
	for i, v := range nodeOrders {
		if v == o && i != 0 {
			return NodeOrder(i)
		}
	}
	return DefaultOrder
}

func (c CacheLevel) String() string {
	switch c {
	case DefaultCache:
		return "default"
	case HugeCache:
		return "huge"
	case LargeCache:
		return "large"
	case NormalCache:
		return "normal"
	case SmallCache:
		return "small"
	case TinyCache:
		return "tiny"
	}
	return fmt.Sprintf("CacheLevel(%d)", int(c))
}

func (m TailMode) String() string {
	switch m {
	case DefaultTail:
		return "default"
	case TextTail:
		return "text"
	case BinaryTail:
		return "binary"
	}
	return fmt.Sprintf("TailMode(%d)", int(m))
}

func (o NodeOrder) String() string {
	switch o {
	case DefaultOrder:
		return "default"
	case LabelOrder:
		return "label"
	case WeightOrder:
		return "weight"
	}
	return fmt.Sprintf("NodeOrder(%d)", int(o))
}

// ParseCacheLevel parses the String form of a cache level.
func ParseCacheLevel(s string) (CacheLevel, error) {
	for c := DefaultCache; c <= TinyCache; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("cache level %q: %w", s, ErrInvalidArgument)
}

// ParseTailMode parses the String form of a tail mode.
func ParseTailMode(s string) (TailMode, error) {
	for m := DefaultTail; m <= BinaryTail; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("tail mode %q: %w", s, ErrInvalidArgument)
}

// ParseNodeOrder parses the String form of a node order.
func ParseNodeOrder(s string) (NodeOrder, error) {
	for o := DefaultOrder; o <= WeightOrder; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("node order %q: %w", s, ErrInvalidArgument)
}
