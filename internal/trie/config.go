package trie

import (
	"fmt"

	"github.com/CVDpl/go-marisa/internal/common"
)

// CacheLevel selects how many cache slots a level reserves relative to its
// distinct keys. The value is the divisor.
type CacheLevel int

// TailMode selects how the last level stores suffixes.
type TailMode int

// NodeOrder selects how sibling nodes are arranged.
type NodeOrder int

// Flag word layout.
const (
	MinNumTries     = 1
	MaxNumTries     = 0x7F
	DefaultNumTries = 3

	HugeCache    CacheLevel = 0x80
	LargeCache   CacheLevel = 0x100
	NormalCache  CacheLevel = 0x200
	SmallCache   CacheLevel = 0x400
	TinyCache    CacheLevel = 0x800
	DefaultCache            = NormalCache

	TextTail    TailMode = 0x1000
	BinaryTail  TailMode = 0x2000
	DefaultTail          = TextTail

	LabelOrder   NodeOrder = 0x10000
	WeightOrder  NodeOrder = 0x20000
	DefaultOrder           = WeightOrder

	numTriesMask   = 0x7F
	cacheLevelMask = 0xF80
	tailModeMask   = 0xF000
	nodeOrderMask  = 0xF0000
	configMask     = 0xFFFFF
)

func (c CacheLevel) String() string {
	switch c {
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
	return fmt.Sprintf("CacheLevel(%#x)", int(c))
}

func (m TailMode) String() string {
	switch m {
	case TextTail:
		return "text"
	case BinaryTail:
		return "binary"
	}
	return fmt.Sprintf("TailMode(%#x)", int(m))
}

func (o NodeOrder) String() string {
	switch o {
	case LabelOrder:
		return "label"
	case WeightOrder:
		return "weight"
	}
	return fmt.Sprintf("NodeOrder(%#x)", int(o))
}

// Config is a validated build configuration.
type Config struct {
	numTries   int
	cacheLevel CacheLevel
	tailMode   TailMode
	nodeOrder  NodeOrder
}

// DefaultConfig returns the configuration an all-zero flag word parses to.
func DefaultConfig() Config {
	return Config{
		numTries:   DefaultNumTries,
		cacheLevel: DefaultCache,
		tailMode:   DefaultTail,
		nodeOrder:  DefaultOrder,
	}
}

// ParseConfig validates a flag word. A zero field selects its default.
func ParseConfig(flags int) (Config, error) {
	if flags&^configMask != 0 {
		return Config{}, fmt.Errorf("config flags %#x: %w", flags, common.ErrInvalidArgument)
	}
	cfg := DefaultConfig()

	if n := flags & numTriesMask; n != 0 {
		cfg.numTries = n
	}

	switch c := CacheLevel(flags & cacheLevelMask); c {
	case 0:
	case HugeCache, LargeCache, NormalCache, SmallCache, TinyCache:
		cfg.cacheLevel = c
	default:
		return Config{}, fmt.Errorf("undefined cache level %#x: %w", int(c), common.ErrInvalidArgument)
	}

	switch m := TailMode(flags & tailModeMask); m {
	case 0:
	case TextTail, BinaryTail:
		cfg.tailMode = m
	default:
		return Config{}, fmt.Errorf("undefined tail mode %#x: %w", int(m), common.ErrInvalidArgument)
	}

	switch o := NodeOrder(flags & nodeOrderMask); o {
	case 0:
	case LabelOrder, WeightOrder:
		cfg.nodeOrder = o
	default:
		return Config{}, fmt.Errorf("undefined node order %#x: %w", int(o), common.ErrInvalidArgument)
	}
	return cfg, nil
}

// Flags returns the persisted form of the configuration. The cache level is
// a build-time setting and is not part of it.
func (c Config) Flags() int {
	return c.numTries | int(c.tailMode) | int(c.nodeOrder)
}

func (c Config) NumTries() int          { return c.numTries }
func (c Config) CacheLevel() CacheLevel { return c.cacheLevel }
func (c Config) TailMode() TailMode     { return c.tailMode }
func (c Config) NodeOrder() NodeOrder   { return c.nodeOrder }
