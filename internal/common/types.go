package common

import "errors"

// Dictionary image header. Every serialized dictionary starts with these
// 16 bytes, the trailing NUL included.
const (
	Magic      = "We love Marisa.\x00"
	HeaderSize = len(Magic)
)

// Sentinel values shared by the trie layers.
const (
	InvalidKeyID  uint32 = 0xFFFFFFFF
	InvalidLinkID uint32 = 0xFFFFFFFF
	InvalidExtra  uint32 = 0xFFFFFFFF >> 8
)

// Size limits
const (
	MaxKeySize  = 0xFFFFFFFF // key length is stored in 32 bits
	MaxBitCount = 0xFFFFFFFF // bit vectors are indexed by uint32
)

// Common errors
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfRange      = errors.New("index out of range")
	ErrTooLarge        = errors.New("size exceeds limit")
	ErrCorrupt         = errors.New("data corruption detected")
	ErrInvalidMagic    = errors.New("invalid file magic number")
	ErrNotInitialized  = errors.New("dictionary not initialized")
	ErrLogic           = errors.New("invalid agent state")
)

// Logger provides structured logging.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the upper-case level name used in log records.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}
