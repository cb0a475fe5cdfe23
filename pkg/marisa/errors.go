package marisa

import "github.com/CVDpl/go-marisa/internal/common"

// Errors returned by this package. Test for them with errors.Is; the
// returned errors carry additional context.
var (
	ErrInvalidArgument = common.ErrInvalidArgument
	ErrOutOfRange      = common.ErrOutOfRange
	ErrTooLarge        = common.ErrTooLarge
	ErrCorrupt         = common.ErrCorrupt
	ErrInvalidMagic    = common.ErrInvalidMagic
	ErrNotInitialized  = common.ErrNotInitialized
	ErrLogic           = common.ErrLogic
)
