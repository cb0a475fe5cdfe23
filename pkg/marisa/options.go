package marisa

import "github.com/CVDpl/go-marisa/pkg/marisa/utils"

// Options control how a dictionary is loaded and where its events go.
type Options struct {
	// Logger receives build, load and save events. Nil discards them.
	Logger Logger

	// DisableMmap makes Open read the whole file into memory instead of
	// mapping it.
	DisableMmap bool

	// MmapAdvice is passed to madvise for mapped files.
	MmapAdvice utils.Advice
}

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() *Options {
	return &Options{
		Logger:     NewNullLogger(),
		MmapAdvice: utils.AdviceRandom,
	}
}

func (o *Options) logger() Logger {
	if o == nil || o.Logger == nil {
		return NewNullLogger()
	}
	return o.Logger
}
