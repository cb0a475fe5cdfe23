package marisa

// Version is the semantic version of the marisa library.
// It can be overridden at build time using:
//
//	go build -ldflags "-X github.com/CVDpl/go-marisa/pkg/marisa.Version=1.1.0"
var Version = "1.0.0"

// FormatVersion names the on-disk dictionary format this package reads and
// writes.
const FormatVersion = "marisa-0.3"
