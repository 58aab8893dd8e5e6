package sequence

import (
	"errors"
	"time"

	"github.com/saaga0h/jeeves-led/internal/ledarray"
)

var (
	// ErrMalformedRecord marks a command line that could not be parsed.
	// The line is skipped; the rest of the source still runs.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrSourceUnavailable marks a command source that could not be read
	ErrSourceUnavailable = errors.New("sequence source unavailable")

	// ErrSkip marks a blank or comment line
	ErrSkip = errors.New("skip line")
)

// Record is one parsed command: Fade, Instant, Wait or Random
type Record interface {
	Tag() byte
}

// Fade transitions to Color over Rate
type Fade struct {
	Color ledarray.Color
	Rate  time.Duration
}

// Instant sets Color immediately and then holds for Hold
type Instant struct {
	Color ledarray.Color
	Hold  time.Duration
}

// Wait only pauses
type Wait struct {
	Duration time.Duration
}

// Random jumps to a random colour
type Random struct{}

func (Fade) Tag() byte    { return 'f' }
func (Instant) Tag() byte { return 'i' }
func (Wait) Tag() byte    { return 'w' }
func (Random) Tag() byte  { return 'r' }
