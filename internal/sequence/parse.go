package sequence

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-led/internal/ledarray"
)

// ParseLine parses one comma separated command:
//
//	f,<r>,<g>,<b>,<seconds>   fade
//	i,<r>,<g>,<b>,<seconds>   set instantly, then hold
//	w,<seconds>               wait
//	r                         random colour
//
// Blank lines and lines starting with '#' return ErrSkip.
func ParseLine(text string) (Record, error) {
	line := strings.TrimSpace(text)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, ErrSkip
	}

	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	args := fields[1:]

	switch fields[0] {
	case "f":
		c, d, err := colorAndDuration(args)
		if err != nil {
			return nil, malformed(line, err)
		}
		return Fade{Color: c, Rate: d}, nil

	case "i":
		c, d, err := colorAndDuration(args)
		if err != nil {
			return nil, malformed(line, err)
		}
		return Instant{Color: c, Hold: d}, nil

	case "w":
		if len(args) != 1 {
			return nil, malformed(line, fmt.Errorf("wait takes 1 argument, got %d", len(args)))
		}
		d, err := parseSeconds(args[0])
		if err != nil {
			return nil, malformed(line, err)
		}
		return Wait{Duration: d}, nil

	case "r":
		if len(args) != 0 {
			return nil, malformed(line, fmt.Errorf("random takes no arguments, got %d", len(args)))
		}
		return Random{}, nil

	default:
		return nil, malformed(line, fmt.Errorf("unknown command %q", fields[0]))
	}
}

func malformed(line string, err error) error {
	return fmt.Errorf("%w: %q: %v", ErrMalformedRecord, line, err)
}

func colorAndDuration(args []string) (ledarray.Color, time.Duration, error) {
	if len(args) != 4 {
		return ledarray.Color{}, 0, fmt.Errorf("expected 4 arguments, got %d", len(args))
	}

	var v [3]int
	for i := range v {
		n, err := strconv.ParseInt(args[i], 10, 32)
		if err != nil {
			return ledarray.Color{}, 0, fmt.Errorf("invalid %s value %q", ledarray.Channels[i], args[i])
		}
		v[i] = int(n)
	}

	d, err := parseSeconds(args[3])
	if err != nil {
		return ledarray.Color{}, 0, err
	}
	return ledarray.Color{R: v[0], G: v[1], B: v[2]}, d, nil
}

// parseSeconds converts a decimal number of seconds to a duration
func parseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("duration %q must be a non-negative number of seconds", s)
	}
	if f > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("duration %q is too long", s)
	}
	return time.Duration(f * float64(time.Second)), nil
}

