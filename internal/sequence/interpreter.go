package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/saaga0h/jeeves-led/internal/ledarray"
)

// Summary counts what happened to the lines of one pass over a source
type Summary struct {
	Applied   int
	Skipped   int
	Malformed int
}

// Interpreter runs command sequences against an engine
type Interpreter struct {
	engine *ledarray.Engine
	logger *slog.Logger
}

// NewInterpreter creates an interpreter driving engine
func NewInterpreter(engine *ledarray.Engine, logger *slog.Logger) *Interpreter {
	return &Interpreter{
		engine: engine,
		logger: logger,
	}
}

// ProcessSource reads src and runs it once. An unreadable source is returned
// as ErrSourceUnavailable for the caller to retry or skip.
func (in *Interpreter) ProcessSource(ctx context.Context, src Source) (Summary, error) {
	lines, err := src.Lines(ctx)
	if err != nil {
		in.logger.Warn("Sequence source unavailable", "source", src.Name(), "error", err)
		return Summary{}, err
	}

	in.logger.Debug("Processing sequence", "source", src.Name(), "lines", len(lines))
	summary, err := in.ProcessLines(lines)
	if err != nil {
		return summary, fmt.Errorf("%s: %w", src.Name(), err)
	}

	in.logger.Info("Sequence complete",
		"source", src.Name(),
		"applied", summary.Applied,
		"malformed", summary.Malformed)
	return summary, nil
}

// ProcessLines runs lines in order. Malformed lines are logged and skipped;
// an error from the array stops the sequence.
func (in *Interpreter) ProcessLines(lines []string) (Summary, error) {
	var summary Summary

	for i, line := range lines {
		rec, err := ParseLine(line)
		switch {
		case errors.Is(err, ErrSkip):
			summary.Skipped++
			continue
		case err != nil:
			in.logger.Warn("Invalid command in sequence", "line", i+1, "error", err)
			summary.Malformed++
			continue
		}

		if err := in.Apply(rec); err != nil {
			return summary, fmt.Errorf("line %d: %w", i+1, err)
		}
		summary.Applied++
	}

	return summary, nil
}

// Apply runs a single record
func (in *Interpreter) Apply(rec Record) error {
	array := in.engine.Array()

	switch r := rec.(type) {
	case Fade:
		return in.engine.Fade(r.Color, r.Rate)

	case Instant:
		for _, ch := range ledarray.Channels {
			if err := array.SetChannel(ch, r.Color.Get(ch)); err != nil {
				return err
			}
		}
		in.engine.Sleep(r.Hold)
		return nil

	case Wait:
		in.engine.Sleep(r.Duration)
		return nil

	case Random:
		return in.engine.RandomColor(0, false)

	default:
		return fmt.Errorf("%w: unsupported record %T", ErrMalformedRecord, rec)
	}
}
