package ledarray

import (
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"math/rand/v2"
	"time"
)

// Engine drives timed linear transitions on an Array. It blocks for the whole
// transition; there is no way to cancel one once started.
type Engine struct {
	array  *Array
	sleep  func(time.Duration)
	intN   func(n int) int
	logger *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithSleep replaces time.Sleep for pacing
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

// WithRand draws random colours from r
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.intN = r.IntN
	}
}

// WithLogger sets the engine's logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine for array
func NewEngine(array *Array, opts ...Option) *Engine {
	e := &Engine{
		array:  array,
		sleep:  time.Sleep,
		intN:   rand.IntN,
		logger: array.logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Array returns the array the engine drives
func (e *Engine) Array() *Array {
	return e.array
}

// Sleep pauses using the engine's pacing function
func (e *Engine) Sleep(d time.Duration) {
	e.sleep(d)
}

// Interpolate returns the colour at step of steps on the line from start to
// target. Step steps is exactly target.
func Interpolate(start, target Color, step, steps int) Color {
	return Color{
		R: lerp(start.R, target.R, step, steps),
		G: lerp(start.G, target.G, step, steps),
		B: lerp(start.B, target.B, step, steps),
	}
}

// lerp weights both ends before a single truncating division so the result
// never leaves [from, to]. Operands beyond 32 bits go through big.Int so the
// products cannot overflow.
func lerp(from, to, step, steps int) int {
	if step == steps {
		return to
	}
	remaining := step - steps
	if remaining < 0 {
		remaining = -remaining
	}

	if fits32(from) && fits32(to) && fits32(step) && fits32(steps) {
		return int((int64(to)*int64(step) + int64(from)*int64(remaining)) / int64(steps))
	}

	sum := new(big.Int).Mul(big.NewInt(int64(to)), big.NewInt(int64(step)))
	sum.Add(sum, new(big.Int).Mul(big.NewInt(int64(from)), big.NewInt(int64(remaining))))
	return int(sum.Quo(sum, big.NewInt(int64(steps))).Int64())
}

func fits32(v int) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

// Fade moves the array from its current colour to target in pwmMax steps,
// sleeping rate/pwmMax after each. The duration is approximate: time spent
// writing is not subtracted from the sleeps.
func (e *Engine) Fade(target Color, rate time.Duration) error {
	steps := e.array.PWMMax()
	if steps <= 0 {
		return fmt.Errorf("%w: pwm max must be positive, got %d", ErrConfig, steps)
	}
	if rate < 0 {
		return fmt.Errorf("%w: fade rate must not be negative, got %s", ErrConfig, rate)
	}

	start := e.array.State()
	e.logger.Info("Fade",
		"from", start.String(),
		"to", target.String(),
		"rate", rate)

	pause := rate / time.Duration(steps)
	for step := 1; step <= steps; step++ {
		if err := e.array.SetColor(Interpolate(start, target, step, steps)); err != nil {
			return fmt.Errorf("fade step %d/%d: %w", step, steps, err)
		}
		e.sleep(pause)
	}
	return nil
}

// ColorCycle fades once around the corners of the RGB colour wheel, ending on blue
func (e *Engine) ColorCycle(rate time.Duration) error {
	for _, corner := range HueWheel(e.array.PWMMax()) {
		if err := e.Fade(corner, rate); err != nil {
			return err
		}
	}
	return nil
}

// RandomColor picks each channel uniformly from [0, pwmMax]. With fade set it
// fades there over rate, otherwise it jumps and then holds for rate.
func (e *Engine) RandomColor(rate time.Duration, fade bool) error {
	if rate < 0 {
		return fmt.Errorf("%w: rate must not be negative, got %s", ErrConfig, rate)
	}
	n := e.array.PWMMax() + 1
	c := Color{R: e.intN(n), G: e.intN(n), B: e.intN(n)}

	if fade {
		return e.Fade(c, rate)
	}

	e.logger.Debug("Random colour", "color", c.String())
	if err := e.array.SetColor(c); err != nil {
		return err
	}
	e.sleep(rate)
	return nil
}
