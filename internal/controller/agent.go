package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/jeeves-led/internal/ledarray"
	"github.com/saaga0h/jeeves-led/internal/sequence"
	"github.com/saaga0h/jeeves-led/pkg/config"
)

const (
	// clockFadeRate is how long the clock takes to move to the next minute colour
	clockFadeRate = 30 * time.Second

	// minRetryDelay keeps an unavailable or empty sequence source from spinning
	minRetryDelay = time.Second
)

// Agent runs the selected mode against the LED array until stopped
type Agent struct {
	engine      *ledarray.Engine
	interpreter *sequence.Interpreter
	source      sequence.Source
	clock       sequence.Clock
	publisher   *Publisher
	cfg         *config.Config
	logger      *slog.Logger

	mode string
	rate time.Duration
	now  func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewAgent creates a new LED agent. source is only used in sequence mode
// and publisher may be nil.
func NewAgent(engine *ledarray.Engine, source sequence.Source, publisher *Publisher, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		engine:      engine,
		interpreter: sequence.NewInterpreter(engine, logger),
		source:      source,
		clock: sequence.Clock{
			PWMMax:     engine.Array().PWMMax(),
			Latitude:   cfg.Latitude,
			Longitude:  cfg.Longitude,
			NightLevel: cfg.NightLevel,
		},
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		mode:      cfg.Mode(),
		rate:      cfg.RateDuration(),
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Mode returns the mode the agent runs
func (a *Agent) Mode() string {
	return a.mode
}

// State returns the colour the array is showing
func (a *Agent) State() ledarray.Color {
	return a.engine.Array().State()
}

// Start runs the mode loop. It returns nil when the context is cancelled,
// Stop is called or the test pattern finishes, and an error when the
// array fails.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting LED agent",
		"mode", a.mode,
		"rate", a.rate,
		"pwm_max", a.engine.Array().PWMMax(),
		"location", a.cfg.Location)

	if a.mode == config.ModeSequence && a.source == nil {
		return fmt.Errorf("%w: sequence mode without a source", ledarray.ErrConfig)
	}

	if err := a.publisher.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}
	a.publish(EventStarted)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("LED agent stopping")
			return nil
		case <-a.stopChan:
			return nil
		default:
		}

		if err := a.step(ctx); err != nil {
			return fmt.Errorf("%s mode: %w", a.mode, err)
		}
		a.publish(EventStep)

		if a.mode == config.ModeTest {
			a.logger.Info("Test pattern complete")
			return nil
		}
	}
}

// Stop gracefully stops the LED agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping LED agent")

	a.stopOnce.Do(func() {
		close(a.stopChan)
		a.publisher.Close(a.mode)
	})

	a.logger.Info("LED agent stopped")
	return nil
}

func (a *Agent) step(ctx context.Context) error {
	switch a.mode {
	case config.ModeTest:
		return a.engine.TestPattern(a.rate)
	case config.ModeRandom:
		return a.engine.RandomColor(a.rate, true)
	case config.ModeSequence:
		return a.playSequence(ctx)
	case config.ModeClock:
		return a.showClock()
	default:
		return a.engine.ColorCycle(a.rate)
	}
}

func (a *Agent) playSequence(ctx context.Context) error {
	summary, err := a.interpreter.ProcessSource(ctx, a.source)
	if errors.Is(err, sequence.ErrSourceUnavailable) {
		a.engine.Sleep(max(a.rate, minRetryDelay))
		return nil
	}
	if err != nil {
		return err
	}

	if summary.Applied == 0 {
		a.logger.Warn("Sequence has no commands", "source", a.source.Name(), "malformed", summary.Malformed)
		a.engine.Sleep(max(a.rate, minRetryDelay))
	}
	return nil
}

func (a *Agent) showClock() error {
	now := a.now()

	if a.cfg.WarningPulse {
		if pulses := a.clock.WarningPulses(now); len(pulses) > 0 {
			for _, p := range pulses {
				a.logger.Info("Warning pulse", "color", p.Color, "count", p.Count)
				if err := a.engine.Pulse(p.Color, p.Rate, p.Count); err != nil {
					return err
				}
			}
			return nil
		}
	}

	color, err := a.clock.Color(now)
	if err != nil {
		return err
	}
	a.logger.Debug("Clock colour", "minute", now.Minute(), "daylight", a.clock.Daylight(now), "color", color)
	return a.engine.Fade(color, clockFadeRate)
}

func (a *Agent) publish(event string) {
	if err := a.publisher.PublishState(event, a.mode, a.State()); err != nil {
		a.logger.Warn("Failed to publish array state", "event", event, "error", err)
	}
}
