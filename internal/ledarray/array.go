package ledarray

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saaga0h/jeeves-led/pkg/pwm"
)

// Array owns the PWM driver and the last duty cycle written to each channel.
// It is the only component that talks to the driver.
//
// Two arrays must never drive the same pins at once; nothing here enforces it.
type Array struct {
	mu     sync.Mutex
	driver pwm.Driver
	pins   Pins
	pwmMax int
	state  [len(Channels)]int
	closed bool
	logger *slog.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewArray starts the driver on all three pins at zero output and switches
// every channel off. Either all pins start or none are left running.
func NewArray(driver pwm.Driver, pins Pins, pwmMax int, logger *slog.Logger) (*Array, error) {
	if pwmMax <= 0 {
		return nil, fmt.Errorf("%w: pwm max must be positive, got %d", ErrConfig, pwmMax)
	}
	if err := validatePins(pins); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Array{
		driver: driver,
		pins:   pins,
		pwmMax: pwmMax,
		logger: logger,
	}

	logger.Info("Initializing LEDs",
		"red_pin", pins.Red,
		"green_pin", pins.Green,
		"blue_pin", pins.Blue,
		"pwm_max", pwmMax)

	started := make([]string, 0, len(Channels))
	for _, ch := range Channels {
		pin := pins.Pin(ch)
		if err := driver.Start(pin, 0); err != nil {
			for _, p := range started {
				if stopErr := driver.Stop(p); stopErr != nil {
					logger.Warn("Failed to stop pin after init failure", "pin", p, "error", stopErr)
				}
			}
			if cleanupErr := driver.Cleanup(); cleanupErr != nil {
				logger.Warn("Failed to clean up after init failure", "error", cleanupErr)
			}
			return nil, fmt.Errorf("%w: %s pin %s: %w", ErrHardwareInit, ch, pin, err)
		}
		started = append(started, pin)
	}

	if err := a.AllOff(); err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("%w: %w", ErrHardwareInit, err)
	}

	return a, nil
}

func validatePins(pins Pins) error {
	seen := make(map[string]Channel, len(Channels))
	for _, ch := range Channels {
		pin := pins.Pin(ch)
		if pin == "" {
			return fmt.Errorf("%w: %s pin is required", ErrConfig, ch)
		}
		if other, ok := seen[pin]; ok {
			return fmt.Errorf("%w: pin %s assigned to both %s and %s", ErrConfig, pin, other, ch)
		}
		seen[pin] = ch
	}
	return nil
}

// PWMMax returns the top of the duty cycle scale
func (a *Array) PWMMax() int {
	return a.pwmMax
}

// Pins returns the pin binding
func (a *Array) Pins() Pins {
	return a.pins
}

// State returns the last value written to each channel
func (a *Array) State() Color {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Color{R: a.state[Red], G: a.state[Green], B: a.state[Blue]}
}

// SetChannel writes value to one channel. The value is not clamped.
// An unknown channel is logged and ignored.
func (a *Array) SetChannel(ch Channel, value int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.setLocked(ch, value)
}

// SetPin writes value to the channel bound to a raw pin identifier.
// Pins the array does not own are logged and ignored.
func (a *Array) SetPin(pin string, value int) error {
	ch, ok := a.pins.Lookup(pin)
	if !ok {
		a.logger.Warn("Invalid pin given to set", "pin", pin, "value", value, "error", ErrInvalidPin)
		return nil
	}
	return a.SetChannel(ch, value)
}

// SetColor writes red, green and blue in that order
func (a *Array) SetColor(c Color) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, ch := range Channels {
		if err := a.setLocked(ch, c.Get(ch)); err != nil {
			return err
		}
	}
	return nil
}

// AllOff sets every channel to zero
func (a *Array) AllOff() error {
	return a.SetColor(Off)
}

func (a *Array) setLocked(ch Channel, value int) error {
	if !ch.Valid() {
		// TODO: promote to a returned error once callers stop relying on silent drops
		a.logger.Warn("Invalid channel given to set", "channel", ch, "value", value, "error", ErrInvalidPin)
		return nil
	}
	if a.closed {
		a.logger.Debug("Array shut down, dropping write", "channel", ch, "value", value)
		return nil
	}

	pin := a.pins.Pin(ch)
	a.logger.Debug("Setting LED", "channel", ch, "pin", pin, "value", value)

	if err := a.driver.SetDutyCycle(pin, value); err != nil {
		return fmt.Errorf("failed to set %s duty cycle on pin %s: %w", ch, pin, err)
	}
	a.state[ch] = value

	a.logger.Debug("LED state",
		"red", a.state[Red],
		"green", a.state[Green],
		"blue", a.state[Blue])
	return nil
}

// Shutdown stops every pin and releases the driver. Only the first call does
// any work; later calls return the first call's result.
func (a *Array) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.closed = true
		var errs []error
		for _, ch := range Channels {
			if err := a.driver.Stop(a.pins.Pin(ch)); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop %s: %w", ch, err))
			}
		}
		if err := a.driver.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("failed to clean up driver: %w", err))
		}
		a.state = [len(Channels)]int{}
		a.shutdownErr = errors.Join(errs...)

		a.logger.Info("Cleanup complete")
	})
	return a.shutdownErr
}
