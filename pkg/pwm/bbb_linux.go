//go:build linux

package pwm

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/bbb"
)

// bbbDriver drives the BeagleBone Black PWM header pins (P8_13, P9_14, ...)
// through embd
type bbbDriver struct {
	mu       sync.Mutex
	logger   *slog.Logger
	pwmMax   int
	periodNs int64
	opened   bool
	pins     map[string]embd.PWMPin
}

// NewBBB creates a BeagleBone Black PWM driver. Pin identifiers are header
// names; values in [0, pwmMax] are scaled onto the PWM period.
func NewBBB(pwmMax, freqHz int, logger *slog.Logger) (Driver, error) {
	if pwmMax <= 0 {
		return nil, fmt.Errorf("pwm max must be positive, got %d", pwmMax)
	}
	if freqHz <= 0 {
		return nil, fmt.Errorf("pwm frequency must be positive, got %d", freqHz)
	}
	return &bbbDriver{
		logger:   logger,
		pwmMax:   pwmMax,
		periodNs: int64(time.Second) / int64(freqHz),
		pins:     make(map[string]embd.PWMPin),
	}, nil
}

func (d *bbbDriver) Start(pin string, duty int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if duty < 0 {
		return fmt.Errorf("duty cycle %d is negative", duty)
	}
	if !d.opened {
		if err := embd.InitGPIO(); err != nil {
			return fmt.Errorf("failed to initialise embd: %w", err)
		}
		d.opened = true
	}

	p, err := embd.NewPWMPin(pin)
	if err != nil {
		return fmt.Errorf("failed to open pwm pin %s: %w", pin, err)
	}
	if err := p.SetPeriod(int(d.periodNs)); err != nil {
		p.Close()
		return fmt.Errorf("failed to set period on %s: %w", pin, err)
	}
	if err := p.SetDuty(int(dutyNs(duty, d.pwmMax, d.periodNs))); err != nil {
		p.Close()
		return fmt.Errorf("failed to set duty cycle on %s: %w", pin, err)
	}

	d.pins[pin] = p
	d.logger.Debug("Started BeagleBone PWM", "pin", pin, "period_ns", d.periodNs)
	return nil
}

func (d *bbbDriver) SetDutyCycle(pin string, value int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pins[pin]
	if !ok {
		return fmt.Errorf("pin %s not started", pin)
	}
	if value < 0 {
		return fmt.Errorf("duty cycle %d is negative", value)
	}
	return p.SetDuty(int(dutyNs(value, d.pwmMax, d.periodNs)))
}

func (d *bbbDriver) Stop(pin string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pins[pin]
	if !ok {
		return nil
	}
	delete(d.pins, pin)

	if err := p.SetDuty(0); err != nil {
		p.Close()
		return fmt.Errorf("failed to zero %s: %w", pin, err)
	}
	return p.Close()
}

// Cleanup closes any pins still open and releases embd
func (d *bbbDriver) Cleanup() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for pin, p := range d.pins {
		if err := p.Close(); err != nil {
			d.logger.Warn("Failed to close pwm pin", "pin", pin, "error", err)
		}
		delete(d.pins, pin)
	}
	if !d.opened {
		return nil
	}
	d.opened = false
	return embd.CloseGPIO()
}
