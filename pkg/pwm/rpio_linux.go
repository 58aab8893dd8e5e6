//go:build linux

package pwm

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpioDriver drives the BCM2835 hardware PWM through /dev/gpiomem
type rpioDriver struct {
	mu       sync.Mutex
	logger   *slog.Logger
	freqHz   int
	cycleLen uint32
	opened   bool
	pins     map[string]rpio.Pin
	channels map[int]string
}

// NewRPIO creates a Raspberry Pi hardware PWM driver. Duty cycles are written
// against a cycle length of pwmMax at the requested output frequency.
func NewRPIO(pwmMax, freqHz int, logger *slog.Logger) (Driver, error) {
	if pwmMax <= 0 {
		return nil, fmt.Errorf("pwm max must be positive, got %d", pwmMax)
	}
	if freqHz <= 0 {
		return nil, fmt.Errorf("pwm frequency must be positive, got %d", freqHz)
	}
	return &rpioDriver{
		logger:   logger,
		freqHz:   freqHz,
		cycleLen: uint32(pwmMax),
		pins:     make(map[string]rpio.Pin),
		channels: make(map[int]string),
	}, nil
}

func (d *rpioDriver) Start(pin string, duty int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	bcm, err := ParseBCMPin(pin)
	if err != nil {
		return err
	}
	channel, err := HardwarePWMChannel(bcm)
	if err != nil {
		return err
	}
	if other, ok := d.channels[channel]; ok && other != pin {
		d.logger.Warn("PWM pins share a hardware channel, outputs will mirror",
			"pin", pin, "other_pin", other, "channel", channel)
	}

	if !d.opened {
		if err := rpio.Open(); err != nil {
			return fmt.Errorf("failed to open gpio memory: %w", err)
		}
		d.opened = true
	}

	p := rpio.Pin(bcm)
	p.Mode(rpio.Pwm)
	p.Freq(d.freqHz * int(d.cycleLen))
	if err := d.write(p, duty); err != nil {
		return err
	}

	d.pins[pin] = p
	d.channels[channel] = pin
	d.logger.Debug("Started hardware PWM", "pin", pin, "bcm", bcm, "channel", channel)
	return nil
}

func (d *rpioDriver) SetDutyCycle(pin string, value int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pins[pin]
	if !ok {
		return fmt.Errorf("pin %s not started", pin)
	}
	return d.write(p, value)
}

func (d *rpioDriver) write(p rpio.Pin, value int) error {
	if value < 0 {
		return fmt.Errorf("duty cycle %d is negative", value)
	}
	p.DutyCycle(uint32(value), d.cycleLen)
	return nil
}

func (d *rpioDriver) Stop(pin string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pins[pin]
	if !ok {
		return nil
	}
	p.DutyCycle(0, d.cycleLen)
	p.Mode(rpio.Output)
	p.Low()
	delete(d.pins, pin)
	return nil
}

func (d *rpioDriver) Cleanup() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.opened {
		return nil
	}
	rpio.StopPwm()
	d.opened = false
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("failed to close gpio memory: %w", err)
	}
	return nil
}
