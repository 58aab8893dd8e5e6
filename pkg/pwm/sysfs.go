package pwm

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// DefaultSysfsRoot is where the kernel exposes PWM chips
const DefaultSysfsRoot = "/sys/class/pwm"

// sysfsDriver drives PWM channels exported through the kernel's sysfs
// interface, as found on BeagleBone boards
type sysfsDriver struct {
	mu       sync.Mutex
	root     string
	logger   *slog.Logger
	pwmMax   int
	periodNs int64
	started  map[string]string
	write    func(path, value string) error
}

// NewSysfs creates a sysfs PWM driver rooted at root. Duty cycle values in
// [0, pwmMax] are scaled onto the PWM period.
func NewSysfs(root string, pwmMax, freqHz int, logger *slog.Logger) (Driver, error) {
	if pwmMax <= 0 {
		return nil, fmt.Errorf("pwm max must be positive, got %d", pwmMax)
	}
	if freqHz <= 0 {
		return nil, fmt.Errorf("pwm frequency must be positive, got %d", freqHz)
	}
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &sysfsDriver{
		root:     root,
		logger:   logger,
		pwmMax:   pwmMax,
		periodNs: int64(time.Second) / int64(freqHz),
		started:  make(map[string]string),
		write:    writeAttr,
	}, nil
}

func (d *sysfsDriver) Start(pin string, duty int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	chip, channel, err := ParseSysfsPin(pin)
	if err != nil {
		return err
	}
	chipDir := filepath.Join(d.root, fmt.Sprintf("pwmchip%d", chip))
	dir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel))

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := d.write(filepath.Join(chipDir, "export"), strconv.Itoa(channel)); err != nil {
			return fmt.Errorf("failed to export %s: %w", pin, err)
		}
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("pwm channel %s did not appear after export: %w", pin, err)
		}
	} else {
		// Zero a duty cycle left by an earlier run first: the kernel rejects
		// a period shorter than the current duty cycle
		if err := d.write(filepath.Join(dir, "duty_cycle"), "0"); err != nil {
			return fmt.Errorf("failed to reset duty cycle on %s: %w", pin, err)
		}
	}

	if err := d.write(filepath.Join(dir, "period"), strconv.FormatInt(d.periodNs, 10)); err != nil {
		return fmt.Errorf("failed to set period on %s: %w", pin, err)
	}
	if err := d.writeDuty(dir, duty); err != nil {
		return err
	}
	if err := d.write(filepath.Join(dir, "enable"), "1"); err != nil {
		return fmt.Errorf("failed to enable %s: %w", pin, err)
	}

	d.started[pin] = dir
	d.logger.Debug("Started sysfs PWM", "pin", pin, "dir", dir, "period_ns", d.periodNs)
	return nil
}

func (d *sysfsDriver) SetDutyCycle(pin string, value int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dir, ok := d.started[pin]
	if !ok {
		return fmt.Errorf("pin %s not started", pin)
	}
	return d.writeDuty(dir, value)
}

func (d *sysfsDriver) writeDuty(dir string, value int) error {
	if value < 0 {
		return fmt.Errorf("duty cycle %d is negative", value)
	}
	ns := dutyNs(value, d.pwmMax, d.periodNs)
	if err := d.write(filepath.Join(dir, "duty_cycle"), strconv.FormatInt(ns, 10)); err != nil {
		return fmt.Errorf("failed to write duty cycle: %w", err)
	}
	return nil
}

func (d *sysfsDriver) Stop(pin string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dir, ok := d.started[pin]
	if !ok {
		return nil
	}
	delete(d.started, pin)

	if err := d.write(filepath.Join(dir, "duty_cycle"), "0"); err != nil {
		return fmt.Errorf("failed to zero %s: %w", pin, err)
	}
	if err := d.write(filepath.Join(dir, "enable"), "0"); err != nil {
		return fmt.Errorf("failed to disable %s: %w", pin, err)
	}
	return nil
}

// Cleanup has nothing to release; channels stay exported for the next run
func (d *sysfsDriver) Cleanup() error {
	return nil
}

func writeAttr(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}
