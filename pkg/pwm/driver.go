package pwm

import (
	"fmt"
	"log/slog"
)

// Backend names accepted by Open
const (
	BackendSim   = "sim"
	BackendRPIO  = "rpio"
	BackendSysfs = "sysfs"
	BackendBBB   = "bbb"
)

// Options configures the hardware backends
type Options struct {
	PWMMax    int
	FreqHz    int
	SysfsRoot string
}

// Open returns the driver for a backend name
func Open(backend string, opts Options, logger *slog.Logger) (Driver, error) {
	switch backend {
	case BackendSim:
		return NewSimulated(logger), nil
	case BackendRPIO:
		return NewRPIO(opts.PWMMax, opts.FreqHz, logger)
	case BackendSysfs:
		return NewSysfs(opts.SysfsRoot, opts.PWMMax, opts.FreqHz, logger)
	case BackendBBB:
		return NewBBB(opts.PWMMax, opts.FreqHz, logger)
	default:
		return nil, fmt.Errorf("unknown pwm backend %q (must be sim, rpio, sysfs or bbb)", backend)
	}
}

// dutyNs scales value in [0, pwmMax] onto a period in nanoseconds
func dutyNs(value, pwmMax int, periodNs int64) int64 {
	return int64(value) * periodNs / int64(pwmMax)
}
