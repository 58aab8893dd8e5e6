//go:build !linux

package pwm

import (
	"fmt"
	"log/slog"
)

// NewRPIO is only available on linux
func NewRPIO(pwmMax, freqHz int, logger *slog.Logger) (Driver, error) {
	return nil, fmt.Errorf("rpio backend requires linux")
}
