//go:build !linux

package pwm

import (
	"fmt"
	"log/slog"
)

// NewBBB is only available on linux
func NewBBB(pwmMax, freqHz int, logger *slog.Logger) (Driver, error) {
	return nil, fmt.Errorf("bbb backend requires linux")
}
