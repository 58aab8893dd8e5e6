package pwm

import (
	"fmt"
	"strconv"
	"strings"
)

// hardwarePWMChannels maps BCM pins with a PWM alternate function to the
// BCM2835 PWM channel they are routed to
var hardwarePWMChannels = map[int]int{
	12: 0,
	13: 1,
	18: 0,
	19: 1,
	40: 0,
	41: 1,
	45: 1,
}

// ParseBCMPin accepts "18", "GPIO18" or "BCM18"
func ParseBCMPin(pin string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(pin))
	s = strings.TrimPrefix(s, "GPIO")
	s = strings.TrimPrefix(s, "BCM")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid BCM pin %q", pin)
	}
	return int(n), nil
}

// HardwarePWMChannel returns the PWM channel a BCM pin drives
func HardwarePWMChannel(bcm int) (int, error) {
	ch, ok := hardwarePWMChannels[bcm]
	if !ok {
		return 0, fmt.Errorf("BCM pin %d has no hardware PWM function", bcm)
	}
	return ch, nil
}

// ParseSysfsPin accepts "pwmchip0/pwm1" or the short form "0:1"
func ParseSysfsPin(pin string) (chip, channel int, err error) {
	s := strings.TrimSpace(pin)
	var a, b string
	switch {
	case strings.HasPrefix(s, "pwmchip"):
		rest := strings.TrimPrefix(s, "pwmchip")
		var ok bool
		a, b, ok = strings.Cut(rest, "/pwm")
		if !ok {
			return 0, 0, fmt.Errorf("invalid sysfs pwm pin %q", pin)
		}
	default:
		var ok bool
		a, b, ok = strings.Cut(s, ":")
		if !ok {
			return 0, 0, fmt.Errorf("invalid sysfs pwm pin %q", pin)
		}
	}
	chip, err = strconv.Atoi(a)
	if err != nil || chip < 0 {
		return 0, 0, fmt.Errorf("invalid pwm chip in %q", pin)
	}
	channel, err = strconv.Atoi(b)
	if err != nil || channel < 0 {
		return 0, 0, fmt.Errorf("invalid pwm channel in %q", pin)
	}
	return chip, channel, nil
}
