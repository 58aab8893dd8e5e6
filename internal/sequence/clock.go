package sequence

import (
	"fmt"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/saaga0h/jeeves-led/internal/ledarray"
)

// minutesPerSegment is the span of each leg of the minute colour wheel
const minutesPerSegment = 20

// warningPulseRate is the length of one warning pulse
const warningPulseRate = 3 * time.Second

// TimeOfDayColor maps a minute of the hour onto the colour wheel: red to
// green over minutes 0-20, green to blue over 20-40, blue back toward red
// over 40-59. Each minute moves pwmMax/20 (5 at pwmMax 100), truncating.
func TimeOfDayColor(minute, pwmMax int) (ledarray.Color, error) {
	if minute < 0 || minute > 59 {
		return ledarray.Color{}, fmt.Errorf("%w: minute %d out of range 0-59", ledarray.ErrConfig, minute)
	}
	if pwmMax <= 0 {
		return ledarray.Color{}, fmt.Errorf("%w: pwm max must be positive, got %d", ledarray.ErrConfig, pwmMax)
	}

	scale := func(m int) int {
		return m * pwmMax / minutesPerSegment
	}

	switch {
	case minute <= minutesPerSegment:
		up := scale(minute)
		return ledarray.Color{R: pwmMax - up, G: up, B: 0}, nil
	case minute <= 2*minutesPerSegment:
		up := scale(minute - minutesPerSegment)
		return ledarray.Color{R: 0, G: pwmMax - up, B: up}, nil
	default:
		up := scale(minute - 2*minutesPerSegment)
		return ledarray.Color{R: up, G: 0, B: pwmMax - up}, nil
	}
}

// Pulse is a repeated fade to a colour and back to off
type Pulse struct {
	Color ledarray.Color
	Rate  time.Duration
	Count int
}

// Clock picks the array colour for a wall clock time
type Clock struct {
	PWMMax    int
	Latitude  float64
	Longitude float64

	// NightLevel scales the colour while the sun is below the horizon.
	// 1 leaves it unchanged, 0 turns the array off at night.
	NightLevel float64
}

// Color returns the minute colour for now, dimmed after sunset
func (c Clock) Color(now time.Time) (ledarray.Color, error) {
	color, err := TimeOfDayColor(now.Minute(), c.PWMMax)
	if err != nil {
		return ledarray.Color{}, err
	}
	if c.NightLevel < 1 && !c.Daylight(now) {
		color = color.Scale(c.NightLevel)
	}
	return color, nil
}

// Daylight reports whether the sun is above the horizon at the clock's location
func (c Clock) Daylight(now time.Time) bool {
	position := suncalc.GetPosition(now, c.Latitude, c.Longitude)
	return position.Altitude > 0
}

// WarningPulses returns the pulses due at now: ten red pulses on the half
// hour boundaries (minutes 29 and 59), plus one blue pulse per hour of the
// coming hour at minute 59
func (c Clock) WarningPulses(now time.Time) []Pulse {
	minute := now.Minute()
	if minute != 29 && minute != 59 {
		return nil
	}

	pulses := []Pulse{{Color: ledarray.Color{R: c.PWMMax}, Rate: warningPulseRate, Count: 10}}
	if minute == 59 {
		pulses = append(pulses, Pulse{Color: ledarray.Color{B: c.PWMMax}, Rate: warningPulseRate, Count: now.Hour() + 1})
	}
	return pulses
}
