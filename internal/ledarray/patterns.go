package ledarray

import (
	"fmt"
	"time"
)

// TestPattern exercises each channel and the fade path: every channel at full
// then half scale, all on, then fades to off, red, purple and white. Each stage
// lasts roughly delay.
func (e *Engine) TestPattern(delay time.Duration) error {
	if delay < 0 {
		return fmt.Errorf("%w: delay must not be negative, got %s", ErrConfig, delay)
	}
	full := e.array.PWMMax()

	for _, ch := range Channels {
		e.logger.Info("Channel test", "channel", ch, "full_for", delay, "half_for", delay)
		if err := e.array.AllOff(); err != nil {
			return err
		}
		if err := e.array.SetChannel(ch, full); err != nil {
			return err
		}
		e.sleep(delay)
		if err := e.array.SetChannel(ch, full/2); err != nil {
			return err
		}
		e.sleep(delay)
	}

	e.logger.Info("All on (white)", "for", delay)
	if err := e.array.AllOff(); err != nil {
		return err
	}
	if err := e.array.SetColor(Color{R: full, G: full, B: full}); err != nil {
		return err
	}
	e.sleep(delay)

	stages := []struct {
		name  string
		color Color
	}{
		{"off", Off},
		{"red", Color{R: full}},
		{"purple", Color{R: full, B: full}},
		{"white", Color{R: full, G: full, B: full}},
	}
	for _, stage := range stages {
		e.logger.Info("Fade test", "to", stage.name, "in", delay)
		if err := e.Fade(stage.color, delay); err != nil {
			return err
		}
	}

	e.logger.Info("Test complete")
	return nil
}

// Pulse fades to target and back to off count times, each pulse taking
// roughly rate
func (e *Engine) Pulse(target Color, rate time.Duration, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: pulse count must not be negative, got %d", ErrConfig, count)
	}
	half := rate / 2
	for i := 0; i < count; i++ {
		if err := e.Fade(target, half); err != nil {
			return err
		}
		if err := e.Fade(Off, half); err != nil {
			return err
		}
	}
	return nil
}
