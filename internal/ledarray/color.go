package ledarray

import "fmt"

// Channel identifies one colour output of the array
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists the outputs in write order
var Channels = [...]Channel{Red, Green, Blue}

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Valid reports whether c is one of red, green or blue
func (c Channel) Valid() bool {
	return c >= Red && c <= Blue
}

// Pins holds the hardware pin identifier of each channel
type Pins struct {
	Red   string `json:"red" yaml:"red"`
	Green string `json:"green" yaml:"green"`
	Blue  string `json:"blue" yaml:"blue"`
}

// Pin returns the identifier bound to a channel
func (p Pins) Pin(c Channel) string {
	switch c {
	case Red:
		return p.Red
	case Green:
		return p.Green
	case Blue:
		return p.Blue
	default:
		return ""
	}
}

// Lookup finds the channel a pin identifier is bound to
func (p Pins) Lookup(pin string) (Channel, bool) {
	for _, c := range Channels {
		if p.Pin(c) == pin {
			return c, true
		}
	}
	return 0, false
}

// Color is a duty cycle value per channel. Values are not clamped to the
// array's scale; whatever is asked for is forwarded to the driver.
type Color struct {
	R int `json:"red"`
	G int `json:"green"`
	B int `json:"blue"`
}

// Get returns the value for one channel
func (c Color) Get(ch Channel) int {
	switch ch {
	case Red:
		return c.R
	case Green:
		return c.G
	case Blue:
		return c.B
	default:
		return 0
	}
}

// Scale multiplies every channel by f, truncating
func (c Color) Scale(f float64) Color {
	return Color{R: int(float64(c.R) * f), G: int(float64(c.G) * f), B: int(float64(c.B) * f)}
}

func (c Color) String() string {
	return fmt.Sprintf("Red = %d | Green = %d | Blue = %d", c.R, c.G, c.B)
}

// Off is every channel at zero
var Off = Color{}

// HueWheel returns the six corners visited by a colour cycle: violet, red,
// yellow, green, teal and finally blue
func HueWheel(pwmMax int) []Color {
	return []Color{
		{R: pwmMax, G: 0, B: pwmMax},
		{R: pwmMax, G: 0, B: 0},
		{R: pwmMax, G: pwmMax, B: 0},
		{R: 0, G: pwmMax, B: 0},
		{R: 0, G: pwmMax, B: pwmMax},
		{R: 0, G: 0, B: pwmMax},
	}
}
