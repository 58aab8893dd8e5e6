package pwm

// Driver is the PWM capability an LED array drives. Pins are opaque
// identifiers understood by the concrete driver.
type Driver interface {
	// Start enables PWM output on a pin at the given initial duty cycle
	Start(pin string, duty int) error

	// SetDutyCycle writes a new duty cycle value to a started pin
	SetDutyCycle(pin string, value int) error

	// Stop disables PWM output on a pin
	Stop(pin string) error

	// Cleanup releases the underlying device. Calling it more than once is safe.
	Cleanup() error
}
