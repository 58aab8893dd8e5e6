package ledarray

import "errors"

var (
	// ErrConfig marks invalid configuration or a violated precondition
	// such as a non-positive PWM maximum or a negative rate
	ErrConfig = errors.New("configuration error")

	// ErrHardwareInit marks a PWM pin that could not be started
	ErrHardwareInit = errors.New("hardware init error")

	// ErrInvalidPin marks a write to a pin the array does not own. Such writes
	// are logged and dropped rather than returned to the caller.
	ErrInvalidPin = errors.New("invalid pin")
)
