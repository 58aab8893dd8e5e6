package pwm

import (
	"fmt"
	"log/slog"
	"sync"
)

// Op names a driver operation recorded by Simulated
type Op string

const (
	OpStart   Op = "start"
	OpSet     Op = "set"
	OpStop    Op = "stop"
	OpCleanup Op = "cleanup"
)

// Call is one recorded driver operation
type Call struct {
	Op    Op
	Pin   string
	Value int
}

// Simulated is a Driver that keeps duty cycles in memory and records every call.
// It backs the "sim" backend for running without hardware and doubles as the
// fake driver in tests.
type Simulated struct {
	mu      sync.Mutex
	logger  *slog.Logger
	calls   []Call
	duty    map[string]int
	started map[string]bool
	cleanup int

	// StartErrors makes Start fail for the listed pins
	StartErrors map[string]error

	// SetError, when non-nil, is consulted before every SetDutyCycle
	SetError func(pin string, value int) error
}

// NewSimulated creates a simulated driver. A nil logger discards output.
func NewSimulated(logger *slog.Logger) *Simulated {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Simulated{
		logger:  logger,
		duty:    make(map[string]int),
		started: make(map[string]bool),
	}
}

// Start marks a pin as started
func (s *Simulated) Start(pin string, duty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.StartErrors[pin]; ok {
		return err
	}

	s.calls = append(s.calls, Call{Op: OpStart, Pin: pin, Value: duty})
	s.started[pin] = true
	s.duty[pin] = duty
	s.logger.Debug("Simulated PWM start", "pin", pin, "duty", duty)
	return nil
}

// SetDutyCycle stores the value for a started pin
func (s *Simulated) SetDutyCycle(pin string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SetError != nil {
		if err := s.SetError(pin, value); err != nil {
			return err
		}
	}
	if !s.started[pin] {
		return fmt.Errorf("pin %s not started", pin)
	}

	s.calls = append(s.calls, Call{Op: OpSet, Pin: pin, Value: value})
	s.duty[pin] = value
	s.logger.Debug("Simulated PWM duty cycle", "pin", pin, "value", value)
	return nil
}

// Stop marks a pin as stopped
func (s *Simulated) Stop(pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: OpStop, Pin: pin})
	delete(s.started, pin)
	s.duty[pin] = 0
	s.logger.Debug("Simulated PWM stop", "pin", pin)
	return nil
}

// Cleanup counts cleanup invocations
func (s *Simulated) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: OpCleanup})
	s.cleanup++
	return nil
}

// Calls returns a copy of the recorded calls
func (s *Simulated) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsOf returns the recorded calls of one operation kind
func (s *Simulated) CallsOf(op Op) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Duty returns the last value written to a pin
func (s *Simulated) Duty(pin string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duty[pin]
}

// CleanupCount returns how many times Cleanup was called
func (s *Simulated) CleanupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanup
}

// Reset clears the recorded calls, keeping pin state
func (s *Simulated) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
