package pwm

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSimulated_RecordsCalls(t *testing.T) {
	s := NewSimulated(testLogger())

	require.NoError(t, s.Start("P8_13", 0))
	require.NoError(t, s.SetDutyCycle("P8_13", 42))
	require.NoError(t, s.Stop("P8_13"))
	require.NoError(t, s.Cleanup())
	require.NoError(t, s.Cleanup())

	assert.Equal(t, []Call{
		{Op: OpStart, Pin: "P8_13"},
		{Op: OpSet, Pin: "P8_13", Value: 42},
		{Op: OpStop, Pin: "P8_13"},
		{Op: OpCleanup},
		{Op: OpCleanup},
	}, s.Calls())
	assert.Equal(t, 2, s.CleanupCount())
}

func TestSimulated_FaultInjection(t *testing.T) {
	s := NewSimulated(nil)
	s.StartErrors = map[string]error{"P9_14": errors.New("no such pin")}

	assert.Error(t, s.Start("P9_14", 0))
	assert.Error(t, s.SetDutyCycle("P8_19", 1), "write to a pin that was never started")

	require.NoError(t, s.Start("P8_19", 0))
	s.SetError = func(pin string, value int) error {
		if value > 50 {
			return errors.New("boom")
		}
		return nil
	}
	assert.NoError(t, s.SetDutyCycle("P8_19", 50))
	assert.Error(t, s.SetDutyCycle("P8_19", 51))
	assert.Equal(t, 50, s.Duty("P8_19"))
}
