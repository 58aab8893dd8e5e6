package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-led/internal/ledarray"
	"github.com/saaga0h/jeeves-led/pkg/config"
	"github.com/saaga0h/jeeves-led/pkg/pwm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockMQTTClient records published messages
type mockMQTTClient struct {
	mu           sync.Mutex
	connected    bool
	connectErr   error
	disconnected bool
	published    []publishedMessage
}

type publishedMessage struct {
	topic    string
	retained bool
	payload  []byte
}

func (m *mockMQTTClient) Connect(ctx context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

func (m *mockMQTTClient) Disconnect() {
	m.disconnected = true
	m.connected = false
}

func (m *mockMQTTClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMessage{topic: topic, retained: retained, payload: payload})
	return nil
}

func (m *mockMQTTClient) IsConnected() bool {
	return m.connected
}

func (m *mockMQTTClient) messages(t *testing.T) []StateMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := make([]StateMessage, 0, len(m.published))
	for _, p := range m.published {
		var msg StateMessage
		require.NoError(t, json.Unmarshal(p.payload, &msg))
		msgs = append(msgs, msg)
	}
	return msgs
}

// harness wires an agent to a simulated driver with a recording sleep.
// stopAfter cancels the run context once that many pauses have been taken.
type harness struct {
	driver *pwm.Simulated
	array  *ledarray.Array
	engine *ledarray.Engine
	pauses []time.Duration
	ctx    context.Context
	cancel context.CancelFunc
}

func newHarness(t *testing.T, pwmMax int, stopAfter int) *harness {
	t.Helper()
	h := &harness{driver: pwm.NewSimulated(testLogger())}
	h.ctx, h.cancel = context.WithCancel(context.Background())
	t.Cleanup(h.cancel)

	array, err := ledarray.NewArray(h.driver, ledarray.Pins{Red: "18", Green: "13", Blue: "19"}, pwmMax, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { array.Shutdown() })
	h.array = array
	h.driver.Reset()

	h.engine = ledarray.NewEngine(array, ledarray.WithSleep(func(d time.Duration) {
		h.pauses = append(h.pauses, d)
		if stopAfter > 0 && len(h.pauses) == stopAfter {
			h.cancel()
		}
	}))
	return h
}

func testConfig(pwmMax int) *config.Config {
	cfg := config.NewConfig()
	cfg.PWMMax = pwmMax
	cfg.Location = "hallway"
	return cfg
}

func total(pauses []time.Duration) time.Duration {
	var sum time.Duration
	for _, p := range pauses {
		sum += p
	}
	return sum
}
