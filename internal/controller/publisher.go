package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-led/internal/ledarray"
	"github.com/saaga0h/jeeves-led/pkg/config"
	"github.com/saaga0h/jeeves-led/pkg/mqtt"
)

const (
	// minPublishInterval limits step messages during fast loops
	minPublishInterval = time.Second

	connectTimeout = 10 * time.Second
)

// Publish events
const (
	EventStarted = "started"
	EventStep    = "step"
	EventStopped = "stopped"
)

// StateMessage is the lighting context published for the array
type StateMessage struct {
	Source    string `json:"source"`
	Type      string `json:"type"`
	Location  string `json:"location"`
	State     string `json:"state"`
	Event     string `json:"event"`
	Mode      string `json:"mode"`
	Red       int    `json:"red"`
	Green     int    `json:"green"`
	Blue      int    `json:"blue"`
	RunID     string `json:"run_id"`
	Timestamp string `json:"timestamp"`
}

// Publisher sends array state to MQTT. A Publisher without a client does nothing.
type Publisher struct {
	mqtt     mqtt.Client
	topic    string
	source   string
	location string
	runID    string
	limiter  *RateLimiter
	logger   *slog.Logger
	now      func() time.Time
}

// NewPublisher creates a state publisher. client may be nil when MQTT is disabled.
func NewPublisher(client mqtt.Client, cfg *config.Config, logger *slog.Logger) *Publisher {
	return &Publisher{
		mqtt:     client,
		topic:    mqtt.LightingContextTopic(cfg.Location),
		source:   cfg.ServiceName,
		location: cfg.Location,
		runID:    uuid.NewString(),
		limiter:  NewRateLimiter(minPublishInterval),
		logger:   logger,
		now:      time.Now,
	}
}

// Enabled reports whether messages go anywhere
func (p *Publisher) Enabled() bool {
	return p != nil && p.mqtt != nil
}

// RunID identifies this agent run in published messages
func (p *Publisher) RunID() string {
	return p.runID
}

// Connect connects to the broker
func (p *Publisher) Connect(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return p.mqtt.Connect(ctx)
}

// PublishState publishes the array colour. Step events are rate limited,
// other events always go out.
func (p *Publisher) PublishState(event, mode string, color ledarray.Color) error {
	if !p.Enabled() {
		return nil
	}

	if event == EventStep && !p.limiter.Allow(p.topic) {
		return nil
	}

	msg := StateMessage{
		Source:    p.source,
		Type:      "lighting",
		Location:  p.location,
		State:     stateOf(color),
		Event:     event,
		Mode:      mode,
		Red:       color.R,
		Green:     color.G,
		Blue:      color.B,
		RunID:     p.runID,
		Timestamp: p.now().Format(time.RFC3339),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal state message: %w", err)
	}

	if err := p.mqtt.Publish(p.topic, 0, true, payload); err != nil {
		return fmt.Errorf("failed to publish state to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published array state", "topic", p.topic, "event", event, "color", color)
	return nil
}

// Close publishes the array as off and disconnects
func (p *Publisher) Close(mode string) {
	if !p.Enabled() {
		return
	}

	if err := p.PublishState(EventStopped, mode, ledarray.Off); err != nil {
		p.logger.Warn("Failed to publish final state", "error", err)
	}
	p.mqtt.Disconnect()
}

func stateOf(c ledarray.Color) string {
	if c == ledarray.Off {
		return "off"
	}
	return "on"
}
