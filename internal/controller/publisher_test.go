package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-led/internal/ledarray"
)

func TestPublisher_Disabled(t *testing.T) {
	var nilPublisher *Publisher
	assert.False(t, nilPublisher.Enabled())
	assert.NoError(t, nilPublisher.Connect(context.Background()))
	assert.NoError(t, nilPublisher.PublishState(EventStep, "cycle", ledarray.Off))
	nilPublisher.Close("cycle")

	noClient := NewPublisher(nil, testConfig(100), testLogger())
	assert.False(t, noClient.Enabled())
	assert.NoError(t, noClient.PublishState(EventStarted, "cycle", ledarray.Off))
}

func TestPublisher_StateMessage(t *testing.T) {
	mqttClient := &mockMQTTClient{}
	cfg := testConfig(100)
	publisher := NewPublisher(mqttClient, cfg, testLogger())
	publisher.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, publisher.Connect(context.Background()))
	assert.True(t, mqttClient.IsConnected())
	require.NoError(t, publisher.PublishState(EventStarted, "clock", ledarray.Color{R: 95, B: 5}))

	require.Len(t, mqttClient.published, 1)
	assert.Equal(t, "automation/context/lighting/hallway", mqttClient.published[0].topic)
	assert.True(t, mqttClient.published[0].retained)

	msg := mqttClient.messages(t)[0]
	assert.Equal(t, StateMessage{
		Source:    "led-agent",
		Type:      "lighting",
		Location:  "hallway",
		State:     "on",
		Event:     EventStarted,
		Mode:      "clock",
		Red:       95,
		Green:     0,
		Blue:      5,
		RunID:     publisher.RunID(),
		Timestamp: "2025-03-01T12:00:00Z",
	}, msg)
	assert.NotEmpty(t, msg.RunID)
}

func TestPublisher_StepsAreRateLimited(t *testing.T) {
	mqttClient := &mockMQTTClient{}
	publisher := NewPublisher(mqttClient, testConfig(100), testLogger())

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	publisher.limiter.now = func() time.Time { return clock }

	require.NoError(t, publisher.PublishState(EventStep, "random", ledarray.Color{R: 1}))
	require.NoError(t, publisher.PublishState(EventStep, "random", ledarray.Color{R: 2}))
	clock = clock.Add(minPublishInterval)
	require.NoError(t, publisher.PublishState(EventStep, "random", ledarray.Color{R: 3}))
	require.NoError(t, publisher.PublishState(EventStarted, "random", ledarray.Color{R: 4}))

	msgs := mqttClient.messages(t)
	require.Len(t, msgs, 3)
	assert.Equal(t, 1, msgs[0].Red)
	assert.Equal(t, 3, msgs[1].Red)
	assert.Equal(t, 4, msgs[2].Red, "non-step events bypass the limit")
}

func TestPublisher_CloseReportsOff(t *testing.T) {
	mqttClient := &mockMQTTClient{}
	publisher := NewPublisher(mqttClient, testConfig(100), testLogger())

	publisher.Close("cycle")

	msgs := mqttClient.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, "off", msgs[0].State)
	assert.Equal(t, EventStopped, msgs[0].Event)
	assert.True(t, mqttClient.disconnected)
}

func TestRateLimiter_PerKey(t *testing.T) {
	rl := NewRateLimiter(time.Second)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are limited independently")

	clock = clock.Add(999 * time.Millisecond)
	assert.False(t, rl.Allow("a"))
	clock = clock.Add(time.Millisecond)
	assert.True(t, rl.Allow("a"))
}
