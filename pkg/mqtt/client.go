package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-led/pkg/config"
)

// publishTimeout bounds how long a state message may hold up the LED loop
const publishTimeout = 2 * time.Second

// OfflinePayload is left retained on the lighting topic by the broker when
// the agent drops without disconnecting
const OfflinePayload = `{"state":"offline"}`

// mqttClient publishes through Paho. It never subscribes.
type mqttClient struct {
	client pahomqtt.Client
	broker string
	logger *slog.Logger
}

// NewClient creates a publish-only MQTT client for the LED agent
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	return &mqttClient{
		client: pahomqtt.NewClient(clientOptions(cfg, logger)),
		broker: cfg.MQTTAddress(),
		logger: logger,
	}
}

func clientOptions(cfg *config.Config, logger *slog.Logger) *pahomqtt.ClientOptions {
	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = fmt.Sprintf("%s-%s", cfg.ServiceName, uuid.NewString()[:8])
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.MQTTAddress()).
		SetClientID(clientID).
		SetUsername(cfg.MQTTUser).
		SetPassword(cfg.MQTTPassword).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30*time.Second).
		SetWill(LightingContextTopic(cfg.Location), OfflinePayload, 1, true)

	opts.OnConnect = func(c pahomqtt.Client) {
		logger.Info("Connected to MQTT broker", "broker", cfg.MQTTAddress(), "client_id", clientID)
	}
	opts.OnConnectionLost = func(c pahomqtt.Client, err error) {
		logger.Warn("MQTT connection lost, state updates paused", "error", err)
	}
	return opts
}

// Connect connects to the broker, giving up when ctx ends
func (m *mqttClient) Connect(ctx context.Context) error {
	m.logger.Info("Connecting to MQTT broker", "broker", m.broker)

	token := m.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to connect to MQTT broker %s: %w", m.broker, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connecting to MQTT broker %s: %w", m.broker, ctx.Err())
	}
}

// Disconnect flushes pending messages for up to 250ms and closes the connection
func (m *mqttClient) Disconnect() {
	m.client.Disconnect(250)
	m.logger.Info("Disconnected from MQTT broker")
}

// Publish sends payload and waits at most publishTimeout for the broker
func (m *mqttClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out after %s", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// IsConnected returns whether the client is currently connected
func (m *mqttClient) IsConnected() bool {
	return m.client.IsConnected()
}
