package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/jeeves-led/internal/ledarray"
	"github.com/saaga0h/jeeves-led/pkg/mqtt"
	"github.com/saaga0h/jeeves-led/pkg/redis"
)

// StatusProvider reports what the LED array is currently showing
type StatusProvider interface {
	Mode() string
	State() ledarray.Color
}

// Checker provides health and status endpoints for the LED agent.
// The MQTT and Redis clients are optional; nil means the feature is disabled.
type Checker struct {
	status StatusProvider
	mqtt   mqtt.Client
	redis  redis.Client
	logger *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies
func NewChecker(status StatusProvider, mqttClient mqtt.Client, redisClient redis.Client, logger *slog.Logger) *Checker {
	return &Checker{
		status: status,
		mqtt:   mqttClient,
		redis:  redisClient,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis string `json:"redis"`
	MQTT  string `json:"mqtt"`
}

// StatusResponse is the body served on /status
type StatusResponse struct {
	Mode      string         `json:"mode"`
	Color     ledarray.Color `json:"color"`
	Timestamp string         `json:"timestamp"`
}

// HandlerFunc returns an HTTP handler function for health checks.
// Returns 200 if the process is alive without checking dependencies.
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: now(),
		})
	}
}

// DetailedHandlerFunc returns a handler that reports the optional dependencies.
// A disabled dependency does not degrade the result.
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{
			Redis: "disabled",
			MQTT:  "disabled",
		}

		if h.mqtt != nil {
			if h.mqtt.IsConnected() {
				services.MQTT = "connected"
			} else {
				services.MQTT = "disconnected"
			}
		}

		if h.redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			if err := h.redis.Ping(ctx); err != nil {
				h.logger.Debug("Redis ping failed", "error", err)
				services.Redis = "disconnected"
			} else {
				services.Redis = "connected"
			}
		}

		status := "healthy"
		statusCode := http.StatusOK
		if services.Redis == "disconnected" || services.MQTT == "disconnected" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		h.write(w, statusCode, HealthResponse{
			Status:    status,
			Timestamp: now(),
			Services:  services,
		})
	}
}

// StatusHandlerFunc returns a handler serving the current mode and colour
func (h *Checker) StatusHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, StatusResponse{
			Mode:      h.status.Mode(),
			Color:     h.status.State(),
			Timestamp: now(),
		})
	}
}

// Mux registers /health, /health/detailed and /status
func (h *Checker) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.HandlerFunc())
	mux.HandleFunc("/health/detailed", h.DetailedHandlerFunc())
	mux.HandleFunc("/status", h.StatusHandlerFunc())
	return mux
}

func (h *Checker) write(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
