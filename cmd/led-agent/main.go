package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/saaga0h/jeeves-led/internal/controller"
	"github.com/saaga0h/jeeves-led/internal/ledarray"
	"github.com/saaga0h/jeeves-led/internal/sequence"
	"github.com/saaga0h/jeeves-led/pkg/config"
	"github.com/saaga0h/jeeves-led/pkg/health"
	"github.com/saaga0h/jeeves-led/pkg/mqtt"
	"github.com/saaga0h/jeeves-led/pkg/pwm"
	"github.com/saaga0h/jeeves-led/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → file → env → flags
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}

	// Set up structured logging
	logLevel := verbosity(parseLogLevel(cfg.LogLevel), cfg.Verbose)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting J.E.E.V.E.S. LED Agent",
		"version", "1.0",
		"service_name", cfg.ServiceName,
		"mode", cfg.Mode(),
		"backend", cfg.Backend,
		"pins", fmt.Sprintf("%s,%s,%s", cfg.RedPin, cfg.GreenPin, cfg.BluePin),
		"pwm_max", cfg.PWMMax,
		"log_level", logLevel.String())

	if cfg.UploadSequence {
		os.Exit(upload(cfg, logger))
	}
	os.Exit(run(cfg, logger))
}

// run owns the array so its deferred shutdown happens before the process exits
func run(cfg *config.Config, logger *slog.Logger) int {
	driver, err := pwm.Open(cfg.Backend, pwm.Options{
		PWMMax:    cfg.PWMMax,
		FreqHz:    cfg.PWMFreqHz,
		SysfsRoot: cfg.SysfsRoot,
	}, logger)
	if err != nil {
		logger.Error("Failed to open PWM driver", "backend", cfg.Backend, "error", err)
		return 1
	}

	pins := ledarray.Pins{Red: cfg.RedPin, Green: cfg.GreenPin, Blue: cfg.BluePin}
	array, err := ledarray.NewArray(driver, pins, cfg.PWMMax, logger)
	if err != nil {
		logger.Error("Failed to initialise LED array", "error", err)
		return 1
	}
	// Fallback for early returns; supervise releases the array on the normal path
	defer array.Shutdown()

	// Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Optional clients stay nil interfaces when disabled
	var mqttClient mqtt.Client
	if cfg.EnableMQTT {
		mqttClient = mqtt.NewClient(cfg, logger)
	}

	var redisClient redis.Client
	var source sequence.Source
	switch {
	case cfg.SequenceKey != "":
		redisClient = redis.NewClient(cfg, logger)
		defer redisClient.Close()
		source = sequence.RedisSource{Client: redisClient, Key: redis.ResolveSequenceKey(cfg.SequenceKey)}
	case cfg.File != "":
		source = sequence.FileSource{Path: cfg.File}
	}

	engine := ledarray.NewEngine(array, ledarray.WithLogger(logger))
	publisher := controller.NewPublisher(mqttClient, cfg, logger)
	agent := controller.NewAgent(engine, source, publisher, cfg, logger)

	// Start health check server
	var httpServer *http.Server
	if cfg.HealthPort != 0 {
		checker := health.NewChecker(agent, mqttClient, redisClient, logger)
		httpServer = startHealthServer(cfg.HealthPort, checker, logger)
	}

	exitCode := supervise(ctx, agent, array.Shutdown, sigChan, logger)

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down health server", "error", err)
		}
	}

	logger.Info("LED agent shutdown complete")
	return exitCode
}

// runner is the part of the agent supervise drives
type runner interface {
	Start(ctx context.Context) error
	Stop() error
}

// supervise runs agent until it returns or a signal arrives, stops it and
// releases the array. A panic in the agent is turned into a failure so the
// release still happens.
func supervise(ctx context.Context, agent runner, release func() error, sigChan <-chan os.Signal, logger *slog.Logger) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer func() {
		if err := release(); err != nil {
			logger.Error("Error releasing LED array", "error", err)
		}
	}()

	// Start agent in a goroutine
	agentDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				agentDone <- fmt.Errorf("agent panic: %v\n%s", r, debug.Stack())
			}
		}()
		agentDone <- agent.Start(ctx)
	}()

	// Wait for shutdown signal or the agent finishing
	exitCode := 0
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentDone:
		if err != nil {
			logger.Error("Agent failed", "error", err)
			exitCode = 1
		}
	}

	// Graceful shutdown. A fade in progress is not waited for: the array
	// drops its writes once shut down.
	logger.Info("Initiating graceful shutdown")
	cancel()

	if err := agent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}
	return exitCode
}

// upload stores the command file in Redis for agents running with --sequence-key
func upload(cfg *config.Config, logger *slog.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	redisClient := redis.NewClient(cfg, logger)
	defer redisClient.Close()

	key := redis.ResolveSequenceKey(cfg.SequenceKey)
	n, err := sequence.Upload(ctx, redisClient, key, sequence.FileSource{Path: cfg.File})
	if err != nil {
		logger.Error("Failed to upload sequence", "file", cfg.File, "key", key, "error", err)
		return 1
	}

	logger.Info("Sequence uploaded", "file", cfg.File, "key", key, "lines", n)
	return 0
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: checker.Mux(),
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// verbosity lowers level one step per -v, stopping at debug
func verbosity(level slog.Level, verbose int) slog.Level {
	level -= slog.Level(4 * verbose)
	if level < slog.LevelDebug {
		return slog.LevelDebug
	}
	return level
}
