package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Modes the agent can run in
const (
	ModeCycle    = "cycle"
	ModeTest     = "test"
	ModeRandom   = "random"
	ModeSequence = "sequence"
	ModeClock    = "clock"
)

// maxRateSeconds is the longest rate that still fits a time.Duration
const maxRateSeconds = float64(math.MaxInt64) / float64(time.Second)

// Config holds the configuration for the LED agent
type Config struct {
	// LED array
	RedPin    string `yaml:"red_pin"`
	GreenPin  string `yaml:"green_pin"`
	BluePin   string `yaml:"blue_pin"`
	PWMMax    int    `yaml:"pwm_max"`
	PWMFreqHz int    `yaml:"pwm_freq_hz"`
	Backend   string `yaml:"backend"`
	SysfsRoot string `yaml:"sysfs_root"`

	// Modes
	Rate           float64 `yaml:"rate"`
	Test           bool    `yaml:"test"`
	Random         bool    `yaml:"random"`
	Clock          bool    `yaml:"clock"`
	WarningPulse   bool    `yaml:"warning_pulse"`
	File           string  `yaml:"file"`
	SequenceKey    string  `yaml:"sequence_key"`
	UploadSequence bool    `yaml:"-"`

	// Clock dimming
	Latitude   float64 `yaml:"latitude"`
	Longitude  float64 `yaml:"longitude"`
	NightLevel float64 `yaml:"night_level"`

	// MQTT configuration
	EnableMQTT   bool   `yaml:"enable_mqtt"`
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTPort     int    `yaml:"mqtt_port"`
	MQTTUser     string `yaml:"mqtt_user"`
	MQTTPassword string `yaml:"mqtt_password"`
	MQTTClientID string `yaml:"mqtt_client_id"`

	// Redis configuration
	RedisHost     string `yaml:"redis_host"`
	RedisPort     int    `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Service configuration
	ServiceName string `yaml:"service_name"`
	Location    string `yaml:"location"`
	HealthPort  int    `yaml:"health_port"`
	LogLevel    string `yaml:"log_level"`
	Verbose     int    `yaml:"-"`
	ConfigFile  string `yaml:"-"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		RedPin:      "P8_13",
		GreenPin:    "P8_19",
		BluePin:     "P9_14",
		PWMMax:      100,
		PWMFreqHz:   2000,
		Backend:     "sim",
		SysfsRoot:   "/sys/class/pwm",
		Rate:        1.0,
		Latitude:    60.1695,
		Longitude:   24.9354,
		NightLevel:  1.0,
		EnableMQTT:  false,
		MQTTBroker:  "localhost",
		MQTTPort:    1883,
		RedisHost:   "localhost",
		RedisPort:   6379,
		RedisDB:     0,
		ServiceName: "led-agent",
		Location:    "led_array",
		HealthPort:  8080,
		LogLevel:    "warn",
	}
}

// Load builds the configuration with hierarchy: defaults → file → env → flags.
// The config file path itself may come from --config or JEEVES_CONFIG_FILE.
func Load(args []string) (*Config, error) {
	probe := NewConfig()
	probe.LoadFromEnv()
	if err := probe.LoadFromFlags(args); err != nil {
		return nil, err
	}

	cfg := NewConfig()
	if probe.ConfigFile != "" {
		if err := cfg.LoadFromFile(probe.ConfigFile); err != nil {
			return nil, err
		}
	}
	cfg.LoadFromEnv()
	if err := cfg.LoadFromFlags(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads YAML configuration, leaving unset keys untouched
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	c.ConfigFile = path
	return nil
}

// LoadFromEnv loads configuration from environment variables with JEEVES_ prefix
func (c *Config) LoadFromEnv() {
	// LED array configuration
	if v := os.Getenv("JEEVES_RED_PIN"); v != "" {
		c.RedPin = v
	}
	if v := os.Getenv("JEEVES_GREEN_PIN"); v != "" {
		c.GreenPin = v
	}
	if v := os.Getenv("JEEVES_BLUE_PIN"); v != "" {
		c.BluePin = v
	}
	if v := os.Getenv("JEEVES_PWM_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PWMMax = n
		}
	}
	if v := os.Getenv("JEEVES_PWM_FREQ_HZ"); v != "" {
		if freq, err := strconv.Atoi(v); err == nil {
			c.PWMFreqHz = freq
		}
	}
	if v := os.Getenv("JEEVES_PWM_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("JEEVES_PWM_SYSFS_ROOT"); v != "" {
		c.SysfsRoot = v
	}

	// Mode configuration
	if v := os.Getenv("JEEVES_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.Rate = rate
		}
	}
	if v := os.Getenv("JEEVES_TEST"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Test = on
		}
	}
	if v := os.Getenv("JEEVES_RANDOM"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Random = on
		}
	}
	if v := os.Getenv("JEEVES_CLOCK"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Clock = on
		}
	}
	if v := os.Getenv("JEEVES_WARNING_PULSE"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.WarningPulse = on
		}
	}
	if v := os.Getenv("JEEVES_SEQUENCE_FILE"); v != "" {
		c.File = v
	}
	if v := os.Getenv("JEEVES_SEQUENCE_KEY"); v != "" {
		c.SequenceKey = v
	}
	if v := os.Getenv("JEEVES_NIGHT_LEVEL"); v != "" {
		if level, err := strconv.ParseFloat(v, 64); err == nil {
			c.NightLevel = level
		}
	}
	if v := os.Getenv("JEEVES_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("JEEVES_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}

	// MQTT configuration
	if v := os.Getenv("JEEVES_ENABLE_MQTT"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.EnableMQTT = enable
		}
	}
	if v := os.Getenv("JEEVES_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("JEEVES_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("JEEVES_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("JEEVES_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("JEEVES_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("JEEVES_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("JEEVES_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("JEEVES_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("JEEVES_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Service configuration
	if v := os.Getenv("JEEVES_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("JEEVES_LOCATION"); v != "" {
		c.Location = v
	}
	if v := os.Getenv("JEEVES_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("JEEVES_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("JEEVES_CONFIG_FILE"); v != "" {
		c.ConfigFile = v
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags(args []string) error {
	fs := pflag.NewFlagSet(c.ServiceName, pflag.ContinueOnError)

	// LED array flags
	fs.StringVar(&c.RedPin, "red-pin", c.RedPin, "Name of the red PWM pin")
	fs.StringVar(&c.GreenPin, "green-pin", c.GreenPin, "Name of the green PWM pin")
	fs.StringVar(&c.BluePin, "blue-pin", c.BluePin, "Name of the blue PWM pin")
	fs.IntVar(&c.PWMMax, "pwm-max", c.PWMMax, "Max value the PWM driver will accept")
	fs.IntVar(&c.PWMFreqHz, "pwm-freq", c.PWMFreqHz, "PWM output frequency in Hz (rpio, sysfs, bbb)")
	fs.StringVar(&c.Backend, "backend", c.Backend, "PWM backend (sim, rpio, sysfs, bbb)")
	fs.StringVar(&c.SysfsRoot, "sysfs-root", c.SysfsRoot, "Root of the sysfs PWM class")

	// Mode flags
	fs.Float64VarP(&c.Rate, "rate", "r", c.Rate, "Approximate rate in seconds for transitions")
	fs.BoolVarP(&c.Test, "test", "t", c.Test, "Run a basic test sequence")
	fs.BoolVar(&c.Random, "random", c.Random, "Change the LED colors randomly")
	fs.BoolVar(&c.Clock, "clock", c.Clock, "Show the minute of the hour as a color")
	fs.BoolVar(&c.WarningPulse, "warning-pulse", c.WarningPulse, "Pulse on 30 minute boundaries (clock mode)")
	fs.StringVarP(&c.File, "file", "f", c.File, "Command file to play")
	fs.StringVar(&c.SequenceKey, "sequence-key", c.SequenceKey, "Redis list (or bare sequence name) holding commands to play")
	fs.BoolVar(&c.UploadSequence, "upload-sequence", c.UploadSequence, "Store --file in Redis under --sequence-key and exit")

	// Clock dimming flags
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for sunset dimming")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for sunset dimming")
	fs.Float64Var(&c.NightLevel, "night-level", c.NightLevel, "Clock brightness factor while the sun is down (0-1)")

	// MQTT flags
	fs.BoolVar(&c.EnableMQTT, "enable-mqtt", c.EnableMQTT, "Publish array state over MQTT")
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.StringVar(&c.Location, "location", c.Location, "Location name used in published topics")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port (0 disables)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.CountVarP(&c.Verbose, "verbose", "v", "Lower the log level one step per use")
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "YAML config file")

	return fs.Parse(args)
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.RedPin == "" || c.GreenPin == "" || c.BluePin == "" {
		return fmt.Errorf("red, green and blue pins are required")
	}
	if c.PWMMax <= 0 {
		return fmt.Errorf("PWM max must be positive, got %d", c.PWMMax)
	}
	if c.PWMFreqHz <= 0 {
		return fmt.Errorf("PWM frequency must be positive, got %d", c.PWMFreqHz)
	}
	if math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) || c.Rate < 0 {
		return fmt.Errorf("rate must be a non-negative number, got %v", c.Rate)
	}
	if c.Rate >= maxRateSeconds {
		return fmt.Errorf("rate %v is too long", c.Rate)
	}
	if math.IsNaN(c.NightLevel) || c.NightLevel < 0 || c.NightLevel > 1 {
		return fmt.Errorf("night level must be between 0 and 1, got %v", c.NightLevel)
	}
	if c.HealthPort < 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 0 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}

	validBackends := map[string]bool{
		"sim":   true,
		"rpio":  true,
		"sysfs": true,
		"bbb":   true,
	}
	if !validBackends[c.Backend] {
		return fmt.Errorf("invalid backend: %s (must be sim, rpio, sysfs, or bbb)", c.Backend)
	}

	if c.EnableMQTT {
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT broker is required")
		}
		if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
			return fmt.Errorf("MQTT port must be between 1 and 65535")
		}
	}
	if c.SequenceKey != "" {
		if c.RedisHost == "" {
			return fmt.Errorf("Redis host is required")
		}
		if c.RedisPort <= 0 || c.RedisPort > 65535 {
			return fmt.Errorf("Redis port must be between 1 and 65535")
		}
	}
	if c.UploadSequence && (c.File == "" || c.SequenceKey == "") {
		return fmt.Errorf("--upload-sequence needs both --file and --sequence-key")
	}

	selected := 0
	for _, on := range []bool{c.Test, c.Random, c.Clock, c.File != "" && !c.UploadSequence, c.SequenceKey != "" && !c.UploadSequence} {
		if on {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("choose at most one of --test, --random, --clock, --file, --sequence-key")
	}
	if c.WarningPulse && !c.Clock {
		return fmt.Errorf("--warning-pulse requires --clock")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Mode returns the run mode selected by the flags
func (c *Config) Mode() string {
	switch {
	case c.Test:
		return ModeTest
	case c.File != "" || c.SequenceKey != "":
		return ModeSequence
	case c.Random:
		return ModeRandom
	case c.Clock:
		return ModeClock
	default:
		return ModeCycle
	}
}

// RateDuration returns the transition rate as a duration
func (c *Config) RateDuration() time.Duration {
	return time.Duration(c.Rate * float64(time.Second))
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
