package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_DefaultsAreValid(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ModeCycle, cfg.Mode())
	assert.Equal(t, time.Second, cfg.RateDuration())
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTAddress())
	assert.Equal(t, "localhost:6379", cfg.RedisAddress())
}

func TestLoad_Hierarchy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "led.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
red_pin: "18"
green_pin: "13"
blue_pin: "19"
pwm_max: 255
backend: rpio
rate: 4.5
location: hallway
`), 0o644))

	t.Setenv("JEEVES_PWM_MAX", "1024")
	t.Setenv("JEEVES_LOCATION", "kitchen")

	cfg, err := Load([]string{"--config", path, "--location", "study", "-vv"})
	require.NoError(t, err)

	assert.Equal(t, "18", cfg.RedPin, "file overrides default")
	assert.Equal(t, "rpio", cfg.Backend)
	assert.Equal(t, 4.5, cfg.Rate)
	assert.Equal(t, 1024, cfg.PWMMax, "env overrides file")
	assert.Equal(t, "study", cfg.Location, "flag overrides env")
	assert.Equal(t, 2, cfg.Verbose)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "led.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clock: true\nnight_level: 0.25\n"), 0o644))
	t.Setenv("JEEVES_CONFIG_FILE", path)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.True(t, cfg.Clock)
	assert.Equal(t, 0.25, cfg.NightLevel)
	assert.Equal(t, ModeClock, cfg.Mode())
}

func TestLoad_BadInputs(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	_, err = Load([]string{"--no-such-flag"})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pwm_max: [oops\n"), 0o644))
	_, err = Load([]string{"--config", path})
	assert.Error(t, err)
}

func TestLoadFromFlags_ShortForms(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFlags([]string{"-t", "-r", "0.5", "-f", "seq.txt"}))

	assert.True(t, cfg.Test)
	assert.Equal(t, 500*time.Millisecond, cfg.RateDuration())
	assert.Equal(t, "seq.txt", cfg.File)
	assert.Equal(t, ModeTest, cfg.Mode())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(c *Config)
	}{
		{"zero pwm max", func(c *Config) { c.PWMMax = 0 }},
		{"missing pin", func(c *Config) { c.GreenPin = "" }},
		{"negative rate", func(c *Config) { c.Rate = -1 }},
		{"NaN rate", func(c *Config) { c.Rate = math.NaN() }},
		{"infinite rate", func(c *Config) { c.Rate = math.Inf(1) }},
		{"rate beyond a duration", func(c *Config) { c.Rate = 1e10 }},
		{"NaN night level", func(c *Config) { c.NightLevel = math.NaN() }},
		{"night level above one", func(c *Config) { c.NightLevel = 1.5 }},
		{"unknown backend", func(c *Config) { c.Backend = "gpio" }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"two modes", func(c *Config) { c.Random = true; c.Clock = true }},
		{"pulse without clock", func(c *Config) { c.WarningPulse = true }},
		{"upload without key", func(c *Config) { c.UploadSequence = true; c.File = "seq.txt" }},
		{"mqtt without broker", func(c *Config) { c.EnableMQTT = true; c.MQTTBroker = "" }},
		{"bad redis port", func(c *Config) { c.SequenceKey = "led:sequence:x"; c.RedisPort = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			tc.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMode(t *testing.T) {
	cfg := NewConfig()
	cfg.Random = true
	assert.Equal(t, ModeRandom, cfg.Mode())

	cfg = NewConfig()
	cfg.SequenceKey = "led:sequence:demo"
	assert.Equal(t, ModeSequence, cfg.Mode())

	cfg = NewConfig()
	cfg.File = "seq.txt"
	cfg.SequenceKey = "led:sequence:demo"
	cfg.UploadSequence = true
	assert.NoError(t, cfg.Validate())
}

func TestLoad_RejectsNaNRateFlag(t *testing.T) {
	cfg, err := Load([]string{"--rate", "NaN"})
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg, err = Load([]string{"--rate", "9223372037"})
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg, err = Load([]string{"--rate", "9223372036"})
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_ModeSwitches(t *testing.T) {
	t.Setenv("JEEVES_CLOCK", "true")
	t.Setenv("JEEVES_WARNING_PULSE", "1")

	cfg := NewConfig()
	cfg.LoadFromEnv()
	assert.True(t, cfg.Clock)
	assert.True(t, cfg.WarningPulse)
	assert.Equal(t, ModeClock, cfg.Mode())
	require.NoError(t, cfg.Validate())

	t.Setenv("JEEVES_CLOCK", "false")
	t.Setenv("JEEVES_WARNING_PULSE", "")
	t.Setenv("JEEVES_RANDOM", "true")
	cfg = NewConfig()
	cfg.LoadFromEnv()
	assert.Equal(t, ModeRandom, cfg.Mode())

	t.Setenv("JEEVES_RANDOM", "")
	t.Setenv("JEEVES_TEST", "true")
	cfg = NewConfig()
	cfg.LoadFromEnv()
	assert.Equal(t, ModeTest, cfg.Mode())

	// a flag still wins over the environment
	require.NoError(t, cfg.LoadFromFlags([]string{"--test=false"}))
	assert.Equal(t, ModeCycle, cfg.Mode())
}

func TestValidate_BeagleBoneBackendTakesHeaderPins(t *testing.T) {
	cfg := NewConfig()
	cfg.Backend = "bbb"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "P8_13", cfg.RedPin)
}
