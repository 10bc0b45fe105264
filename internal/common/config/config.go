// internal/common/config/config.go
package config

import (
	"strings"

	"captcha-workers/internal/common/captcha"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Captcha  CaptchaConfig           `mapstructure:"captcha"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Server   ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	UsePlaintext   bool   `mapstructure:"use_plaintext"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// KeyPrefix namespaces the verifier settings keys.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// ServerConfig is the health and metrics HTTP listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// --- Captcha Configuration ---

// Settings sources for verifier configuration.
const (
	SettingsSourceConfig = "config"
	SettingsSourceRedis  = "redis"
)

// CaptchaConfig configures the verifier registry.
type CaptchaConfig struct {
	SettingsSource string          `mapstructure:"settings_source"`
	HostNames      []string        `mapstructure:"host_names"`
	HTTPTimeout    int             `mapstructure:"http_timeout"` // milliseconds
	Verifiers      []VerifierEntry `mapstructure:"verifiers"`

	// Policy applied when a job does not set its own.
	DefaultVerifier string   `mapstructure:"default_verifier"`
	DefaultAction   string   `mapstructure:"default_action"`
	ScoreThreshold  *float64 `mapstructure:"score_threshold"`
	ResultTimeout   int      `mapstructure:"result_timeout"` // seconds
}

// VerifierEntry is one verifier in configuration order. Every key besides
// name is passed to the verifier factory untouched.
type VerifierEntry struct {
	Name     string                 `mapstructure:"name"`
	Settings map[string]interface{} `mapstructure:",remain"`
}

// SettingsProvider exposes the configured verifiers in order.
func (c CaptchaConfig) SettingsProvider() captcha.StaticSettings {
	out := make(captcha.StaticSettings, 0, len(c.Verifiers))
	for _, entry := range c.Verifiers {
		out = append(out, captcha.NamedSettings{Name: entry.Name, Settings: entry.Settings})
	}
	return out
}

// Verifier returns the entry named name, ignoring case.
func (c CaptchaConfig) Verifier(name string) (VerifierEntry, bool) {
	for _, entry := range c.Verifiers {
		if strings.EqualFold(entry.Name, name) {
			return entry, true
		}
	}
	return VerifierEntry{}, false
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
