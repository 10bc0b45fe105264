package captchaverify

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`

	// DefaultVerifier is used when the job names none. Empty selects the
	// first enabled verifier.
	DefaultVerifier string   `mapstructure:"default_verifier"`
	DefaultAction   string   `mapstructure:"default_action"`
	ScoreThreshold  *float64 `mapstructure:"score_threshold"`
	ResultTimeout   int      `mapstructure:"result_timeout"` // seconds, 0 disables
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		Timeout:       15 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.ScoreThreshold != nil && (*c.ScoreThreshold < 0 || *c.ScoreThreshold > 1) {
		return fmt.Errorf("score_threshold must be between 0 and 1")
	}
	if c.ResultTimeout < 0 {
		return fmt.Errorf("result_timeout must not be negative")
	}
	return nil
}
