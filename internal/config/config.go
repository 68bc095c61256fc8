// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration for the assignment service.
type Config struct {
	Port        string `envconfig:"ASSIGNMENT_PORT" default:"8083"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL" required:"true"`

	// Suggestion engine tuning.
	ScoringWorkers  int `envconfig:"SCORING_WORKERS" default:"8"`
	SuggestionLimit int `envconfig:"SUGGESTION_LIMIT" default:"50"`

	// Retention sweep for processed suggestions.
	RetentionDays      int `envconfig:"SUGGESTION_RETENTION_DAYS" default:"90"`
	SweepIntervalHours int `envconfig:"SWEEP_INTERVAL_HOURS" default:"24"`
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("envconfig: %w", err)
	}
	if c.ScoringWorkers < 1 {
		return nil, fmt.Errorf("SCORING_WORKERS must be at least 1")
	}
	if c.SuggestionLimit < 1 {
		return nil, fmt.Errorf("SUGGESTION_LIMIT must be at least 1")
	}
	return &c, nil
}
