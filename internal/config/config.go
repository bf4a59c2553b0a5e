package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for jobscout. Values come from the config
// file, environment variables and flags, merged by viper before unmarshaling.
type Config struct {
	Source    *SourceConfig    `mapstructure:"source"`
	Store     *StoreConfig     `mapstructure:"store"`
	Search    *SearchConfig    `mapstructure:"search"`
	Scheduler *SchedulerConfig `mapstructure:"scheduler"`
}

// SourceConfig controls the external job listing API.
type SourceConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Country    string `mapstructure:"country"`
	DatePosted string `mapstructure:"date-posted"`
	// Platforms selects which listing sites to query. Supported values are
	// "linkedin" and "naukri".
	Platforms []string `mapstructure:"platforms" validate:"omitempty,dive,oneof=linkedin naukri"`
	// RequestInterval is the minimum gap between outbound API requests.
	RequestInterval time.Duration `mapstructure:"request-interval" validate:"omitempty,min=0"`
}

type StoreConfig struct {
	DatabaseURL string `mapstructure:"database-url" validate:"required"`
	RedisURL    string `mapstructure:"redis-url"`
}

type SearchConfig struct {
	Limit                int `mapstructure:"limit" validate:"omitempty,min=1"`
	PerTaskResults       int `mapstructure:"per-task-results" validate:"omitempty,min=1"`
	RecentPerTaskResults int `mapstructure:"recent-per-task-results" validate:"omitempty,min=1"`
	Concurrency          int `mapstructure:"concurrency" validate:"omitempty,min=1"`
}

type SchedulerConfig struct {
	IntervalHours int `mapstructure:"interval-hours" validate:"omitempty,min=1"`
}

const (
	defaultIntervalHours   = 6
	defaultRequestInterval = time.Second
)

// Normalize fills in nil sections and defaults so callers never need nil
// checks on nested config.
func (c *Config) Normalize() {
	if c.Source == nil {
		c.Source = &SourceConfig{}
	}
	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	if c.Search == nil {
		c.Search = &SearchConfig{}
	}
	if c.Scheduler == nil {
		c.Scheduler = &SchedulerConfig{}
	}

	if c.Source.RequestInterval == 0 {
		c.Source.RequestInterval = defaultRequestInterval
	}
	if c.Scheduler.IntervalHours == 0 {
		c.Scheduler.IntervalHours = defaultIntervalHours
	}
}

// Validate checks structural constraints on the merged configuration.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
