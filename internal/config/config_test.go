package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFillsSectionsAndDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	require.NotNil(t, cfg.Source)
	require.NotNil(t, cfg.Store)
	require.NotNil(t, cfg.Search)
	require.NotNil(t, cfg.Scheduler)

	assert.Equal(t, time.Second, cfg.Source.RequestInterval)
	assert.Equal(t, defaultIntervalHours, cfg.Scheduler.IntervalHours)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Source:    &SourceConfig{RequestInterval: 250 * time.Millisecond},
		Scheduler: &SchedulerConfig{IntervalHours: 12},
	}
	cfg.Normalize()

	assert.Equal(t, 250*time.Millisecond, cfg.Source.RequestInterval)
	assert.Equal(t, 12, cfg.Scheduler.IntervalHours)
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	assert.Error(t, cfg.Validate())

	cfg.Store.DatabaseURL = "postgres://localhost/jobscout"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownPlatform(t *testing.T) {
	cfg := &Config{
		Store:  &StoreConfig{DatabaseURL: "postgres://localhost/jobscout"},
		Source: &SourceConfig{Platforms: []string{"linkedin", "monster"}},
	}
	cfg.Normalize()

	assert.Error(t, cfg.Validate())
}
