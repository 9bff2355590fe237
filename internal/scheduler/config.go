package scheduler

import (
	"time"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/config"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval      time.Duration
	WebhookBatchSize int
	JobTimeout       time.Duration
	LockTTL          time.Duration
	EnabledJobs      []string
}

// NewConfig maps the environment-level settings onto the scheduler's knobs.
// Unset values fall through to the built-in defaults.
func NewConfig(cfg config.Config) Config {
	return Config{
		RunInterval:      cfg.SchedulerInterval,
		WebhookBatchSize: cfg.WebhookBatchSize,
	}.withDefaults()
}

func DefaultConfig() Config {
	return Config{
		RunInterval:      time.Minute,
		WebhookBatchSize: 50,
		JobTimeout:       30 * time.Second,
		LockTTL:          2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.WebhookBatchSize <= 0 {
		c.WebhookBatchSize = defaults.WebhookBatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
