// Package config loads loader configuration from a TOML file with
// environment-variable overrides. Validation failures here are fatal: the
// process exits before any batch is claimed.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds everything one loader process needs: where the queue lives,
// where rendered statements go, and how the consumer identifies itself.
type Config struct {
	QueueDB      string // SKYLOAD_QUEUE_DB (required)
	TargetDB     string // SKYLOAD_TARGET_DB (required)
	QueueName    string // SKYLOAD_QUEUE (required)
	ConsumerName string // SKYLOAD_CONSUMER (required)
	Statement    string // SKYLOAD_STATEMENT (required; named-placeholder template)
	NATSURL      string // SKYLOAD_NATS_URL (optional, empty = no events)

	PollInterval time.Duration // SKYLOAD_POLL_INTERVAL (default 5s; idle sleep between polls)

	// MaxQueueFailures bounds consecutive claim/close failures before the
	// process gives up. 0 means retry forever with capped backoff.
	MaxQueueFailures int

	// FieldMap optionally remaps placeholder names to payload field names.
	// When non-empty, only mapped placeholders (plus id/type/timestamp)
	// are bound; anything else in the template is left as literal text.
	FieldMap map[string]string
}

type fileConfig struct {
	QueueDB          string            `toml:"queue_db"`
	TargetDB         string            `toml:"target_db"`
	Queue            string            `toml:"queue"`
	Consumer         string            `toml:"consumer"`
	Statement        string            `toml:"statement"`
	NATSURL          string            `toml:"nats_url"`
	PollInterval     string            `toml:"poll_interval"`
	MaxQueueFailures int               `toml:"max_queue_failures"`
	FieldMap         map[string]string `toml:"field_map"`
}

// Load reads the TOML file at path (skipped when path is empty), applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	var fc fileConfig
	if path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	c := &Config{
		QueueDB:          envOrDefault("SKYLOAD_QUEUE_DB", fc.QueueDB),
		TargetDB:         envOrDefault("SKYLOAD_TARGET_DB", fc.TargetDB),
		QueueName:        envOrDefault("SKYLOAD_QUEUE", fc.Queue),
		ConsumerName:     envOrDefault("SKYLOAD_CONSUMER", fc.Consumer),
		Statement:        envOrDefault("SKYLOAD_STATEMENT", fc.Statement),
		NATSURL:          envOrDefault("SKYLOAD_NATS_URL", fc.NATSURL),
		MaxQueueFailures: fc.MaxQueueFailures,
		FieldMap:         fc.FieldMap,
	}

	intervalStr := envOrDefault("SKYLOAD_POLL_INTERVAL", fc.PollInterval)
	if intervalStr == "" {
		c.PollInterval = 5 * time.Second
	} else {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("poll_interval: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("poll_interval must be positive, got %s", d)
		}
		c.PollInterval = d
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	for _, req := range []struct{ name, val string }{
		{"queue_db", c.QueueDB},
		{"target_db", c.TargetDB},
		{"queue", c.QueueName},
		{"consumer", c.ConsumerName},
		{"statement", c.Statement},
	} {
		if req.val == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.MaxQueueFailures < 0 {
		return fmt.Errorf("max_queue_failures must be >= 0, got %d", c.MaxQueueFailures)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
