package config

import (
	"fmt"
	"time"
)

const (
	BackendGist = "gist"
	BackendS3   = "s3"
)

// Config holds runtime settings for the gistkeeper CLI.
//
// Units: intervals and timeouts are time.Duration values.
type Config struct {
	DatabasePath string

	// Backend selects the remote transport: "gist", "s3", or empty for a
	// purely local knowledge base.
	Backend string

	GistID      string
	GistToken   string
	GistAPIBase string

	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Prefix       string

	PollInterval    time.Duration
	MinSyncInterval time.Duration
	RequestTimeout  time.Duration
	MaxRetries      int
	// Equality is "count" or "hash".
	Equality string
	AutoSync bool
	DeviceID string

	LogLevel string
	LogFile  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "gistkeeper.db"
	c.Backend = BackendGist
	c.GistAPIBase = "https://api.github.com"
	c.S3Region = "us-east-1"
	c.S3Prefix = "gistkeeper"
	c.PollInterval = 5 * time.Minute
	c.MinSyncInterval = time.Second
	c.RequestTimeout = 30 * time.Second
	c.MaxRetries = 3
	c.Equality = "count"
	c.AutoSync = true
	c.LogLevel = "info"
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Backend {
	case "":
	case BackendGist:
		if c.GistID == "" {
			return fmt.Errorf("backend %q needs a gist id", c.Backend)
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("backend %q needs a bucket", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Equality != "count" && c.Equality != "hash" {
		return fmt.Errorf("unknown equality mode %q", c.Equality)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
