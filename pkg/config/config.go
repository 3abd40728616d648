package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Upstream struct {
		BaseURL      string        `yaml:"base_url"`
		UserAgent    string        `yaml:"user_agent"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		RetryMax     int           `yaml:"retry_max"`
		BackoffMin   time.Duration `yaml:"backoff_min"`
		BackoffMax   time.Duration `yaml:"backoff_max"`
		RateLimit    struct {
			Capacity     float64 `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"upstream"`
	Freshness struct {
		Live    time.Duration `yaml:"live"`
		Summary time.Duration `yaml:"summary"`
		Detail  time.Duration `yaml:"detail"`
	} `yaml:"freshness"`
	Service struct {
		RequestTimeout time.Duration `yaml:"request_timeout"`
		SnapshotTTL    time.Duration `yaml:"snapshot_ttl"`
	} `yaml:"service"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		Compression  string        `yaml:"compression"`
		RequiredAcks int           `yaml:"required_acks"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("UPSTREAM_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.Upstream.FetchTimeout == 0 {
		c.Upstream.FetchTimeout = 15 * time.Second
	}
	if c.Upstream.RetryMax == 0 {
		c.Upstream.RetryMax = 3
	}
	if c.Upstream.BackoffMin == 0 {
		c.Upstream.BackoffMin = 200 * time.Millisecond
	}
	if c.Upstream.BackoffMax == 0 {
		c.Upstream.BackoffMax = 3 * time.Second
	}
	if c.Upstream.RateLimit.Capacity == 0 {
		c.Upstream.RateLimit.Capacity = 15
	}
	if c.Upstream.RateLimit.RefillPerSec == 0 {
		c.Upstream.RateLimit.RefillPerSec = 0.25 // 15 scrapes per minute
	}
	if c.Freshness.Live == 0 {
		c.Freshness.Live = 5 * time.Second
	}
	if c.Freshness.Summary == 0 {
		c.Freshness.Summary = 30 * time.Second
	}
	if c.Freshness.Detail == 0 {
		c.Freshness.Detail = 60 * time.Second
	}
	if c.Service.RequestTimeout == 0 {
		c.Service.RequestTimeout = 20 * time.Second
	}
	if c.Service.SnapshotTTL == 0 {
		c.Service.SnapshotTTL = time.Hour
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.RetryMax < 1 {
		return fmt.Errorf("upstream.retry_max must be >= 1")
	}
	if c.Freshness.Live <= 0 || c.Freshness.Summary <= 0 || c.Freshness.Detail <= 0 {
		return fmt.Errorf("freshness thresholds must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic required when kafka is enabled")
	}
	return nil
}
