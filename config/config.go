package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/aluiziolira/go-scrape-chunk/catalog"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL            string        `mapstructure:"base_url"`
	Categories         string        `mapstructure:"categories"`
	MaxPages           int           `mapstructure:"max_pages"`
	Parallelism        int           `mapstructure:"parallelism"`
	Delay              time.Duration `mapstructure:"delay"`
	RandomDelay        time.Duration `mapstructure:"random_delay"`
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
	RetryBackoff       time.Duration `mapstructure:"retry_backoff"`
	RetryBackoffMax    time.Duration `mapstructure:"retry_backoff_max"`
	OutputFile         string        `mapstructure:"output"`
	OutputFormat       string        `mapstructure:"format"` // csv, json, dual, analytics or mongo
	UserAgent          string        `mapstructure:"user_agent"`
	Verbose            bool          `mapstructure:"verbose"`
	RespectRobotsTxt   bool          `mapstructure:"respect_robots"`
	MetricsAddr        string        `mapstructure:"metrics_addr"`
	PipelineBufferSize int           `mapstructure:"buffer_size"`
	BatchSize          int           `mapstructure:"batch_size"`
	DedupeMaxSize      int           `mapstructure:"dedupe_max_size"`
	Mongo              MongoConfig   `mapstructure:"mongo"`
}

// MongoConfig locates the collection used by the mongo output format.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// DefaultConfig returns polite defaults for the marketplace.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "https://chunk.gg",
		Categories:         "",
		MaxPages:           50,
		Parallelism:        2,
		Delay:              400 * time.Millisecond,
		RandomDelay:        0,
		Timeout:            30 * time.Second,
		MaxRetries:         2,
		RetryBackoff:       500 * time.Millisecond,
		RetryBackoffMax:    5 * time.Second,
		OutputFile:         "output/products.csv",
		OutputFormat:       "csv",
		UserAgent:          "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:            false,
		RespectRobotsTxt:   true,
		PipelineBufferSize: 256,
		BatchSize:          32,
		DedupeMaxSize:      100000,
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "marketplace",
			Collection: "products",
		},
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if _, err := catalog.Resolve(c.Categories); err != nil {
		return fmt.Errorf("invalid categories: %w", err)
	}

	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	switch c.OutputFormat {
	case "csv", "json", "dual", "analytics":
		if c.OutputFile == "" {
			return fmt.Errorf("output file cannot be empty")
		}
	case "mongo":
		if c.Mongo.URI == "" || c.Mongo.Database == "" || c.Mongo.Collection == "" {
			return fmt.Errorf("mongo output needs uri, database and collection")
		}
	default:
		return fmt.Errorf("output format must be csv, json, dual, analytics, or mongo")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
