package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. MARKETCRAWL_MAX_PAGES.
const EnvPrefix = "MARKETCRAWL"

// Load resolves configuration from defaults, an optional YAML file, the
// environment and command-line flags, in increasing priority. Flags are
// matched to settings by name with dashes read as underscores.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	known := setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("marketcrawl")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if bindErr != nil {
				return
			}
			key := flagKey(f.Name)
			if _, ok := known[key]; !ok {
				return
			}
			bindErr = v.BindPFlag(key, f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	return cfg, nil
}

// flagKey maps a flag name to its settings key: "max-pages" is max_pages
// and "mongo-uri" is mongo.uri.
func flagKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "mongo-"); ok {
		return "mongo." + strings.ReplaceAll(rest, "-", "_")
	}
	return strings.ReplaceAll(name, "-", "_")
}

func setDefaults(v *viper.Viper, cfg *Config) map[string]struct{} {
	defaults := map[string]any{
		"base_url":          cfg.BaseURL,
		"categories":        cfg.Categories,
		"max_pages":         cfg.MaxPages,
		"parallelism":       cfg.Parallelism,
		"delay":             cfg.Delay,
		"random_delay":      cfg.RandomDelay,
		"timeout":           cfg.Timeout,
		"max_retries":       cfg.MaxRetries,
		"retry_backoff":     cfg.RetryBackoff,
		"retry_backoff_max": cfg.RetryBackoffMax,
		"output":            cfg.OutputFile,
		"format":            cfg.OutputFormat,
		"user_agent":        cfg.UserAgent,
		"verbose":           cfg.Verbose,
		"respect_robots":    cfg.RespectRobotsTxt,
		"metrics_addr":      cfg.MetricsAddr,
		"buffer_size":       cfg.PipelineBufferSize,
		"batch_size":        cfg.BatchSize,
		"dedupe_max_size":   cfg.DedupeMaxSize,
		"mongo.uri":         cfg.Mongo.URI,
		"mongo.database":    cfg.Mongo.Database,
		"mongo.collection":  cfg.Mongo.Collection,
	}
	known := make(map[string]struct{}, len(defaults))
	for key, value := range defaults {
		v.SetDefault(key, value)
		known[key] = struct{}{}
	}
	return known
}
