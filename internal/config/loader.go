package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GEMQUALITY_REPORT_OUTPUT_PATH.
const EnvPrefix = "GEMQUALITY"

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("gemquality")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".gemquality"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	// A configured category list replaces the defaults instead of being
	// merged into them element by element.
	if v.InConfig("sources.categories") {
		cfg.Sources.Categories = nil
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides apply to them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("sources.translations", cfg.Sources.Translations)
	v.SetDefault("sources.language", cfg.Sources.Language)

	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)
	v.SetDefault("fetcher.proxy_url", cfg.Fetcher.ProxyURL)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)

	v.SetDefault("parser.gem_pattern", cfg.Parser.GemPattern)

	v.SetDefault("pipeline.require_qualities", cfg.Pipeline.RequireQualities)
	v.SetDefault("pipeline.drop_unresolved", cfg.Pipeline.DropUnresolved)

	v.SetDefault("report.output_path", cfg.Report.OutputPath)
	v.SetDefault("report.title", cfg.Report.Title)
	v.SetDefault("report.stylesheet", cfg.Report.Stylesheet)

	v.SetDefault("export.type", cfg.Export.Type)
	v.SetDefault("export.output_path", cfg.Export.OutputPath)
	v.SetDefault("export.mongo_uri", cfg.Export.MongoURI)
	v.SetDefault("export.mongo_database", cfg.Export.MongoDatabase)
	v.SetDefault("export.mongo_collection", cfg.Export.MongoCollection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.output_path", cfg.Metrics.OutputPath)
}
