package config

import (
	"fmt"
	"net/url"
	"regexp"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Sources.Translations); err != nil {
		return fmt.Errorf("sources.translations: %w", err)
	}
	if cfg.Sources.Language == "" {
		return fmt.Errorf("sources.language must not be empty")
	}
	if len(cfg.Sources.Categories) == 0 {
		return fmt.Errorf("sources.categories must list at least one category")
	}
	seen := make(map[string]bool, len(cfg.Sources.Categories))
	for i, c := range cfg.Sources.Categories {
		if c.Name == "" {
			return fmt.Errorf("sources.categories[%d].name must not be empty", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("sources.categories: duplicate name %q", c.Name)
		}
		seen[c.Name] = true
		if err := ValidateURL(c.URL); err != nil {
			return fmt.Errorf("sources.categories[%s].url: %w", c.Name, err)
		}
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.ProxyURL != "" {
		if _, err := url.Parse(cfg.Fetcher.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy URL %q: %w", cfg.Fetcher.ProxyURL, err)
		}
	}

	if cfg.Parser.GemPattern != "" {
		re, err := regexp.Compile(cfg.Parser.GemPattern)
		if err != nil {
			return fmt.Errorf("parser.gem_pattern: %w", err)
		}
		if re.NumSubexp() != 3 {
			return fmt.Errorf("parser.gem_pattern needs 3 capture groups, got %d", re.NumSubexp())
		}
	}
	for _, p := range cfg.Pipeline.Exclude {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("pipeline.exclude %q: %w", p, err)
		}
	}

	if cfg.Report.OutputPath == "" {
		return fmt.Errorf("report.output_path must not be empty")
	}

	switch cfg.Export.Type {
	case "":
	case "json", "jsonl", "csv":
		if cfg.Export.OutputPath == "" {
			return fmt.Errorf("export.output_path is required for export.type %q", cfg.Export.Type)
		}
	case "mongodb":
		if cfg.Export.MongoURI == "" {
			return fmt.Errorf("export.mongo_uri is required for export.type mongodb")
		}
		if cfg.Export.MongoDatabase == "" || cfg.Export.MongoCollection == "" {
			return fmt.Errorf("export.mongo_database and export.mongo_collection must not be empty")
		}
	default:
		return fmt.Errorf("export.type %q is not supported (valid: json, jsonl, csv, mongodb)", cfg.Export.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks that a source location is an http(s) URL with a host or
// a file URL with a path.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("URL must have a host")
		}
	case "file":
		if u.Path == "" {
			return fmt.Errorf("file URL must have a path")
		}
	default:
		return fmt.Errorf("URL scheme must be http, https or file, got %q", u.Scheme)
	}
	return nil
}

// Categories returns the configured categories in order.
func (c *Config) Categories() []CategoryConfig {
	return append([]CategoryConfig(nil), c.Sources.Categories...)
}
