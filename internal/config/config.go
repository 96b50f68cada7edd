package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for gemquality.
type Config struct {
	Sources  SourcesConfig  `mapstructure:"sources"  yaml:"sources"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Parser   ParserConfig   `mapstructure:"parser"   yaml:"parser"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Report   ReportConfig   `mapstructure:"report"   yaml:"report"`
	Export   ExportConfig   `mapstructure:"export"   yaml:"export"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// SourcesConfig lists the remote documents a run reads.
type SourcesConfig struct {
	Translations string           `mapstructure:"translations" yaml:"translations"`
	Language     string           `mapstructure:"language"     yaml:"language"`
	Categories   []CategoryConfig `mapstructure:"categories"   yaml:"categories"`
}

// CategoryConfig is one gem category and the document it is scraped from.
type CategoryConfig struct {
	Name  string `mapstructure:"name"  yaml:"name"`
	Title string `mapstructure:"title" yaml:"title"`
	URL   string `mapstructure:"url"   yaml:"url"`
}

// FetcherConfig controls document retrieval.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	ProxyURL        string        `mapstructure:"proxy_url"         yaml:"proxy_url"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
}

// ParserConfig controls gem extraction.
type ParserConfig struct {
	// GemPattern overrides the record pattern; it needs three capture groups.
	GemPattern string `mapstructure:"gem_pattern" yaml:"gem_pattern"`
}

// PipelineConfig controls post-extraction processing.
type PipelineConfig struct {
	RequireQualities bool     `mapstructure:"require_qualities" yaml:"require_qualities"`
	DropUnresolved   bool     `mapstructure:"drop_unresolved"   yaml:"drop_unresolved"`
	Exclude          []string `mapstructure:"exclude"           yaml:"exclude"`
}

// ReportConfig controls the HTML report.
type ReportConfig struct {
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	Title      string `mapstructure:"title"       yaml:"title"`
	Stylesheet string `mapstructure:"stylesheet"  yaml:"stylesheet"`
}

// ExportConfig controls the optional machine-readable dump.
type ExportConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"` // "", json, jsonl, csv, mongodb
	OutputPath      string `mapstructure:"output_path"      yaml:"output_path"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus textfile dump.
type MetricsConfig struct {
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
}

const (
	rawBase    = "https://raw.githubusercontent.com/PathOfBuildingCommunity/PathOfBuilding/master/src/Data/Skills/"
	repoeStats = "https://raw.githubusercontent.com/brather1ng/RePoE/master/RePoE/data/stat_translations.json"
)

// DefaultCategories returns the six gem categories in report order.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{Name: "active_dex", Title: "Dexterity Skills", URL: rawBase + "act_dex.lua"},
		{Name: "active_int", Title: "Intelligence Skills", URL: rawBase + "act_int.lua"},
		{Name: "active_str", Title: "Strength Skills", URL: rawBase + "act_str.lua"},
		{Name: "support_dex", Title: "Dexterity Supports", URL: rawBase + "sup_dex.lua"},
		{Name: "support_int", Title: "Intelligence Supports", URL: rawBase + "sup_int.lua"},
		{Name: "support_str", Title: "Strength Supports", URL: rawBase + "sup_str.lua"},
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			Translations: repoeStats,
			Language:     "English",
			Categories:   DefaultCategories(),
		},
		Fetcher: FetcherConfig{
			RequestTimeout:  30 * time.Second,
			MaxBodySize:     64 * 1024 * 1024, // 64MB, the translation table is large
			UserAgent:       "gemquality/" + Version,
			IdleConnTimeout: 90 * time.Second,
		},
		Report: ReportConfig{
			OutputPath: "index.html",
			Title:      "POE Gem Quality",
			Stylesheet: "css/pico.min.css",
		},
		Export: ExportConfig{
			MongoDatabase:   "gemquality",
			MongoCollection: "gems",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
