// Package config defines the application configuration, loaded through
// viper from config.yaml, environment variables (FRAUDLENS_*) and CLI flag
// overrides.
package config

import (
	"fmt"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Ingest   IngestConfig   `mapstructure:"ingest" yaml:"ingest"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Export   ExportConfig   `mapstructure:"export" yaml:"export"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the optional PostgreSQL connection details. An empty
// URL disables persistence.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// IngestConfig tunes the graph loaders.
type IngestConfig struct {
	// MaxNodes caps GML ingestion at that many node blocks (0 = unbounded).
	MaxNodes int `mapstructure:"max_nodes" yaml:"max_nodes"`
}

// AnalysisConfig tunes the scoring and ring-detection passes. Weight and
// threshold choices deliberately live here rather than in code.
type AnalysisConfig struct {
	ContactThreshold int  `mapstructure:"contact_threshold" yaml:"contact_threshold"`
	MaxHops          int  `mapstructure:"max_hops" yaml:"max_hops"`
	WriteBack        bool `mapstructure:"write_back" yaml:"write_back"`

	Weights struct {
		Degree        float64 `mapstructure:"degree" yaml:"degree"`
		DirectFraud   float64 `mapstructure:"direct_fraud" yaml:"direct_fraud"`
		IndirectFraud float64 `mapstructure:"indirect_fraud" yaml:"indirect_fraud"`
	} `mapstructure:"weights" yaml:"weights"`

	PageRank struct {
		Damping   float64 `mapstructure:"damping" yaml:"damping"`
		Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance"`
		MaxIter   int     `mapstructure:"max_iter" yaml:"max_iter"`
	} `mapstructure:"pagerank" yaml:"pagerank"`

	Rings struct {
		MinSize  int `mapstructure:"min_size" yaml:"min_size"`
		MaxNodes int `mapstructure:"max_nodes" yaml:"max_nodes"`
	} `mapstructure:"rings" yaml:"rings"`
}

// ExportConfig holds defaults for artifact output.
type ExportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Force  bool   `mapstructure:"force" yaml:"force"`
}

// DefaultConfigDir resolves ~/.fraudlens, the secondary config search path.
func DefaultConfigDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".fraudlens")
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "fraudlens-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Ingest --
	v.SetDefault("ingest.max_nodes", 0)

	// -- Analysis --
	v.SetDefault("analysis.contact_threshold", 1)
	v.SetDefault("analysis.max_hops", 2)
	v.SetDefault("analysis.write_back", true)
	v.SetDefault("analysis.weights.degree", 1.0)
	v.SetDefault("analysis.weights.direct_fraud", 2.0)
	v.SetDefault("analysis.weights.indirect_fraud", 1.0)
	v.SetDefault("analysis.pagerank.damping", 0.85)
	v.SetDefault("analysis.pagerank.tolerance", 1e-6)
	v.SetDefault("analysis.pagerank.max_iter", 100)
	v.SetDefault("analysis.rings.min_size", 3)
	v.SetDefault("analysis.rings.max_nodes", 5000)

	// -- Export --
	v.SetDefault("export.format", "json")
	v.SetDefault("export.force", false)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("database.url", "FRAUDLENS_DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Ingest.MaxNodes < 0 {
		return fmt.Errorf("ingest.max_nodes must not be negative")
	}
	if c.Analysis.ContactThreshold < 0 {
		return fmt.Errorf("analysis.contact_threshold must not be negative")
	}
	if c.Analysis.MaxHops < 0 {
		return fmt.Errorf("analysis.max_hops must not be negative")
	}
	if c.Analysis.Rings.MinSize < 2 {
		return fmt.Errorf("analysis.rings.min_size must be at least 2")
	}
	if d := c.Analysis.PageRank.Damping; d <= 0 || d >= 1 {
		return fmt.Errorf("analysis.pagerank.damping must be in (0, 1)")
	}
	if c.Analysis.PageRank.MaxIter <= 0 {
		return fmt.Errorf("analysis.pagerank.max_iter must be positive")
	}
	switch c.Export.Format {
	case "json", "csv", "graphml":
	default:
		return fmt.Errorf("export.format must be one of json, csv, graphml")
	}
	return nil
}
