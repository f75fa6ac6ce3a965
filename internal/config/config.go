// Package config loads service configuration from command line flags and
// FORMFILL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPort          = 8080
	DefaultHost          = "127.0.0.1"
	DefaultLogLevel      = "info"
	DefaultMaxUploadSize = 25 * 1024 * 1024 // template PDFs
	DefaultMaxDataSize   = 2 * 1024 * 1024  // tabular data files
	DefaultMaxRows       = 100
	DefaultJobTTL        = time.Hour
	DefaultSweepInterval = 10 * time.Minute
	DefaultDownloadGrace = 30 * time.Second
)

// Config holds all configuration for the form fill server.
type Config struct {
	Host string
	Port int

	TemplateDir string
	SchemaDir   string
	OutputDir   string

	MaxUploadSize int64 // template upload cap in bytes
	MaxDataSize   int64 // data file upload cap in bytes
	MaxRows       int   // bulk row ceiling, enforced at the route layer

	JobTTL        time.Duration // jobs older than this are swept
	SweepInterval time.Duration
	DownloadGrace time.Duration // delay before a downloaded artifact is deleted

	LogLevel string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		TemplateDir:   "templates",
		SchemaDir:     "schemas",
		OutputDir:     "output",
		MaxUploadSize: DefaultMaxUploadSize,
		MaxDataSize:   DefaultMaxDataSize,
		MaxRows:       DefaultMaxRows,
		JobTTL:        DefaultJobTTL,
		SweepInterval: DefaultSweepInterval,
		DownloadGrace: DefaultDownloadGrace,
		LogLevel:      DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and the environment and returns a
// validated configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetEnvPrefix("FORMFILL")
	viper.AutomaticEnv()

	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("templatedir", cfg.TemplateDir)
	viper.SetDefault("schemadir", cfg.SchemaDir)
	viper.SetDefault("outputdir", cfg.OutputDir)
	viper.SetDefault("maxuploadsize", cfg.MaxUploadSize)
	viper.SetDefault("maxdatasize", cfg.MaxDataSize)
	viper.SetDefault("maxrows", cfg.MaxRows)
	viper.SetDefault("jobttl", cfg.JobTTL)
	viper.SetDefault("sweepinterval", cfg.SweepInterval)
	viper.SetDefault("downloadgrace", cfg.DownloadGrace)
	viper.SetDefault("loglevel", cfg.LogLevel)

	pflag.String("host", cfg.Host, "Server host address")
	pflag.Int("port", cfg.Port, "Server port")
	pflag.String("templatedir", cfg.TemplateDir, "Directory holding uploaded template PDFs")
	pflag.String("schemadir", cfg.SchemaDir, "Directory holding saved field schemas")
	pflag.String("outputdir", cfg.OutputDir, "Directory for generated output files")
	pflag.Int64("maxuploadsize", cfg.MaxUploadSize, "Maximum template upload size in bytes")
	pflag.Int64("maxdatasize", cfg.MaxDataSize, "Maximum data file upload size in bytes")
	pflag.Int("maxrows", cfg.MaxRows, "Maximum rows per bulk job")
	pflag.Duration("jobttl", cfg.JobTTL, "Lifetime of finished jobs and their artifacts")
	pflag.Duration("sweepinterval", cfg.SweepInterval, "Interval between cleanup sweeps")
	pflag.Duration("downloadgrace", cfg.DownloadGrace, "Delay before downloaded artifacts are deleted")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")

	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("templatedir", pflag.Lookup("templatedir"))
	_ = viper.BindPFlag("schemadir", pflag.Lookup("schemadir"))
	_ = viper.BindPFlag("outputdir", pflag.Lookup("outputdir"))
	_ = viper.BindPFlag("maxuploadsize", pflag.Lookup("maxuploadsize"))
	_ = viper.BindPFlag("maxdatasize", pflag.Lookup("maxdatasize"))
	_ = viper.BindPFlag("maxrows", pflag.Lookup("maxrows"))
	_ = viper.BindPFlag("jobttl", pflag.Lookup("jobttl"))
	_ = viper.BindPFlag("sweepinterval", pflag.Lookup("sweepinterval"))
	_ = viper.BindPFlag("downloadgrace", pflag.Lookup("downloadgrace"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))

	pflag.Parse()

	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.TemplateDir = viper.GetString("templatedir")
	cfg.SchemaDir = viper.GetString("schemadir")
	cfg.OutputDir = viper.GetString("outputdir")
	cfg.MaxUploadSize = viper.GetInt64("maxuploadsize")
	cfg.MaxDataSize = viper.GetInt64("maxdatasize")
	cfg.MaxRows = viper.GetInt("maxrows")
	cfg.JobTTL = viper.GetDuration("jobttl")
	cfg.SweepInterval = viper.GetDuration("sweepinterval")
	cfg.DownloadGrace = viper.GetDuration("downloadgrace")
	cfg.LogLevel = viper.GetString("loglevel")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.TemplateDir == "" || c.SchemaDir == "" || c.OutputDir == "" {
		return errors.New("template, schema, and output directories must be set")
	}
	if c.MaxUploadSize <= 0 || c.MaxDataSize <= 0 {
		return errors.New("upload size limits must be positive")
	}
	if c.MaxRows < 1 {
		return errors.New("maxrows must be at least 1")
	}
	if c.JobTTL <= 0 || c.SweepInterval <= 0 {
		return errors.New("job TTL and sweep interval must be positive")
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

// Address returns the server address as host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}
