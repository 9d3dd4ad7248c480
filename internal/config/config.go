package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultStateDir    = ".drawbom"

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix is the prefix for environment variable overrides,
	// e.g. DRAWBOM_STATEDIR.
	EnvPrefix = "DRAWBOM"
)

// Config holds all configuration for the BOM extraction tool.
type Config struct {
	// StateDir is where feedback events and weight snapshots are stored.
	StateDir string

	// SynonymsPath optionally points to a YAML file with extra table
	// header synonyms.
	SynonymsPath string

	// LearningRate overrides the feedback update bound when > 0.
	LearningRate float64

	// Application configuration
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults. The state
// directory defaults to .drawbom under the user's home directory.
func DefaultConfig() *Config {
	stateDir := DefaultStateDir
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, DefaultStateDir)
	}

	return &Config{
		StateDir:    stateDir,
		ServerName:  "drawbom",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// SetDefaults registers defaults and environment bindings on a viper
// instance. The CLI binds its flags to the same keys.
func SetDefaults(v *viper.Viper) {
	cfg := DefaultConfig()

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("statedir", cfg.StateDir)
	v.SetDefault("synonyms", cfg.SynonymsPath)
	v.SetDefault("learningrate", cfg.LearningRate)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// Load reads the effective configuration from a viper instance and validates
// it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	cfg.StateDir = v.GetString("statedir")
	cfg.SynonymsPath = v.GetString("synonyms")
	cfg.LearningRate = v.GetFloat64("learningrate")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")

	if cfg.StateDir != "" {
		if expanded, err := filepath.Abs(cfg.StateDir); err == nil {
			cfg.StateDir = expanded
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return errors.New("state directory cannot be empty")
	}

	// Create the state directory if it doesn't exist yet.
	if _, err := os.Stat(c.StateDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.StateDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create state directory %s: %w", c.StateDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access state directory %s: %w", c.StateDir, err)
	}

	if c.SynonymsPath != "" {
		if _, err := os.Stat(c.SynonymsPath); err != nil {
			return fmt.Errorf("cannot access synonyms file %s: %w", c.SynonymsPath, err)
		}
	}

	if c.LearningRate < 0 || c.LearningRate >= 1 {
		return errors.New("learning rate must be in [0, 1)")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{StateDir: %s, SynonymsPath: %s, LogLevel: %s, MaxFileSize: %d}",
		c.StateDir, c.SynonymsPath, c.LogLevel, c.MaxFileSize)
}
