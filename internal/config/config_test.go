package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.StateDir == "" {
		t.Error("Expected default state directory to be set")
	}

	if cfg.ServerName != "drawbom" {
		t.Errorf("Expected default server name to be 'drawbom', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	stateDir := filepath.Join(t.TempDir(), "state")
	v.Set("statedir", stateDir)
	v.Set("loglevel", "debug")
	v.Set("maxfilesize", int64(1024))

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.StateDir != stateDir {
		t.Errorf("StateDir = %s, want %s", cfg.StateDir, stateDir)
	}
	if !cfg.IsDebug() {
		t.Error("Expected debug logging to be enabled")
	}
	if cfg.MaxFileSize != 1024 {
		t.Errorf("MaxFileSize = %d, want 1024", cfg.MaxFileSize)
	}
}

func TestLoadCreatesStateDir(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	stateDir := filepath.Join(t.TempDir(), "nested", "state")
	v.Set("statedir", stateDir)

	if _, err := Load(v); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func(t *testing.T) *Config {
		cfg := DefaultConfig()
		cfg.StateDir = filepath.Join(t.TempDir(), "state")
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty state dir", func(c *Config) { c.StateDir = "" }},
		{"negative max file size", func(c *Config) { c.MaxFileSize = -1 }},
		{"zero max file size", func(c *Config) { c.MaxFileSize = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"learning rate too high", func(c *Config) { c.LearningRate = 1.0 }},
		{"negative learning rate", func(c *Config) { c.LearningRate = -0.1 }},
		{"missing synonyms file", func(c *Config) { c.SynonymsPath = "/does/not/exist.yaml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base(t)
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
