package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.OutputDir != "gpt_project" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "gpt_project")
	}
	if len(cfg.Extensions) != 4 {
		t.Errorf("len(Extensions) = %d, want 4", len(cfg.Extensions))
	}
	if got := cfg.CommentStyles[".java"]; got.Prefix != "/*" || got.Suffix != "*/" {
		t.Errorf("CommentStyles[.java] = %+v, want /* */", got)
	}
	if cfg.DefaultCommentStyle.Prefix != "#" || cfg.DefaultCommentStyle.Suffix != "" {
		t.Errorf("DefaultCommentStyle = %+v, want # and empty suffix", cfg.DefaultCommentStyle)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `output_dir: flat
extensions: [".go", ".md"]
comment_styles:
  .go:
    prefix: "//"
    suffix: ""
default_comment_style:
  prefix: ";;"
blacklist_files: ["go.sum"]
log_level: debug
history:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.OutputDir != "flat" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "flat")
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[0] != ".go" {
		t.Errorf("Extensions = %v, want [.go .md]", cfg.Extensions)
	}
	if got := cfg.CommentStyles[".go"]; got.Prefix != "//" {
		t.Errorf("CommentStyles[.go] = %+v, want // prefix", got)
	}
	// Defaults for other extensions survive the merge
	if got := cfg.CommentStyles[".java"]; got.Prefix != "/*" {
		t.Errorf("CommentStyles[.java] = %+v, want default /* prefix", got)
	}
	if cfg.DefaultCommentStyle.Prefix != ";;" {
		t.Errorf("DefaultCommentStyle.Prefix = %q, want %q", cfg.DefaultCommentStyle.Prefix, ";;")
	}
	if len(cfg.BlacklistFiles) != 1 || cfg.BlacklistFiles[0] != "go.sum" {
		t.Errorf("BlacklistFiles = %v, want [go.sum]", cfg.BlacklistFiles)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false (explicitly disabled)")
	}
	if cfg.History.DBPath == "" {
		t.Error("History.DBPath should keep its default")
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q, want %q (default)", cfg.OutputDir, DefaultOutputDir)
	}
}

// TestLoadConfigInvalidYAML tests error handling for malformed YAML
func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
output_dir: flat
extensions: [this is not valid
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("LoadConfig() expected error for invalid YAML, got nil")
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("LoadConfig() error = %T, want *ConfigurationError", err)
	} else if cfgErr.Path != configPath {
		t.Errorf("ConfigurationError.Path = %q, want %q", cfgErr.Path, configPath)
	}
}

// TestLoadConfigFromDir tests loading from .srcflat/config.yaml
func TestLoadConfigFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(StateDir(tmpDir), 0755); err != nil {
		t.Fatalf("failed to create state dir: %v", err)
	}
	if err := os.WriteFile(ConfigPath(tmpDir), []byte("output_dir: bundle\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfigFromDir(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}
	if cfg.OutputDir != "bundle" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "bundle")
	}
}

// TestMergeWithFlags tests that non-nil flags override config values
func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()

	out := "other"
	whitelist := true
	level := "warn"

	cfg.MergeWithFlags(&out, &whitelist, &level, nil)

	if cfg.OutputDir != "other" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "other")
	}
	if !cfg.UseWhitelist {
		t.Error("UseWhitelist = false, want true")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled changed by nil flag")
	}
}

// TestValidate covers invalid configuration values
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"nested output dir", func(c *Config) { c.OutputDir = "a/b" }},
		{"absolute output dir", func(c *Config) { c.OutputDir = "/tmp/out" }},
		{"dot output dir", func(c *Config) { c.OutputDir = ".." }},
		{"no extensions", func(c *Config) { c.Extensions = nil }},
		{"bare dot extension", func(c *Config) { c.Extensions = []string{"."} }},
		{"empty blacklist dir", func(c *Config) { c.BlacklistDirs = []string{" "} }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"history without path", func(c *Config) { c.History.DBPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Validate() error = %T, want *ConfigurationError", err)
			}
		})
	}
}

// TestConfigRulesAlwaysPrunesOutput verifies the output and state directories are pruned
func TestConfigRulesAlwaysPrunesOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = "custom_out"
	cfg.BlacklistDirs = []string{".git"}

	rules := cfg.Rules()

	if !rules.IsBlacklistedDir("", "custom_out") {
		t.Error("output directory should be pruned")
	}
	if !rules.IsBlacklistedDir("", StateDirName) {
		t.Error("state directory should be pruned")
	}
	if !rules.IsBlacklistedDir("", ".git") {
		t.Error(".git should be pruned")
	}
	if rules.IsBlacklistedDir("app", "custom_out") {
		t.Error("a nested directory named like the output folder should not be pruned")
	}
	if rules.IsBlacklistedDir("app", StateDirName) {
		t.Error("a nested directory named like the state directory should not be pruned")
	}
}

// TestConfigRulesWhitelist verifies -w only takes effect with a non-empty whitelist
func TestConfigRulesWhitelist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseWhitelist = true

	if cfg.Rules().HasWhitelist() {
		t.Error("empty whitelist should disable whitelist filtering")
	}

	cfg.WhitelistFiles = []string{"main.css"}
	if !cfg.Rules().HasWhitelist() {
		t.Error("non-empty whitelist with UseWhitelist should enable filtering")
	}

	cfg.UseWhitelist = false
	if cfg.Rules().HasWhitelist() {
		t.Error("whitelist should be ignored when UseWhitelist is false")
	}
}
