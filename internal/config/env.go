package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileName is the optional dotenv file inside the state directory
const EnvFileName = "srcflat.env"

// Environment variables that override the config file
const (
	EnvOutputDir    = "SRCFLAT_OUTPUT_DIR"
	EnvLogLevel     = "SRCFLAT_LOG_LEVEL"
	EnvUseWhitelist = "SRCFLAT_USE_WHITELIST"
	EnvHistory      = "SRCFLAT_HISTORY"
)

// EnvPath returns the path of the dotenv file for root
func EnvPath(root string) string {
	return filepath.Join(StateDir(root), EnvFileName)
}

// ApplyEnv overrides config values from SRCFLAT_* variables.
// Values come from <root>/.srcflat/srcflat.env when it exists; the process
// environment wins over the file. Flags are merged afterwards and win over both.
func (c *Config) ApplyEnv(root string) error {
	values := map[string]string{}

	envFile := EnvPath(root)
	if _, err := os.Stat(envFile); err == nil {
		fileValues, err := godotenv.Read(envFile)
		if err != nil {
			return &ConfigurationError{Path: envFile, Err: fmt.Errorf("failed to parse env file: %w", err)}
		}
		values = fileValues
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(values[key])
	}

	if v := lookup(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := lookup(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := lookup(EnvUseWhitelist); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return invalid("%s must be a boolean, got %q", EnvUseWhitelist, v)
		}
		c.UseWhitelist = b
	}
	if v := lookup(EnvHistory); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return invalid("%s must be a boolean, got %q", EnvHistory, v)
		}
		c.History.Enabled = b
	}

	return nil
}
