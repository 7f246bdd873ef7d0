package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CommentStyle is the comment delimiter pair used to wrap a provenance header
type CommentStyle struct {
	Prefix string `yaml:"prefix"`
	Suffix string `yaml:"suffix"`
}

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database, relative to the root unless absolute
	DBPath string `yaml:"db_path"`
}

// Config represents srcflat configuration options
type Config struct {
	// OutputDir is the name of the output folder created under the root
	OutputDir string `yaml:"output_dir"`

	// Extensions is the set of file extensions that are collected (e.g., ".java")
	Extensions []string `yaml:"extensions"`

	// CommentStyles maps an extension to the delimiters used for its header
	CommentStyles map[string]CommentStyle `yaml:"comment_styles"`

	// DefaultCommentStyle is used for extensions missing from CommentStyles
	DefaultCommentStyle CommentStyle `yaml:"default_comment_style"`

	// BlacklistDirs are directory names or root-relative paths that are never entered
	BlacklistDirs []string `yaml:"blacklist_dirs"`

	// BlacklistFiles are file names that are never collected
	BlacklistFiles []string `yaml:"blacklist_files"`

	// WhitelistFiles are file names or root-relative paths; applied only when UseWhitelist is set
	WhitelistFiles []string `yaml:"whitelist_files"`

	// UseWhitelist restricts collection to WhitelistFiles (ignored when the list is empty)
	UseWhitelist bool `yaml:"use_whitelist"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written, relative to the root unless absolute
	LogDir string `yaml:"log_dir"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultOutputDir is the output folder name used when none is configured
const DefaultOutputDir = "gpt_project"

// DefaultConfig returns a Config with the built-in tables
func DefaultConfig() *Config {
	return &Config{
		OutputDir:  DefaultOutputDir,
		Extensions: []string{".kts", ".java", ".cpp", ".txt"},
		CommentStyles: map[string]CommentStyle{
			".cpp":  {Prefix: "/*", Suffix: "*/"},
			".java": {Prefix: "/*", Suffix: "*/"},
			".kts":  {Prefix: "/*", Suffix: "*/"},
			".txt":  {Prefix: "###", Suffix: "###"},
		},
		DefaultCommentStyle: CommentStyle{Prefix: "#", Suffix: ""},
		BlacklistDirs: []string{
			".git",
			"__pycache__",
			"node_modules",
			"venv",
			".venv",
			"build",
			"native/Jolt",
			"native/CMakeFiles",
			"CMakeFiles",
			"Jolt",
			"jolt",
			DefaultOutputDir,
			StateDirName,
		},
		BlacklistFiles: []string{
			".gitignore",
			".env",
			"collect_gpt.py",
			"requirements.txt",
			"README.md",
			"collected_sources.md",
			"project.txt",
			"collect_structure.py",
			"package-lock.json",
			"yarn.lock",
			"settings.py",
			"local_settings.py",
			"secrets.json",
			"config.json",
			"project_structure.txt",
			"sc.py",
			"CMakeCache.txt",
		},
		WhitelistFiles: []string{},
		UseWhitelist:   false,
		LogLevel:       "info",
		LogDir:         filepath.Join(StateDirName, "logs"),
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(StateDirName, "history.db"),
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns a ConfigurationError
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("failed to read config file: %w", err)}
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("failed to parse config file: %w", err)}
	}

	// Apply non-empty values from file (merging with defaults)
	if fileCfg.OutputDir != "" {
		cfg.OutputDir = fileCfg.OutputDir
	}
	if len(fileCfg.Extensions) > 0 {
		cfg.Extensions = fileCfg.Extensions
	}
	for ext, style := range fileCfg.CommentStyles {
		cfg.CommentStyles[ext] = style
	}
	if fileCfg.DefaultCommentStyle.Prefix != "" || fileCfg.DefaultCommentStyle.Suffix != "" {
		cfg.DefaultCommentStyle = fileCfg.DefaultCommentStyle
	}
	if len(fileCfg.BlacklistDirs) > 0 {
		cfg.BlacklistDirs = fileCfg.BlacklistDirs
	}
	if len(fileCfg.BlacklistFiles) > 0 {
		cfg.BlacklistFiles = fileCfg.BlacklistFiles
	}
	if len(fileCfg.WhitelistFiles) > 0 {
		cfg.WhitelistFiles = fileCfg.WhitelistFiles
	}
	if fileCfg.UseWhitelist {
		cfg.UseWhitelist = true
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogDir != "" {
		cfg.LogDir = fileCfg.LogDir
	}

	// history.enabled may be explicitly false, so check whether the key was present
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, exists := rawMap["history"]; exists && section != nil {
			historyMap, _ := section.(map[string]interface{})
			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = fileCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists && fileCfg.History.DBPath != "" {
				cfg.History.DBPath = fileCfg.History.DBPath
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .srcflat/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(ConfigPath(dir))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(outputDir *string, useWhitelist *bool, logLevel *string, historyEnabled *bool) {
	if outputDir != nil {
		c.OutputDir = *outputDir
	}
	if useWhitelist != nil {
		c.UseWhitelist = *useWhitelist
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if historyEnabled != nil {
		c.History.Enabled = *historyEnabled
	}
}

// Validate validates the configuration values
// Returns a ConfigurationError if any values are invalid
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return invalid("output_dir cannot be empty")
	}
	if filepath.IsAbs(c.OutputDir) || strings.ContainsAny(c.OutputDir, `/\`) || c.OutputDir == "." || c.OutputDir == ".." {
		return invalid("output_dir must be a single folder name under the root, got %q", c.OutputDir)
	}

	if len(c.Extensions) == 0 {
		return invalid("extensions cannot be empty")
	}
	for _, ext := range c.Extensions {
		if strings.TrimSpace(ext) == "" || strings.Trim(ext, ".") == "" {
			return invalid("invalid extension %q", ext)
		}
	}

	for _, dir := range c.BlacklistDirs {
		if strings.TrimSpace(dir) == "" {
			return invalid("blacklist_dirs cannot contain empty entries")
		}
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return invalid("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return invalid("history.db_path cannot be empty when history is enabled")
	}

	return nil
}

// Rules builds the immutable matching rules for a run.
// The output folder and the state directory are always pruned at the root so
// a run never collects its own output; same-named directories deeper in the
// tree are still collected.
func (c *Config) Rules() *Rules {
	var whitelist []string
	if c.UseWhitelist && len(c.WhitelistFiles) > 0 {
		whitelist = c.WhitelistFiles
	}

	return NewRules(RulesOptions{
		Extensions:     c.Extensions,
		CommentStyles:  c.CommentStyles,
		DefaultStyle:   c.DefaultCommentStyle,
		BlacklistDirs:  c.BlacklistDirs,
		BlacklistFiles: c.BlacklistFiles,
		WhitelistFiles: whitelist,
		RootDirs:       []string{c.OutputDir, StateDirName},
	})
}

// ResolvePath resolves a configured path against root unless it is already absolute
func ResolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
