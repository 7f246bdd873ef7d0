package config

import "fmt"

// ConfigurationError reports a config file that cannot be read, parsed or validated
type ConfigurationError struct {
	Path string // Config file path, empty for validation of in-memory values
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...interface{}) error {
	return &ConfigurationError{Err: fmt.Errorf(format, args...)}
}
