package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// StateDirName is the per-project directory holding srcflat's config, lock, logs and history
const StateDirName = ".srcflat"

// StateDir returns the state directory for root
func StateDir(root string) string {
	return filepath.Join(root, StateDirName)
}

// ConfigPath returns the path of the project config file for root
func ConfigPath(root string) string {
	return filepath.Join(StateDir(root), "config.yaml")
}

// LockPath returns the path of the run lock file for root
func LockPath(root string) string {
	return filepath.Join(StateDir(root), "flatten.lock")
}

// ResolveRoot returns the absolute root directory.
// An empty dir means the current working directory.
func ResolveRoot(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return cwd, nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to access root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root is not a directory: %s", abs)
	}
	return abs, nil
}
