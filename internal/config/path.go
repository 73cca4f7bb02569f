// Package config resolves the application configuration from the config
// file, the environment and command line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// resolvePath expands path, falling back to name inside dir when empty.
func resolvePath(path, dir, name string) string {
	if strings.TrimSpace(path) == "" {
		return filepath.Join(dir, name)
	}
	return ExpandPath(path)
}
