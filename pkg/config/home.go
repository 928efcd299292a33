package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "MAESTRO_INSPECTOR_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the maestro-inspector home directory.
//
// Resolution order:
//  1. $MAESTRO_INSPECTOR_HOME environment variable
//  2. Parent of the binary's directory (if binary is in <home>/bin/)
//  3. Current working directory (development fallback)
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// GetSourcesDir returns <home>/sources, where downloaded page sources go.
func GetSourcesDir() string {
	return filepath.Join(GetHome(), "sources")
}

// GetRecordingsDir returns <home>/recordings/<framework>.
func GetRecordingsDir(framework string) string {
	return filepath.Join(GetHome(), "recordings", framework)
}

// GetLogsDir returns <home>/logs.
func GetLogsDir() string {
	return filepath.Join(GetHome(), "logs")
}

func resolveHome() string {
	// 1. Environment variable
	if env := os.Getenv(envHome); env != "" {
		return env
	}

	// 2. Binary-relative: if binary is at <home>/bin/maestro-inspector, use <home>
	if execPath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}
		binDir := filepath.Dir(execPath)
		if filepath.Base(binDir) == "bin" {
			return filepath.Dir(binDir)
		}
	}

	// 3. Current working directory
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}

	return "."
}

// ResetHome resets the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
