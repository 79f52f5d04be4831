// Package paths resolves where dsmodel keeps its configuration and its
// entity data, and names the files inside those directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".dsmodel"
	DefaultDataDirName   = ".dsmodel-db"
)

const appDirName = "dsmodel"

// Environment overrides.
const (
	EnvConfigDir = "DSMODEL_CONFIG_DIR"
	EnvDataDir   = "DSMODEL_DATA_DIR"
)

// Files kept in the config and data directories.
const (
	ConfigFileName   = "config.yaml"
	DatabaseFileName = "entities.db"
	SnapshotFileName = "entities.jsonl"
)

// platformDir is swapped out in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// userDir returns the per-user dsmodel directory. On Linux it honours the
// XDG variable xdgEnv and otherwise falls back to home joined with
// linuxFallback; elsewhere it uses the platform config root.
func userDir(xdgEnv string, linuxFallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		root, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(root, appDirName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, linuxFallback...)
	return filepath.Join(append(parts, appDirName)...), nil
}

// DefaultConfigDir is $XDG_CONFIG_HOME/dsmodel (~/.config/dsmodel) on Linux
// and the user config root elsewhere.
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir is $XDG_DATA_HOME/dsmodel (~/.local/share/dsmodel) on Linux
// and the user config root elsewhere. It is never picked implicitly; pass it
// as the config value to opt in.
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir picks flag, then DSMODEL_CONFIG_DIR, then
// DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return firstAbs(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir picks flag, then the config file value, then
// DSMODEL_DATA_DIR, then ./.dsmodel-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	return firstAbs(cwdDataDir, flag, configValue, os.Getenv(EnvDataDir))
}

func cwdDataDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// firstAbs returns the first non-empty candidate made absolute, or the
// fallback's answer when all are empty.
func firstAbs(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}

// ConfigFile is the config file inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// DatabaseFile is the SQLite database inside dataDir.
func DatabaseFile(dataDir string) string {
	return filepath.Join(dataDir, DatabaseFileName)
}

// SnapshotFile is the JSONL snapshot inside dataDir, written on detach when
// sync_on_close is set and used by export and import when no file is named.
func SnapshotFile(dataDir string) string {
	return filepath.Join(dataDir, SnapshotFileName)
}
