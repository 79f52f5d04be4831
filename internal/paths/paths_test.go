package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDirsLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name   string
		envKey string
		envVal string
		fn     func() (string, error)
		want   string
	}{
		{"config from XDG", "XDG_CONFIG_HOME", "/tmp/xdg-config", DefaultConfigDir, "/tmp/xdg-config/dsmodel"},
		{"config fallback", "XDG_CONFIG_HOME", "", DefaultConfigDir, filepath.Join(home, ".config", "dsmodel")},
		{"data from XDG", "XDG_DATA_HOME", "/tmp/xdg-data", DefaultDataDir, "/tmp/xdg-data/dsmodel"},
		{"data fallback", "XDG_DATA_HOME", "", DefaultDataDir, filepath.Join(home, ".local", "share", "dsmodel")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envVal)
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultDirsHomeError(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	errNoHome := errors.New("no home")
	orig := platformDir.homeDir
	platformDir.homeDir = func() (string, error) { return "", errNoHome }
	t.Cleanup(func() { platformDir.homeDir = orig })

	_, err := DefaultConfigDir()
	assert.ErrorIs(t, err, errNoHome)
	_, err = DefaultDataDir()
	assert.ErrorIs(t, err, errNoHome)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string
	}{
		{"flag wins over env", "/explicit/config", "/env/config", "/explicit/config"},
		{"env when flag empty", "", "/env/config", "/env/config"},
		{"platform default", "", "", "dsmodel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
			assert.True(t, filepath.IsAbs(got))
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name      string
		flag      string
		configVal string
		envVal    string
		want      string
	}{
		{"flag wins", "/flag/data", "/config/data", "/env/data", "/flag/data"},
		{"config over env", "", "/config/data", "/env/data", "/config/data"},
		{"env over default", "", "", "/env/data", "/env/data"},
		{"cwd default", "", "", "", filepath.Join(cwd, DefaultDataDirName)},
		{"relative flag made absolute", "rel/data", "", "", filepath.Join(cwd, "rel", "data")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configVal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirectoryFiles(t *testing.T) {
	dir := filepath.Join("var", "dsmodel")
	assert.Equal(t, filepath.Join(dir, "config.yaml"), ConfigFile(dir))
	assert.Equal(t, filepath.Join(dir, "entities.db"), DatabaseFile(dir))
	assert.Equal(t, filepath.Join(dir, "entities.jsonl"), SnapshotFile(dir))
}
