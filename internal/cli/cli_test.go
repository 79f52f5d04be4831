package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dsmodel/internal/paths"
	"github.com/mesh-intelligence/dsmodel/internal/sqlite"
	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	root := t.TempDir()
	for _, k := range []string{"DSMODEL_CONFIG_DIR", "DSMODEL_DATA_DIR", "DSMODEL_DATASET", "DSMODEL_NAMESPACE", "DSMODEL_LOG_FILE"} {
		t.Setenv(k, "")
	}
	return cliEnv{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e cliEnv) seed(t *testing.T, key *types.Key, fields map[string]any) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: e.dataDir}))
	_, err := b.PersistEntity(key, fields)
	require.NoError(t, err)
	require.NoError(t, b.Detach())
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dsmodel v"+Version+"\nmodule: github.com/mesh-intelligence/dsmodel\n", out)
}

func TestInit(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "dsmodel initialized in "+env.dataDir)

	_, err = os.Stat(filepath.Join(env.configDir, "config.yaml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(env.dataDir, "entities.db"))
	assert.NoError(t, err)

	// Idempotent.
	_, err = env.run(t, "init")
	assert.NoError(t, err)
}

func TestGetListKindsDelete(t *testing.T) {
	env := newCLIEnv(t)
	ada, err := types.NewKey("Person", 1)
	require.NoError(t, err)
	home, err := types.NewKey("Person", 1, "Address", "home")
	require.NoError(t, err)
	env.seed(t, ada, map[string]any{"name": "Ada", "age": int64(36)})
	env.seed(t, home, map[string]any{"city": "London"})

	out, err := env.run(t, "get", "Person", "1")
	require.NoError(t, err)
	var view entityView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "/Person,1", view.Key)
	assert.Equal(t, "Ada", view.Fields["name"])
	assert.Equal(t, 36.0, view.Fields["age"])

	out, err = env.run(t, "get", "Person", "1", "Address", "home")
	require.NoError(t, err)
	assert.Contains(t, out, "London")

	out, err = env.run(t, "kinds")
	require.NoError(t, err)
	assert.Equal(t, "Address\nPerson\n", out)

	out, err = env.run(t, "list", "Person")
	require.NoError(t, err)
	var views []entityView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)

	out, err = env.run(t, "delete", "Person", "1", "Address", "home")
	require.NoError(t, err)
	assert.Contains(t, out, `deleted /Person,1/Address,"home"`)

	_, err = env.run(t, "get", "Person", "1", "Address", "home")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = env.run(t, "get", "Person", "1", "Address")
	assert.Error(t, err)
}

func TestExportImport(t *testing.T) {
	src := newCLIEnv(t)
	key, err := types.NewKey("Person", 7)
	require.NoError(t, err)
	src.seed(t, key, map[string]any{"name": "Grace"})

	snap := filepath.Join(t.TempDir(), "snap.jsonl")
	out, err := src.run(t, "export", snap)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 1 entities")

	dst := newCLIEnv(t)
	out, err = dst.run(t, "import", snap)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 entities")

	out, err = dst.run(t, "get", "Person", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Grace")

	_, err = dst.run(t, "import", filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)
	assert.Equal(t, exitSysError, exitCode(err))
}

func TestExportImportDefaultSnapshot(t *testing.T) {
	env := newCLIEnv(t)
	key, err := types.NewKey("Person", 3)
	require.NoError(t, err)
	env.seed(t, key, map[string]any{"name": "Ada"})

	out, err := env.run(t, "export")
	require.NoError(t, err)
	assert.Contains(t, out, paths.SnapshotFile(env.dataDir))
	_, err = os.Stat(paths.SnapshotFile(env.dataDir))
	require.NoError(t, err)

	_, err = env.run(t, "delete", "Person", "3")
	require.NoError(t, err)
	out, err = env.run(t, "import")
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 entities")

	out, err = env.run(t, "get", "Person", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
}

func TestConfigFileScopesDataset(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"), []byte("dataset: app\n"), 0o644))

	key, err := types.NewKey("Person", 1)
	require.NoError(t, err)
	env.seed(t, key, map[string]any{"name": "unscoped"})

	_, err = env.run(t, "get", "Person", "1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBadLogLevel(t *testing.T) {
	env := newCLIEnv(t)
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config-dir", env.configDir, "--data-dir", env.dataDir, "--log-level", "loud", "kinds"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "loud"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitUserError, exitCode(errors.New("bad input")))
	assert.Equal(t, exitSysError, exitCode(systemErr("disk: %w", os.ErrPermission)))
	assert.ErrorIs(t, systemErr("disk: %w", os.ErrPermission), os.ErrPermission)
}
