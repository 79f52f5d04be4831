// Package cli implements the dsmodel command-line interface for inspecting
// and moving the contents of an entity store.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dsmodel/internal/config"
	"github.com/mesh-intelligence/dsmodel/internal/logger"
	"github.com/mesh-intelligence/dsmodel/internal/paths"
	"github.com/mesh-intelligence/dsmodel/internal/sqlite"
	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values shared by all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
}

// NewRootCmd creates the top-level "dsmodel" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "dsmodel",
		Short:         "Inspect and move entities in a dsmodel store",
		Long:          "dsmodel reads, lists, exports and imports the raw entities kept by a dsmodel store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&f.configDir, "config-dir", "", "configuration directory (env DSMODEL_CONFIG_DIR)")
	root.PersistentFlags().StringVar(&f.dataDir, "data-dir", "", "data directory (default: .dsmodel-db)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(f),
		newGetCmd(f),
		newDeleteCmd(f),
		newKindsCmd(f),
		newListCmd(f),
		newExportCmd(f),
		newImportCmd(f),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// sysError marks failures of the environment rather than of the request.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func systemErr(format string, args ...any) error {
	return &sysError{err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// session is the resolved configuration of one command run.
type session struct {
	configDir string
	dataDir   string
	settings  config.Settings
	log       *logger.LogData
}

func (f *rootFlags) open() (*session, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return nil, systemErr("resolve config dir: %w", err)
	}
	settings, err := config.Load(configDir)
	if err != nil {
		return nil, systemErr("load config: %w", err)
	}
	dataDir, err := paths.ResolveDataDir(f.dataDir, settings.DataDir)
	if err != nil {
		return nil, systemErr("resolve data dir: %w", err)
	}
	level := settings.LogLevel
	if f.logLevel != "" {
		level = f.logLevel
	}
	build := logger.New().Level(level)
	if settings.LogFile != "" {
		build = build.FromPath(settings.LogFile)
	}
	log, err := build.Make()
	if err != nil {
		return nil, err
	}
	return &session{configDir: configDir, dataDir: dataDir, settings: settings, log: log}, nil
}

// withStore attaches the store for the duration of fn.
func (f *rootFlags) withStore(fn func(s *session, b *sqlite.Backend) error) (err error) {
	s, err := f.open()
	if err != nil {
		return err
	}
	defer s.log.Close()

	b := sqlite.NewBackend(sqlite.WithLogger(s.log.Logger))
	if err := b.Attach(s.settings.StoreConfig(s.dataDir)); err != nil {
		if errors.Is(err, types.ErrBackendUnknown) || errors.Is(err, types.ErrIDPolicyUnknown) {
			return fmt.Errorf("attach store: %w", err)
		}
		return systemErr("attach store: %w", err)
	}
	defer func() {
		if derr := b.Detach(); derr != nil && err == nil {
			err = systemErr("detach store: %w", derr)
		}
	}()
	return fn(s, b)
}
