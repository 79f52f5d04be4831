package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dsmodel/internal/config"
	"github.com/mesh-intelligence/dsmodel/internal/paths"
	"github.com/mesh-intelligence/dsmodel/internal/sqlite"
)

func newInitCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long:  "Write a default config.yaml if none exists, then create the data directory and store schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(func(s *session, _ *sqlite.Backend) error {
				defaults := s.settings
				if f.dataDir != "" {
					defaults.DataDir = s.dataDir
				}
				written, err := config.WriteDefault(s.configDir, defaults)
				if err != nil {
					return systemErr("write config: %w", err)
				}
				if written {
					s.log.Logger.Info().Str("path", paths.ConfigFile(s.configDir)).Msg("wrote default config")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dsmodel initialized in %s\n", s.dataDir)
				return nil
			})
		},
	}
}
