package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dsmodel/internal/paths"
	"github.com/mesh-intelligence/dsmodel/internal/sqlite"
)

// snapshotPath is the named file, or the snapshot in the data directory.
func snapshotPath(s *session, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return paths.SnapshotFile(s.dataDir)
}

func newExportCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every entity to a JSONL snapshot",
		Long:  "Export writes every entity to file, or to entities.jsonl in the data directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(func(s *session, b *sqlite.Backend) error {
				path := snapshotPath(s, args)
				n, err := b.Export(path)
				if err != nil {
					return systemErr("export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d entities to %s\n", n, path)
				return nil
			})
		},
	}
}

func newImportCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Load a JSONL snapshot into the store",
		Long: "Import upserts every well-formed record of file, or of entities.jsonl in the data directory. " +
			"Malformed lines are skipped.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(func(s *session, b *sqlite.Backend) error {
				path := snapshotPath(s, args)
				n, err := b.Import(path)
				if err != nil {
					return systemErr("import: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d entities from %s\n", n, path)
				return nil
			})
		},
	}
}
