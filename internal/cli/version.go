package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the dsmodel release.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/dsmodel"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dsmodel version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "dsmodel v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
