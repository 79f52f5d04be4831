package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dsmodel/internal/sqlite"
	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

// entityView is the JSON form of a raw entity. []byte fields render as
// base64 and times as RFC 3339.
type entityView struct {
	Key       string         `json:"key"`
	Dataset   string         `json:"dataset,omitempty"`
	Namespace string         `json:"namespace,omitempty"`
	Fields    map[string]any `json:"fields"`
}

func viewOf(e *types.Entity) entityView {
	return entityView{
		Key:       e.Key.String(),
		Dataset:   e.Key.Dataset(),
		Namespace: e.Key.Namespace(),
		Fields:    e.Fields,
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// parseIdentifier reads a positive integer as a numeric ID and anything
// else as a name.
func parseIdentifier(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return n
	}
	return s
}

// keyFromArgs builds a key from kind/identifier argument pairs, bound to the
// session dataset and namespace.
func keyFromArgs(s *session, args []string) (*types.Key, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("%w: expected <kind> <id> pairs", types.ErrMalformedKey)
	}
	pairs := make([]types.Pair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, types.Pair{Kind: args[i], ID: parseIdentifier(args[i+1])})
	}
	return types.KeyFromPairs(pairs,
		types.WithDataset(s.settings.Dataset), types.WithNamespace(s.settings.Namespace))
}

func newGetCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <id> [<kind> <id>...]",
		Short: "Print a raw entity as JSON",
		Long: `Get fetches the entity stored under the given key path.

Example:
  dsmodel get Person 42
  dsmodel get Person 42 Address home`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(func(s *session, b *sqlite.Backend) error {
				key, err := keyFromArgs(s, args)
				if err != nil {
					return err
				}
				ents, err := b.FetchEntities([]*types.Key{key})
				if err != nil {
					return systemErr("fetch %s: %w", key, err)
				}
				if ents[0] == nil {
					return fmt.Errorf("%s: %w", key, types.ErrNotFound)
				}
				return printJSON(cmd, viewOf(ents[0]))
			})
		},
	}
}

func newDeleteCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id> [<kind> <id>...]",
		Short: "Delete a raw entity",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(func(s *session, b *sqlite.Backend) error {
				key, err := keyFromArgs(s, args)
				if err != nil {
					return err
				}
				if err := b.Delete(key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
				return nil
			})
		},
	}
}

func newKindsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the kinds present in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(func(_ *session, b *sqlite.Backend) error {
				kinds, err := b.Kinds()
				if err != nil {
					return systemErr("list kinds: %w", err)
				}
				for _, k := range kinds {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	}
}

func newListCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind>",
		Short: "Print every entity of a kind as a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(func(_ *session, b *sqlite.Backend) error {
				ents, err := b.List(args[0])
				if err != nil {
					return systemErr("list %s: %w", args[0], err)
				}
				views := make([]entityView, len(ents))
				for i, e := range ents {
					views[i] = viewOf(e)
				}
				return printJSON(cmd, views)
			})
		},
	}
}
