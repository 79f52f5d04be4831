package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

// entityJSON is one line of an entities JSONL snapshot. Fields holds the
// CBOR field map, base64 encoded by encoding/json.
type entityJSON struct {
	Dataset   string              `json:"dataset,omitempty"`
	Namespace string              `json:"namespace,omitempty"`
	Path      []types.PathElement `json:"path"`
	Fields    []byte              `json:"fields"`
	UpdatedAt string              `json:"updated_at,omitempty"`
}

func (r entityJSON) key() (*types.Key, error) {
	key, err := types.KeyFromPath(r.Path, types.WithDataset(r.Dataset), types.WithNamespace(r.Namespace))
	if err != nil {
		return nil, err
	}
	if !key.Complete() {
		return nil, fmt.Errorf("%w: snapshot record %s", types.ErrIncompleteKey, key)
	}
	return key, nil
}
