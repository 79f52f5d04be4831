package types

import "errors"

// Config holds backend selection and parameters for attaching a store.
type Config struct {
	Backend   string `json:"backend" yaml:"backend"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
	Dataset   string `json:"dataset" yaml:"dataset"`
	Namespace string `json:"namespace" yaml:"namespace"`

	// IDPolicy selects how a store completes incomplete keys on persist.
	IDPolicy string `json:"id_policy" yaml:"id_policy"`

	// SyncOnClose writes a JSONL snapshot of the store on detach.
	SyncOnClose bool `json:"sync_on_close" yaml:"sync_on_close"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// ID allocation policies for incomplete keys.
const (
	IDPolicySequence = "sequence" // numeric IDs from a per-kind counter
	IDPolicyUUID     = "uuid"     // UUIDv7 names
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrIDPolicyUnknown = errors.New("unknown id policy")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownIDPolicies = map[string]bool{
	"":               true,
	IDPolicySequence: true,
	IDPolicyUUID:     true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if !knownIDPolicies[c.IDPolicy] {
		return ErrIDPolicyUnknown
	}
	return nil
}

// GetIDPolicy returns the configured policy, defaulting to IDPolicySequence.
func (c Config) GetIDPolicy() string {
	if c.IDPolicy == "" {
		return IDPolicySequence
	}
	return c.IDPolicy
}
