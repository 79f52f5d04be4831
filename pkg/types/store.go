package types

// Entity is a raw, storage-shaped record: a key and a mapping from storage
// name to raw stored value. The model layer never interprets the wire format
// behind it.
type Entity struct {
	Key    *Key
	Fields map[string]any
}

// Store is the storage collaborator the model layer consumes. Backends
// handle I/O, retries and transactions; the model layer treats both calls
// as opaque and synchronous.
type Store interface {
	// FetchEntities returns one slot per input key, in input order. A nil
	// slot means the store holds no entity for that key.
	FetchEntities(keys []*Key) ([]*Entity, error)

	// PersistEntity writes fields under key and returns the definitive key.
	// An incomplete key comes back with its allocated identifier.
	PersistEntity(key *Key, fields map[string]any) (*Key, error)
}

// Backend is a Store with an attach/detach lifecycle.
type Backend interface {
	Store

	// Attach opens the backend with config. Attaching twice fails with
	// ErrAlreadyAttached.
	Attach(config Config) error

	// Detach releases the backend. It is idempotent.
	Detach() error
}
