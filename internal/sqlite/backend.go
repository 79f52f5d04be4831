// Package sqlite implements the reference entity store on SQLite. Entities
// live in entities.db under the configured data directory; field maps are
// CBOR encoded so stored values keep their Go types. With SyncOnClose the
// store also keeps an entities.jsonl snapshot that is loaded on Attach and
// rewritten on Detach.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/dsmodel/internal/paths"
	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

// Backend is a types.Store backed by SQLite. All methods are safe for
// concurrent use.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	log zerolog.Logger
	now func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// WithClock replaces the clock used for updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log: zerolog.Nop(),
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens the database under config.DataDir, creating the directory
// and schema as needed. Returns types.ErrAlreadyAttached if already
// attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	config.DataDir = dataDir

	db, err := sql.Open("sqlite", paths.DatabaseFile(dataDir))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range append(append([]string(nil), schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if config.SyncOnClose {
		if err := b.loadSnapshot(db, paths.SnapshotFile(dataDir)); err != nil {
			db.Close()
			return err
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	b.log.Debug().Str("data_dir", dataDir).Str("id_policy", config.GetIDPolicy()).Msg("attached sqlite store")
	return nil
}

// loadSnapshot replaces the table contents with the snapshot at path when
// the file exists.
func (b *Backend) loadSnapshot(db *sql.DB, path string) error {
	records, err := readJSONL(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := db.Exec("DELETE FROM entities"); err != nil {
		return fmt.Errorf("clearing entities: %w", err)
	}
	n, err := loadRecords(db, records)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	b.log.Debug().Int("entities", n).Str("path", path).Msg("loaded snapshot")
	return nil
}

// Detach closes the database, writing the snapshot first when SyncOnClose
// is set. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.config.SyncOnClose {
		if _, err := b.exportLocked(paths.SnapshotFile(b.config.DataDir)); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	b.log.Debug().Msg("detached sqlite store")
	return nil
}

// generateName returns a UUID v7 string for the uuid id policy.
func generateName() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
