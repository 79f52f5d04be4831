// Package sqlite exposes the SQLite entity store while keeping its
// implementation internal.
package sqlite

import (
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/dsmodel/internal/sqlite"
	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

// NewBackend creates a detached SQLite store.
//
// Example:
//
//	backend := sqlite.NewBackend(zerolog.Nop())
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".dsmodel",
//	})
//	defer backend.Detach()
//	reg := model.NewRegistry(backend)
func NewBackend(log zerolog.Logger) types.Backend {
	return sqlite.NewBackend(sqlite.WithLogger(log))
}
