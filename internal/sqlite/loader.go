package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// loadRecords upserts snapshot records in one transaction and returns how
// many were written. Lines that do not decode into a complete entity record
// are skipped; unknown JSON fields are ignored.
func loadRecords(db *sql.DB, records []json.RawMessage) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	n := 0
	for _, raw := range records {
		var rec entityJSON
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		key, err := rec.key()
		if err != nil {
			continue
		}
		updated := rec.UpdatedAt
		if updated == "" {
			updated = time.Now().UTC().Format(time.RFC3339Nano)
		}
		if err := upsertEntity(tx, key, rec.Fields, updated); err != nil {
			return 0, fmt.Errorf("loading %s: %w", key, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return n, nil
}
