package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/dsmodel/internal/codec"
	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

const (
	selectEntitySQL = `SELECT fields FROM entities WHERE dataset = ? AND namespace = ? AND path_json = ?`

	upsertEntitySQL = `INSERT INTO entities (dataset, namespace, path, kind, path_json, fields, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (dataset, namespace, path_json) DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at`

	bumpSequenceSQL = `INSERT INTO sequences (dataset, namespace, kind, last_id) VALUES (?, ?, ?, ?)
ON CONFLICT (dataset, namespace, kind) DO UPDATE SET last_id = max(last_id, excluded.last_id)`

	nextSequenceSQL = `INSERT INTO sequences (dataset, namespace, kind, last_id) VALUES (?, ?, ?, 1)
ON CONFLICT (dataset, namespace, kind) DO UPDATE SET last_id = last_id + 1
RETURNING last_id`
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// FetchEntities returns one slot per key in input order. Keys outside the
// attached dataset and namespace, and keys with no stored entity, yield nil
// slots.
func (b *Backend) FetchEntities(keys []*types.Key) ([]*types.Entity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrNotAttached
	}

	out := make([]*types.Entity, len(keys))
	for i, key := range keys {
		if key == nil {
			return nil, fmt.Errorf("%w: nil key at %d", types.ErrMalformedKey, i)
		}
		if !key.Complete() {
			return nil, fmt.Errorf("fetching %s: %w", key, types.ErrIncompleteKey)
		}
		if !b.inScope(key) {
			continue
		}
		pathJSON, err := encodePath(key)
		if err != nil {
			return nil, err
		}
		var data []byte
		err = b.db.QueryRow(selectEntitySQL, key.Dataset(), key.Namespace(), pathJSON).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", key, err)
		}
		fields, err := codec.DecodeFields(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		out[i] = &types.Entity{Key: key, Fields: fields}
	}
	return out, nil
}

// PersistEntity upserts fields under key. An incomplete key is completed
// per the configured id policy and the completed key is returned.
func (b *Backend) PersistEntity(key *types.Key, fields map[string]any) (*types.Key, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrNotAttached
	}
	if key == nil {
		return nil, fmt.Errorf("%w: nil key", types.ErrMalformedKey)
	}
	if !b.inScope(key) {
		return nil, fmt.Errorf("%w: key %s is in dataset %q namespace %q", types.ErrNotAttached, key, key.Dataset(), key.Namespace())
	}

	data, err := codec.EncodeFields(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", key, err)
	}

	tx, err := b.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning put: %w", err)
	}
	defer tx.Rollback()

	if !key.Complete() {
		if key, err = b.allocate(tx, key); err != nil {
			return nil, err
		}
	}
	if err := upsertEntity(tx, key, data, b.now().Format(time.RFC3339Nano)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing put: %w", err)
	}
	b.log.Debug().Str("key", key.String()).Msg("persisted entity")
	return key, nil
}

func (b *Backend) allocate(tx *sql.Tx, key *types.Key) (*types.Key, error) {
	if b.config.GetIDPolicy() == types.IDPolicyUUID {
		return key.WithID(generateName())
	}
	var id int64
	err := tx.QueryRow(nextSequenceSQL, key.Dataset(), key.Namespace(), key.Kind()).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("allocating id for %s: %w", key.Kind(), err)
	}
	return key.WithID(id)
}

// encodePath renders the key path as the JSON stored in path_json.
func encodePath(key *types.Key) (string, error) {
	data, err := json.Marshal(key.Path())
	if err != nil {
		return "", fmt.Errorf("encoding path %s: %w", key, err)
	}
	return string(data), nil
}

func upsertEntity(ex execer, key *types.Key, fields []byte, updatedAt string) error {
	pathJSON, err := encodePath(key)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		if fields, err = codec.EncodeFields(nil); err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
	}
	_, err = ex.Exec(upsertEntitySQL,
		key.Dataset(), key.Namespace(), key.String(), key.Kind(), pathJSON, fields, updatedAt)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if id := key.ID(); id > 0 {
		if _, err := ex.Exec(bumpSequenceSQL, key.Dataset(), key.Namespace(), key.Kind(), id); err != nil {
			return fmt.Errorf("advancing sequence for %s: %w", key.Kind(), err)
		}
	}
	return nil
}

func (b *Backend) inScope(key *types.Key) bool {
	return key.Dataset() == b.config.Dataset && key.Namespace() == b.config.Namespace
}

// Delete removes the entity stored under key. Returns types.ErrNotFound when
// nothing was stored.
func (b *Backend) Delete(key *types.Key) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrNotAttached
	}
	pathJSON, err := encodePath(key)
	if err != nil {
		return err
	}
	res, err := b.db.Exec(`DELETE FROM entities WHERE dataset = ? AND namespace = ? AND path_json = ?`,
		key.Dataset(), key.Namespace(), pathJSON)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", key, types.ErrNotFound)
	}
	return nil
}

// Kinds returns the distinct kinds stored in the attached dataset and
// namespace, sorted.
func (b *Backend) Kinds() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrNotAttached
	}
	rows, err := b.db.Query(`SELECT DISTINCT kind FROM entities WHERE dataset = ? AND namespace = ? ORDER BY kind`,
		b.config.Dataset, b.config.Namespace)
	if err != nil {
		return nil, fmt.Errorf("listing kinds: %w", err)
	}
	defer rows.Close()

	var kinds []string
	for rows.Next() {
		var kind string
		if err := rows.Scan(&kind); err != nil {
			return nil, fmt.Errorf("scanning kind: %w", err)
		}
		kinds = append(kinds, kind)
	}
	return kinds, rows.Err()
}

// List returns every entity of kind in the attached dataset and namespace,
// ordered by rendered key path.
func (b *Backend) List(kind string) ([]*types.Entity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrNotAttached
	}
	rows, err := b.db.Query(`SELECT dataset, namespace, path_json, fields FROM entities
WHERE dataset = ? AND namespace = ? AND kind = ? ORDER BY path`,
		b.config.Dataset, b.config.Namespace, kind)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	defer rows.Close()

	var out []*types.Entity
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		key, err := rec.key()
		if err != nil {
			return nil, err
		}
		fields, err := codec.DecodeFields(rec.Fields)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		out = append(out, &types.Entity{Key: key, Fields: fields})
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, extra ...any) (entityJSON, error) {
	var rec entityJSON
	var pathJSON string
	dest := append([]any{&rec.Dataset, &rec.Namespace, &pathJSON, &rec.Fields}, extra...)
	if err := row.Scan(dest...); err != nil {
		return rec, fmt.Errorf("scanning entity: %w", err)
	}
	if err := json.Unmarshal([]byte(pathJSON), &rec.Path); err != nil {
		return rec, fmt.Errorf("decoding path %s: %w", pathJSON, err)
	}
	return rec, nil
}

// Export writes every stored entity, across datasets, to a JSONL snapshot
// at path and returns the number written.
func (b *Backend) Export(path string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrNotAttached
	}
	return b.exportLocked(path)
}

func (b *Backend) exportLocked(path string) (int, error) {
	rows, err := b.db.Query(`SELECT dataset, namespace, path_json, fields, updated_at FROM entities
ORDER BY dataset, namespace, path`)
	if err != nil {
		return 0, fmt.Errorf("reading entities: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var updated string
		rec, err := scanRecord(rows, &updated)
		if err != nil {
			return 0, err
		}
		rec.UpdatedAt = updated
		line, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("encoding record: %w", err)
		}
		records = append(records, line)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	b.log.Debug().Int("entities", len(records)).Str("path", path).Msg("exported snapshot")
	return len(records), nil
}

// Import upserts every record of the JSONL snapshot at path and returns the
// number loaded. Malformed lines are skipped.
func (b *Backend) Import(path string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return 0, types.ErrNotAttached
	}
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	n, err := loadRecords(b.db, records)
	if err != nil {
		return 0, err
	}
	b.log.Debug().Int("entities", n).Str("path", path).Msg("imported snapshot")
	return n, nil
}
