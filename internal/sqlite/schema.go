package sqlite

// Schema DDL. Entities are keyed by dataset, namespace and the JSON encoded
// key path. The rendered path is kept for ordering and display only, since
// kinds may contain the separators it is rendered with.
const (
	createEntities = `CREATE TABLE IF NOT EXISTS entities (
    dataset TEXT NOT NULL,
    namespace TEXT NOT NULL,
    path TEXT NOT NULL,
    kind TEXT NOT NULL,
    path_json TEXT NOT NULL,
    fields BLOB NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (dataset, namespace, path_json)
);`

	createSequences = `CREATE TABLE IF NOT EXISTS sequences (
    dataset TEXT NOT NULL,
    namespace TEXT NOT NULL,
    kind TEXT NOT NULL,
    last_id INTEGER NOT NULL,
    PRIMARY KEY (dataset, namespace, kind)
);`
)

const (
	idxEntitiesKind = `CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(dataset, namespace, kind);`
)

var schemaDDL = []string{
	createEntities,
	createSequences,
}

var indexDDL = []string{
	idxEntitiesKind,
}
