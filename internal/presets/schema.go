// Package presets provides the SQLite-backed store for frontmatter preset
// configuration. The core only reads presets; this store is the concrete
// configuration storage behind it.
package presets

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS presets (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS preset_fields (
	preset_id TEXT    NOT NULL REFERENCES presets(id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	key       TEXT    NOT NULL,
	label     TEXT    NOT NULL DEFAULT '',
	type      TEXT    NOT NULL DEFAULT 'text',
	dflt      TEXT    NOT NULL DEFAULT 'null',
	options   TEXT    NOT NULL DEFAULT '[]',
	use_templater_timestamp INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (preset_id, position),
	UNIQUE (preset_id, key)
);
`

// Store wraps a sql.DB with preset-specific operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("presets: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("presets: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("presets: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
