package store

import (
	"fmt"
)

// SourceChecksums returns the stored checksum of every content file of kind.
func (db *DB) SourceChecksums(kind string) (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM content_sources WHERE kind = ?`, kind)
	if err != nil {
		return nil, fmt.Errorf("store: source checksums: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var path, sum string
		if err := rows.Scan(&path, &sum); err != nil {
			return nil, err
		}
		out[path] = sum
	}
	return out, rows.Err()
}

// SetSourceChecksum records that path was synced at checksum.
func (db *DB) SetSourceChecksum(path, kind, checksum string) error {
	_, err := db.conn.Exec(`
		INSERT INTO content_sources (path, kind, checksum, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET kind = excluded.kind, checksum = excluded.checksum, updated_at = excluded.updated_at
	`, path, kind, checksum, db.timestamp())
	if err != nil {
		return fmt.Errorf("store: set source checksum: %w", err)
	}
	return nil
}

// DeleteSource forgets a content file and every row it produced.
func (db *DB) DeleteSource(path, kind string) error {
	switch kind {
	case "vocabulary":
		if err := db.ReplaceSourceCards(path, nil); err != nil {
			return err
		}
	case "terms":
		if err := db.ReplaceSourceTerms(path, nil); err != nil {
			return err
		}
	}
	if _, err := db.conn.Exec(`DELETE FROM content_sources WHERE path = ?`, path); err != nil {
		return fmt.Errorf("store: delete source: %w", err)
	}
	return nil
}

// Ping checks the connection; used by the readiness probe.
func (db *DB) Ping() error {
	return db.conn.Ping()
}
