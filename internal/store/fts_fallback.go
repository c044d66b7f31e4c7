//go:build !sqlite_fts5

package store

import (
	"database/sql"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; searches use LIKE on the base tables.
	return nil
}

func ftsUpsertCard(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDeleteCard(_ *sql.Tx, _ string) {}

func ftsUpsertTerm(_ *sql.Tx, _, _, _, _ string) error { return nil }

func ftsDeleteTerm(_ *sql.Tx, _ string) {}

func cardSearchClause(q string) (string, []any) {
	like := containsPattern(q)
	return `(c.hungarian LIKE ? ESCAPE '\' OR c.korean LIKE ? ESCAPE '\' OR c.tags LIKE ? ESCAPE '\')`,
		[]any{like, like, like}
}

func termSearchClause(q string) (string, []any) {
	like := containsPattern(q)
	return `(t.hungarian LIKE ? ESCAPE '\' OR t.korean LIKE ? ESCAPE '\' OR t.definition_hungarian LIKE ? ESCAPE '\' OR t.definition_korean LIKE ? ESCAPE '\')`,
		[]any{like, like, like, like}
}
