//go:build sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS vocabulary_fts USING fts5(
			id UNINDEXED,
			hungarian,
			korean,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
		CREATE VIRTUAL TABLE IF NOT EXISTS terms_fts USING fts5(
			id UNINDEXED,
			hungarian,
			korean,
			definition,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

// matchQuery quotes user input as an FTS5 prefix phrase.
func matchQuery(q string) string {
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"*`
}

func ftsUpsertCard(tx *sql.Tx, id, hungarian, korean string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM vocabulary_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO vocabulary_fts (id, hungarian, korean, tags) VALUES (?, ?, ?, ?)`,
		id, hungarian, korean, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("store: upsert card fts: %w", err)
	}
	return nil
}

func ftsDeleteCard(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM vocabulary_fts WHERE id = ?`, id)
}

func ftsUpsertTerm(tx *sql.Tx, id, hungarian, korean, definition string) error {
	_, _ = tx.Exec(`DELETE FROM terms_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO terms_fts (id, hungarian, korean, definition) VALUES (?, ?, ?, ?)`,
		id, hungarian, korean, definition)
	if err != nil {
		return fmt.Errorf("store: upsert term fts: %w", err)
	}
	return nil
}

func ftsDeleteTerm(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM terms_fts WHERE id = ?`, id)
}

func cardSearchClause(q string) (string, []any) {
	return `c.id IN (SELECT id FROM vocabulary_fts WHERE vocabulary_fts MATCH ?)`, []any{matchQuery(q)}
}

func termSearchClause(q string) (string, []any) {
	return `t.id IN (SELECT id FROM terms_fts WHERE terms_fts MATCH ?)`, []any{matchQuery(q)}
}
