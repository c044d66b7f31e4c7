package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/models"
)

// TermFilter selects theological terms.
type TermFilter struct {
	Query      string
	Category   string
	Difficulty string
	Letter     string
	Sort       string
	Limit      int
	Offset     int
}

const termColumns = `t.id, t.hungarian, t.korean, t.category, t.difficulty_level, t.definition_hungarian,
	t.definition_korean, t.usage_examples, t.related_terms, t.pronunciation, t.etymology,
	t.scripture_references, t.usage_frequency, t.updated_at`

func scanTerm(s scanner) (*models.TheologicalTerm, error) {
	var t models.TheologicalTerm
	var examples, related, refs string
	err := s.Scan(&t.ID, &t.Hungarian, &t.Korean, &t.Category, &t.DifficultyLevel, &t.DefinitionHungarian,
		&t.DefinitionKorean, &examples, &related, &t.Pronunciation, &t.Etymology, &refs, &t.UsageFrequency,
		&t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(
		fromJSON("term usage_examples", examples, &t.UsageExamples),
		fromJSON("term related_terms", related, &t.RelatedTerms),
		fromJSON("term scripture_references", refs, &t.ScriptureReferences),
	); err != nil {
		return nil, err
	}
	t.UsageExamples = nonNil(t.UsageExamples)
	t.RelatedTerms = nonNil(t.RelatedTerms)
	t.ScriptureReferences = nonNil(t.ScriptureReferences)
	return &t, nil
}

func scanTerms(rows *sql.Rows) ([]models.TheologicalTerm, error) {
	defer rows.Close()
	out := []models.TheologicalTerm{}
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ReplaceSourceTerms upserts the terms of one content file and removes
// terms that file no longer defines.
func (db *DB) ReplaceSourceTerms(source string, terms []models.TheologicalTerm) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := db.timestamp()
	keep := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		_, err := tx.Exec(`
			INSERT INTO theological_terms (id, hungarian, korean, category, difficulty_level,
				definition_hungarian, definition_korean, usage_examples, related_terms, pronunciation,
				etymology, scripture_references, usage_frequency, source, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				hungarian = excluded.hungarian,
				korean = excluded.korean,
				category = excluded.category,
				difficulty_level = excluded.difficulty_level,
				definition_hungarian = excluded.definition_hungarian,
				definition_korean = excluded.definition_korean,
				usage_examples = excluded.usage_examples,
				related_terms = excluded.related_terms,
				pronunciation = excluded.pronunciation,
				etymology = excluded.etymology,
				scripture_references = excluded.scripture_references,
				usage_frequency = excluded.usage_frequency,
				source = excluded.source,
				updated_at = excluded.updated_at
		`, t.ID, t.Hungarian, t.Korean, t.Category, t.DifficultyLevel, t.DefinitionHungarian, t.DefinitionKorean,
			toJSON(nonNil(t.UsageExamples)), toJSON(nonNil(t.RelatedTerms)), t.Pronunciation, t.Etymology,
			toJSON(nonNil(t.ScriptureReferences)), t.UsageFrequency, source, now)
		if err != nil {
			return fmt.Errorf("store: upsert term %s: %w", t.ID, err)
		}
		if err := ftsUpsertTerm(tx, t.ID, t.Hungarian, t.Korean, t.DefinitionHungarian+" "+t.DefinitionKorean); err != nil {
			return err
		}
		keep[t.ID] = struct{}{}
	}
	if err := deleteStale(tx, "theological_terms", source, keep, ftsDeleteTerm); err != nil {
		return err
	}
	return tx.Commit()
}

// TermByID returns a term or apperr.ErrNotFound.
func (db *DB) TermByID(id string) (*models.TheologicalTerm, error) {
	t, err := scanTerm(db.conn.QueryRow(`SELECT `+termColumns+` FROM theological_terms t WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: term by id: %w", err)
	}
	return t, nil
}

// TermsByHungarian resolves related-term references, which name terms by
// their Hungarian form.
func (db *DB) TermsByHungarian(words []string) ([]models.TheologicalTerm, error) {
	if len(words) == 0 {
		return []models.TheologicalTerm{}, nil
	}
	args := make([]any, len(words))
	for i, w := range words {
		args[i] = strings.ToLower(w)
	}
	rows, err := db.conn.Query(`SELECT `+termColumns+` FROM theological_terms t
		WHERE lower(t.hungarian) IN (`+placeholders(len(words))+`) ORDER BY t.hungarian`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: terms by hungarian: %w", err)
	}
	return scanTerms(rows)
}

// SearchTerms returns a page of matching terms and the total count.
func (db *DB) SearchTerms(f TermFilter) ([]models.TheologicalTerm, int, error) {
	var where []string
	var args []any
	if f.Query != "" {
		clause, qargs := termSearchClause(f.Query)
		where = append(where, clause)
		args = append(args, qargs...)
	}
	if f.Category != "" {
		where = append(where, `t.category = ?`)
		args = append(args, f.Category)
	}
	if f.Difficulty != "" {
		where = append(where, `t.difficulty_level = ?`)
		args = append(args, f.Difficulty)
	}
	if f.Letter != "" {
		where = append(where, `lower(substr(t.hungarian, 1, length(?))) = lower(?)`)
		args = append(args, f.Letter, f.Letter)
	}
	cond := ""
	if len(where) > 0 {
		cond = ` WHERE ` + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM theological_terms t`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count terms: %w", err)
	}

	var order string
	switch f.Sort {
	case "alphabetical":
		order = `t.hungarian COLLATE NOCASE ASC`
	case "difficulty":
		order = `t.difficulty_level ASC, t.hungarian COLLATE NOCASE ASC`
	case "frequency":
		order = `t.usage_frequency DESC, t.hungarian COLLATE NOCASE ASC`
	default:
		// Relevance: exact hungarian matches first, then by frequency.
		if f.Query != "" {
			order = `CASE WHEN lower(t.hungarian) = lower(?) THEN 0 ELSE 1 END, t.usage_frequency DESC, t.hungarian ASC`
			args = append(args, f.Query)
		} else {
			order = `t.usage_frequency DESC, t.hungarian ASC`
		}
	}
	limit, offset := Page(f.Limit, f.Offset, 20, 100)
	rows, err := db.conn.Query(`SELECT `+termColumns+` FROM theological_terms t`+cond+
		` ORDER BY `+order+` LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: search terms: %w", err)
	}
	terms, err := scanTerms(rows)
	return terms, total, err
}

// RandomTerm returns one term, optionally restricted to a category.
func (db *DB) RandomTerm(category string) (*models.TheologicalTerm, error) {
	q := `SELECT ` + termColumns + ` FROM theological_terms t`
	var args []any
	if category != "" {
		q += ` WHERE t.category = ?`
		args = append(args, category)
	}
	t, err := scanTerm(db.conn.QueryRow(q+` ORDER BY random() LIMIT 1`, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: random term: %w", err)
	}
	return t, nil
}

// TermCounts groups the number of terms by column, which is "category" or
// "difficulty_level".
func (db *DB) TermCounts(column string) (map[string]int, error) {
	if column != "category" && column != "difficulty_level" {
		return nil, fmt.Errorf("store: term counts: unknown column %q", column)
	}
	rows, err := db.conn.Query(`SELECT ` + column + `, count(*) FROM theological_terms GROUP BY ` + column)
	if err != nil {
		return nil, fmt.Errorf("store: term counts: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}

// RecordTermAttempt folds one practice answer into the user's progress for
// the term and appends it to the attempt log.
func (db *DB) RecordTermAttempt(userID string, a models.TermAttempt) (*models.TermProgress, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := db.timestamp()
	p := models.TermProgress{UserID: userID, TermID: a.TermID}
	err = tx.QueryRow(`SELECT attempts, correct, avg_response_ms FROM term_progress WHERE user_id = ? AND term_id = ?`,
		userID, a.TermID).Scan(&p.Attempts, &p.Correct, &p.AvgResponseMs)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: load term progress: %w", err)
	}

	p.AvgResponseMs = (p.AvgResponseMs*p.Attempts + a.ResponseTimeMs) / (p.Attempts + 1)
	p.Attempts++
	if a.Correct {
		p.Correct++
	}
	p.Mastery = float64(p.Correct) / float64(p.Attempts)
	p.LastDifficulty = a.DifficultyPerceived
	p.LastContext = a.Context
	p.LastPracticed = now

	_, err = tx.Exec(`
		INSERT INTO term_progress (user_id, term_id, attempts, correct, mastery, avg_response_ms,
			last_difficulty, last_context, last_practiced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, term_id) DO UPDATE SET
			attempts = excluded.attempts,
			correct = excluded.correct,
			mastery = excluded.mastery,
			avg_response_ms = excluded.avg_response_ms,
			last_difficulty = excluded.last_difficulty,
			last_context = excluded.last_context,
			last_practiced = excluded.last_practiced
	`, userID, a.TermID, p.Attempts, p.Correct, p.Mastery, p.AvgResponseMs, p.LastDifficulty, p.LastContext, now)
	if err != nil {
		return nil, fmt.Errorf("store: upsert term progress: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO term_attempts (user_id, term_id, correct, practiced_at) VALUES (?, ?, ?, ?)`,
		userID, a.TermID, boolInt(a.Correct), now); err != nil {
		return nil, fmt.Errorf("store: insert term attempt: %w", err)
	}
	return &p, tx.Commit()
}

// TermProgressList returns all of the user's term progress, least mastered first.
func (db *DB) TermProgressList(userID string) ([]models.TermProgress, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, term_id, attempts, correct, mastery, avg_response_ms, last_difficulty, last_context, last_practiced
		FROM term_progress WHERE user_id = ? ORDER BY mastery ASC, last_practiced ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: term progress: %w", err)
	}
	defer rows.Close()
	out := []models.TermProgress{}
	for rows.Next() {
		var p models.TermProgress
		if err := rows.Scan(&p.UserID, &p.TermID, &p.Attempts, &p.Correct, &p.Mastery, &p.AvgResponseMs,
			&p.LastDifficulty, &p.LastContext, &p.LastPracticed); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TermsForReview returns practiced terms whose mastery is below threshold,
// least mastered first.
func (db *DB) TermsForReview(userID string, threshold float64, limit int) ([]models.TheologicalTerm, error) {
	limit, _ = Page(limit, 0, 20, 100)
	rows, err := db.conn.Query(`SELECT `+termColumns+` FROM theological_terms t
		JOIN term_progress p ON p.term_id = t.id AND p.user_id = ?
		WHERE p.mastery < ? ORDER BY p.mastery ASC, p.last_practiced ASC LIMIT ?`, userID, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("store: terms for review: %w", err)
	}
	return scanTerms(rows)
}

// TermAttemptsSince counts the user's term practice answers since since.
func (db *DB) TermAttemptsSince(userID string, since time.Time) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT count(*) FROM term_attempts WHERE user_id = ? AND practiced_at >= ?`,
		userID, since.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: term attempts: %w", err)
	}
	return n, nil
}

// CorrectTermAttempts counts every correct term answer the user has given.
func (db *DB) CorrectTermAttempts(userID string) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT count(*) FROM term_attempts WHERE user_id = ? AND correct = 1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: correct term attempts: %w", err)
	}
	return n, nil
}
