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

// DraftFilter selects a user's sermon drafts.
type DraftFilter struct {
	UserID string
	Status string
	Query  string
	Sort   string
	Limit  int
	Offset int
}

const draftColumns = `id, user_id, title_hungarian, title_korean, scripture_reference, topic, content,
	metadata, status, version, created_at, updated_at, completed_at`

func scanDraft(s scanner) (*models.SermonDraft, error) {
	var d models.SermonDraft
	var content, metadata string
	var completed sql.NullTime
	err := s.Scan(&d.ID, &d.UserID, &d.Title.Hungarian, &d.Title.Korean, &d.ScriptureReference, &d.Topic,
		&content, &metadata, &d.Status, &d.Version, &d.CreatedAt, &d.UpdatedAt, &completed)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(
		fromJSON("draft content", content, &d.Content),
		fromJSON("draft metadata", metadata, &d.Metadata),
	); err != nil {
		return nil, err
	}
	d.Content.Outline = nonNil(d.Content.Outline)
	d.Metadata.Tags = nonNil(d.Metadata.Tags)
	d.CompletedAt = timePtr(completed)
	return &d, nil
}

// InsertDraft stores a new draft with version 1.
func (db *DB) InsertDraft(d *models.SermonDraft) error {
	now := db.timestamp()
	d.CreatedAt, d.UpdatedAt, d.Version = now, now, 1
	_, err := db.conn.Exec(`
		INSERT INTO sermon_drafts (`+draftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.UserID, d.Title.Hungarian, d.Title.Korean, d.ScriptureReference, d.Topic, toJSON(d.Content),
		toJSON(d.Metadata), d.Status, d.Version, d.CreatedAt, d.UpdatedAt, nullTime(d.CompletedAt))
	if err != nil {
		return fmt.Errorf("store: insert draft: %w", err)
	}
	return nil
}

// DraftByID returns the draft when it belongs to userID. Drafts of other
// users are reported as apperr.ErrNotFound.
func (db *DB) DraftByID(userID, id string) (*models.SermonDraft, error) {
	d, err := scanDraft(db.conn.QueryRow(`SELECT `+draftColumns+` FROM sermon_drafts WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: draft by id: %w", err)
	}
	return d, nil
}

// UpdateDraft writes d when its stored version still equals expectVersion
// and bumps the version. A version mismatch yields apperr.ErrConflict.
func (db *DB) UpdateDraft(d *models.SermonDraft, expectVersion int) error {
	now := db.timestamp()
	res, err := db.conn.Exec(`
		UPDATE sermon_drafts SET title_hungarian = ?, title_korean = ?, scripture_reference = ?, topic = ?,
			content = ?, metadata = ?, status = ?, version = version + 1, updated_at = ?, completed_at = ?
		WHERE id = ? AND user_id = ? AND version = ?
	`, d.Title.Hungarian, d.Title.Korean, d.ScriptureReference, d.Topic, toJSON(d.Content), toJSON(d.Metadata),
		d.Status, now, nullTime(d.CompletedAt), d.ID, d.UserID, expectVersion)
	if err != nil {
		return fmt.Errorf("store: update draft: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.DraftByID(d.UserID, d.ID); err != nil {
			return err
		}
		return apperr.ErrConflict
	}
	d.Version = expectVersion + 1
	d.UpdatedAt = now
	return nil
}

// ListDrafts returns a page of the user's drafts and the total count.
func (db *DB) ListDrafts(f DraftFilter) ([]models.SermonDraft, int, error) {
	where := []string{`user_id = ?`}
	args := []any{f.UserID}
	if f.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, f.Status)
	}
	if f.Query != "" {
		like := containsPattern(f.Query)
		where = append(where, `(title_hungarian LIKE ? ESCAPE '\' OR title_korean LIKE ? ESCAPE '\' OR topic LIKE ? ESCAPE '\'
			OR scripture_reference LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM sermon_drafts WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count drafts: %w", err)
	}

	order := `updated_at DESC`
	switch f.Sort {
	case "oldest":
		order = `created_at ASC`
	case "title":
		order = `title_hungarian COLLATE NOCASE ASC`
	}
	limit, offset := Page(f.Limit, f.Offset, 20, 100)
	rows, err := db.conn.Query(`SELECT `+draftColumns+` FROM sermon_drafts WHERE `+cond+
		` ORDER BY `+order+`, id ASC LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list drafts: %w", err)
	}
	defer rows.Close()

	out := []models.SermonDraft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

// DraftStatusCounts returns the number of drafts per status.
func (db *DB) DraftStatusCounts(userID string) (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT status, count(*) FROM sermon_drafts WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: draft counts: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for _, s := range models.DraftStatuses {
		out[s] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// DraftsUpdatedSince returns all of the user's non-archived drafts touched since since.
func (db *DB) DraftsUpdatedSince(userID string, since time.Time) ([]models.SermonDraft, error) {
	rows, err := db.conn.Query(`SELECT `+draftColumns+` FROM sermon_drafts
		WHERE user_id = ? AND updated_at >= ? AND status != ? ORDER BY updated_at DESC`,
		userID, since.UTC(), models.DraftStatusArchived)
	if err != nil {
		return nil, fmt.Errorf("store: drafts since: %w", err)
	}
	defer rows.Close()

	out := []models.SermonDraft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
