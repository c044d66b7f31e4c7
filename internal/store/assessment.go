package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/models"
)

const assessmentColumns = `id, user_id, type, status, total_questions, current_level, theta, answers, result,
	started_at, paused_at, completed_at`

func scanAssessment(s scanner) (*models.AssessmentSession, error) {
	var a models.AssessmentSession
	var answers, result string
	var paused, completed sql.NullTime
	err := s.Scan(&a.ID, &a.UserID, &a.Type, &a.Status, &a.TotalQuestions, &a.CurrentLevel, &a.Theta,
		&answers, &result, &a.StartedAt, &paused, &completed)
	if err != nil {
		return nil, err
	}
	if err := fromJSON("assessment answers", answers, &a.Answers); err != nil {
		return nil, err
	}
	a.Answers = nonNil(a.Answers)
	if result != "" {
		var r models.AssessmentResult
		if err := fromJSON("assessment result", result, &r); err != nil {
			return nil, err
		}
		a.Result = &r
	}
	a.PausedAt = timePtr(paused)
	a.CompletedAt = timePtr(completed)
	return &a, nil
}

func resultJSON(r *models.AssessmentResult) string {
	if r == nil {
		return ""
	}
	return toJSON(r)
}

// InsertAssessment stores a new assessment session.
func (db *DB) InsertAssessment(a *models.AssessmentSession) error {
	a.StartedAt = db.timestamp()
	_, err := db.conn.Exec(`
		INSERT INTO assessment_sessions (`+assessmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.Type, a.Status, a.TotalQuestions, a.CurrentLevel, a.Theta, toJSON(nonNil(a.Answers)),
		resultJSON(a.Result), a.StartedAt, nullTime(a.PausedAt), nullTime(a.CompletedAt))
	if err != nil {
		return fmt.Errorf("store: insert assessment: %w", err)
	}
	return nil
}

// SaveAssessment writes the mutable state of a.
func (db *DB) SaveAssessment(a *models.AssessmentSession) error {
	res, err := db.conn.Exec(`
		UPDATE assessment_sessions SET status = ?, current_level = ?, theta = ?, answers = ?, result = ?,
			paused_at = ?, completed_at = ?
		WHERE id = ? AND user_id = ?
	`, a.Status, a.CurrentLevel, a.Theta, toJSON(nonNil(a.Answers)), resultJSON(a.Result),
		nullTime(a.PausedAt), nullTime(a.CompletedAt), a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("store: save assessment: %w", err)
	}
	return affected(res)
}

// AssessmentByID returns the user's assessment or apperr.ErrNotFound.
func (db *DB) AssessmentByID(userID, id string) (*models.AssessmentSession, error) {
	a, err := scanAssessment(db.conn.QueryRow(`SELECT `+assessmentColumns+` FROM assessment_sessions
		WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: assessment by id: %w", err)
	}
	return a, nil
}

// ListAssessments returns a page of the user's assessments, newest first.
func (db *DB) ListAssessments(userID, status string, limit, offset int) ([]models.AssessmentSession, int, error) {
	cond := `user_id = ?`
	args := []any{userID}
	if status != "" {
		cond += ` AND status = ?`
		args = append(args, status)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM assessment_sessions WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count assessments: %w", err)
	}
	limit, offset = Page(limit, offset, 10, 50)
	rows, err := db.conn.Query(`SELECT `+assessmentColumns+` FROM assessment_sessions WHERE `+cond+
		` ORDER BY started_at DESC, id ASC LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list assessments: %w", err)
	}
	defer rows.Close()

	out := []models.AssessmentSession{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}
