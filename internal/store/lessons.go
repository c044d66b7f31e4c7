package store

import (
	"fmt"

	"github.com/starford/hunlearn/internal/models"
)

// CompleteLesson records a lesson result, keeping the best score, and
// reports whether this was the first completion.
func (db *DB) CompleteLesson(userID, lessonID string, score int) (*models.LessonProgress, bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var prior int
	if err := tx.QueryRow(`SELECT count(*) FROM lesson_progress WHERE user_id = ? AND lesson_id = ?`,
		userID, lessonID).Scan(&prior); err != nil {
		return nil, false, fmt.Errorf("store: lesson progress: %w", err)
	}

	now := db.timestamp()
	_, err = tx.Exec(`
		INSERT INTO lesson_progress (user_id, lesson_id, best_score, attempts, completed_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(user_id, lesson_id) DO UPDATE SET
			best_score = max(best_score, excluded.best_score),
			attempts = attempts + 1,
			completed_at = excluded.completed_at
	`, userID, lessonID, score, now)
	if err != nil {
		return nil, false, fmt.Errorf("store: complete lesson: %w", err)
	}

	var p models.LessonProgress
	err = tx.QueryRow(`SELECT user_id, lesson_id, best_score, attempts, completed_at FROM lesson_progress
		WHERE user_id = ? AND lesson_id = ?`, userID, lessonID).
		Scan(&p.UserID, &p.LessonID, &p.BestScore, &p.Attempts, &p.CompletedAt)
	if err != nil {
		return nil, false, fmt.Errorf("store: reload lesson progress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &p, prior == 0, nil
}

// LessonProgress returns the user's completed lessons keyed by lesson id.
func (db *DB) LessonProgress(userID string) (map[string]models.LessonProgress, error) {
	rows, err := db.conn.Query(`SELECT user_id, lesson_id, best_score, attempts, completed_at
		FROM lesson_progress WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: lesson progress: %w", err)
	}
	defer rows.Close()

	out := map[string]models.LessonProgress{}
	for rows.Next() {
		var p models.LessonProgress
		if err := rows.Scan(&p.UserID, &p.LessonID, &p.BestScore, &p.Attempts, &p.CompletedAt); err != nil {
			return nil, err
		}
		out[p.LessonID] = p
	}
	return out, rows.Err()
}
