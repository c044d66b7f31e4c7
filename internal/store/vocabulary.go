package store

import (
	"cmp"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/fsrs"
	"github.com/starford/hunlearn/internal/models"
)

// CardFilter selects catalog cards visible to UserID: seed cards plus the
// user's own cards.
type CardFilter struct {
	UserID     string
	Level      string
	Difficulty string
	WordClass  string
	Tag        string
	Query      string
	Sort       string
	Limit      int
	Offset     int
}

const cardColumns = `c.id, c.owner_id, c.hungarian, c.korean, c.word_class, c.level, c.difficulty,
	c.pronunciation, c.examples, c.tags, c.cultural_context, c.theological, c.source,
	c.created_at, c.updated_at`

const progressColumns = `p.user_id, p.card_id, p.due, p.stability, p.difficulty, p.elapsed_days,
	p.scheduled_days, p.reps, p.lapses, p.state, p.last_review, p.total_reviews,
	p.correct_reviews, p.updated_at`

func scanCard(s scanner) (*models.VocabularyCard, error) {
	var c models.VocabularyCard
	var examples, tags string
	var theological int
	err := s.Scan(&c.ID, &c.OwnerID, &c.Hungarian, &c.Korean, &c.WordClass, &c.Level, &c.Difficulty,
		&c.Pronunciation, &examples, &tags, &c.CulturalContext, &theological, &c.Source,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeCard(&c, examples, tags); err != nil {
		return nil, err
	}
	c.Theological = theological != 0
	return &c, nil
}

func decodeCard(c *models.VocabularyCard, examples, tags string) error {
	return errors.Join(
		fromJSON("card examples", examples, &c.Examples),
		fromJSON("card tags", tags, &c.Tags),
	)
}

func progressDest(p *models.CardProgress, lastReview *sql.NullTime, state *int) []any {
	return []any{&p.UserID, &p.CardID, &p.Schedule.Due, &p.Schedule.Stability, &p.Schedule.Difficulty,
		&p.Schedule.ElapsedDays, &p.Schedule.ScheduledDays, &p.Schedule.Reps, &p.Schedule.Lapses,
		state, lastReview, &p.TotalReviews, &p.CorrectReviews, &p.UpdatedAt}
}

func finishProgress(p *models.CardProgress, lastReview sql.NullTime, state int) {
	p.Schedule.LastReview = timePtr(lastReview)
	p.Schedule.State = fsrs.State(state)
}

// InsertCard stores a new catalog card.
func (db *DB) InsertCard(c *models.VocabularyCard) error {
	now := db.timestamp()
	c.CreatedAt, c.UpdatedAt = now, now
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertCard(tx, c); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertCard(tx *sql.Tx, c *models.VocabularyCard) error {
	_, err := tx.Exec(`
		INSERT INTO vocabulary_cards (id, owner_id, hungarian, korean, word_class, level, difficulty,
			pronunciation, examples, tags, cultural_context, theological, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hungarian        = excluded.hungarian,
			korean           = excluded.korean,
			word_class       = excluded.word_class,
			level            = excluded.level,
			difficulty       = excluded.difficulty,
			pronunciation    = excluded.pronunciation,
			examples         = excluded.examples,
			tags             = excluded.tags,
			cultural_context = excluded.cultural_context,
			theological      = excluded.theological,
			source           = excluded.source,
			updated_at       = excluded.updated_at
	`, c.ID, c.OwnerID, c.Hungarian, c.Korean, c.WordClass, c.Level, c.Difficulty, c.Pronunciation,
		toJSON(nonNil(c.Examples)), toJSON(nonNil(c.Tags)), c.CulturalContext, boolInt(c.Theological), c.Source,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert card: %w", err)
	}
	return ftsUpsertCard(tx, c.ID, c.Hungarian, c.Korean, c.Tags)
}

// UpdateCard stores the editable fields of c.
func (db *DB) UpdateCard(c *models.VocabularyCard) error {
	c.UpdatedAt = db.timestamp()
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertCard(tx, c); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteCard removes a card, its search entry and all progress on it.
func (db *DB) DeleteCard(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteCard(tx, id)
	res, err := tx.Exec(`DELETE FROM vocabulary_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete card: %w", err)
	}
	if err := affected(res); err != nil {
		return err
	}
	return tx.Commit()
}

// CardByID returns a card or apperr.ErrNotFound.
func (db *DB) CardByID(id string) (*models.VocabularyCard, error) {
	c, err := scanCard(db.conn.QueryRow(`SELECT `+cardColumns+` FROM vocabulary_cards c WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: card by id: %w", err)
	}
	return c, nil
}

// ListCards returns a page of cards and the total number of matches.
func (db *DB) ListCards(f CardFilter) ([]models.VocabularyCard, int, error) {
	where := []string{`(c.owner_id = '' OR c.owner_id = ?)`}
	args := []any{f.UserID}
	if f.Level != "" {
		where = append(where, `c.level = ?`)
		args = append(args, f.Level)
	}
	if f.Difficulty != "" {
		where = append(where, `c.difficulty = ?`)
		args = append(args, f.Difficulty)
	}
	if f.WordClass != "" {
		where = append(where, `c.word_class = ?`)
		args = append(args, f.WordClass)
	}
	if f.Tag != "" {
		// Tags are stored as a JSON array; match the encoded element.
		where = append(where, `c.tags LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(toJSON(f.Tag)))
	}
	if f.Query != "" {
		clause, qargs := cardSearchClause(f.Query)
		where = append(where, clause)
		args = append(args, qargs...)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM vocabulary_cards c WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count cards: %w", err)
	}

	order := `c.hungarian COLLATE NOCASE ASC`
	switch f.Sort {
	case "level":
		order = `c.level ASC, c.hungarian COLLATE NOCASE ASC`
	case "recent":
		order = `c.created_at DESC, c.id ASC`
	}
	limit, offset := Page(f.Limit, f.Offset, 20, 100)
	rows, err := db.conn.Query(`SELECT `+cardColumns+` FROM vocabulary_cards c WHERE `+cond+
		` ORDER BY `+order+` LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list cards: %w", err)
	}
	defer rows.Close()

	out := []models.VocabularyCard{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// ReplaceSourceCards upserts cards loaded from a content file and removes
// cards the file no longer contains.
func (db *DB) ReplaceSourceCards(source string, cards []models.VocabularyCard) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := db.timestamp()
	keep := make(map[string]struct{}, len(cards))
	for i := range cards {
		c := cards[i]
		c.Source = source
		c.OwnerID = ""
		c.CreatedAt, c.UpdatedAt = now, now
		if err := upsertCard(tx, &c); err != nil {
			return err
		}
		keep[c.ID] = struct{}{}
	}
	if err := deleteStale(tx, "vocabulary_cards", source, keep, ftsDeleteCard); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteStale(tx *sql.Tx, table, source string, keep map[string]struct{}, ftsDelete func(*sql.Tx, string)) error {
	rows, err := tx.Query(`SELECT id FROM `+table+` WHERE source = ?`, source)
	if err != nil {
		return fmt.Errorf("store: stale %s: %w", table, err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range stale {
		ftsDelete(tx, id)
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete stale %s: %w", table, err)
		}
	}
	return nil
}

// Progress returns the user's scheduling state for a card or apperr.ErrNotFound.
func (db *DB) Progress(userID, cardID string) (*models.CardProgress, error) {
	var p models.CardProgress
	var lastReview sql.NullTime
	var state int
	err := db.conn.QueryRow(`SELECT `+progressColumns+` FROM card_progress p WHERE p.user_id = ? AND p.card_id = ?`,
		userID, cardID).Scan(progressDest(&p, &lastReview, &state)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: progress: %w", err)
	}
	finishProgress(&p, lastReview, state)
	return &p, nil
}

// RecordReview stores the new progress, appends the review log and bumps the
// session counters in one transaction.
func (db *DB) RecordReview(p *models.CardProgress, rec *models.ReviewRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	s := p.Schedule
	_, err = tx.Exec(`
		INSERT INTO card_progress (user_id, card_id, due, stability, difficulty, elapsed_days,
			scheduled_days, reps, lapses, state, last_review, total_reviews, correct_reviews, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, card_id) DO UPDATE SET
			due             = excluded.due,
			stability       = excluded.stability,
			difficulty      = excluded.difficulty,
			elapsed_days    = excluded.elapsed_days,
			scheduled_days  = excluded.scheduled_days,
			reps            = excluded.reps,
			lapses          = excluded.lapses,
			state           = excluded.state,
			last_review     = excluded.last_review,
			total_reviews   = excluded.total_reviews,
			correct_reviews = excluded.correct_reviews,
			updated_at      = excluded.updated_at
	`, p.UserID, p.CardID, s.Due.UTC(), s.Stability, s.Difficulty, s.ElapsedDays, s.ScheduledDays, s.Reps,
		s.Lapses, int(s.State), nullTime(s.LastReview), p.TotalReviews, p.CorrectReviews, p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("store: upsert progress: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO review_logs (id, user_id, card_id, session_id, rating, state, elapsed_days,
			scheduled_days, response_time_ms, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, rec.CardID, rec.SessionID, int(rec.Rating), int(rec.State), rec.ElapsedDays,
		rec.ScheduledDays, rec.ResponseTimeMs, rec.ReviewedAt.UTC())
	if err != nil {
		return fmt.Errorf("store: insert review log: %w", err)
	}

	if rec.SessionID != "" {
		_, err = tx.Exec(`
			UPDATE review_sessions SET reviewed = reviewed + 1, correct = correct + ?
			WHERE id = ? AND user_id = ?
		`, boolInt(rec.Rating > fsrs.Again), rec.SessionID, rec.UserID)
		if err != nil {
			return fmt.Errorf("store: bump session: %w", err)
		}
	}
	return tx.Commit()
}

// DueCards returns the user's cards due at now, earliest first.
func (db *DB) DueCards(userID string, now time.Time, limit int) ([]models.StudyCard, error) {
	rows, err := db.conn.Query(`
		SELECT `+cardColumns+`, `+progressColumns+`
		FROM card_progress p JOIN vocabulary_cards c ON c.id = p.card_id
		WHERE p.user_id = ? AND p.due <= ?
		ORDER BY p.due ASC
		LIMIT ?
	`, userID, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("store: due cards: %w", err)
	}
	defer rows.Close()
	return scanStudyCards(rows)
}

// StudyCardsByIDs returns the given cards with the user's progress, if any.
func (db *DB) StudyCardsByIDs(userID string, ids []string) ([]models.StudyCard, error) {
	if len(ids) == 0 {
		return []models.StudyCard{}, nil
	}
	args := []any{userID}
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := db.conn.Query(`
		SELECT `+cardColumns+`, `+progressColumns+`
		FROM vocabulary_cards c LEFT JOIN card_progress p ON p.card_id = c.id AND p.user_id = ?
		WHERE c.id IN (`+placeholders(len(ids))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: study cards: %w", err)
	}
	defer rows.Close()
	return scanStudyCards(rows)
}

func scanStudyCards(rows *sql.Rows) ([]models.StudyCard, error) {
	out := []models.StudyCard{}
	for rows.Next() {
		var c models.VocabularyCard
		var examples, tags string
		var theological int
		var p progressRow
		err := rows.Scan(&c.ID, &c.OwnerID, &c.Hungarian, &c.Korean, &c.WordClass, &c.Level, &c.Difficulty,
			&c.Pronunciation, &examples, &tags, &c.CulturalContext, &theological, &c.Source,
			&c.CreatedAt, &c.UpdatedAt,
			&p.userID, &p.cardID, &p.due, &p.stability, &p.difficulty, &p.elapsed, &p.scheduled, &p.reps,
			&p.lapses, &p.state, &p.lastReview, &p.total, &p.correct, &p.updatedAt)
		if err != nil {
			return nil, err
		}
		if err := decodeCard(&c, examples, tags); err != nil {
			return nil, err
		}
		c.Theological = theological != 0
		sc := models.StudyCard{Card: c, IsNew: !p.userID.Valid}
		if p.userID.Valid {
			sc.Progress = p.progress()
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// progressRow scans a possibly absent (LEFT JOIN) progress row.
type progressRow struct {
	userID, cardID        sql.NullString
	due, lastReview       sql.NullTime
	updatedAt             sql.NullTime
	stability, difficulty sql.NullFloat64
	elapsed, scheduled    sql.NullInt64
	reps, lapses, state   sql.NullInt64
	total, correct        sql.NullInt64
}

func (r progressRow) progress() *models.CardProgress {
	return &models.CardProgress{
		UserID: r.userID.String,
		CardID: r.cardID.String,
		Schedule: fsrs.Card{
			Due:           r.due.Time,
			Stability:     r.stability.Float64,
			Difficulty:    r.difficulty.Float64,
			ElapsedDays:   int(r.elapsed.Int64),
			ScheduledDays: int(r.scheduled.Int64),
			Reps:          int(r.reps.Int64),
			Lapses:        int(r.lapses.Int64),
			State:         fsrs.State(r.state.Int64),
			LastReview:    timePtr(r.lastReview),
		},
		TotalReviews:   int(r.total.Int64),
		CorrectReviews: int(r.correct.Int64),
		UpdatedAt:      r.updatedAt.Time,
	}
}

// NewCards returns visible cards the user has never reviewed, easiest level first.
// An empty level means any level.
func (db *DB) NewCards(userID, level string, limit int) ([]models.StudyCard, error) {
	args := []any{userID, userID}
	cond := ""
	if level != "" {
		cond = ` AND c.level = ?`
		args = append(args, level)
	}
	args = append(args, limit)
	rows, err := db.conn.Query(`
		SELECT `+cardColumns+`, `+progressColumns+`
		FROM vocabulary_cards c LEFT JOIN card_progress p ON p.card_id = c.id AND p.user_id = ?
		WHERE p.card_id IS NULL AND (c.owner_id = '' OR c.owner_id = ?)`+cond+`
		ORDER BY c.level ASC, c.created_at ASC, c.id ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: new cards: %w", err)
	}
	defer rows.Close()
	return scanStudyCards(rows)
}

// WeakCards returns reviewed cards with the most lapses.
func (db *DB) WeakCards(userID string, limit int) ([]models.StudyCard, error) {
	rows, err := db.conn.Query(`
		SELECT `+cardColumns+`, `+progressColumns+`
		FROM card_progress p JOIN vocabulary_cards c ON c.id = p.card_id
		WHERE p.user_id = ? AND p.lapses > 0
		ORDER BY p.lapses DESC, p.stability ASC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: weak cards: %w", err)
	}
	defer rows.Close()
	return scanStudyCards(rows)
}

// AllSchedules returns the scheduling state of every card the user has studied.
func (db *DB) AllSchedules(userID string) ([]models.CardProgress, error) {
	rows, err := db.conn.Query(`SELECT `+progressColumns+` FROM card_progress p WHERE p.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: all schedules: %w", err)
	}
	defer rows.Close()

	out := []models.CardProgress{}
	for rows.Next() {
		var p models.CardProgress
		var lastReview sql.NullTime
		var state int
		if err := rows.Scan(progressDest(&p, &lastReview, &state)...); err != nil {
			return nil, err
		}
		finishProgress(&p, lastReview, state)
		out = append(out, p)
	}
	return out, rows.Err()
}

// WordClassAccuracy is review accuracy grouped by word class.
type WordClassAccuracy struct {
	WordClass string  `json:"wordClass"`
	Reviews   int     `json:"reviews"`
	Accuracy  float64 `json:"accuracy"`
}

// AccuracyByWordClass returns accuracy per word class, weakest first.
func (db *DB) AccuracyByWordClass(userID string) ([]WordClassAccuracy, error) {
	rows, err := db.conn.Query(`
		SELECT c.word_class, SUM(p.total_reviews), SUM(p.correct_reviews)
		FROM card_progress p JOIN vocabulary_cards c ON c.id = p.card_id
		WHERE p.user_id = ? AND p.total_reviews > 0
		GROUP BY c.word_class
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: accuracy by word class: %w", err)
	}
	defer rows.Close()

	out := []WordClassAccuracy{}
	for rows.Next() {
		var w WordClassAccuracy
		var correct int
		if err := rows.Scan(&w.WordClass, &w.Reviews, &correct); err != nil {
			return nil, err
		}
		w.Accuracy = float64(correct) / float64(w.Reviews) * 100
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b WordClassAccuracy) int {
		if c := cmp.Compare(a.Accuracy, b.Accuracy); c != 0 {
			return c
		}
		return strings.Compare(a.WordClass, b.WordClass)
	})
	return out, nil
}

// ReviewLogsSince returns the user's reviews at or after since, oldest first.
func (db *DB) ReviewLogsSince(userID string, since time.Time) ([]models.ReviewRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, card_id, session_id, rating, state, elapsed_days, scheduled_days,
			response_time_ms, reviewed_at
		FROM review_logs
		WHERE user_id = ? AND reviewed_at >= ?
		ORDER BY reviewed_at ASC
	`, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("store: review logs: %w", err)
	}
	defer rows.Close()

	out := []models.ReviewRecord{}
	for rows.Next() {
		var r models.ReviewRecord
		var rating, state int
		if err := rows.Scan(&r.ID, &r.UserID, &r.CardID, &r.SessionID, &rating, &state, &r.ElapsedDays,
			&r.ScheduledDays, &r.ResponseTimeMs, &r.ReviewedAt); err != nil {
			return nil, err
		}
		r.Rating, r.State = fsrs.Rating(rating), fsrs.State(state)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReviewCounts returns reviews, correct reviews and first reviews of new cards since since.
func (db *DB) ReviewCounts(userID string, since time.Time) (total, correct, learned int, err error) {
	err = db.conn.QueryRow(`
		SELECT count(*),
			COALESCE(SUM(CASE WHEN rating > 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 0 THEN 1 ELSE 0 END), 0)
		FROM review_logs WHERE user_id = ? AND reviewed_at >= ?
	`, userID, since.UTC()).Scan(&total, &correct, &learned)
	if err != nil {
		err = fmt.Errorf("store: review counts: %w", err)
	}
	return total, correct, learned, err
}

// LearnedCardCount is the number of cards the user has reviewed at least once.
func (db *DB) LearnedCardCount(userID string) (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM card_progress WHERE user_id = ? AND reps > 0`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: learned cards: %w", err)
	}
	return n, nil
}

// CreateSession stores a new review session.
func (db *DB) CreateSession(s *models.ReviewSession) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_sessions (id, user_id, type, status, card_ids, target_minutes, reviewed, correct,
			started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.UserID, s.Type, s.Status, toJSON(nonNil(s.CardIDs)), s.TargetMinutes, s.Reviewed, s.Correct,
		s.StartedAt.UTC(), nullTime(s.CompletedAt))
	if err != nil {
		return fmt.Errorf("store: create session: %w", err)
	}
	return nil
}

// SessionByID returns the user's session or apperr.ErrNotFound.
func (db *DB) SessionByID(userID, id string) (*models.ReviewSession, error) {
	var s models.ReviewSession
	var cardIDs string
	var completed sql.NullTime
	err := db.conn.QueryRow(`
		SELECT id, user_id, type, status, card_ids, target_minutes, reviewed, correct, started_at, completed_at
		FROM review_sessions WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&s.ID, &s.UserID, &s.Type, &s.Status, &cardIDs, &s.TargetMinutes, &s.Reviewed,
		&s.Correct, &s.StartedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: session by id: %w", err)
	}
	if err := fromJSON("session card_ids", cardIDs, &s.CardIDs); err != nil {
		return nil, err
	}
	s.CompletedAt = timePtr(completed)
	return &s, nil
}

// FinishSession sets the session status and completion time.
func (db *DB) FinishSession(userID, id, status string, at time.Time) error {
	res, err := db.conn.Exec(`UPDATE review_sessions SET status = ?, completed_at = ? WHERE id = ? AND user_id = ?`,
		status, at.UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("store: finish session: %w", err)
	}
	return affected(res)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
