package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/models"
)

// Claim identifies a daily challenge claim.
type Claim struct {
	UserID      string
	ChallengeID string
	Day         string
}

// InsertTransactions appends entries to the points ledger in one transaction.
func (db *DB) InsertTransactions(txs []models.PointTransaction) error {
	return db.RecordAward(nil, txs)
}

// RecordAward appends txs to the ledger and, when claim is non-nil, records
// the challenge claim in the same transaction. A repeated claim yields
// apperr.ErrConflict and writes nothing.
func (db *DB) RecordAward(claim *Claim, txs []models.PointTransaction) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := db.timestamp()
	if claim != nil {
		if _, err := tx.Exec(`INSERT INTO challenge_claims (user_id, challenge_id, day, claimed_at) VALUES (?, ?, ?, ?)`,
			claim.UserID, claim.ChallengeID, claim.Day, now); err != nil {
			if isUnique(err) {
				return apperr.ErrConflict
			}
			return fmt.Errorf("store: claim challenge: %w", err)
		}
	}
	for i := range txs {
		if txs[i].CreatedAt.IsZero() {
			txs[i].CreatedAt = now
		}
		p := txs[i]
		if _, err := tx.Exec(`INSERT INTO point_transactions (id, user_id, source, points, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`, p.ID, p.UserID, p.Source, p.Points, p.Description, p.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("store: insert transaction: %w", err)
		}
	}
	return tx.Commit()
}

func isUnique(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// PointsSince sums the user's points earned since since. A zero since sums
// the whole ledger.
func (db *DB) PointsSince(userID string, since time.Time) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT coalesce(sum(points), 0) FROM point_transactions
		WHERE user_id = ? AND created_at >= ?`, userID, since.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: points: %w", err)
	}
	return n, nil
}

// RecentTransactions returns the user's newest ledger entries.
func (db *DB) RecentTransactions(userID string, limit int) ([]models.PointTransaction, error) {
	limit, _ = Page(limit, 0, 20, 100)
	rows, err := db.conn.Query(`SELECT id, user_id, source, points, description, created_at
		FROM point_transactions WHERE user_id = ? ORDER BY created_at DESC, id ASC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent transactions: %w", err)
	}
	defer rows.Close()

	out := []models.PointTransaction{}
	for rows.Next() {
		var p models.PointTransaction
		if err := rows.Scan(&p.ID, &p.UserID, &p.Source, &p.Points, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ActivityDays returns the distinct UTC days (YYYY-MM-DD) on which the user
// earned points, newest first.
func (db *DB) ActivityDays(userID string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT substr(created_at, 1, 10) AS day FROM point_transactions
		WHERE user_id = ? ORDER BY day DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: activity days: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// BadgesEarned maps badge ids to the time the user earned them.
func (db *DB) BadgesEarned(userID string) (map[string]time.Time, error) {
	rows, err := db.conn.Query(`SELECT badge_id, earned_at FROM user_badges WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: badges: %w", err)
	}
	defer rows.Close()

	out := map[string]time.Time{}
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		out[id] = at
	}
	return out, rows.Err()
}

// AwardBadge records a badge once; it reports false when already earned.
func (db *DB) AwardBadge(userID, badgeID string) (bool, error) {
	res, err := db.conn.Exec(`INSERT OR IGNORE INTO user_badges (user_id, badge_id, earned_at) VALUES (?, ?, ?)`,
		userID, badgeID, db.timestamp())
	if err != nil {
		return false, fmt.Errorf("store: award badge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// LeaderboardRow is a learner's point total for a period.
type LeaderboardRow struct {
	UserID string
	Name   string
	Points int
}

// Leaderboard ranks users by points earned since since (zero = all time).
func (db *DB) Leaderboard(since time.Time, limit int) ([]LeaderboardRow, error) {
	limit, _ = Page(limit, 0, 100, 100)
	rows, err := db.conn.Query(`
		SELECT p.user_id, u.name, sum(p.points) AS total
		FROM point_transactions p JOIN users u ON u.id = p.user_id
		WHERE p.created_at >= ?
		GROUP BY p.user_id, u.name
		ORDER BY total DESC, p.user_id ASC
		LIMIT ?
	`, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	defer rows.Close()

	out := []LeaderboardRow{}
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.Name, &r.Points); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimChallenge marks a challenge as claimed for day. A second claim on the
// same day yields apperr.ErrConflict.
func (db *DB) ClaimChallenge(userID, challengeID, day string) error {
	return db.RecordAward(&Claim{UserID: userID, ChallengeID: challengeID, Day: day}, nil)
}

// ClaimsForDay returns the set of challenge ids claimed on day.
func (db *DB) ClaimsForDay(userID, day string) (map[string]bool, error) {
	rows, err := db.conn.Query(`SELECT challenge_id FROM challenge_claims WHERE user_id = ? AND day = ?`, userID, day)
	if err != nil {
		return nil, fmt.Errorf("store: claims: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// LessonsCompletedSince counts lessons whose latest completion is after since.
func (db *DB) LessonsCompletedSince(userID string, since time.Time) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT count(*) FROM lesson_progress WHERE user_id = ? AND completed_at >= ?`,
		userID, since.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: lessons since: %w", err)
	}
	return n, nil
}
