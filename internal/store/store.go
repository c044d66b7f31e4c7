// Package store provides the SQLite persistence layer with optional FTS5 search.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id                 TEXT PRIMARY KEY,
	email              TEXT NOT NULL UNIQUE,
	name               TEXT NOT NULL,
	password_hash      TEXT NOT NULL,
	current_level      TEXT NOT NULL,
	target_level       TEXT NOT NULL,
	learning_goals     TEXT NOT NULL DEFAULT '[]',
	daily_goal_minutes INTEGER NOT NULL DEFAULT 20,
	timezone           TEXT NOT NULL DEFAULT 'Europe/Budapest',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL,
	last_active_at     DATETIME
);

CREATE TABLE IF NOT EXISTS vocabulary_cards (
	id               TEXT PRIMARY KEY,
	owner_id         TEXT NOT NULL DEFAULT '',
	hungarian        TEXT NOT NULL,
	korean           TEXT NOT NULL,
	word_class       TEXT NOT NULL DEFAULT 'NOUN',
	level            TEXT NOT NULL,
	difficulty       TEXT NOT NULL,
	pronunciation    TEXT NOT NULL DEFAULT '',
	examples         TEXT NOT NULL DEFAULT '[]',
	tags             TEXT NOT NULL DEFAULT '[]',
	cultural_context TEXT NOT NULL DEFAULT '',
	theological      INTEGER NOT NULL DEFAULT 0,
	source           TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cards_owner ON vocabulary_cards(owner_id);
CREATE INDEX IF NOT EXISTS idx_cards_source ON vocabulary_cards(source);

CREATE TABLE IF NOT EXISTS card_progress (
	user_id         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	card_id         TEXT NOT NULL REFERENCES vocabulary_cards(id) ON DELETE CASCADE,
	due             DATETIME NOT NULL,
	stability       REAL NOT NULL DEFAULT 0,
	difficulty      REAL NOT NULL DEFAULT 0,
	elapsed_days    INTEGER NOT NULL DEFAULT 0,
	scheduled_days  INTEGER NOT NULL DEFAULT 0,
	reps            INTEGER NOT NULL DEFAULT 0,
	lapses          INTEGER NOT NULL DEFAULT 0,
	state           INTEGER NOT NULL DEFAULT 0,
	last_review     DATETIME,
	total_reviews   INTEGER NOT NULL DEFAULT 0,
	correct_reviews INTEGER NOT NULL DEFAULT 0,
	updated_at      DATETIME NOT NULL,
	PRIMARY KEY (user_id, card_id)
);
CREATE INDEX IF NOT EXISTS idx_progress_due ON card_progress(user_id, due);

CREATE TABLE IF NOT EXISTS review_logs (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	card_id          TEXT NOT NULL,
	session_id       TEXT NOT NULL DEFAULT '',
	rating           INTEGER NOT NULL,
	state            INTEGER NOT NULL,
	elapsed_days     INTEGER NOT NULL,
	scheduled_days   INTEGER NOT NULL,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	reviewed_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_review_logs_user ON review_logs(user_id, reviewed_at);

CREATE TABLE IF NOT EXISTS review_sessions (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type           TEXT NOT NULL,
	status         TEXT NOT NULL,
	card_ids       TEXT NOT NULL DEFAULT '[]',
	target_minutes INTEGER NOT NULL,
	reviewed       INTEGER NOT NULL DEFAULT 0,
	correct        INTEGER NOT NULL DEFAULT 0,
	started_at     DATETIME NOT NULL,
	completed_at   DATETIME
);

CREATE TABLE IF NOT EXISTS sermon_drafts (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title_hungarian     TEXT NOT NULL,
	title_korean        TEXT NOT NULL,
	scripture_reference TEXT NOT NULL DEFAULT '',
	topic               TEXT NOT NULL DEFAULT '',
	content             TEXT NOT NULL DEFAULT '{}',
	metadata            TEXT NOT NULL DEFAULT '{}',
	status              TEXT NOT NULL,
	version             INTEGER NOT NULL DEFAULT 1,
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL,
	completed_at        DATETIME
);
CREATE INDEX IF NOT EXISTS idx_drafts_user ON sermon_drafts(user_id, updated_at);

CREATE TABLE IF NOT EXISTS theological_terms (
	id                   TEXT PRIMARY KEY,
	hungarian            TEXT NOT NULL,
	korean               TEXT NOT NULL,
	category             TEXT NOT NULL,
	difficulty_level     TEXT NOT NULL,
	definition_hungarian TEXT NOT NULL DEFAULT '',
	definition_korean    TEXT NOT NULL DEFAULT '',
	usage_examples       TEXT NOT NULL DEFAULT '[]',
	related_terms        TEXT NOT NULL DEFAULT '[]',
	pronunciation        TEXT NOT NULL DEFAULT '',
	etymology            TEXT NOT NULL DEFAULT '',
	scripture_references TEXT NOT NULL DEFAULT '[]',
	usage_frequency      INTEGER NOT NULL DEFAULT 0,
	source               TEXT NOT NULL DEFAULT '',
	updated_at           DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_terms_category ON theological_terms(category);
CREATE INDEX IF NOT EXISTS idx_terms_source ON theological_terms(source);

CREATE TABLE IF NOT EXISTS term_progress (
	user_id         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	term_id         TEXT NOT NULL REFERENCES theological_terms(id) ON DELETE CASCADE,
	attempts        INTEGER NOT NULL DEFAULT 0,
	correct         INTEGER NOT NULL DEFAULT 0,
	mastery         REAL NOT NULL DEFAULT 0,
	avg_response_ms INTEGER NOT NULL DEFAULT 0,
	last_difficulty INTEGER NOT NULL DEFAULT 0,
	last_context    TEXT NOT NULL DEFAULT '',
	last_practiced  DATETIME NOT NULL,
	PRIMARY KEY (user_id, term_id)
);

CREATE TABLE IF NOT EXISTS term_attempts (
	user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	term_id      TEXT NOT NULL,
	correct      INTEGER NOT NULL,
	practiced_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_term_attempts_user ON term_attempts(user_id, practiced_at);

CREATE TABLE IF NOT EXISTS lesson_progress (
	user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	lesson_id    TEXT NOT NULL,
	best_score   INTEGER NOT NULL,
	attempts     INTEGER NOT NULL DEFAULT 1,
	completed_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, lesson_id)
);

CREATE TABLE IF NOT EXISTS assessment_sessions (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type            TEXT NOT NULL,
	status          TEXT NOT NULL,
	total_questions INTEGER NOT NULL,
	current_level   TEXT NOT NULL,
	theta           REAL NOT NULL DEFAULT 0,
	answers         TEXT NOT NULL DEFAULT '[]',
	result          TEXT NOT NULL DEFAULT '',
	started_at      DATETIME NOT NULL,
	paused_at       DATETIME,
	completed_at    DATETIME
);
CREATE INDEX IF NOT EXISTS idx_assessments_user ON assessment_sessions(user_id, started_at);

CREATE TABLE IF NOT EXISTS point_transactions (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	source      TEXT NOT NULL,
	points      INTEGER NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_points_user ON point_transactions(user_id, created_at);

CREATE TABLE IF NOT EXISTS user_badges (
	user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	badge_id  TEXT NOT NULL,
	earned_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, badge_id)
);

CREATE TABLE IF NOT EXISTS challenge_claims (
	user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	challenge_id TEXT NOT NULL,
	day          TEXT NOT NULL,
	claimed_at   DATETIME NOT NULL,
	PRIMARY KEY (user_id, challenge_id, day)
);

CREATE TABLE IF NOT EXISTS content_sources (
	path       TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// DB wraps a sql.DB with the application's queries.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SetClock replaces the clock used for timestamps. Tests only.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// fromJSON decodes a JSON column into v. An empty column leaves v unchanged.
func fromJSON(column, s string, v any) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("store: decode %s: %w", column, err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards in s. Patterns built from it need ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// containsPattern matches s anywhere in a column.
func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Page normalises limit/offset: limit defaults to def and is capped at maxLimit.
func Page(limit, offset, def, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type scanner interface {
	Scan(dest ...any) error
}
