// Package testutil provides shared test helpers for setting up databases, users and content.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/hunlearn/internal/content"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/storage"
	"github.com/starford/hunlearn/internal/store"
)

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "hunlearn-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// CreateUser inserts a learner with a throwaway password hash.
func CreateUser(t *testing.T, db *store.DB, id, email string) *models.User {
	t.Helper()
	u := &models.User{
		ID:               id,
		Email:            email,
		Name:             "Kim " + id,
		PasswordHash:     "x",
		CurrentLevel:     models.LevelA1,
		TargetLevel:      models.LevelB1,
		LearningGoals:    []string{models.GoalSermonWriting},
		DailyGoalMinutes: 20,
		Timezone:         "UTC",
	}
	if err := db.CreateUser(u); err != nil {
		t.Fatal(err)
	}
	return u
}

// TestContent loads the embedded defaults into a catalog and syncs vocabulary
// and terms into db (when non-nil).
func TestContent(t *testing.T, db *store.DB) *content.Catalog {
	t.Helper()
	cat := content.NewCatalog()
	m := content.NewManager(db, cat, Logger(), content.Source{
		Name:     "embedded",
		Provider: storage.NewEmbedded(content.Defaults()),
	})
	if _, err := m.Reload(); err != nil {
		t.Fatal(err)
	}
	return cat
}

// Clock is a settable time source.
type Clock struct {
	T time.Time
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return c.T }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// FixedClock returns a clock at noon UTC on 2026-03-10 and installs it on db.
func FixedClock(db *store.DB) *Clock {
	c := &Clock{T: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	if db != nil {
		db.SetClock(c.Now)
	}
	return c
}
