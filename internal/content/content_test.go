package content

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/starford/hunlearn/internal/storage"
	"github.com/starford/hunlearn/internal/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testDB(t *testing.T) *store.DB {
	t.Helper()
	f, err := os.CreateTemp("", "hunlearn-content-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	db, err := store.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func defaultSource() Source {
	return Source{Name: "embedded", Provider: storage.NewEmbedded(Defaults())}
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestLoadDefaults(t *testing.T) {
	b, err := Load([]Source{defaultSource()}, quiet)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Lessons) != 4 {
		t.Errorf("lessons = %d, want 4", len(b.Lessons))
	}
	if b.Lessons[0].ID != "A1-01-01" || b.Lessons[3].ID != "A2-01-01" {
		t.Errorf("lesson order = %s .. %s", b.Lessons[0].ID, b.Lessons[3].ID)
	}
	if len(b.Questions) != 24 {
		t.Errorf("questions = %d, want 24", len(b.Questions))
	}
	if len(b.Templates) != 4 {
		t.Errorf("templates = %d, want 4", len(b.Templates))
	}
	if cards := b.Vocabulary["embedded:vocabulary/core.yaml"]; len(cards) != 12 {
		t.Errorf("vocabulary = %d, want 12", len(cards))
	}
	if terms := b.Terms["embedded:terms/core.yaml"]; len(terms) != 10 {
		t.Errorf("terms = %d, want 10", len(terms))
	}
}

func TestLoadOverrideAndInvalidFile(t *testing.T) {
	override := storage.NewEmbedded(fstest.MapFS{
		"grammar/override.yaml": {Data: []byte(`
lessons:
  - id: A1-01-01
    level: A1
    unit: 1
    lesson: 1
    title: Felülírt lecke
    title_korean: 덮어쓴 레슨
    difficulty: 1
`)},
		"grammar/broken.yaml": {Data: []byte(`
lessons:
  - id: X
    level: Z9
    title: rossz
    title_korean: 잘못
`)},
	})
	b, err := Load([]Source{defaultSource(), {Name: "dir", Provider: override}}, quiet)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Lessons) != 4 {
		t.Fatalf("lessons = %d, want 4 (broken file skipped)", len(b.Lessons))
	}
	if b.Lessons[0].Title != "Felülírt lecke" {
		t.Errorf("override not applied: %q", b.Lessons[0].Title)
	}
}

func TestKindOf(t *testing.T) {
	cases := map[string]string{
		"grammar/a1.yaml":       KindGrammar,
		"sermon/templates.yaml": KindSermon,
		"other/x.yaml":          "",
		"top.yaml":              "",
	}
	for p, want := range cases {
		if got := KindOf(p); got != want {
			t.Errorf("KindOf(%q) = %q, want %q", p, got, want)
		}
	}
}

func TestSyncSkipsUnchangedAndRemovesStale(t *testing.T) {
	db := testDB(t)
	m := NewManager(db, NewCatalog(), quiet, defaultSource())

	rep, err := m.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if rep.Updated != 2 || rep.Skipped != 0 {
		t.Errorf("first sync = %+v, want 2 updated", rep)
	}
	if _, err := db.CardByID("seed-isten"); err != nil {
		t.Errorf("seed card missing: %v", err)
	}
	if _, err := db.TermByID("term-kegyelem"); err != nil {
		t.Errorf("seed term missing: %v", err)
	}

	rep, err = m.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if rep.Updated != 0 || rep.Skipped != 2 {
		t.Errorf("second sync = %+v, want 2 skipped", rep)
	}

	empty := NewManager(db, NewCatalog(), quiet, Source{Name: "embedded", Provider: storage.NewEmbedded(fstest.MapFS{})})
	rep, err = empty.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if rep.Removed != 2 {
		t.Errorf("removed = %d, want 2", rep.Removed)
	}
	if _, err := db.CardByID("seed-isten"); err == nil {
		t.Error("card of removed source still present")
	}
}

func TestCatalogFilters(t *testing.T) {
	b, err := Load([]Source{defaultSource()}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	c := NewCatalog()
	c.Replace(b)

	if got := c.Lessons("A1", ""); len(got) != 3 {
		t.Errorf("A1 lessons = %d, want 3", len(got))
	}
	if _, ok := c.Lesson("A2-01-01"); !ok {
		t.Error("lesson A2-01-01 not found")
	}
	if got := c.Templates(TemplateFilter{Occasion: "easter"}); len(got) != 1 || got[0].ID != "tpl-easter" {
		t.Errorf("easter templates = %+v", got)
	}
	if _, ok := c.Template("missing"); ok {
		t.Error("unexpected template")
	}
}

func TestWriteDefaults(t *testing.T) {
	dir := t.TempDir()
	fsys, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	n, err := WriteDefaults(fsys, false)
	if err != nil {
		t.Fatalf("WriteDefaults: %v", err)
	}
	if n != 6 {
		t.Errorf("written = %d, want 6", n)
	}
	n, err = WriteDefaults(fsys, false)
	if err != nil || n != 0 {
		t.Errorf("second write = %d, %v; want 0", n, err)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	fsys, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)
	m := NewManager(db, NewCatalog(), quiet, Source{Name: "dir", Provider: fsys})
	if _, err := m.Reload(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var reloads atomic.Int32
	go m.Watch(ctx, dir, func(Report) { reloads.Add(1) })

	time.Sleep(100 * time.Millisecond)

	if err := os.MkdirAll(filepath.Join(dir, "terms"), 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	data := []byte(`
terms:
  - id: term-hit
    hungarian: hit
    korean: 믿음
    category: SOTERIOLOGY
    difficulty_level: A1
`)
	if err := os.WriteFile(filepath.Join(dir, "terms", "core.yaml"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := db.TermByID("term-hit")
		return err == nil && reloads.Load() > 0
	}, "term not synced by watcher")
}
