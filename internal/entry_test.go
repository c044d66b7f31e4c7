package internal

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func testOptions(t *testing.T) []Option {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Auth.JWTSecret = "0123456789abcdef0123"
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "hunlearn.db")
	return []Option{WithConfig(cfg), WithLogOutput(io.Discard)}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestSeedSkipsUnchangedFiles(t *testing.T) {
	opts := testOptions(t)

	first, err := Seed(context.Background(), opts...)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if first.Updated == 0 {
		t.Fatalf("first seed updated nothing: %+v", first)
	}

	second, err := Seed(context.Background(), opts...)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if second.Updated != 0 || second.Skipped != first.Updated {
		t.Errorf("second seed = %+v, want all %d skipped", second, first.Updated)
	}
}

func TestInitContent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "content")

	n, err := InitContent(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if n == 0 {
		t.Fatal("no files written")
	}
	if _, err := os.Stat(filepath.Join(dir, "grammar", "a1.yaml")); err != nil {
		t.Errorf("grammar file missing: %v", err)
	}

	again, err := InitContent(dir, false)
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if again != 0 {
		t.Errorf("second init wrote %d files, want 0", again)
	}

	forced, err := InitContent(dir, true)
	if err != nil {
		t.Fatalf("forced init: %v", err)
	}
	if forced != n {
		t.Errorf("forced init wrote %d, want %d", forced, n)
	}
}

func TestSeedWithContentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "content")
	if _, err := InitContent(dir, false); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	cfg.Auth.JWTSecret = "0123456789abcdef0123"
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "hunlearn.db")
	cfg.Content.Dir = dir

	if _, err := Seed(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("seed with content dir: %v", err)
	}
}
