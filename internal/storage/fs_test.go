package storage

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/starford/hunlearn/internal/checksum"
)

func tempContent(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempContent(t)
	content := []byte("cards:\n  - id: seed-isten\n")
	if err := s.Write("vocabulary/core.yaml", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("vocabulary/core.yaml")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestListOnlyContentFiles(t *testing.T) {
	s := tempContent(t)
	_ = s.Write("grammar/a1.yaml", []byte("a"))
	_ = s.Write("terms/core.yml", []byte("b"))
	_ = s.Write("readme.md", []byte("not yaml"))
	_ = s.Write("grammar/.hidden.yaml", []byte("skip"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Path != "grammar/a1.yaml" || items[1].Path != "terms/core.yml" {
		t.Errorf("paths = %q, %q", items[0].Path, items[1].Path)
	}
	if items[0].Checksum != checksum.Sum([]byte("a")) {
		t.Errorf("checksum = %q", items[0].Checksum)
	}
}

func TestListMissingDir(t *testing.T) {
	s := tempContent(t)
	items, err := s.List("assessment")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempContent(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.yaml",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempContent(t)
	_ = s.Write("terms/core.yaml", []byte("original"))
	if err := s.Write("terms/core.yaml", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("terms/core.yaml")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), "terms", ".hunlearn-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/hunlearn-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "hunlearn-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestEmbeddedProvider(t *testing.T) {
	e := NewEmbedded(fstest.MapFS{
		"grammar/a1.yaml":   {Data: []byte("lessons: []")},
		"sermon/basic.yaml": {Data: []byte("templates: []")},
		"notes.txt":         {Data: []byte("ignored")},
	})

	items, err := e.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[0].Path != "grammar/a1.yaml" {
		t.Fatalf("items = %+v", items)
	}

	sub, err := e.List("sermon")
	if err != nil || len(sub) != 1 {
		t.Fatalf("List(sermon) = %+v, %v", sub, err)
	}

	missing, err := e.List("vocabulary")
	if err != nil || len(missing) != 0 {
		t.Errorf("List(vocabulary) = %+v, %v", missing, err)
	}

	data, err := e.Read("grammar/a1.yaml")
	if err != nil || string(data) != "lessons: []" {
		t.Errorf("Read = %q, %v", data, err)
	}
}
