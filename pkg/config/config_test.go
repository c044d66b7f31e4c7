package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func TestExpand(t *testing.T) {
	t.Setenv("CFG_SET", "value")
	t.Setenv("CFG_EMPTY", "")

	cases := map[string]string{
		"${CFG_SET}":             "value",
		"${CFG_SET:-other}":      "value",
		"${CFG_EMPTY:-fallback}": "fallback",
		"${CFG_MISSING:-x:y}":    "x:y",
		"${CFG_MISSING}":         "",
		"plain $CFG_SET text":    "plain value text",
	}
	for in, want := range cases {
		if got := Expand(in); got != want {
			t.Errorf("Expand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadOptional_Missing(t *testing.T) {
	s := &sample{Name: "default"}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), s)
	if err != nil || found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if s.Name != "default" {
		t.Errorf("defaults changed: %+v", s)
	}

	s.Name = ""
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), s); err == nil {
		t.Fatal("validation should still run without a file")
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("port: 81\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := &sample{Name: "kept", Port: 80}
	found, err := LoadOptional(path, s)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if s.Name != "kept" || s.Port != 81 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("name: [unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Load(path, &sample{}); err == nil {
		t.Fatal("expected parse error")
	}
}
