// Package storage abstracts the file trees that hold learning content.
package storage

import (
	"strings"
	"time"
)

// FileMeta describes one content file.
type FileMeta struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is a read-only content tree.
type Provider interface {
	// List returns metadata for every .yaml file under dir (relative to the root).
	List(dir string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
}

// Writer is a Provider that can also store files.
type Writer interface {
	Provider
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
}

// IsContentFile reports whether name is a YAML content file.
func IsContentFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
