package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/starford/hunlearn/internal/checksum"
)

// Embedded serves content from an fs.FS such as the binary's embedded defaults.
type Embedded struct {
	fsys fs.FS
}

// NewEmbedded returns a Provider over fsys. Paths are slash separated.
func NewEmbedded(fsys fs.FS) *Embedded {
	return &Embedded{fsys: fsys}
}

// List returns every content file under dir, sorted by path.
func (e *Embedded) List(dir string) ([]FileMeta, error) {
	if dir == "" {
		dir = "."
	}
	var out []FileMeta
	err := fs.WalkDir(e.fsys, dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") || !IsContentFile(d.Name()) {
			return nil
		}
		data, err := fs.ReadFile(e.fsys, p)
		if err != nil {
			return err
		}
		out = append(out, FileMeta{Path: p, Checksum: checksum.Sum(data)})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list embedded: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Read returns the bytes of an embedded file.
func (e *Embedded) Read(p string) ([]byte, error) {
	data, err := fs.ReadFile(e.fsys, path.Clean(p))
	if err != nil {
		return nil, fmt.Errorf("storage: read embedded %s: %w", p, err)
	}
	return data, nil
}
