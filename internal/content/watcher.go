package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/hunlearn/internal/storage"
	"github.com/starford/hunlearn/internal/store"
)

const reloadDebounce = 200 * time.Millisecond

// Manager owns the catalog and keeps it, and the vocabulary/term tables,
// in step with the content sources.
type Manager struct {
	db      *store.DB
	catalog *Catalog
	sources []Source
	logger  *slog.Logger

	mu sync.Mutex // serialises reloads
}

// NewManager returns a Manager over sources. db may be nil, in which case
// reloads only refresh the catalog.
func NewManager(db *store.DB, catalog *Catalog, logger *slog.Logger, sources ...Source) *Manager {
	return &Manager{db: db, catalog: catalog, sources: sources, logger: logger}
}

// Catalog returns the managed catalog.
func (m *Manager) Catalog() *Catalog { return m.catalog }

// Reload parses every source, swaps the catalog and syncs the database.
func (m *Manager) Reload() (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := Load(m.sources, m.logger)
	if err != nil {
		return Report{}, err
	}
	m.catalog.Replace(b)
	lessons, questions, templates := m.catalog.Counts()
	m.logger.Info("content: catalog loaded",
		slog.Int("lessons", lessons),
		slog.Int("questions", questions),
		slog.Int("templates", templates))

	if m.db == nil {
		return Report{}, nil
	}
	rep, err := Sync(m.db, b, m.logger)
	if err != nil {
		return rep, fmt.Errorf("content: sync: %w", err)
	}
	m.logger.Info("content: synced",
		slog.Int("updated", rep.Updated),
		slog.Int("skipped", rep.Skipped),
		slog.Int("removed", rep.Removed))
	return rep, nil
}

// Watch starts an fsnotify watcher on root and reloads, debounced, whenever
// a content file changes, until ctx is cancelled. cb (if non-nil) is called
// after each successful reload.
//
// New directories created at runtime are added to the watch list.
func (m *Manager) Watch(ctx context.Context, root string, cb func(Report)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	m.logger.Info("watcher: started", slog.String("root", root))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time
	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			m.logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			rep, err := m.Reload()
			if err != nil {
				m.logger.Warn("watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			if cb != nil {
				cb(rep)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						m.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleReload()
					continue
				}
			}
			if !storage.IsContentFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				m.logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

// WriteDefaults copies the embedded content tree into w. Existing files are
// kept unless overwrite is set. It returns the number of files written.
func WriteDefaults(w storage.Writer, overwrite bool) (int, error) {
	src := storage.NewEmbedded(Defaults())
	metas, err := src.List("")
	if err != nil {
		return 0, err
	}
	existing := map[string]struct{}{}
	if !overwrite {
		have, err := w.List("")
		if err != nil {
			return 0, err
		}
		for _, h := range have {
			existing[h.Path] = struct{}{}
		}
	}
	n := 0
	for _, meta := range metas {
		if _, ok := existing[meta.Path]; ok {
			continue
		}
		data, err := src.Read(meta.Path)
		if err != nil {
			return n, err
		}
		if err := w.Write(meta.Path, data); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
