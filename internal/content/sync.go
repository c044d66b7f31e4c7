package content

import (
	"log/slog"
	"strings"

	"github.com/starford/hunlearn/internal/store"
)

// Report summarises one sync pass.
type Report struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Removed int `json:"removed"`
}

// Sync brings the vocabulary and term tables up to date with b:
//   - new/changed files are upserted
//   - unchanged files (same checksum) are skipped
//   - files that disappeared have their rows removed
func Sync(db *store.DB, b *Bundle, logger *slog.Logger) (Report, error) {
	var rep Report
	for _, kind := range []string{KindVocabulary, KindTerms} {
		stored, err := db.SourceChecksums(kind)
		if err != nil {
			return rep, err
		}

		present := map[string]struct{}{}
		for _, key := range sourceKeys(b, kind) {
			present[key] = struct{}{}
			sum := b.Checksums[key]
			if stored[key] == sum {
				rep.Skipped++
				continue
			}
			var err error
			if kind == KindVocabulary {
				err = db.ReplaceSourceCards(key, b.Vocabulary[key])
			} else {
				err = db.ReplaceSourceTerms(key, b.Terms[key])
			}
			if err != nil {
				logger.Warn("sync: upsert failed", slog.String("source", key), slog.String("error", err.Error()))
				continue
			}
			if err := db.SetSourceChecksum(key, kind, sum); err != nil {
				return rep, err
			}
			rep.Updated++
			logger.Debug("sync: updated", slog.String("source", key))
		}

		// Remove stale sources.
		for key := range stored {
			if _, ok := present[key]; ok {
				continue
			}
			if err := db.DeleteSource(key, kind); err != nil {
				logger.Warn("sync: delete failed", slog.String("source", key), slog.String("error", err.Error()))
				continue
			}
			rep.Removed++
			logger.Debug("sync: removed stale", slog.String("source", key))
		}
	}
	return rep, nil
}

// sourceKeys returns the keys of kind in load order so later sources win
// when two files define the same id.
func sourceKeys(b *Bundle, kind string) []string {
	var keys []string
	for _, k := range b.files {
		_, p, _ := strings.Cut(k, ":")
		if KindOf(p) == kind {
			keys = append(keys, k)
		}
	}
	return keys
}
