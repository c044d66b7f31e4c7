// Package terms serves the theological term dictionary and tracks learners'
// mastery of it.
package terms

import (
	"log/slog"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/store"
)

// MasteryThreshold is the accuracy at which a term counts as mastered.
const MasteryThreshold = 0.8

const correctPoints = 5

var sorts = []string{"relevance", "alphabetical", "frequency", "difficulty"}

// SearchResult is a page of terms with catalog-wide category counts.
type SearchResult struct {
	Terms      []models.TheologicalTerm `json:"terms"`
	Total      int                      `json:"total"`
	Categories map[string]int           `json:"categoryStats"`
}

// TermDetail is a term with its related terms resolved.
type TermDetail struct {
	models.TheologicalTerm
	Related []models.TheologicalTerm `json:"related"`
}

// ProgressInput is one practice answer.
type ProgressInput struct {
	TermID              string `json:"term_id"`
	Correct             bool   `json:"correct"`
	ResponseTimeMs      int    `json:"response_time_ms"`
	DifficultyPerceived int    `json:"difficulty_perceived"`
	Context             string `json:"context"`
}

// Validate checks the practice payload.
func (in ProgressInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.TermID, validation.Required),
		validation.Field(&in.ResponseTimeMs, validation.Required, validation.Min(1)),
		validation.Field(&in.DifficultyPerceived, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&in.Context, validation.Required, validation.In(anySlice(models.TermContexts)...)),
	)
}

// ProgressResult is returned after recording an answer.
type ProgressResult struct {
	Progress *models.TermProgress `json:"progress"`
	Mastered bool                 `json:"mastered"`
	Award    *models.Award        `json:"award,omitempty"`
}

// ProgressSummary aggregates a learner's term practice.
type ProgressSummary struct {
	Practiced      int                   `json:"termsPracticed"`
	Mastered       int                   `json:"termsMastered"`
	TotalAttempts  int                   `json:"totalAttempts"`
	AverageMastery float64               `json:"averageMastery"`
	Terms          []models.TermProgress `json:"terms"`
}

// Statistics counts the catalog.
type Statistics struct {
	Total        int            `json:"total"`
	ByCategory   map[string]int `json:"byCategory"`
	ByDifficulty map[string]int `json:"byDifficulty"`
}

// Service implements the term operations.
type Service struct {
	db     *store.DB
	game   *gamification.Service
	logger *slog.Logger
}

// NewService returns a Service. game may be nil.
func NewService(db *store.DB, game *gamification.Service, logger *slog.Logger) *Service {
	return &Service{db: db, game: game, logger: logger}
}

func validateFilter(f store.TermFilter) error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Category, validation.In(anySlice(models.TermCategories)...)),
		validation.Field(&f.Difficulty, validation.In(anySlice(models.CEFRLevels)...)),
		validation.Field(&f.Sort, validation.In(anySlice(sorts)...)),
		validation.Field(&f.Limit, validation.Min(0), validation.Max(100)),
		validation.Field(&f.Offset, validation.Min(0)),
		validation.Field(&f.Letter, validation.RuneLength(0, 3)),
	)
}

// Search returns matching terms with category statistics.
func (s *Service) Search(f store.TermFilter) (*SearchResult, error) {
	f.Query = strings.TrimSpace(f.Query)
	if err := validateFilter(f); err != nil {
		return nil, apperr.Validation(err)
	}
	list, total, err := s.db.SearchTerms(f)
	if err != nil {
		return nil, err
	}
	cats, err := s.db.TermCounts("category")
	if err != nil {
		return nil, err
	}
	return &SearchResult{Terms: list, Total: total, Categories: cats}, nil
}

// Get returns a term with its related terms.
func (s *Service) Get(id string) (*TermDetail, error) {
	t, err := s.db.TermByID(id)
	if err != nil {
		return nil, err
	}
	related, err := s.db.TermsByHungarian(t.RelatedTerms)
	if err != nil {
		return nil, err
	}
	return &TermDetail{TheologicalTerm: *t, Related: related}, nil
}

// ByCategory lists a category alphabetically.
func (s *Service) ByCategory(category string) ([]models.TheologicalTerm, error) {
	if !slices.Contains(models.TermCategories, category) {
		return nil, apperr.Invalid("category", "unknown category %q", category)
	}
	list, _, err := s.db.SearchTerms(store.TermFilter{Category: category, Sort: "alphabetical", Limit: 100})
	return list, err
}

// Random returns a random term, optionally from category.
func (s *Service) Random(category string) (*models.TheologicalTerm, error) {
	if category != "" && !slices.Contains(models.TermCategories, category) {
		return nil, apperr.Invalid("category", "unknown category %q", category)
	}
	return s.db.RandomTerm(category)
}

// Dictionary lists terms alphabetically, optionally only those starting with letter.
func (s *Service) Dictionary(letter string, limit, offset int) ([]models.TheologicalTerm, int, error) {
	f := store.TermFilter{Letter: strings.TrimSpace(letter), Sort: "alphabetical", Limit: limit, Offset: offset}
	if err := validateFilter(f); err != nil {
		return nil, 0, apperr.Validation(err)
	}
	return s.db.SearchTerms(f)
}

// RecordProgress folds a practice answer into the learner's mastery.
func (s *Service) RecordProgress(userID string, in ProgressInput) (*ProgressResult, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	t, err := s.db.TermByID(in.TermID)
	if err != nil {
		return nil, err
	}
	p, err := s.db.RecordTermAttempt(userID, models.TermAttempt(in))
	if err != nil {
		return nil, err
	}
	res := &ProgressResult{Progress: p, Mastered: p.Mastery >= MasteryThreshold}
	if in.Correct && s.game != nil {
		award, err := s.game.Award(userID, gamification.Activity{
			Source:      models.SourceTermPractice,
			BasePoints:  correctPoints,
			Description: "신학 용어 연습: " + t.Hungarian,
			FirstTry:    p.Attempts == 1,
			Theological: true,
		})
		if err != nil {
			s.logger.Warn("award term points failed", slog.String("error", err.Error()))
		} else {
			res.Award = award
		}
	}
	return res, nil
}

// Progress summarises the learner's term practice.
func (s *Service) Progress(userID string) (*ProgressSummary, error) {
	list, err := s.db.TermProgressList(userID)
	if err != nil {
		return nil, err
	}
	sum := &ProgressSummary{Practiced: len(list), Terms: list}
	var mastery float64
	for _, p := range list {
		sum.TotalAttempts += p.Attempts
		mastery += p.Mastery
		if p.Mastery >= MasteryThreshold {
			sum.Mastered++
		}
	}
	if len(list) > 0 {
		sum.AverageMastery = mastery / float64(len(list))
	}
	return sum, nil
}

// Review returns practiced terms below the mastery threshold.
func (s *Service) Review(userID string, limit int) ([]models.TheologicalTerm, error) {
	return s.db.TermsForReview(userID, MasteryThreshold, limit)
}

// Statistics counts the catalog by category and difficulty.
func (s *Service) Statistics() (*Statistics, error) {
	cats, err := s.db.TermCounts("category")
	if err != nil {
		return nil, err
	}
	levels, err := s.db.TermCounts("difficulty_level")
	if err != nil {
		return nil, err
	}
	st := &Statistics{ByCategory: cats, ByDifficulty: levels}
	for _, n := range cats {
		st.Total += n
	}
	return st, nil
}

func anySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
