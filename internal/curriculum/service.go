// Package curriculum serves the grammar lessons and records learners'
// progress through them.
package curriculum

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/content"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/store"
	"github.com/starford/hunlearn/internal/textnorm"
)

const (
	lessonPoints = 30
	// difficultyPoints is added per lesson difficulty step.
	difficultyPoints = 10
)

// LessonSummary is a lesson listing entry with the learner's status.
type LessonSummary struct {
	ID               string `json:"id"`
	Level            string `json:"level"`
	Unit             int    `json:"unit"`
	Lesson           int    `json:"lesson"`
	Title            string `json:"title"`
	TitleKorean      string `json:"titleKorean"`
	Category         string `json:"category"`
	Difficulty       int    `json:"difficulty"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Exercises        int    `json:"exerciseCount"`
	Completed        bool   `json:"completed"`
	Unlocked         bool   `json:"unlocked"`
	BestScore        int    `json:"bestScore"`
}

// LessonDetail is a full lesson with the learner's status.
type LessonDetail struct {
	models.GrammarLesson
	Completed bool `json:"completed"`
	Unlocked  bool `json:"unlocked"`
	BestScore int  `json:"bestScore"`
}

// CheckResult is the outcome of checking one exercise answer.
type CheckResult struct {
	Correct        bool   `json:"correct"`
	AccentMismatch bool   `json:"accentMismatch"`
	Expected       string `json:"expected,omitempty"`
	Explanation    string `json:"explanation,omitempty"`
	Hint           string `json:"hint,omitempty"`
}

// CompleteResult is returned when a lesson is completed.
type CompleteResult struct {
	Progress  *models.LessonProgress `json:"progress"`
	FirstTime bool                   `json:"firstTime"`
	Award     *models.Award          `json:"award,omitempty"`
}

// LevelProgress summarises one CEFR level.
type LevelProgress struct {
	Level     string  `json:"level"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
}

// Progress is the learner's overall curriculum progress.
type Progress struct {
	TotalLessons     int             `json:"totalLessons"`
	CompletedLessons int             `json:"completedLessons"`
	AverageScore     float64         `json:"averageScore"`
	Levels           []LevelProgress `json:"levels"`
	NextLesson       *LessonSummary  `json:"nextLesson,omitempty"`
}

// Service implements the curriculum operations.
type Service struct {
	db      *store.DB
	catalog *content.Catalog
	game    *gamification.Service
	logger  *slog.Logger
}

// NewService returns a Service. game may be nil.
func NewService(db *store.DB, catalog *content.Catalog, game *gamification.Service, logger *slog.Logger) *Service {
	return &Service{db: db, catalog: catalog, game: game, logger: logger}
}

func unlocked(l models.GrammarLesson, done map[string]models.LessonProgress) bool {
	for _, p := range l.Prerequisites {
		if _, ok := done[p]; !ok {
			return false
		}
	}
	return true
}

func summary(l models.GrammarLesson, done map[string]models.LessonProgress) LessonSummary {
	p, completed := done[l.ID]
	return LessonSummary{
		ID:               l.ID,
		Level:            l.Level,
		Unit:             l.Unit,
		Lesson:           l.Lesson,
		Title:            l.Title,
		TitleKorean:      l.TitleKorean,
		Category:         l.Category,
		Difficulty:       l.Difficulty,
		EstimatedMinutes: l.EstimatedMinutes,
		Exercises:        len(l.Exercises),
		Completed:        completed,
		Unlocked:         unlocked(l, done),
		BestScore:        p.BestScore,
	}
}

// Lessons lists lessons in curriculum order with the learner's status.
func (s *Service) Lessons(userID, level, category string) ([]LessonSummary, error) {
	if level != "" && models.LevelIndex(level) < 0 {
		return nil, apperr.Invalid("level", "must be one of %s", strings.Join(models.CEFRLevels, ", "))
	}
	done, err := s.db.LessonProgress(userID)
	if err != nil {
		return nil, err
	}
	lessons := s.catalog.Lessons(level, category)
	out := make([]LessonSummary, len(lessons))
	for i, l := range lessons {
		out[i] = summary(l, done)
	}
	return out, nil
}

// Lesson returns one lesson with the learner's status.
func (s *Service) Lesson(userID, id string) (*LessonDetail, error) {
	l, ok := s.catalog.Lesson(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	done, err := s.db.LessonProgress(userID)
	if err != nil {
		return nil, err
	}
	p, completed := done[id]
	return &LessonDetail{GrammarLesson: l, Completed: completed, Unlocked: unlocked(l, done), BestScore: p.BestScore}, nil
}

// CheckExercise compares answer with the exercise's accepted answers,
// ignoring case, surrounding punctuation and extra whitespace. Answers that
// only differ in accents are wrong but flagged so the learner sees why.
func (s *Service) CheckExercise(lessonID, exerciseID, answer string) (*CheckResult, error) {
	l, ok := s.catalog.Lesson(lessonID)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	ex, ok := l.Exercise(exerciseID)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if strings.TrimSpace(answer) == "" {
		return nil, apperr.Invalid("answer", "is required")
	}
	m := textnorm.Compare(answer, ex.Answers)
	res := &CheckResult{
		Correct:        m == textnorm.Exact,
		AccentMismatch: m == textnorm.AccentMismatch,
		Explanation:    ex.Explanation,
	}
	if !res.Correct {
		if len(ex.Answers) > 0 {
			res.Expected = ex.Answers[0]
		}
		if len(ex.Hints) > 0 {
			res.Hint = ex.Hints[0]
		}
	}
	return res, nil
}

// CompleteInput is a lesson completion request.
type CompleteInput struct {
	Score int `json:"score"`
}

// Validate checks the score range.
func (in CompleteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Score, validation.Min(0), validation.Max(100)),
	)
}

// Complete records a lesson result. Every prerequisite must be completed
// first. Points are awarded on the first completion only.
func (s *Service) Complete(userID, lessonID string, in CompleteInput) (*CompleteResult, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	l, ok := s.catalog.Lesson(lessonID)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	done, err := s.db.LessonProgress(userID)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, p := range l.Prerequisites {
		if _, ok := done[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: complete %s first", apperr.ErrConflict, strings.Join(missing, ", "))
	}

	p, first, err := s.db.CompleteLesson(userID, lessonID, in.Score)
	if err != nil {
		return nil, err
	}
	res := &CompleteResult{Progress: p, FirstTime: first}
	if first && s.game != nil {
		award, err := s.game.Award(userID, gamification.Activity{
			Source:      models.SourceLesson,
			BasePoints:  lessonPoints + difficultyPoints*max(l.Difficulty-1, 0),
			Description: "문법 레슨 완료: " + l.TitleKorean,
			Accuracy:    float64(in.Score),
		})
		if err != nil {
			s.logger.Warn("award lesson points failed", slog.String("error", err.Error()))
		} else {
			res.Award = award
		}
	}
	return res, nil
}

// Progress summarises the learner's curriculum progress per level and
// suggests the next unlocked lesson.
func (s *Service) Progress(userID string) (*Progress, error) {
	done, err := s.db.LessonProgress(userID)
	if err != nil {
		return nil, err
	}
	lessons := s.catalog.Lessons("", "")
	out := &Progress{TotalLessons: len(lessons), Levels: []LevelProgress{}}
	byLevel := map[string]int{}
	var scores int
	for _, l := range lessons {
		i, ok := byLevel[l.Level]
		if !ok {
			i = len(out.Levels)
			byLevel[l.Level] = i
			out.Levels = append(out.Levels, LevelProgress{Level: l.Level})
		}
		lp := &out.Levels[i]
		lp.Total++
		if p, ok := done[l.ID]; ok {
			lp.Completed++
			out.CompletedLessons++
			scores += p.BestScore
		} else if out.NextLesson == nil && unlocked(l, done) {
			sum := summary(l, done)
			out.NextLesson = &sum
		}
	}
	for i := range out.Levels {
		lp := &out.Levels[i]
		lp.Percent = float64(lp.Completed) / float64(lp.Total) * 100
	}
	if out.CompletedLessons > 0 {
		out.AverageScore = float64(scores) / float64(out.CompletedLessons)
	}
	slices.SortFunc(out.Levels, func(a, b LevelProgress) int {
		return models.LevelIndex(a.Level) - models.LevelIndex(b.Level)
	})
	return out, nil
}
