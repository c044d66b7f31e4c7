// Package vocabulary manages flashcards and their FSRS review schedule.
package vocabulary

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/fsrs"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/store"
)

const (
	reviewPoints          = 10
	cardCreatedPoints     = 10
	sessionCompletePoints = 20
)

// CardInput is the editable part of a card.
type CardInput struct {
	Hungarian       string                `json:"hungarianWord"`
	Korean          string                `json:"koreanMeaning"`
	WordClass       string                `json:"wordClass"`
	Level           string                `json:"level"`
	Difficulty      string                `json:"difficulty"`
	Pronunciation   string                `json:"pronunciation"`
	Examples        []models.UsageExample `json:"usageExamples"`
	Tags            []string              `json:"tags"`
	CulturalContext string                `json:"culturalContext"`
	Theological     bool                  `json:"theological"`
}

// Validate checks required fields and enumerations.
func (in CardInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Hungarian, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&in.Korean, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&in.WordClass, validation.Required, validation.In(anySlice(models.WordClasses)...)),
		validation.Field(&in.Level, validation.Required, validation.In(anySlice(models.CEFRLevels)...)),
		validation.Field(&in.Difficulty, validation.Required, validation.In(anySlice(models.Difficulties)...)),
		validation.Field(&in.Tags, validation.Length(0, 20)),
	)
}

// PracticeInput is one flashcard answer.
type PracticeInput struct {
	CardID         string      `json:"cardId"`
	Rating         fsrs.Rating `json:"rating"`
	ResponseTimeMs int         `json:"responseTimeMs"`
	SessionID      string      `json:"sessionId,omitempty"`
}

// Validate checks the practice payload.
func (in PracticeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CardID, validation.Required),
		validation.Field(&in.Rating, validation.Required, validation.Min(fsrs.Again), validation.Max(fsrs.Easy)),
		validation.Field(&in.ResponseTimeMs, validation.Min(0)),
	)
}

// Interval is the outcome of one rating.
type Interval struct {
	Rating        string    `json:"rating"`
	Due           time.Time `json:"due"`
	ScheduledDays int       `json:"scheduledDays"`
	State         string    `json:"state"`
}

// PracticeResult is returned after a review.
type PracticeResult struct {
	Progress      *models.CardProgress `json:"progress"`
	NextIntervals []Interval           `json:"nextIntervals"`
	Award         *models.Award        `json:"award,omitempty"`
}

// DayForecast is the number of cards due on a day.
type DayForecast struct {
	Date string `json:"date"`
	Due  int    `json:"due"`
}

// Stats summarises the learner's deck.
type Stats struct {
	fsrs.Stats
	DueToday     int           `json:"dueToday"`
	TotalReviews int           `json:"totalReviews"`
	Accuracy     float64       `json:"accuracy"`
	Forecast     []DayForecast `json:"forecast"`
}

// Service implements the vocabulary operations.
type Service struct {
	db     *store.DB
	sched  *fsrs.Scheduler
	game   *gamification.Service
	logger *slog.Logger
	now    func() time.Time
}

// NewService returns a Service. game may be nil, in which case no points are awarded.
func NewService(db *store.DB, sched *fsrs.Scheduler, game *gamification.Service, logger *slog.Logger) *Service {
	return &Service{db: db, sched: sched, game: game, logger: logger, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// List returns a page of cards visible to the user.
func (s *Service) List(f store.CardFilter) ([]models.VocabularyCard, int, error) {
	switch f.Sort {
	case "", "word", "level", "recent":
	default:
		return nil, 0, apperr.Invalid("sort", "must be word, level or recent")
	}
	return s.db.ListCards(f)
}

// Get returns a card visible to userID. Private cards of other users are
// reported as not found.
func (s *Service) Get(userID, id string) (*models.VocabularyCard, error) {
	c, err := s.db.CardByID(id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != "" && c.OwnerID != userID {
		return nil, apperr.ErrNotFound
	}
	return c, nil
}

// Create adds a private card for userID.
func (s *Service) Create(userID string, in CardInput) (*models.VocabularyCard, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	c := &models.VocabularyCard{ID: uuid.NewString(), OwnerID: userID}
	apply(c, in)
	if err := s.db.InsertCard(c); err != nil {
		return nil, err
	}
	s.award(userID, gamification.Activity{
		Source:      models.SourceCardCreated,
		BasePoints:  cardCreatedPoints,
		Description: "단어 카드 추가: " + c.Hungarian,
		Flat:        true,
	})
	return c, nil
}

// award grants points without failing the calling operation.
func (s *Service) award(userID string, a gamification.Activity) *models.Award {
	if s.game == nil {
		return nil
	}
	award, err := s.game.Award(userID, a)
	if err != nil {
		s.logger.Warn("award points failed",
			slog.String("user_id", userID),
			slog.String("source", a.Source),
			slog.String("error", err.Error()))
		return nil
	}
	return award
}

// Update replaces a card's fields. Only the owner may modify a card.
func (s *Service) Update(userID, id string, in CardInput) (*models.VocabularyCard, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	c, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	apply(c, in)
	if err := s.db.UpdateCard(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a card owned by userID.
func (s *Service) Delete(userID, id string) error {
	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	return s.db.DeleteCard(id)
}

func (s *Service) owned(userID, id string) (*models.VocabularyCard, error) {
	c, err := s.db.CardByID(id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != userID {
		return nil, fmt.Errorf("%w: card %s is not yours", apperr.ErrForbidden, id)
	}
	return c, nil
}

func apply(c *models.VocabularyCard, in CardInput) {
	c.Hungarian = strings.TrimSpace(in.Hungarian)
	c.Korean = strings.TrimSpace(in.Korean)
	c.WordClass = in.WordClass
	c.Level = in.Level
	c.Difficulty = in.Difficulty
	c.Pronunciation = in.Pronunciation
	c.Examples = nonNil(in.Examples)
	c.Tags = nonNil(in.Tags)
	c.CulturalContext = in.CulturalContext
	c.Theological = in.Theological
}

// Due returns due cards, most urgent first, followed by up to newLimit unseen cards.
func (s *Service) Due(userID string, limit, newLimit int) ([]models.StudyCard, error) {
	limit, _ = store.Page(limit, 0, 50, 200)
	now := s.now()
	due, err := s.db.DueCards(userID, now, 1000)
	if err != nil {
		return nil, err
	}
	for i := range due {
		due[i].Priority = fsrs.Priority(due[i].Progress.Schedule, now)
	}
	slices.SortStableFunc(due, func(a, b models.StudyCard) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	if newLimit <= 0 {
		return due, nil
	}
	fresh, err := s.db.NewCards(userID, "", min(newLimit, 100))
	if err != nil {
		return nil, err
	}
	for i := range fresh {
		fresh[i].Priority = fsrs.Priority(fsrs.NewCard(now), now)
	}
	return append(due, fresh...), nil
}

func (s *Service) progressFor(userID, cardID string, now time.Time) (*models.CardProgress, error) {
	p, err := s.db.Progress(userID, cardID)
	if errors.Is(err, apperr.ErrNotFound) {
		return &models.CardProgress{UserID: userID, CardID: cardID, Schedule: fsrs.NewCard(now)}, nil
	}
	return p, err
}

// Practice applies a rating to a card and records the review.
func (s *Service) Practice(userID string, in PracticeInput) (*PracticeResult, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	card, err := s.Get(userID, in.CardID)
	if err != nil {
		return nil, err
	}
	if in.SessionID != "" {
		sess, err := s.db.SessionByID(userID, in.SessionID)
		if err != nil {
			return nil, err
		}
		if sess.Status != models.SessionActive {
			return nil, fmt.Errorf("%w: session is %s", apperr.ErrConflict, sess.Status)
		}
	}

	now := s.now()
	p, err := s.progressFor(userID, card.ID, now)
	if err != nil {
		return nil, err
	}
	prev := p.Schedule
	next, log, err := s.sched.Review(prev, in.Rating, now)
	if err != nil {
		return nil, apperr.Invalid("rating", "%s", err.Error())
	}
	p.Schedule = next
	p.TotalReviews++
	if in.Rating > fsrs.Again {
		p.CorrectReviews++
	}
	p.UpdatedAt = now

	rec := &models.ReviewRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		CardID:         card.ID,
		SessionID:      in.SessionID,
		Rating:         in.Rating,
		State:          prev.State,
		ElapsedDays:    log.ElapsedDays,
		ScheduledDays:  log.ScheduledDays,
		ResponseTimeMs: in.ResponseTimeMs,
		ReviewedAt:     now,
	}
	if err := s.db.RecordReview(p, rec); err != nil {
		return nil, err
	}

	// Intervals are previewed from the scheduled review time.
	res := &PracticeResult{Progress: p, NextIntervals: s.intervals(next, next.Due)}
	if in.Rating > fsrs.Again {
		res.Award = s.award(userID, gamification.Activity{
			Source:      models.SourceReview,
			BasePoints:  reviewPoints,
			Description: "어휘 복습: " + card.Hungarian,
			FirstTry:    prev.State == fsrs.StateNew && in.Rating >= fsrs.Good,
			Theological: card.Theological,
		})
	}
	return res, nil
}

func (s *Service) intervals(card fsrs.Card, now time.Time) []Interval {
	preview := s.sched.Preview(card, now)
	out := make([]Interval, 0, len(fsrs.Ratings))
	for _, r := range fsrs.Ratings {
		c := preview[r]
		out = append(out, Interval{
			Rating:        r.String(),
			Due:           c.Due,
			ScheduledDays: c.ScheduledDays,
			State:         c.State.String(),
		})
	}
	return out
}

// Schedule previews the four possible ratings for a card.
func (s *Service) Schedule(userID, cardID string) ([]Interval, error) {
	if _, err := s.Get(userID, cardID); err != nil {
		return nil, err
	}
	now := s.now()
	p, err := s.progressFor(userID, cardID, now)
	if err != nil {
		return nil, err
	}
	return s.intervals(p.Schedule, now), nil
}

// Stats summarises the learner's deck with a seven day due forecast.
func (s *Service) Stats(userID string) (*Stats, error) {
	progress, err := s.db.AllSchedules(userID)
	if err != nil {
		return nil, err
	}
	cards := make([]fsrs.Card, len(progress))
	for i, p := range progress {
		cards[i] = p.Schedule
	}
	total, correct, _, err := s.db.ReviewCounts(userID, time.Time{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	start := now.UTC().Truncate(24 * time.Hour)
	st := &Stats{Stats: fsrs.ComputeStats(cards), TotalReviews: total, Forecast: make([]DayForecast, 7)}
	if total > 0 {
		st.Accuracy = float64(correct) / float64(total) * 100
	}
	for i := range st.Forecast {
		st.Forecast[i].Date = start.AddDate(0, 0, i).Format(time.DateOnly)
	}
	for _, c := range cards {
		if fsrs.IsDue(c, now) {
			st.DueToday++
		}
		day := int(c.Due.UTC().Sub(start).Hours() / 24)
		if c.Due.Before(start) {
			day = 0
		}
		if day >= 0 && day < len(st.Forecast) {
			st.Forecast[day].Due++
		}
	}
	return st, nil
}

// CreateSession selects a batch of cards sized to fit targetMinutes.
func (s *Service) CreateSession(userID, sessionType string, targetMinutes int) (*models.ReviewSession, []models.StudyCard, error) {
	if err := validation.Validate(sessionType, validation.Required, validation.In(anySlice(models.SessionTypes)...)); err != nil {
		return nil, nil, apperr.Invalid("sessionType", "%s", err.Error())
	}
	if targetMinutes == 0 {
		targetMinutes = 15
	}
	if targetMinutes < 1 || targetMinutes > 120 {
		return nil, nil, apperr.Invalid("targetMinutes", "must be between 1 and 120")
	}

	now := s.now()
	progress, err := s.db.AllSchedules(userID)
	if err != nil {
		return nil, nil, err
	}
	schedules := make([]fsrs.Card, len(progress))
	for i, p := range progress {
		schedules[i] = p.Schedule
	}
	size := fsrs.OptimalBatchSize(schedules, targetMinutes, now)

	var cards []models.StudyCard
	switch sessionType {
	case models.SessionNewCards:
		cards, err = s.db.NewCards(userID, "", size)
	case models.SessionReview:
		cards, err = s.Due(userID, size, 0)
	case models.SessionMixed:
		cards, err = s.Due(userID, size, size)
		if len(cards) > size {
			cards = cards[:size]
		}
	case models.SessionWeakCards:
		cards, err = s.db.WeakCards(userID, size)
	}
	if err != nil {
		return nil, nil, err
	}

	sess := &models.ReviewSession{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          sessionType,
		Status:        models.SessionActive,
		TargetMinutes: targetMinutes,
		StartedAt:     now,
		CardIDs:       make([]string, len(cards)),
	}
	for i, c := range cards {
		sess.CardIDs[i] = c.Card.ID
	}
	if err := s.db.CreateSession(sess); err != nil {
		return nil, nil, err
	}
	return sess, cards, nil
}

// Session returns a session with its cards.
func (s *Service) Session(userID, id string) (*models.ReviewSession, []models.StudyCard, error) {
	sess, err := s.db.SessionByID(userID, id)
	if err != nil {
		return nil, nil, err
	}
	cards, err := s.db.StudyCardsByIDs(userID, sess.CardIDs)
	if err != nil {
		return nil, nil, err
	}
	order := make(map[string]int, len(sess.CardIDs))
	for i, id := range sess.CardIDs {
		order[id] = i
	}
	slices.SortFunc(cards, func(a, b models.StudyCard) int {
		return cmp.Compare(order[a.Card.ID], order[b.Card.ID])
	})
	return sess, cards, nil
}

// CompleteSession closes an active session and awards a completion bonus
// scaled by its accuracy.
func (s *Service) CompleteSession(userID, id string) (*models.ReviewSession, *models.Award, error) {
	sess, err := s.db.SessionByID(userID, id)
	if err != nil {
		return nil, nil, err
	}
	if sess.Status != models.SessionActive && sess.Status != models.SessionPaused {
		return nil, nil, fmt.Errorf("%w: session is %s", apperr.ErrConflict, sess.Status)
	}
	now := s.now()
	if err := s.db.FinishSession(userID, id, models.SessionCompleted, now); err != nil {
		return nil, nil, err
	}
	sess.Status = models.SessionCompleted
	sess.CompletedAt = &now

	var award *models.Award
	if sess.Reviewed > 0 {
		award = s.award(userID, gamification.Activity{
			Source:      models.SourceReview,
			BasePoints:  sessionCompletePoints,
			Description: "복습 세션 완료",
			Accuracy:    sess.Accuracy(),
		})
	}
	return sess, award, nil
}

func anySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
