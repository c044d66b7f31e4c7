package assessment

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/content"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/store"
)

const (
	completionPoints = 50
	minutesPerItem   = 1.5
)

// StartInput starts an assessment.
type StartInput struct {
	Type           string `json:"assessmentType"`
	TotalQuestions int    `json:"totalQuestions"`
}

// Validate checks the assessment type and question count.
func (in StartInput) Validate() error {
	types := make([]any, len(models.AssessmentTypes))
	for i, t := range models.AssessmentTypes {
		types[i] = t
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Type, validation.Required, validation.In(types...)),
		validation.Field(&in.TotalQuestions, validation.Min(0), validation.Max(MaxQuestions)),
	)
}

// AnswerInput is a response to one question.
type AnswerInput struct {
	QuestionID     string `json:"questionId"`
	Answer         string `json:"answer"`
	ResponseTimeMs int    `json:"responseTimeMs"`
}

// Validate checks the answer payload.
func (in AnswerInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.QuestionID, validation.Required),
		validation.Field(&in.Answer, validation.Required),
		validation.Field(&in.ResponseTimeMs, validation.Min(0)),
	)
}

// QuestionView is a question as shown to the learner.
type QuestionView struct {
	models.AssessmentQuestion
	Number int `json:"number"`
	Total  int `json:"total"`
}

// StartResult is a new session with its first question.
type StartResult struct {
	Session  *models.AssessmentSession `json:"session"`
	Question *QuestionView             `json:"question"`
}

// AnswerResult is the outcome of one answer.
type AnswerResult struct {
	Correct      bool                     `json:"correct"`
	Expected     string                   `json:"expected,omitempty"`
	Explanation  string                   `json:"explanation,omitempty"`
	CurrentLevel string                   `json:"currentLevel"`
	Answered     int                      `json:"answered"`
	Completed    bool                     `json:"completed"`
	Next         *QuestionView            `json:"nextQuestion,omitempty"`
	Result       *models.AssessmentResult `json:"result,omitempty"`
	Award        *models.Award            `json:"award,omitempty"`
}

// Status is the progress of a session.
type Status struct {
	ID               string  `json:"id"`
	Status           string  `json:"status"`
	CurrentLevel     string  `json:"currentLevel"`
	Answered         int     `json:"answered"`
	Remaining        int     `json:"remaining"`
	EstimatedMinutes int     `json:"estimatedMinutes"`
	Precision        float64 `json:"precision"`
}

// Service runs assessment sessions against the content question bank.
type Service struct {
	db      *store.DB
	catalog *content.Catalog
	game    *gamification.Service
	logger  *slog.Logger
	now     func() time.Time
}

// NewService returns a Service. game may be nil.
func NewService(db *store.DB, catalog *content.Catalog, game *gamification.Service, logger *slog.Logger) *Service {
	return &Service{db: db, catalog: catalog, game: game, logger: logger, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Start creates a session at the start level and returns its first question.
func (s *Service) Start(userID string, in StartInput) (*StartResult, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	sess := &models.AssessmentSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           in.Type,
		Status:         models.AssessmentInProgress,
		TotalQuestions: ClampQuestions(in.TotalQuestions),
		CurrentLevel:   StartLevel(),
		Theta:          LevelToTheta(StartLevel()),
	}
	q, ok := SelectNext(s.catalog.Questions(), sess)
	if !ok {
		return nil, fmt.Errorf("%w: question bank is empty", apperr.ErrConflict)
	}
	if err := s.db.InsertAssessment(sess); err != nil {
		return nil, err
	}
	s.logger.Info("assessment started", slog.String("user", userID), slog.String("id", sess.ID))
	return &StartResult{Session: sess, Question: view(q, sess)}, nil
}

func view(q models.AssessmentQuestion, sess *models.AssessmentSession) *QuestionView {
	return &QuestionView{AssessmentQuestion: q, Number: len(sess.Answers) + 1, Total: sess.TotalQuestions}
}

func (s *Service) active(userID, id string) (*models.AssessmentSession, error) {
	sess, err := s.db.AssessmentByID(userID, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.AssessmentInProgress {
		return nil, fmt.Errorf("%w: assessment is %s", apperr.ErrConflict, sess.Status)
	}
	return sess, nil
}

// Next returns the question the session should ask now. It is stable until
// the question is answered.
func (s *Service) Next(userID, id string) (*QuestionView, error) {
	sess, err := s.active(userID, id)
	if err != nil {
		return nil, err
	}
	q, ok := SelectNext(s.catalog.Questions(), sess)
	if !ok {
		return nil, fmt.Errorf("%w: no questions left", apperr.ErrConflict)
	}
	return view(q, sess), nil
}

// Answer records a response, re-estimates the level and completes the
// session once the stopping rule is met or the bank runs out.
func (s *Service) Answer(userID, id string, in AnswerInput) (*AnswerResult, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	sess, err := s.active(userID, id)
	if err != nil {
		return nil, err
	}
	q, ok := s.catalog.Question(in.QuestionID)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if _, asked := sess.AskedIDs()[q.ID]; asked {
		return nil, fmt.Errorf("%w: question %s already answered", apperr.ErrConflict, q.ID)
	}

	correct := CheckAnswer(q, in.Answer)
	Record(sess, models.AssessmentAnswer{
		QuestionID:     q.ID,
		SkillArea:      q.SkillArea,
		Level:          q.Level,
		Answer:         strings.TrimSpace(in.Answer),
		Correct:        correct,
		ResponseTimeMs: in.ResponseTimeMs,
		AnsweredAt:     s.now().UTC(),
	})

	res := &AnswerResult{Correct: correct, Explanation: q.Explanation, Answered: len(sess.Answers)}
	if !correct && len(q.Answers) > 0 {
		res.Expected = q.Answers[0]
	}

	next, more := SelectNext(s.catalog.Questions(), sess)
	if Done(sess) || !more {
		s.complete(sess)
		res.Completed = true
		res.Result = sess.Result
	} else {
		res.Next = view(next, sess)
	}
	if err := s.db.SaveAssessment(sess); err != nil {
		return nil, err
	}
	res.CurrentLevel = sess.CurrentLevel
	if res.Completed {
		res.Award = s.award(sess)
	}
	return res, nil
}

func (s *Service) complete(sess *models.AssessmentSession) {
	r := Score(sess)
	now := s.now().UTC()
	sess.Status = models.AssessmentCompleted
	sess.CompletedAt = &now
	sess.PausedAt = nil
	sess.CurrentLevel = r.OverallLevel
	sess.Result = &r
}

func (s *Service) award(sess *models.AssessmentSession) *models.Award {
	if s.game == nil {
		return nil
	}
	award, err := s.game.Award(sess.UserID, gamification.Activity{
		Source:      models.SourceAssessment,
		BasePoints:  completionPoints,
		Description: "레벨 평가 완료: " + sess.Result.OverallLevel,
		Accuracy:    sess.Result.Accuracy,
	})
	if err != nil {
		s.logger.Warn("award assessment points failed", slog.String("error", err.Error()))
		return nil
	}
	return award
}

// Results returns the report of a completed session.
func (s *Service) Results(userID, id string) (*models.AssessmentSession, error) {
	sess, err := s.db.AssessmentByID(userID, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.AssessmentCompleted || sess.Result == nil {
		return nil, fmt.Errorf("%w: assessment is %s", apperr.ErrConflict, sess.Status)
	}
	return sess, nil
}

// History lists the learner's sessions, newest first.
func (s *Service) History(userID, status string, limit, offset int) ([]models.AssessmentSession, int, error) {
	if status != "" && !slices.Contains([]string{models.AssessmentInProgress, models.AssessmentPaused, models.AssessmentCompleted}, status) {
		return nil, 0, apperr.Invalid("status", "unknown status %q", status)
	}
	return s.db.ListAssessments(userID, status, limit, offset)
}

// Pause suspends an in-progress session.
func (s *Service) Pause(userID, id string) (*models.AssessmentSession, error) {
	sess, err := s.active(userID, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sess.Status = models.AssessmentPaused
	sess.PausedAt = &now
	if err := s.db.SaveAssessment(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Resume continues a paused session and returns the question to answer next.
func (s *Service) Resume(userID, id string) (*StartResult, error) {
	sess, err := s.db.AssessmentByID(userID, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.AssessmentPaused {
		return nil, fmt.Errorf("%w: assessment is %s", apperr.ErrConflict, sess.Status)
	}
	sess.Status = models.AssessmentInProgress
	sess.PausedAt = nil
	if err := s.db.SaveAssessment(sess); err != nil {
		return nil, err
	}
	res := &StartResult{Session: sess}
	if q, ok := SelectNext(s.catalog.Questions(), sess); ok {
		res.Question = view(q, sess)
	}
	return res, nil
}

// Status reports how far a session has got.
func (s *Service) Status(userID, id string) (*Status, error) {
	sess, err := s.db.AssessmentByID(userID, id)
	if err != nil {
		return nil, err
	}
	st := &Status{
		ID:           sess.ID,
		Status:       sess.Status,
		CurrentLevel: sess.CurrentLevel,
		Answered:     len(sess.Answers),
		Precision:    Precision(sess.Answers),
	}
	if sess.Status != models.AssessmentCompleted {
		st.Remaining = max(ClampQuestions(sess.TotalQuestions)-st.Answered, 0)
	}
	st.EstimatedMinutes = int(math.Ceil(float64(st.Remaining) * minutesPerItem))
	return st, nil
}
