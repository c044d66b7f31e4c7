package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/store"
)

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	CurrentLevel  string   `json:"currentLevel"`
	TargetLevel   string   `json:"targetLevel"`
	LearningGoals []string `json:"learningGoals"`
}

// Validate checks the registration rules.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(2, 50)),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required, validation.By(strongPassword)),
		validation.Field(&in.CurrentLevel, validation.Required, validation.In(levels()...)),
		validation.Field(&in.TargetLevel, validation.Required, validation.In(levels()...)),
		validation.Field(&in.LearningGoals, validation.Required, validation.Each(validation.In(goals()...))),
	)
}

// ProfileInput holds the editable profile fields. Nil fields are unchanged.
type ProfileInput struct {
	Name             *string  `json:"name"`
	CurrentLevel     *string  `json:"currentLevel"`
	TargetLevel      *string  `json:"targetLevel"`
	LearningGoals    []string `json:"learningGoals"`
	DailyGoalMinutes *int     `json:"dailyGoalMinutes"`
	Timezone         *string  `json:"timezone"`
}

// Validate checks the profile update.
func (in ProfileInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.RuneLength(2, 50)),
		validation.Field(&in.CurrentLevel, validation.NilOrNotEmpty, validation.In(levels()...)),
		validation.Field(&in.TargetLevel, validation.NilOrNotEmpty, validation.In(levels()...)),
		validation.Field(&in.LearningGoals, validation.Each(validation.In(goals()...))),
		validation.Field(&in.DailyGoalMinutes, validation.NilOrNotEmpty, validation.Min(5), validation.Max(240)),
		validation.Field(&in.Timezone, validation.By(func(v any) error {
			tz, _ := v.(*string)
			if tz == nil {
				return nil
			}
			if _, err := time.LoadLocation(*tz); err != nil {
				return validation.NewError("validation_timezone", "unknown time zone")
			}
			return nil
		})),
	)
}

func strongPassword(v any) error {
	s, _ := v.(string)
	if len(s) < 8 {
		return validation.NewError("validation_password_length", "must be at least 8 characters")
	}
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return validation.NewError("validation_password_strength", "must contain lower case, upper case and a digit")
	}
	return nil
}

func levels() []any {
	out := make([]any, len(models.LearnerLevels))
	for i, l := range models.LearnerLevels {
		out[i] = l
	}
	return out
}

func goals() []any {
	out := make([]any, len(models.LearningGoals))
	for i, g := range models.LearningGoals {
		out[i] = g
	}
	return out
}

// Service implements account operations.
type Service struct {
	db     *store.DB
	tokens *Tokens
	cost   int
	logger *slog.Logger
}

// NewService returns a Service. cost is the bcrypt cost; zero means bcrypt.DefaultCost.
func NewService(db *store.DB, tokens *Tokens, cost int, logger *slog.Logger) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{db: db, tokens: tokens, cost: cost, logger: logger}
}

// Tokens returns the token signer used by the service.
func (s *Service) Tokens() *Tokens { return s.tokens }

// Register creates an account and signs the learner in.
func (s *Service) Register(in RegisterInput) (*models.User, TokenPair, error) {
	if err := in.Validate(); err != nil {
		return nil, TokenPair{}, apperr.Validation(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("auth: hash password: %w", err)
	}
	u := &models.User{
		ID:               uuid.NewString(),
		Email:            strings.TrimSpace(in.Email),
		Name:             strings.TrimSpace(in.Name),
		PasswordHash:     string(hash),
		CurrentLevel:     in.CurrentLevel,
		TargetLevel:      in.TargetLevel,
		LearningGoals:    in.LearningGoals,
		DailyGoalMinutes: 20,
		Timezone:         "Europe/Budapest",
	}
	if err := s.db.CreateUser(u); err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.tokens.Issue(u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user registered", slog.String("user_id", u.ID))
	return u, pair, nil
}

// Login verifies credentials. Unknown emails and wrong passwords are both
// reported as apperr.ErrUnauthorized.
func (s *Service) Login(email, password string) (*models.User, TokenPair, error) {
	if email == "" || password == "" {
		return nil, TokenPair{}, apperr.Invalid("email", "email and password are required")
	}
	u, err := s.db.UserByEmail(email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, TokenPair{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, TokenPair{}, apperr.ErrUnauthorized
	}
	now := time.Now()
	if err := s.db.TouchActivity(u.ID, now); err != nil {
		s.logger.Warn("touch activity failed", slog.String("error", err.Error()))
	}
	u.LastActiveAt = &now
	pair, err := s.tokens.Issue(u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s *Service) Refresh(refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, apperr.Invalid("refreshToken", "is required")
	}
	claims, err := s.tokens.Parse(refreshToken, TypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	u, err := s.db.UserByID(claims.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		return TokenPair{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return TokenPair{}, err
	}
	return s.tokens.Issue(u)
}

// Profile returns the user.
func (s *Service) Profile(userID string) (*models.User, error) {
	return s.db.UserByID(userID)
}

// UpdateProfile applies the non-nil fields of in.
func (s *Service) UpdateProfile(userID string, in ProfileInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	u, err := s.db.UserByID(userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.CurrentLevel != nil {
		u.CurrentLevel = *in.CurrentLevel
	}
	if in.TargetLevel != nil {
		u.TargetLevel = *in.TargetLevel
	}
	if in.LearningGoals != nil {
		if len(in.LearningGoals) == 0 {
			return nil, apperr.Invalid("learningGoals", "at least one goal is required")
		}
		u.LearningGoals = in.LearningGoals
	}
	if in.DailyGoalMinutes != nil {
		u.DailyGoalMinutes = *in.DailyGoalMinutes
	}
	if in.Timezone != nil {
		u.Timezone = *in.Timezone
	}
	if err := s.db.UpdateProfile(u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(userID, current, next string) error {
	u, err := s.db.UserByID(userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return apperr.Invalid("currentPassword", "does not match")
	}
	if err := strongPassword(next); err != nil {
		return apperr.Invalid("newPassword", "%s", err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.db.UpdatePassword(userID, string(hash))
}
