package models

import (
	"time"

	"github.com/starford/hunlearn/internal/fsrs"
)

// Card difficulty labels.
const (
	DifficultyBeginner     = "BEGINNER"
	DifficultyIntermediate = "INTERMEDIATE"
	DifficultyAdvanced     = "ADVANCED"
	DifficultyExpert       = "EXPERT"
)

// Difficulties in ascending order.
var Difficulties = []string{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert}

// WordClasses are the accepted parts of speech.
var WordClasses = []string{
	"NOUN", "VERB", "ADJECTIVE", "ADVERB", "PRONOUN", "NUMERAL",
	"POSTPOSITION", "CONJUNCTION", "INTERJECTION", "PHRASE",
}

// UsageExample is a bilingual example sentence.
type UsageExample struct {
	Hungarian string `json:"hungarian" yaml:"hungarian"`
	Korean    string `json:"korean" yaml:"korean"`
}

// VocabularyCard is a catalog entry. Seed cards have no owner.
type VocabularyCard struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"ownerId,omitempty"`
	Hungarian       string         `json:"hungarianWord"`
	Korean          string         `json:"koreanMeaning"`
	WordClass       string         `json:"wordClass"`
	Level           string         `json:"level"`
	Difficulty      string         `json:"difficulty"`
	Pronunciation   string         `json:"pronunciation,omitempty"`
	Examples        []UsageExample `json:"usageExamples"`
	Tags            []string       `json:"tags"`
	CulturalContext string         `json:"culturalContext,omitempty"`
	Theological     bool           `json:"theological"`
	Source          string         `json:"-"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// CardProgress is a learner's scheduling state for one card.
type CardProgress struct {
	UserID         string    `json:"userId"`
	CardID         string    `json:"cardId"`
	Schedule       fsrs.Card `json:"fsrs"`
	TotalReviews   int       `json:"totalReviews"`
	CorrectReviews int       `json:"correctReviews"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// StudyCard pairs a catalog card with the learner's progress.
type StudyCard struct {
	Card     VocabularyCard `json:"card"`
	Progress *CardProgress  `json:"progress,omitempty"`
	Priority float64        `json:"priority"`
	IsNew    bool           `json:"isNew"`
}

// ReviewRecord is a persisted review.
type ReviewRecord struct {
	ID             string      `json:"id"`
	UserID         string      `json:"userId"`
	CardID         string      `json:"cardId"`
	SessionID      string      `json:"sessionId,omitempty"`
	Rating         fsrs.Rating `json:"rating"`
	State          fsrs.State  `json:"state"`
	ElapsedDays    int         `json:"elapsedDays"`
	ScheduledDays  int         `json:"scheduledDays"`
	ResponseTimeMs int         `json:"responseTimeMs"`
	ReviewedAt     time.Time   `json:"reviewedAt"`
}

// Review session types and statuses.
const (
	SessionNewCards  = "NEW_CARDS"
	SessionReview    = "REVIEW"
	SessionMixed     = "MIXED"
	SessionWeakCards = "WEAK_CARDS"

	SessionActive    = "ACTIVE"
	SessionPaused    = "PAUSED"
	SessionCompleted = "COMPLETED"
	SessionCancelled = "CANCELLED"
)

// SessionTypes lists accepted review session types.
var SessionTypes = []string{SessionNewCards, SessionReview, SessionMixed, SessionWeakCards}

// ReviewSession is a bounded batch of cards studied together.
type ReviewSession struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Type          string     `json:"sessionType"`
	Status        string     `json:"status"`
	CardIDs       []string   `json:"cardIds"`
	TargetMinutes int        `json:"targetMinutes"`
	Reviewed      int        `json:"cardsReviewed"`
	Correct       int        `json:"correctCount"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// Accuracy returns the percentage of correct reviews in the session.
func (s ReviewSession) Accuracy() float64 {
	if s.Reviewed == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Reviewed) * 100
}
