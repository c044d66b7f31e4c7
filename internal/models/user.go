// Package models defines the domain types shared across hunlearn.
package models

import (
	"slices"
	"time"
)

// CEFR levels. Learners register with A1..B2; placement can report up to C2.
const (
	LevelA1 = "A1"
	LevelA2 = "A2"
	LevelB1 = "B1"
	LevelB2 = "B2"
	LevelC1 = "C1"
	LevelC2 = "C2"
)

// LearnerLevels are the levels a profile may be set to.
var LearnerLevels = []string{LevelA1, LevelA2, LevelB1, LevelB2}

// CEFRLevels is every level in ascending order.
var CEFRLevels = []string{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// LevelIndex returns the position of level in CEFRLevels or -1.
func LevelIndex(level string) int {
	return slices.Index(CEFRLevels, level)
}

// Learning goals.
const (
	GoalSermonWriting        = "SERMON_WRITING"
	GoalConversation         = "CONVERSATION"
	GoalReadingComprehension = "READING_COMPREHENSION"
	GoalPronunciation        = "PRONUNCIATION"
	GoalGrammar              = "GRAMMAR"
	GoalVocabulary           = "VOCABULARY"
)

// LearningGoals lists the accepted goals.
var LearningGoals = []string{
	GoalSermonWriting, GoalConversation, GoalReadingComprehension,
	GoalPronunciation, GoalGrammar, GoalVocabulary,
}

// User is a registered learner.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	PasswordHash     string     `json:"-"`
	CurrentLevel     string     `json:"currentLevel"`
	TargetLevel      string     `json:"targetLevel"`
	LearningGoals    []string   `json:"learningGoals"`
	DailyGoalMinutes int        `json:"dailyGoalMinutes"`
	Timezone         string     `json:"timezone"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	LastActiveAt     *time.Time `json:"lastActiveAt,omitempty"`
}
