package models

import "time"

// Point sources.
const (
	SourceReview          = "VOCABULARY_REVIEW"
	SourceCardCreated     = "VOCABULARY_CARD_CREATED"
	SourceLesson          = "LESSON_COMPLETE"
	SourceTermPractice    = "TERM_PRACTICE"
	SourceSermonCompleted = "SERMON_COMPLETED"
	SourceAssessment      = "ASSESSMENT_COMPLETED"
	SourceChallenge       = "CHALLENGE_CLAIMED"
	SourceLevelUp         = "LEVEL_UP"
	SourceBadge           = "BADGE_EARNED"
)

// PointTransaction is an entry of the points ledger.
type PointTransaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Source      string    `json:"source"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Badge is an achievement definition.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NameKorean  string `json:"nameKorean"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Threshold   int    `json:"threshold"`
	Rarity      string `json:"rarity"`
}

// UserBadge is a badge earned by a learner.
type UserBadge struct {
	Badge    Badge     `json:"badge"`
	EarnedAt time.Time `json:"earnedAt"`
}

// BadgeProgress shows how close a learner is to a badge.
type BadgeProgress struct {
	Badge    Badge      `json:"badge"`
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earnedAt,omitempty"`
	Current  int        `json:"current"`
	Progress float64    `json:"progress"`
}

// Challenge is a daily goal.
type Challenge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	TitleKorean string `json:"titleKorean"`
	Kind        string `json:"kind"`
	Target      int    `json:"target"`
	Reward      int    `json:"reward"`
	Current     int    `json:"current"`
	Completed   bool   `json:"completed"`
	Claimed     bool   `json:"claimed"`
}

// LeaderboardEntry is one ranked learner.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
}

// GamificationProfile is the learner's overall standing.
type GamificationProfile struct {
	TotalPoints     int         `json:"totalPoints"`
	Level           int         `json:"level"`
	LevelTitle      string      `json:"levelTitle"`
	PointsToNext    int         `json:"pointsToNextLevel"`
	LevelProgress   float64     `json:"levelProgress"`
	CurrentStreak   int         `json:"currentStreak"`
	LongestStreak   int         `json:"longestStreak"`
	Badges          []UserBadge `json:"badges"`
	WeeklyPoints    int         `json:"weeklyPoints"`
	LastActivityDay string      `json:"lastActivityDay,omitempty"`
}

// Award is the outcome of granting points for an activity.
type Award struct {
	Points       int         `json:"points"`
	Multiplier   float64     `json:"multiplier"`
	TotalPoints  int         `json:"totalPoints"`
	Level        int         `json:"level"`
	LeveledUp    bool        `json:"leveledUp"`
	LevelUpBonus int         `json:"levelUpBonus,omitempty"`
	NewBadges    []UserBadge `json:"newBadges"`
}
