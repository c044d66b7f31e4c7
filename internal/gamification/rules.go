// Package gamification awards points, levels, badges and daily challenges.
package gamification

import (
	"math"
	"time"

	"github.com/starford/hunlearn/internal/models"
)

// Level is a step of the level table.
type Level struct {
	Level    int    `json:"level"`
	Required int    `json:"requiredPoints"`
	Title    string `json:"title"`
}

// Levels is the level table in ascending order.
var Levels = []Level{
	{1, 0, "새싹 학습자"},
	{2, 100, "호기심 많은 탐험가"},
	{3, 300, "열정적인 학생"},
	{4, 600, "성실한 수행자"},
	{5, 1000, "노련한 학습자"},
	{6, 1500, "헝가리어 애호가"},
	{7, 2100, "실력있는 화자"},
	{8, 2800, "능숙한 의사소통자"},
	{9, 3600, "헝가리어 전문가"},
	{10, 4500, "언어의 마스터"},
}

// LevelFor returns the level reached with points.
func LevelFor(points int) Level {
	cur := Levels[0]
	for _, l := range Levels {
		if points >= l.Required {
			cur = l
		}
	}
	return cur
}

// LevelProgress returns points missing to the next level and the fraction of
// the current level completed. At the top level it returns 0 and 1.
func LevelProgress(points int) (toNext int, fraction float64) {
	cur := LevelFor(points)
	if cur.Level >= len(Levels) {
		return 0, 1
	}
	next := Levels[cur.Level]
	span := next.Required - cur.Required
	return next.Required - points, float64(points-cur.Required) / float64(span)
}

// LevelUpBonus is granted once when a learner reaches level.
func LevelUpBonus(level int) int {
	return level * 50
}

// Activity describes something a learner did that earns points.
type Activity struct {
	Source      string
	BasePoints  int
	Description string
	// Accuracy is a percentage; zero means not applicable.
	Accuracy    float64
	FirstTry    bool
	Theological bool
	// Flat skips every multiplier.
	Flat bool
}

// Multiplier is the product of the bonuses that apply to a with the given streak.
func Multiplier(a Activity, streak int) float64 {
	if a.Flat {
		return 1
	}
	m := 1.0
	switch {
	case streak >= 7:
		m *= 1.5
	case streak >= 3:
		m *= 1.25
	}
	switch {
	case a.Accuracy >= 95:
		m *= 1.3
	case a.Accuracy >= 85:
		m *= 1.15
	}
	if a.FirstTry {
		m *= 2
	}
	if a.Theological {
		m *= 1.2
	}
	return m
}

// Points applies the multiplier to the base points, rounding to the nearest point.
func Points(a Activity, streak int) int {
	return int(math.Round(float64(a.BasePoints) * Multiplier(a, streak)))
}

// Streak computes the current and longest runs of consecutive days. days are
// YYYY-MM-DD strings, newest first. The current streak is zero unless its last
// day is today or yesterday.
func Streak(days []string, today time.Time) (current, longest int) {
	dates := make([]time.Time, 0, len(days))
	for _, d := range days {
		if t, err := time.Parse(time.DateOnly, d); err == nil {
			dates = append(dates, t)
		}
	}
	if len(dates) == 0 {
		return 0, 0
	}
	run := 0
	for i, t := range dates {
		if i > 0 && dates[i-1].Sub(t) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		// still inside the run that starts at the newest day
		if i == run-1 {
			current = run
		}
		longest = max(longest, run)
	}
	if today.UTC().Truncate(24*time.Hour).Sub(dates[0]) > 24*time.Hour {
		current = 0
	}
	return current, longest
}

// Badge metrics.
const (
	MetricStreak       = "streak"
	MetricVocabulary   = "vocabulary"
	MetricTheological  = "theological"
	MetricAccuracy     = "accuracy"
	MetricLevel        = "level"
	MetricNightSession = "night"
)

// BadgeDef is a badge with its unlock rule and point reward.
type BadgeDef struct {
	models.Badge
	Metric string
	Reward int
}

// Badges lists every badge.
var Badges = []BadgeDef{
	{models.Badge{ID: "streak_3_days", Name: "Kitartó kezdet", NameKorean: "꾸준한 시작", Description: "3일 연속 학습", Category: "streak", Threshold: 3, Rarity: "common"}, MetricStreak, 50},
	{models.Badge{ID: "streak_7_days", Name: "A hét mestere", NameKorean: "한 주의 달인", Description: "7일 연속 학습", Category: "streak", Threshold: 7, Rarity: "rare"}, MetricStreak, 100},
	{models.Badge{ID: "streak_30_days", Name: "Vasakarat", NameKorean: "철의 의지", Description: "30일 연속 학습", Category: "streak", Threshold: 30, Rarity: "legendary"}, MetricStreak, 300},
	{models.Badge{ID: "vocab_master_100", Name: "Szógyűjtő", NameKorean: "어휘 수집가", Description: "단어 100개 학습", Category: "vocabulary", Threshold: 100, Rarity: "rare"}, MetricVocabulary, 100},
	{models.Badge{ID: "vocab_master_500", Name: "A szavak királya", NameKorean: "어휘의 제왕", Description: "단어 500개 학습", Category: "vocabulary", Threshold: 500, Rarity: "epic"}, MetricVocabulary, 500},
	{models.Badge{ID: "theological_scholar", Name: "Teológus", NameKorean: "신학도", Description: "신학 용어 50회 정답", Category: "theological", Threshold: 50, Rarity: "rare"}, MetricTheological, 200},
	{models.Badge{ID: "sermon_master", Name: "Az igehirdető útja", NameKorean: "설교자의 길", Description: "신학 용어 200회 정답", Category: "theological", Threshold: 200, Rarity: "legendary"}, MetricTheological, 1000},
	{models.Badge{ID: "accuracy_master", Name: "A pontosság mestere", NameKorean: "정확성의 달인", Description: "복습 정확도 90% 이상 (최소 20회)", Category: "accuracy", Threshold: 90, Rarity: "epic"}, MetricAccuracy, 300},
	{models.Badge{ID: "night_owl", Name: "Éjjeli bagoly", NameKorean: "올빼미 학습자", Description: "밤 10시부터 새벽 4시 사이 학습", Category: "special", Threshold: 1, Rarity: "common"}, MetricNightSession, 150},
	{models.Badge{ID: "level_5", Name: "Tapasztalt tanuló", NameKorean: "노련한 학습자", Description: "레벨 5 달성", Category: "level", Threshold: 5, Rarity: "rare"}, MetricLevel, 0},
}

// AccuracyBadgeMinReviews is the number of reviews needed before accuracy counts.
const AccuracyBadgeMinReviews = 20

// Stats are the learner figures badges are measured against.
type Stats struct {
	Streak       int
	LearnedCards int
	CorrectTerms int
	Reviews      int
	Accuracy     float64
	Level        int
	Night        bool
}

// Current returns the learner's value for the badge's metric.
func (b BadgeDef) Current(s Stats) int {
	switch b.Metric {
	case MetricStreak:
		return s.Streak
	case MetricVocabulary:
		return s.LearnedCards
	case MetricTheological:
		return s.CorrectTerms
	case MetricAccuracy:
		if s.Reviews < AccuracyBadgeMinReviews {
			return 0
		}
		return int(math.Floor(s.Accuracy))
	case MetricLevel:
		return s.Level
	case MetricNightSession:
		if s.Night {
			return 1
		}
	}
	return 0
}

// Unlocked reports whether s meets the badge threshold.
func (b BadgeDef) Unlocked(s Stats) bool {
	return b.Current(s) >= b.Threshold
}

// IsNight reports whether t falls between 22:00 and 04:00 in loc.
func IsNight(t time.Time, loc *time.Location) bool {
	h := t.In(loc).Hour()
	return h >= 22 || h < 4
}

// Challenge kinds.
const (
	ChallengeReviews  = "reviews"
	ChallengeLessons  = "lessons"
	ChallengeTerms    = "terms"
	ChallengeNewWords = "new_words"
)

// DailyChallenges are offered every day.
var DailyChallenges = []models.Challenge{
	{ID: "daily_review_20", Title: "Napi ismétlés", TitleKorean: "오늘의 복습", Kind: ChallengeReviews, Target: 20, Reward: 50},
	{ID: "daily_lesson_1", Title: "Napi lecke", TitleKorean: "오늘의 문법 레슨", Kind: ChallengeLessons, Target: 1, Reward: 40},
	{ID: "daily_terms_10", Title: "Teológiai szavak", TitleKorean: "신학 용어 연습", Kind: ChallengeTerms, Target: 10, Reward: 30},
	{ID: "daily_vocabulary_challenge", Title: "A nap szókincse", TitleKorean: "오늘의 어휘 마스터", Kind: ChallengeNewWords, Target: 10, Reward: 100},
}
