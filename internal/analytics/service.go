// Package analytics builds the dashboard and learning overview from the
// other services' data.
package analytics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/curriculum"
	"github.com/starford/hunlearn/internal/fsrs"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/store"
	"github.com/starford/hunlearn/internal/vocabulary"
)

// Periods accepted by Overview, in days.
var periods = map[string]int{"7d": 7, "30d": 30, "90d": 90}

// Recommendations flag a word class as weak below this accuracy once it has
// enough reviews.
const (
	weakAccuracy   = 70
	weakMinReviews = 5
	weakClasses    = 3
)

var retentionDays = []int{1, 7, 14, 30}

// DashboardStats is the headline summary of a learner.
type DashboardStats struct {
	CardsStudied     int            `json:"cardsStudied"`
	DueToday         int            `json:"dueToday"`
	Accuracy         float64        `json:"accuracy"`
	CurrentStreak    int            `json:"currentStreak"`
	LongestStreak    int            `json:"longestStreak"`
	TotalPoints      int            `json:"totalPoints"`
	WeeklyPoints     int            `json:"weeklyPoints"`
	Level            int            `json:"level"`
	LevelTitle       string         `json:"levelTitle"`
	LevelProgress    float64        `json:"levelProgress"`
	LessonsCompleted int            `json:"lessonsCompleted"`
	TotalLessons     int            `json:"totalLessons"`
	Sermons          map[string]int `json:"sermonsByStatus"`
}

// Recommendation is a suggested next action.
type Recommendation struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Target      string `json:"target,omitempty"`
}

// DayStat is one day of review activity.
type DayStat struct {
	Date     string  `json:"date"`
	Reviews  int     `json:"reviews"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// RetentionPoint is the expected average recall after Days more days.
type RetentionPoint struct {
	Days      int     `json:"days"`
	Retention float64 `json:"retention"`
}

// Overview is the learning analytics for a period.
type Overview struct {
	Period          string                    `json:"period"`
	Days            []DayStat                 `json:"days"`
	TotalReviews    int                       `json:"totalReviews"`
	Accuracy        float64                   `json:"accuracy"`
	AverageResponse int                       `json:"averageResponseMs"`
	WeakWordClasses []store.WordClassAccuracy `json:"weakWordClasses"`
	Retention       []RetentionPoint          `json:"retentionForecast"`
}

// Service composes the dashboard.
type Service struct {
	db         *store.DB
	vocab      *vocabulary.Service
	curriculum *curriculum.Service
	game       *gamification.Service
	logger     *slog.Logger
	now        func() time.Time
}

// NewService returns a Service.
func NewService(db *store.DB, vocab *vocabulary.Service, cur *curriculum.Service, game *gamification.Service, logger *slog.Logger) *Service {
	return &Service{db: db, vocab: vocab, curriculum: cur, game: game, logger: logger, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Dashboard returns the learner's headline numbers.
func (s *Service) Dashboard(userID string) (*DashboardStats, error) {
	vs, err := s.vocab.Stats(userID)
	if err != nil {
		return nil, err
	}
	studied, err := s.db.LearnedCardCount(userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.game.Profile(userID)
	if err != nil {
		return nil, err
	}
	progress, err := s.curriculum.Progress(userID)
	if err != nil {
		return nil, err
	}
	sermons, err := s.db.DraftStatusCounts(userID)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		CardsStudied:     studied,
		DueToday:         vs.DueToday,
		Accuracy:         vs.Accuracy,
		CurrentStreak:    profile.CurrentStreak,
		LongestStreak:    profile.LongestStreak,
		TotalPoints:      profile.TotalPoints,
		WeeklyPoints:     profile.WeeklyPoints,
		Level:            profile.Level,
		LevelTitle:       profile.LevelTitle,
		LevelProgress:    profile.LevelProgress,
		LessonsCompleted: progress.CompletedLessons,
		TotalLessons:     progress.TotalLessons,
		Sermons:          sermons,
	}, nil
}

// RecentActivities returns the newest point transactions.
func (s *Service) RecentActivities(userID string, limit int) ([]models.PointTransaction, error) {
	limit, _ = store.Page(limit, 0, 10, 50)
	return s.game.RecentActivity(userID, limit)
}

// Achievements lists every badge with the learner's progress towards it.
func (s *Service) Achievements(userID string) ([]models.BadgeProgress, error) {
	return s.game.Achievements(userID)
}

// Recommendations suggests next actions, most urgent first.
func (s *Service) Recommendations(userID string) ([]Recommendation, error) {
	out := []Recommendation{}

	vs, err := s.vocab.Stats(userID)
	if err != nil {
		return nil, err
	}
	if vs.DueToday > 0 {
		out = append(out, Recommendation{
			Type:        "review",
			Title:       "복습할 단어가 있습니다",
			Description: fmt.Sprintf("오늘 복습할 카드 %d개", vs.DueToday),
			Priority:    "high",
		})
	}

	progress, err := s.curriculum.Progress(userID)
	if err != nil {
		return nil, err
	}
	if next := progress.NextLesson; next != nil {
		out = append(out, Recommendation{
			Type:        "lesson",
			Title:       "다음 문법 레슨",
			Description: next.TitleKorean,
			Priority:    "medium",
			Target:      next.ID,
		})
	}

	classes, err := s.db.AccuracyByWordClass(userID)
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		if c.Reviews >= weakMinReviews && c.Accuracy < weakAccuracy {
			out = append(out, Recommendation{
				Type:        "weak_words",
				Title:       "약한 품사 집중 연습",
				Description: fmt.Sprintf("%s 정확도 %.0f%%", c.WordClass, c.Accuracy),
				Priority:    "medium",
				Target:      c.WordClass,
			})
			break
		}
	}

	sermons, err := s.db.DraftStatusCounts(userID)
	if err != nil {
		return nil, err
	}
	if n := sermons[models.DraftStatusDraft]; n > 0 {
		out = append(out, Recommendation{
			Type:        "sermon",
			Title:       "작성 중인 설교문",
			Description: fmt.Sprintf("완성하지 않은 설교문 %d편", n),
			Priority:    "low",
		})
	} else if sermons[models.DraftStatusCompleted] == 0 {
		out = append(out, Recommendation{
			Type:        "sermon",
			Title:       "첫 설교문 쓰기",
			Description: "템플릿으로 헝가리어 설교문을 시작해 보세요",
			Priority:    "low",
		})
	}
	return out, nil
}

// Overview returns review activity, weak word classes and a retention
// forecast for period (7d, 30d or 90d; empty means 7d).
func (s *Service) Overview(userID, period string) (*Overview, error) {
	if period == "" {
		period = "7d"
	}
	days, ok := periods[period]
	if !ok {
		return nil, apperr.Invalid("period", "must be one of 7d, 30d, 90d")
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))
	logs, err := s.db.ReviewLogsSince(userID, start)
	if err != nil {
		return nil, err
	}

	out := &Overview{Period: period, Days: make([]DayStat, days), WeakWordClasses: []store.WordClassAccuracy{}}
	for i := range out.Days {
		out.Days[i].Date = start.AddDate(0, 0, i).Format(time.DateOnly)
	}
	var correct, responseMs int
	for _, l := range logs {
		i := int(l.ReviewedAt.UTC().Sub(start).Hours() / 24)
		if i < 0 || i >= days {
			continue
		}
		out.Days[i].Reviews++
		out.TotalReviews++
		responseMs += l.ResponseTimeMs
		if l.Rating > fsrs.Again {
			out.Days[i].Correct++
			correct++
		}
	}
	for i := range out.Days {
		if d := &out.Days[i]; d.Reviews > 0 {
			d.Accuracy = float64(d.Correct) / float64(d.Reviews) * 100
		}
	}
	if out.TotalReviews > 0 {
		out.Accuracy = float64(correct) / float64(out.TotalReviews) * 100
		out.AverageResponse = responseMs / out.TotalReviews
	}

	classes, err := s.db.AccuracyByWordClass(userID)
	if err != nil {
		return nil, err
	}
	out.WeakWordClasses = classes[:min(len(classes), weakClasses)]

	schedules, err := s.db.AllSchedules(userID)
	if err != nil {
		return nil, err
	}
	out.Retention = retention(schedules, s.now())
	return out, nil
}

// retention averages each reviewed card's recall probability at the given
// offsets from now.
func retention(progress []models.CardProgress, now time.Time) []RetentionPoint {
	out := make([]RetentionPoint, len(retentionDays))
	for i, d := range retentionDays {
		out[i].Days = d
	}
	var n int
	for _, p := range progress {
		c := p.Schedule
		if c.LastReview == nil || c.State == fsrs.StateNew {
			continue
		}
		n++
		elapsed := now.Sub(*c.LastReview).Hours() / 24
		for i, d := range retentionDays {
			out[i].Retention += fsrs.Retrievability(c, elapsed+float64(d))
		}
	}
	if n > 0 {
		for i := range out {
			out[i].Retention /= float64(n)
		}
	}
	return out
}
