package gamification

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/store"
)

// Publisher receives awards for delivery to connected clients.
type Publisher interface {
	PublishAward(userID string, award models.Award)
}

// Leaderboard periods.
const (
	PeriodWeekly  = "weekly"
	PeriodAllTime = "all_time"
)

// Service records points and derives the learner's standing from the ledger.
type Service struct {
	db     *store.DB
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time

	locks sync.Map // user id -> *sync.Mutex; awards read then extend the ledger
}

// NewService returns a Service. pub may be nil.
func NewService(db *store.DB, pub Publisher, logger *slog.Logger) *Service {
	return &Service{db: db, pub: pub, logger: logger, now: time.Now}
}

// lock serialises ledger updates for one learner so a level threshold is
// crossed, and its bonus paid, exactly once.
func (s *Service) lock(userID string) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func dayStart(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// streakIncludingToday treats the activity being awarded as today's activity.
func (s *Service) streakIncludingToday(userID string) (current, longest int, err error) {
	days, err := s.db.ActivityDays(userID)
	if err != nil {
		return 0, 0, err
	}
	now := s.now()
	today := now.UTC().Format(time.DateOnly)
	if len(days) == 0 || days[0] != today {
		days = append([]string{today}, days...)
	}
	current, longest = Streak(days, now)
	return current, longest, nil
}

func (s *Service) tx(userID, source string, points int, desc string) models.PointTransaction {
	return models.PointTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Source:      source,
		Points:      points,
		Description: desc,
		CreatedAt:   s.now().UTC(),
	}
}

// Award grants points for a, applies level-up bonuses, unlocks badges and
// publishes the result.
func (s *Service) Award(userID string, a Activity) (*models.Award, error) {
	if a.BasePoints <= 0 {
		return nil, apperr.Invalid("points", "must be positive")
	}
	defer s.lock(userID)()
	return s.award(userID, a, nil)
}

// award does the work of Award with the learner's lock held. A non-nil claim
// is recorded atomically with the points.
func (s *Service) award(userID string, a Activity, claim *store.Claim) (*models.Award, error) {
	before, err := s.db.PointsSince(userID, time.Time{})
	if err != nil {
		return nil, err
	}
	streak, _, err := s.streakIncludingToday(userID)
	if err != nil {
		return nil, err
	}

	award := &models.Award{
		Multiplier: Multiplier(a, streak),
		Points:     Points(a, streak),
		NewBadges:  []models.UserBadge{},
	}
	desc := a.Description
	if desc == "" {
		desc = a.Source
	}
	txs := []models.PointTransaction{s.tx(userID, a.Source, award.Points, desc)}
	total := before + award.Points
	startLevel := LevelFor(before).Level

	levelUp := func(from int) {
		if reached := LevelFor(total).Level; reached > from {
			bonus := LevelUpBonus(reached)
			award.LevelUpBonus += bonus
			total += bonus
			txs = append(txs, s.tx(userID, models.SourceLevelUp, bonus, fmt.Sprintf("레벨 %d 달성", reached)))
		}
	}
	levelUp(startLevel)

	// Persist before evaluating badges so streak and counts see this activity.
	if err := s.db.RecordAward(claim, txs); err != nil {
		return nil, err
	}
	txs = txs[:0]

	badgeLevel := LevelFor(total).Level
	stats, err := s.stats(userID, streak, badgeLevel)
	if err != nil {
		return nil, err
	}
	earned, err := s.db.BadgesEarned(userID)
	if err != nil {
		return nil, err
	}
	for _, def := range Badges {
		if _, ok := earned[def.ID]; ok || !def.Unlocked(stats) {
			continue
		}
		inserted, err := s.db.AwardBadge(userID, def.ID)
		if err != nil {
			return nil, err
		}
		if !inserted {
			continue
		}
		award.NewBadges = append(award.NewBadges, models.UserBadge{Badge: def.Badge, EarnedAt: s.now().UTC()})
		if def.Reward > 0 {
			total += def.Reward
			txs = append(txs, s.tx(userID, models.SourceBadge, def.Reward, "배지 획득: "+def.NameKorean))
		}
	}
	levelUp(badgeLevel)
	if len(txs) > 0 {
		if err := s.db.InsertTransactions(txs); err != nil {
			return nil, err
		}
	}

	award.TotalPoints = total
	award.Level = LevelFor(total).Level
	award.LeveledUp = award.Level > startLevel

	s.logger.Debug("points awarded",
		slog.String("user_id", userID),
		slog.String("source", a.Source),
		slog.Int("points", award.Points),
		slog.Int("total", total))
	if s.pub != nil {
		s.pub.PublishAward(userID, *award)
	}
	return award, nil
}

func (s *Service) stats(userID string, streak, level int) (Stats, error) {
	st := Stats{Streak: streak, Level: level}
	var err error
	if st.LearnedCards, err = s.db.LearnedCardCount(userID); err != nil {
		return st, err
	}
	if st.CorrectTerms, err = s.db.CorrectTermAttempts(userID); err != nil {
		return st, err
	}
	total, correct, _, err := s.db.ReviewCounts(userID, time.Time{})
	if err != nil {
		return st, err
	}
	st.Reviews = total
	if total > 0 {
		st.Accuracy = float64(correct) / float64(total) * 100
	}
	loc := time.UTC
	if u, err := s.db.UserByID(userID); err == nil {
		if l, err := time.LoadLocation(u.Timezone); err == nil {
			loc = l
		}
	}
	st.Night = IsNight(s.now(), loc)
	return st, nil
}

// Profile returns the learner's points, level, streaks and badges.
func (s *Service) Profile(userID string) (*models.GamificationProfile, error) {
	total, err := s.db.PointsSince(userID, time.Time{})
	if err != nil {
		return nil, err
	}
	weekly, err := s.db.PointsSince(userID, s.now().Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	days, err := s.db.ActivityDays(userID)
	if err != nil {
		return nil, err
	}
	current, longest := Streak(days, s.now())
	earned, err := s.db.BadgesEarned(userID)
	if err != nil {
		return nil, err
	}

	lvl := LevelFor(total)
	toNext, frac := LevelProgress(total)
	p := &models.GamificationProfile{
		TotalPoints:   total,
		Level:         lvl.Level,
		LevelTitle:    lvl.Title,
		PointsToNext:  toNext,
		LevelProgress: frac,
		CurrentStreak: current,
		LongestStreak: longest,
		WeeklyPoints:  weekly,
		Badges:        []models.UserBadge{},
	}
	if len(days) > 0 {
		p.LastActivityDay = days[0]
	}
	for _, def := range Badges {
		if at, ok := earned[def.ID]; ok {
			p.Badges = append(p.Badges, models.UserBadge{Badge: def.Badge, EarnedAt: at})
		}
	}
	slices.SortFunc(p.Badges, func(a, b models.UserBadge) int { return a.EarnedAt.Compare(b.EarnedAt) })
	return p, nil
}

// Streak returns the learner's current and longest streaks.
func (s *Service) Streak(userID string) (current, longest int, err error) {
	days, err := s.db.ActivityDays(userID)
	if err != nil {
		return 0, 0, err
	}
	current, longest = Streak(days, s.now())
	return current, longest, nil
}

// Achievements lists every badge with the learner's progress towards it.
func (s *Service) Achievements(userID string) ([]models.BadgeProgress, error) {
	total, err := s.db.PointsSince(userID, time.Time{})
	if err != nil {
		return nil, err
	}
	current, _, err := s.Streak(userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats(userID, current, LevelFor(total).Level)
	if err != nil {
		return nil, err
	}
	stats.Night = false
	earned, err := s.db.BadgesEarned(userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.BadgeProgress, 0, len(Badges))
	for _, def := range Badges {
		bp := models.BadgeProgress{Badge: def.Badge, Current: def.Current(stats)}
		if at, ok := earned[def.ID]; ok {
			bp.Earned, bp.EarnedAt = true, &at
			bp.Current = max(bp.Current, def.Threshold)
		}
		bp.Progress = min(float64(bp.Current)/float64(def.Threshold), 1)
		out = append(out, bp)
	}
	return out, nil
}

// Challenges returns today's challenges with the learner's progress.
func (s *Service) Challenges(userID string) ([]models.Challenge, error) {
	now := s.now()
	start := dayStart(now)
	reviews, _, learned, err := s.db.ReviewCounts(userID, start)
	if err != nil {
		return nil, err
	}
	lessons, err := s.db.LessonsCompletedSince(userID, start)
	if err != nil {
		return nil, err
	}
	terms, err := s.db.TermAttemptsSince(userID, start)
	if err != nil {
		return nil, err
	}
	claims, err := s.db.ClaimsForDay(userID, now.UTC().Format(time.DateOnly))
	if err != nil {
		return nil, err
	}

	progress := map[string]int{
		ChallengeReviews:  reviews,
		ChallengeLessons:  lessons,
		ChallengeTerms:    terms,
		ChallengeNewWords: learned,
	}
	out := make([]models.Challenge, len(DailyChallenges))
	for i, c := range DailyChallenges {
		c.Current = min(progress[c.Kind], c.Target)
		c.Completed = progress[c.Kind] >= c.Target
		c.Claimed = claims[c.ID]
		out[i] = c
	}
	return out, nil
}

// ClaimChallenge grants a completed challenge's reward once per day.
func (s *Service) ClaimChallenge(userID, challengeID string) (*models.Award, error) {
	defer s.lock(userID)()
	list, err := s.Challenges(userID)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(list, func(c models.Challenge) bool { return c.ID == challengeID })
	if idx < 0 {
		return nil, apperr.ErrNotFound
	}
	c := list[idx]
	if !c.Completed {
		return nil, fmt.Errorf("%w: challenge %s not completed (%d/%d)", apperr.ErrConflict, c.ID, c.Current, c.Target)
	}
	if c.Claimed {
		return nil, fmt.Errorf("%w: challenge %s already claimed today", apperr.ErrConflict, c.ID)
	}
	claim := &store.Claim{UserID: userID, ChallengeID: c.ID, Day: s.now().UTC().Format(time.DateOnly)}
	return s.award(userID, Activity{
		Source:      models.SourceChallenge,
		BasePoints:  c.Reward,
		Description: "도전과제 완료: " + c.TitleKorean,
		Flat:        true,
	}, claim)
}

// Leaderboard ranks learners by points for period.
func (s *Service) Leaderboard(period string, limit int) ([]models.LeaderboardEntry, error) {
	var since time.Time
	switch period {
	case PeriodWeekly:
		since = s.now().Add(-7 * 24 * time.Hour)
	case PeriodAllTime, "":
	default:
		return nil, apperr.Invalid("period", "must be weekly or all_time")
	}
	rows, err := s.db.Leaderboard(since, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		total := r.Points
		if !since.IsZero() {
			if total, err = s.db.PointsSince(r.UserID, time.Time{}); err != nil {
				return nil, err
			}
		}
		out = append(out, models.LeaderboardEntry{
			Rank:   i + 1,
			UserID: r.UserID,
			Name:   r.Name,
			Points: r.Points,
			Level:  LevelFor(total).Level,
		})
	}
	return out, nil
}

// RecentActivity returns the learner's newest ledger entries.
func (s *Service) RecentActivity(userID string, limit int) ([]models.PointTransaction, error) {
	return s.db.RecentTransactions(userID, limit)
}
