package analytics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/hunlearn/internal/analytics"
	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/curriculum"
	"github.com/starford/hunlearn/internal/fsrs"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/testutil"
	"github.com/starford/hunlearn/internal/vocabulary"
)

type fixture struct {
	svc   *analytics.Service
	vocab *vocabulary.Service
	clock *testutil.Clock
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.TestDB(t)
	clock := testutil.FixedClock(db)
	cat := testutil.TestContent(t, db)
	testutil.CreateUser(t, db, "u1", "u1@example.com")
	logger := testutil.Logger()

	game := gamification.NewService(db, nil, logger)
	game.SetClock(clock.Now)
	vocab := vocabulary.NewService(db, fsrs.Default(), game, logger)
	vocab.SetClock(clock.Now)
	cur := curriculum.NewService(db, cat, game, logger)
	svc := analytics.NewService(db, vocab, cur, game, logger)
	svc.SetClock(clock.Now)
	return fixture{svc: svc, vocab: vocab, clock: clock}
}

func (f fixture) practice(t *testing.T, card string, r fsrs.Rating) {
	t.Helper()
	if _, err := f.vocab.Practice("u1", vocabulary.PracticeInput{CardID: card, Rating: r, ResponseTimeMs: 1000}); err != nil {
		t.Fatalf("Practice %s: %v", card, err)
	}
}

func TestDashboard(t *testing.T) {
	f := setup(t)

	st, err := f.svc.Dashboard("u1")
	if err != nil {
		t.Fatal(err)
	}
	if st.CardsStudied != 0 || st.TotalPoints != 0 || st.TotalLessons != 4 {
		t.Errorf("empty dashboard = %+v", st)
	}
	if _, ok := st.Sermons[models.DraftStatusDraft]; !ok {
		t.Errorf("sermon counts missing statuses: %v", st.Sermons)
	}

	f.practice(t, "seed-isten", fsrs.Good)
	f.practice(t, "seed-templom", fsrs.Again)

	st, err = f.svc.Dashboard("u1")
	if err != nil {
		t.Fatal(err)
	}
	if st.CardsStudied != 2 || st.Accuracy != 50 || st.TotalPoints != 24 || st.CurrentStreak != 1 {
		t.Errorf("dashboard = %+v", st)
	}

	acts, err := f.svc.RecentActivities("u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 1 || acts[0].Source != models.SourceReview {
		t.Errorf("activities = %+v", acts)
	}

	badges, err := f.svc.Achievements("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(badges) != len(gamification.Badges) {
		t.Errorf("achievements = %d, want %d", len(badges), len(gamification.Badges))
	}
}

func TestRecommendations(t *testing.T) {
	f := setup(t)

	recs, err := f.svc.Recommendations("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Type != "lesson" || recs[0].Target != "A1-01-01" || recs[1].Type != "sermon" {
		t.Fatalf("new learner recommendations = %+v", recs)
	}

	f.practice(t, "seed-templom", fsrs.Again)
	f.clock.Advance(48 * time.Hour)

	recs, err = f.svc.Recommendations("u1")
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Type != "review" || recs[0].Priority != "high" {
		t.Errorf("first recommendation = %+v, want due reviews", recs[0])
	}
}

func TestOverview(t *testing.T) {
	f := setup(t)

	if _, err := f.svc.Overview("u1", "1y"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad period err = %v", err)
	}

	f.practice(t, "seed-isten", fsrs.Good)
	f.practice(t, "seed-templom", fsrs.Again)

	ov, err := f.svc.Overview("u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if ov.Period != "7d" || len(ov.Days) != 7 {
		t.Fatalf("overview period %s with %d days", ov.Period, len(ov.Days))
	}
	today := ov.Days[6]
	if today.Date != "2026-03-10" || today.Reviews != 2 || today.Accuracy != 50 {
		t.Errorf("today = %+v", today)
	}
	if ov.TotalReviews != 2 || ov.AverageResponse != 1000 {
		t.Errorf("totals = %d reviews, %d ms", ov.TotalReviews, ov.AverageResponse)
	}
	if len(ov.Retention) != 4 {
		t.Fatalf("retention = %+v", ov.Retention)
	}
	for i := 1; i < len(ov.Retention); i++ {
		r := ov.Retention[i]
		if r.Retention <= 0 || r.Retention > ov.Retention[i-1].Retention {
			t.Errorf("retention not decreasing: %+v", ov.Retention)
		}
	}

	month, err := f.svc.Overview("u1", "30d")
	if err != nil {
		t.Fatal(err)
	}
	if len(month.Days) != 30 || month.Days[29].Reviews != 2 {
		t.Errorf("30d overview = %d days", len(month.Days))
	}
}
