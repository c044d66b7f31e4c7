package terms_test

import (
	"errors"
	"testing"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/store"
	"github.com/starford/hunlearn/internal/terms"
	"github.com/starford/hunlearn/internal/testutil"
)

func setup(t *testing.T) *terms.Service {
	t.Helper()
	db := testutil.TestDB(t)
	clock := testutil.FixedClock(db)
	testutil.TestContent(t, db)
	testutil.CreateUser(t, db, "u1", "u1@example.com")
	game := gamification.NewService(db, nil, testutil.Logger())
	game.SetClock(clock.Now)
	return terms.NewService(db, game, testutil.Logger())
}

func TestSearch(t *testing.T) {
	svc := setup(t)

	res, err := svc.Search(store.TermFilter{Query: "kegyelem"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total == 0 || res.Terms[0].Hungarian != "kegyelem" {
		t.Errorf("relevance search = %+v", res.Terms)
	}
	if res.Categories["SOTERIOLOGY"] == 0 {
		t.Errorf("category stats = %v", res.Categories)
	}

	res, err = svc.Search(store.TermFilter{Category: "SOTERIOLOGY", Sort: "alphabetical"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(res.Terms); i++ {
		if res.Terms[i].Category != "SOTERIOLOGY" {
			t.Errorf("term %s not in category", res.Terms[i].ID)
		}
	}

	bad := []store.TermFilter{
		{Limit: 101},
		{Sort: "random"},
		{Category: "MAGIC"},
		{Difficulty: "D1"},
	}
	for _, f := range bad {
		if _, err := svc.Search(f); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Search(%+v) err = %v, want ErrInvalidInput", f, err)
		}
	}
}

func TestGetResolvesRelated(t *testing.T) {
	svc := setup(t)
	d, err := svc.Get("term-kegyelem")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Related) != 2 {
		t.Errorf("related = %+v, want hit and üdvösség", d.Related)
	}
	if _, err := svc.Get("term-missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestDictionaryByLetter(t *testing.T) {
	svc := setup(t)
	list, total, err := svc.Dictionary("sz", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("sz terms = %d", total)
	}
	if list[0].Hungarian != "Szentháromság" || list[1].Hungarian != "Szentlélek" {
		t.Errorf("order = %s, %s", list[0].Hungarian, list[1].Hungarian)
	}
}

func TestProgressAndReview(t *testing.T) {
	svc := setup(t)

	if _, err := svc.RecordProgress("u1", terms.ProgressInput{TermID: "term-hit", Correct: true, ResponseTimeMs: 0, DifficultyPerceived: 2, Context: "recognition"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("zero response time err = %v", err)
	}
	if _, err := svc.RecordProgress("u1", terms.ProgressInput{TermID: "term-hit", Correct: true, ResponseTimeMs: 500, DifficultyPerceived: 6, Context: "recognition"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("difficulty 6 err = %v", err)
	}
	if _, err := svc.RecordProgress("u1", terms.ProgressInput{TermID: "term-nope", Correct: true, ResponseTimeMs: 500, DifficultyPerceived: 2, Context: "usage"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown term err = %v", err)
	}

	res, err := svc.RecordProgress("u1", terms.ProgressInput{TermID: "term-hit", Correct: true, ResponseTimeMs: 800, DifficultyPerceived: 2, Context: "recognition"})
	if err != nil {
		t.Fatal(err)
	}
	// 5 base, first try x2, theological x1.2.
	if !res.Mastered || res.Award == nil || res.Award.Points != 12 {
		t.Errorf("first answer = %+v award %+v", res.Progress, res.Award)
	}

	for _, correct := range []bool{false, false} {
		if _, err := svc.RecordProgress("u1", terms.ProgressInput{TermID: "term-kegyelem", Correct: correct, ResponseTimeMs: 900, DifficultyPerceived: 4, Context: "translation"}); err != nil {
			t.Fatal(err)
		}
	}

	sum, err := svc.Progress("u1")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Practiced != 2 || sum.Mastered != 1 || sum.TotalAttempts != 3 || sum.AverageMastery != 0.5 {
		t.Errorf("summary = %+v", sum)
	}

	review, err := svc.Review("u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(review) != 1 || review[0].ID != "term-kegyelem" {
		t.Errorf("review = %+v", review)
	}
}

func TestStatistics(t *testing.T) {
	svc := setup(t)
	st, err := svc.Statistics()
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 10 {
		t.Errorf("total = %d, want 10", st.Total)
	}
	sum := 0
	for _, n := range st.ByDifficulty {
		sum += n
	}
	if sum != st.Total {
		t.Errorf("difficulty counts sum to %d", sum)
	}
	if _, err := svc.ByCategory("NOPE"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad category err = %v", err)
	}
}
