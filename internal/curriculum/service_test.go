package curriculum_test

import (
	"errors"
	"testing"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/curriculum"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/testutil"
)

func setup(t *testing.T) *curriculum.Service {
	t.Helper()
	db := testutil.TestDB(t)
	clock := testutil.FixedClock(db)
	cat := testutil.TestContent(t, db)
	testutil.CreateUser(t, db, "u1", "u1@example.com")
	game := gamification.NewService(db, nil, testutil.Logger())
	game.SetClock(clock.Now)
	return curriculum.NewService(db, cat, game, testutil.Logger())
}

func TestLessonsUnlockStatus(t *testing.T) {
	svc := setup(t)

	list, err := svc.Lessons("u1", "A1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("A1 lessons = %d, want 3", len(list))
	}
	if !list[0].Unlocked || list[1].Unlocked || list[2].Unlocked {
		t.Errorf("unlock flags = %v %v %v", list[0].Unlocked, list[1].Unlocked, list[2].Unlocked)
	}
	if list[0].Exercises == 0 {
		t.Error("exercise count missing")
	}

	if _, err := svc.Lessons("u1", "Z1", ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad level err = %v", err)
	}

	cases, err := svc.Lessons("u1", "", "cases")
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 1 || cases[0].ID != "A2-01-01" {
		t.Errorf("cases lessons = %+v", cases)
	}

	if _, err := svc.Lesson("u1", "X1-01-01"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing lesson err = %v", err)
	}
}

func TestCheckExercise(t *testing.T) {
	svc := setup(t)

	res, err := svc.CheckExercise("A1-01-01", "ex1", "  Vagyunk. ")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Correct || res.Expected != "" {
		t.Errorf("correct answer = %+v", res)
	}

	res, err = svc.CheckExercise("A2-01-01", "ex1", "Bibliat")
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct || !res.AccentMismatch || res.Expected != "Bibliát" {
		t.Errorf("accent mismatch = %+v", res)
	}

	res, err = svc.CheckExercise("A1-01-01", "ex1", "vagytok")
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct || res.AccentMismatch || res.Hint == "" {
		t.Errorf("wrong answer = %+v", res)
	}

	if _, err := svc.CheckExercise("A1-01-01", "ex99", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing exercise err = %v", err)
	}
	if _, err := svc.CheckExercise("A1-01-01", "ex1", " "); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("blank answer err = %v", err)
	}
}

func TestCompleteRequiresPrerequisites(t *testing.T) {
	svc := setup(t)

	if _, err := svc.Complete("u1", "A1-01-02", curriculum.CompleteInput{Score: 80}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("locked lesson err = %v, want ErrConflict", err)
	}
	if _, err := svc.Complete("u1", "A1-01-01", curriculum.CompleteInput{Score: 120}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("score 120 err = %v", err)
	}

	res, err := svc.Complete("u1", "A1-01-01", curriculum.CompleteInput{Score: 100})
	if err != nil {
		t.Fatal(err)
	}
	// 30 base, accuracy 100 x1.3.
	if !res.FirstTime || res.Award == nil || res.Award.Points != 39 {
		t.Errorf("first completion = %+v award %+v", res, res.Award)
	}

	again, err := svc.Complete("u1", "A1-01-01", curriculum.CompleteInput{Score: 60})
	if err != nil {
		t.Fatal(err)
	}
	if again.FirstTime || again.Award != nil {
		t.Errorf("repeat completion = %+v", again)
	}
	if again.Progress.BestScore != 100 || again.Progress.Attempts != 2 {
		t.Errorf("progress = %+v", again.Progress)
	}

	d, err := svc.Lesson("u1", "A1-01-02")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Unlocked || d.Completed {
		t.Errorf("A1-01-02 = unlocked %v completed %v", d.Unlocked, d.Completed)
	}
}

func TestProgress(t *testing.T) {
	svc := setup(t)

	p, err := svc.Progress("u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalLessons != 4 || p.CompletedLessons != 0 || p.NextLesson == nil || p.NextLesson.ID != "A1-01-01" {
		t.Fatalf("initial progress = %+v", p)
	}

	for _, id := range []string{"A1-01-01", "A1-01-02"} {
		if _, err := svc.Complete("u1", id, curriculum.CompleteInput{Score: 70}); err != nil {
			t.Fatal(err)
		}
	}
	p, err = svc.Progress("u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.CompletedLessons != 2 || p.AverageScore != 70 {
		t.Errorf("progress = %+v", p)
	}
	if p.NextLesson == nil || p.NextLesson.ID != "A1-01-03" {
		t.Errorf("next lesson = %+v", p.NextLesson)
	}
	if len(p.Levels) != 2 || p.Levels[0].Level != "A1" || p.Levels[0].Completed != 2 {
		t.Errorf("levels = %+v", p.Levels)
	}
}
