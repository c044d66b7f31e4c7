package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/hunlearn/internal/models"
)

func answers(skill string, correct, total int) []models.AssessmentAnswer {
	out := make([]models.AssessmentAnswer, total)
	for i := range out {
		out[i] = models.AssessmentAnswer{SkillArea: skill, Correct: i < correct}
	}
	return out
}

func TestLevelThetaMapping(t *testing.T) {
	for _, lvl := range models.CEFRLevels {
		assert.Equal(t, lvl, ThetaToLevel(LevelToTheta(lvl)), lvl)
	}
	assert.Equal(t, models.LevelA2, ThetaToLevel(-0.6))
	assert.Equal(t, models.LevelB1, ThetaToLevel(-0.5))
	assert.Equal(t, models.LevelC2, ThetaToLevel(2.5))
}

func TestEstimateTheta(t *testing.T) {
	assert.Equal(t, 0.0, EstimateTheta(nil))
	assert.InDelta(t, 0.8440, EstimateTheta(answers("grammar", 7, 10)), 1e-3)
	assert.Equal(t, 3.0, EstimateTheta(answers("grammar", 10, 10)))
	assert.Equal(t, -3.0, EstimateTheta(answers("grammar", 0, 10)))
}

func TestStandardError(t *testing.T) {
	assert.Equal(t, 1.0, StandardError(4))
	assert.Equal(t, 0.5, StandardError(16))
}

func TestPrecision(t *testing.T) {
	assert.Equal(t, 1.0, Precision(answers("grammar", 2, 2)))
	assert.InDelta(t, 0.1, Precision(answers("grammar", 3, 5)), 1e-9)

	// Only the last five answers count.
	a := append(answers("grammar", 0, 5), answers("grammar", 5, 5)...)
	assert.InDelta(t, 0.5, Precision(a), 1e-9)
}

func TestTargetLevel(t *testing.T) {
	assert.Equal(t, models.LevelB1, TargetLevel(models.LevelB1, nil))
	assert.Equal(t, models.LevelB2, TargetLevel(models.LevelB1, answers("grammar", 3, 5)))
	assert.Equal(t, models.LevelC2, TargetLevel(models.LevelC2, answers("grammar", 3, 5)))
}

func TestSelectNext(t *testing.T) {
	bank := []models.AssessmentQuestion{
		{ID: "q1", Level: models.LevelA1},
		{ID: "q2", Level: models.LevelB1},
		{ID: "q3", Level: models.LevelB2},
		{ID: "q4", Level: models.LevelC2},
	}
	sess := &models.AssessmentSession{CurrentLevel: models.LevelB1}

	q, ok := SelectNext(bank, sess)
	require.True(t, ok)
	assert.Equal(t, "q2", q.ID)

	sess.Answers = append(sess.Answers, models.AssessmentAnswer{QuestionID: "q2"})
	q, ok = SelectNext(bank, sess)
	require.True(t, ok)
	assert.Equal(t, "q3", q.ID)

	// Nothing left near B1: fall back to the most informative remaining item.
	sess.Answers = append(sess.Answers, models.AssessmentAnswer{QuestionID: "q3"})
	q, ok = SelectNext(bank, sess)
	require.True(t, ok)
	assert.Equal(t, "q1", q.ID)

	sess.Answers = append(sess.Answers,
		models.AssessmentAnswer{QuestionID: "q1"},
		models.AssessmentAnswer{QuestionID: "q4"})
	_, ok = SelectNext(bank, sess)
	assert.False(t, ok)
}

func TestCheckAnswer(t *testing.T) {
	q := models.AssessmentQuestion{
		Options: []string{"mi", "ti", "ők", "Ön"},
		Answers: []string{"mi"},
	}
	assert.True(t, CheckAnswer(q, "Mi"))
	assert.True(t, CheckAnswer(q, "0"))
	assert.False(t, CheckAnswer(q, "1"))
	assert.False(t, CheckAnswer(q, "ti"))
}

func TestRecordUpdatesLevel(t *testing.T) {
	sess := &models.AssessmentSession{CurrentLevel: StartLevel()}
	for range 4 {
		Record(sess, models.AssessmentAnswer{Correct: true})
	}
	assert.Equal(t, 3.0, sess.Theta)
	assert.Equal(t, models.LevelC2, sess.CurrentLevel)
}

func TestDone(t *testing.T) {
	sess := &models.AssessmentSession{TotalQuestions: 20}

	sess.Answers = answers("grammar", 9, 9)
	assert.False(t, Done(sess), "below minimum")

	// Last five: 3 of 5 correct, precision 0.1.
	sess.Answers = append(answers("grammar", 5, 5), answers("grammar", 3, 5)...)
	assert.True(t, Done(sess), "settled estimate")

	sess.Answers = answers("grammar", 10, 10)
	assert.False(t, Done(sess), "all correct keeps probing")

	sess.Answers = answers("grammar", 20, 20)
	assert.True(t, Done(sess), "limit reached")

	short := &models.AssessmentSession{TotalQuestions: 5, Answers: answers("grammar", 9, 9)}
	assert.False(t, Done(short), "limit is raised to the minimum")
}

func TestClampQuestions(t *testing.T) {
	assert.Equal(t, DefaultQuestions, ClampQuestions(0))
	assert.Equal(t, MinQuestions, ClampQuestions(3))
	assert.Equal(t, MaxQuestions, ClampQuestions(100))
	assert.Equal(t, 15, ClampQuestions(15))
}

func TestScore(t *testing.T) {
	var a []models.AssessmentAnswer
	a = append(a, answers("grammar", 9, 10)...)
	a = append(a, answers("vocabulary", 2, 10)...)
	a = append(a, answers("reading", 1, 2)...)
	sess := &models.AssessmentSession{Answers: a}

	res := Score(sess)
	require.Len(t, res.Skills, 3)

	assert.Equal(t, "vocabulary", res.Skills[1].SkillArea)
	assert.Equal(t, models.LevelA1, res.Skills[1].Level)
	assert.InDelta(t, 67.0, res.Skills[1].Confidence, 1e-9)
	assert.Equal(t, "grammar", res.Skills[2].SkillArea)
	assert.Equal(t, models.LevelC2, res.Skills[2].Level)
	assert.InDelta(t, 91.5, res.Skills[2].Confidence, 1e-9)

	assert.Equal(t, models.LevelB1, res.OverallLevel)
	assert.Equal(t, []string{"vocabulary"}, res.FocusAreas)
	assert.Equal(t, 12, res.WeeklyStudyHours)
	assert.Equal(t, 11, res.TimelineMonths)
	assert.InDelta(t, 12.0/22*100, res.Accuracy, 1e-9)
	assert.Less(t, res.ConfidenceLow, res.Theta)
	assert.Greater(t, res.ConfidenceHigh, res.Theta)
}

func TestScoreEmpty(t *testing.T) {
	res := Score(&models.AssessmentSession{})
	assert.Equal(t, models.LevelB1, res.OverallLevel)
	assert.Empty(t, res.Skills)
	assert.Empty(t, res.FocusAreas)
}
