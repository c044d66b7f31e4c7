// Package assessment runs adaptive CEFR placement tests.
package assessment

import (
	"math"
	"slices"
	"strconv"

	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/textnorm"
)

// Question count limits.
const (
	DefaultQuestions = 20
	MinQuestions     = 10
	MaxQuestions     = 30

	startLevel         = models.LevelB1
	precisionThreshold = 0.3
	recentWindow       = 5
)

var levelTheta = map[string]float64{
	models.LevelA1: -2,
	models.LevelA2: -1,
	models.LevelB1: 0,
	models.LevelB2: 1,
	models.LevelC1: 2,
	models.LevelC2: 3,
}

var skillWeights = map[string]float64{
	"grammar":    0.25,
	"vocabulary": 0.25,
	"reading":    0.15,
	"writing":    0.15,
	"listening":  0.1,
	"speaking":   0.1,
}

// LevelToTheta maps a CEFR level onto the ability scale. Unknown levels map to B1.
func LevelToTheta(level string) float64 {
	return levelTheta[level]
}

// ThetaToLevel maps an ability estimate back to a CEFR level.
func ThetaToLevel(theta float64) string {
	switch {
	case theta < -1.5:
		return models.LevelA1
	case theta < -0.5:
		return models.LevelA2
	case theta < 0.5:
		return models.LevelB1
	case theta < 1.5:
		return models.LevelB2
	case theta < 2.5:
		return models.LevelC1
	default:
		return models.LevelC2
	}
}

// StartLevel is the level every session starts from.
func StartLevel() string { return startLevel }

// ClampQuestions bounds a requested question count, 0 meaning the default.
func ClampQuestions(n int) int {
	if n <= 0 {
		return DefaultQuestions
	}
	return min(max(n, MinQuestions), MaxQuestions)
}

// EstimateTheta is the logit of the correct rate, clamped to [-3, 3].
func EstimateTheta(answers []models.AssessmentAnswer) float64 {
	if len(answers) == 0 {
		return LevelToTheta(startLevel)
	}
	cr := correctRate(answers)
	return clamp(math.Log(cr/(1-cr+0.001)), -3, 3)
}

// StandardError of the estimate after n answers.
func StandardError(n int) float64 {
	if n == 0 {
		return math.Inf(1)
	}
	return 1 / math.Sqrt(float64(n)*0.25)
}

// Precision is 1 until three answers are in, then the distance of recent
// accuracy from 50%. Lower values mean the estimate has settled.
func Precision(answers []models.AssessmentAnswer) float64 {
	if len(answers) < 3 {
		return 1
	}
	recent := answers[max(0, len(answers)-recentWindow):]
	return math.Abs(0.5 - correctRate(recent))
}

// TargetLevel is the level the next item should be drawn around.
func TargetLevel(current string, answers []models.AssessmentAnswer) string {
	if Precision(answers) > 0.5 {
		return current
	}
	return nextLevel(current)
}

// ItemInformation is the Fisher information of a 1PL item of difficulty b at theta.
func ItemInformation(theta, b float64) float64 {
	p := 1 / (1 + math.Exp(-(theta - b)))
	return p * (1 - p)
}

// SelectNext picks the unused question with the most information within one
// level of the target. It falls back to any unused question when none is in range.
func SelectNext(bank []models.AssessmentQuestion, sess *models.AssessmentSession) (models.AssessmentQuestion, bool) {
	asked := sess.AskedIDs()
	target := models.LevelIndex(TargetLevel(sess.CurrentLevel, sess.Answers))
	theta := LevelToTheta(sess.CurrentLevel)

	var inRange, rest []models.AssessmentQuestion
	for _, q := range bank {
		if _, ok := asked[q.ID]; ok {
			continue
		}
		idx := models.LevelIndex(q.Level)
		if idx >= 0 && abs(idx-target) <= 1 {
			inRange = append(inRange, q)
		} else {
			rest = append(rest, q)
		}
	}
	candidates := inRange
	if len(candidates) == 0 {
		candidates = rest
	}
	if len(candidates) == 0 {
		return models.AssessmentQuestion{}, false
	}

	best, bestInfo := 0, -1.0
	for i, q := range candidates {
		info := ItemInformation(theta, LevelToTheta(q.Level))
		if info > bestInfo {
			best, bestInfo = i, info
		}
	}
	return candidates[best], true
}

// CheckAnswer reports whether answer is accepted for q. Multiple choice items
// accept the option text or its zero-based index.
func CheckAnswer(q models.AssessmentQuestion, answer string) bool {
	if textnorm.Compare(answer, q.Answers) == textnorm.Exact {
		return true
	}
	for i, opt := range q.Options {
		if answer == strconv.Itoa(i) && textnorm.Compare(opt, q.Answers) == textnorm.Exact {
			return true
		}
	}
	return false
}

// Record appends an answer and re-estimates the session's level.
func Record(sess *models.AssessmentSession, a models.AssessmentAnswer) {
	sess.Answers = append(sess.Answers, a)
	sess.Theta = EstimateTheta(sess.Answers)
	sess.CurrentLevel = ThetaToLevel(sess.Theta)
}

// Done reports whether the session should stop asking questions.
func Done(sess *models.AssessmentSession) bool {
	n := len(sess.Answers)
	limit := ClampQuestions(sess.TotalQuestions)
	if n < MinQuestions {
		return n >= limit
	}
	if n >= limit {
		return true
	}
	return Precision(sess.Answers) <= precisionThreshold
}

// Score builds the final result of a session.
func Score(sess *models.AssessmentSession) models.AssessmentResult {
	n := len(sess.Answers)
	theta := EstimateTheta(sess.Answers)
	se := StandardError(n)

	res := models.AssessmentResult{
		Theta:      theta,
		Skills:     SkillResults(sess.Answers),
		FocusAreas: []string{},
	}
	if n > 0 {
		res.StandardError = se
		res.Accuracy = correctRate(sess.Answers) * 100
		res.ConfidenceLow = theta - 1.96*se
		res.ConfidenceHigh = theta + 1.96*se
	}
	res.OverallLevel = OverallLevel(res.Skills)
	for _, s := range res.Skills {
		if s.Confidence < 70 {
			res.FocusAreas = append(res.FocusAreas, s.SkillArea)
		}
	}
	res.Recommendations = recommendations(res.OverallLevel, res.FocusAreas)
	res.WeeklyStudyHours = weeklyHours[res.OverallLevel]
	res.TimelineMonths = timelineMonths(res.OverallLevel, res.Skills)
	return res
}

// SkillResults groups answers by skill area in SkillAreas order.
func SkillResults(answers []models.AssessmentAnswer) []models.SkillResult {
	type tally struct{ n, correct int }
	by := make(map[string]*tally)
	for _, a := range answers {
		t, ok := by[a.SkillArea]
		if !ok {
			t = &tally{}
			by[a.SkillArea] = t
		}
		t.n++
		if a.Correct {
			t.correct++
		}
	}

	out := []models.SkillResult{}
	for _, skill := range models.SkillAreas {
		t, ok := by[skill]
		if !ok {
			continue
		}
		acc := float64(t.correct) / float64(t.n)
		out = append(out, models.SkillResult{
			SkillArea:  skill,
			Level:      SkillLevel(acc),
			Score:      acc * 100,
			Confidence: math.Min(95, 60+acc*35),
			Answered:   t.n,
		})
	}
	return out
}

// SkillLevel maps a skill accuracy to a level.
func SkillLevel(accuracy float64) string {
	switch {
	case accuracy >= 0.9:
		return models.LevelC2
	case accuracy >= 0.8:
		return models.LevelC1
	case accuracy >= 0.7:
		return models.LevelB2
	case accuracy >= 0.6:
		return models.LevelB1
	case accuracy >= 0.4:
		return models.LevelA2
	default:
		return models.LevelA1
	}
}

// OverallLevel is the weighted mean of skill levels on the theta scale.
// Grammar and vocabulary weigh the most.
func OverallLevel(skills []models.SkillResult) string {
	if len(skills) == 0 {
		return startLevel
	}
	var sum, total float64
	for _, s := range skills {
		w, ok := skillWeights[s.SkillArea]
		if !ok {
			w = 0.1
		}
		sum += LevelToTheta(s.Level) * w
		total += w
	}
	return ThetaToLevel(sum / total)
}

var weeklyHours = map[string]int{
	models.LevelA1: 8, models.LevelA2: 10, models.LevelB1: 12,
	models.LevelB2: 15, models.LevelC1: 18, models.LevelC2: 20,
}

var baseMonths = map[string]float64{
	models.LevelA1: 6, models.LevelA2: 8, models.LevelB1: 10,
	models.LevelB2: 12, models.LevelC1: 15, models.LevelC2: 18,
}

func timelineMonths(level string, skills []models.SkillResult) int {
	factor := 1.0
	if len(skills) > 0 {
		var sum float64
		for _, s := range skills {
			sum += s.Confidence
		}
		switch avg := sum / float64(len(skills)); {
		case avg < 60:
			factor = 1.3
		case avg < 80:
			factor = 1.1
		}
	}
	return int(math.Round(baseMonths[level] * factor))
}

func recommendations(level string, focus []string) []string {
	out := []string{level + " 레벨 집중 학습"}
	for _, f := range focus {
		out = append(out, f+" 영역 약점 보강")
	}
	if slices.Contains(focus, "grammar") || slices.Contains(focus, "writing") {
		out = append(out, "설교문 작성 연습으로 문법 적용")
	}
	return out
}

func nextLevel(level string) string {
	idx := models.LevelIndex(level)
	if idx < 0 {
		return startLevel
	}
	return models.CEFRLevels[min(idx+1, len(models.CEFRLevels)-1)]
}

func correctRate(answers []models.AssessmentAnswer) float64 {
	if len(answers) == 0 {
		return 0
	}
	c := 0
	for _, a := range answers {
		if a.Correct {
			c++
		}
	}
	return float64(c) / float64(len(answers))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
