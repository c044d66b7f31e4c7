package models

import "time"

// Skill areas measured by assessments.
var SkillAreas = []string{"listening", "reading", "speaking", "writing", "vocabulary", "grammar", "pronunciation"}

// Assessment types and statuses.
const (
	AssessmentPlacement     = "LEVEL_PLACEMENT"
	AssessmentProgressCheck = "PROGRESS_CHECK"

	AssessmentInProgress = "IN_PROGRESS"
	AssessmentPaused     = "PAUSED"
	AssessmentCompleted  = "COMPLETED"
)

// AssessmentTypes lists accepted assessment types.
var AssessmentTypes = []string{AssessmentPlacement, AssessmentProgressCheck}

// AssessmentQuestion is an item of the question bank.
type AssessmentQuestion struct {
	ID               string   `json:"id" yaml:"id"`
	Type             string   `json:"type" yaml:"type"`
	SkillArea        string   `json:"skillArea" yaml:"skill_area"`
	Level            string   `json:"level" yaml:"level"`
	Question         string   `json:"question" yaml:"question"`
	QuestionKorean   string   `json:"questionKorean,omitempty" yaml:"question_korean"`
	Options          []string `json:"options,omitempty" yaml:"options"`
	Answers          []string `json:"-" yaml:"answers"`
	Explanation      string   `json:"-" yaml:"explanation"`
	Points           int      `json:"points" yaml:"points"`
	TimeLimitSeconds int      `json:"timeLimitSeconds,omitempty" yaml:"time_limit_seconds"`
}

// AssessmentAnswer is one recorded response.
type AssessmentAnswer struct {
	QuestionID     string    `json:"questionId"`
	SkillArea      string    `json:"skillArea"`
	Level          string    `json:"level"`
	Answer         string    `json:"answer"`
	Correct        bool      `json:"correct"`
	ResponseTimeMs int       `json:"responseTimeMs"`
	AnsweredAt     time.Time `json:"answeredAt"`
}

// AssessmentSession is an adaptive assessment in progress or finished.
type AssessmentSession struct {
	ID             string             `json:"id"`
	UserID         string             `json:"userId"`
	Type           string             `json:"assessmentType"`
	Status         string             `json:"status"`
	TotalQuestions int                `json:"totalQuestions"`
	CurrentLevel   string             `json:"currentLevel"`
	Theta          float64            `json:"theta"`
	Answers        []AssessmentAnswer `json:"answers"`
	Result         *AssessmentResult  `json:"result,omitempty"`
	StartedAt      time.Time          `json:"startedAt"`
	PausedAt       *time.Time         `json:"pausedAt,omitempty"`
	CompletedAt    *time.Time         `json:"completedAt,omitempty"`
}

// AskedIDs returns the ids of every answered question.
func (s *AssessmentSession) AskedIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(s.Answers))
	for _, a := range s.Answers {
		out[a.QuestionID] = struct{}{}
	}
	return out
}

// SkillResult is the outcome for one skill area.
type SkillResult struct {
	SkillArea  string  `json:"skillArea"`
	Level      string  `json:"level"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Answered   int     `json:"answered"`
}

// AssessmentResult is the final report of an assessment.
type AssessmentResult struct {
	OverallLevel     string        `json:"overallLevel"`
	Theta            float64       `json:"theta"`
	StandardError    float64       `json:"standardError"`
	ConfidenceLow    float64       `json:"confidenceLow"`
	ConfidenceHigh   float64       `json:"confidenceHigh"`
	Accuracy         float64       `json:"accuracy"`
	Skills           []SkillResult `json:"skills"`
	FocusAreas       []string      `json:"focusAreas"`
	Recommendations  []string      `json:"recommendations"`
	WeeklyStudyHours int           `json:"weeklyStudyHours"`
	TimelineMonths   int           `json:"timelineMonths"`
}
