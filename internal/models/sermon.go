package models

import "time"

// Sermon draft statuses.
const (
	DraftStatusDraft     = "DRAFT"
	DraftStatusCompleted = "COMPLETED"
	DraftStatusArchived  = "ARCHIVED"
)

// DraftStatuses lists accepted draft statuses.
var DraftStatuses = []string{DraftStatusDraft, DraftStatusCompleted, DraftStatusArchived}

// BilingualText is a Hungarian text with its Korean rendering.
type BilingualText struct {
	Hungarian string `json:"hungarian" yaml:"hungarian"`
	Korean    string `json:"korean" yaml:"korean"`
}

// OutlineSection is one point of a sermon outline.
type OutlineSection struct {
	Title       BilingualText `json:"title" yaml:"title"`
	KeyPoints   []string      `json:"keyPoints,omitempty" yaml:"key_points"`
	Phrases     []string      `json:"phrases,omitempty" yaml:"phrases"`
	TimeMinutes int           `json:"timeMinutes,omitempty" yaml:"time_minutes"`
}

// SermonContent holds the body of a draft.
type SermonContent struct {
	Introduction string           `json:"introduction"`
	MainBody     string           `json:"main_body"`
	Conclusion   string           `json:"conclusion"`
	Outline      []OutlineSection `json:"outline"`
}

// SermonMetadata describes the intended delivery of a draft.
type SermonMetadata struct {
	TargetAudience    string   `json:"target_audience,omitempty"`
	EstimatedDuration int      `json:"estimated_duration,omitempty"`
	DifficultyLevel   string   `json:"difficulty_level,omitempty"`
	Tags              []string `json:"tags"`
	Style             string   `json:"style,omitempty"`
}

// SermonDraft is a learner's sermon in progress.
type SermonDraft struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"userId"`
	Title              BilingualText  `json:"title"`
	ScriptureReference string         `json:"scriptureReference,omitempty"`
	Topic              string         `json:"topic,omitempty"`
	Content            SermonContent  `json:"content"`
	Metadata           SermonMetadata `json:"metadata"`
	Status             string         `json:"status"`
	Version            int            `json:"version"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	CompletedAt        *time.Time     `json:"completedAt,omitempty"`
}

// WordCount counts whitespace separated words across the draft body.
func (d SermonDraft) WordCount() int {
	n := 0
	for _, s := range []string{d.Content.Introduction, d.Content.MainBody, d.Content.Conclusion} {
		n += countWords(s)
	}
	return n
}

func countWords(s string) int {
	n, in := 0, false
	for _, r := range s {
		space := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if !space && !in {
			n++
		}
		in = !space
	}
	return n
}

// SermonTemplate is a reusable sermon structure.
type SermonTemplate struct {
	ID                string           `json:"id" yaml:"id"`
	Title             BilingualText    `json:"title" yaml:"title"`
	Category          string           `json:"category" yaml:"category"`
	Difficulty        string           `json:"difficulty" yaml:"difficulty"`
	EstimatedMinutes  int              `json:"estimatedMinutes" yaml:"estimated_minutes"`
	Occasions         []string         `json:"occasions" yaml:"occasions"`
	TheologicalThemes []string         `json:"theologicalThemes" yaml:"theological_themes"`
	Sections          []OutlineSection `json:"sections" yaml:"sections"`
	OpeningPhrases    []string         `json:"openingPhrases,omitempty" yaml:"opening_phrases"`
	TransitionPhrases []string         `json:"transitionPhrases,omitempty" yaml:"transition_phrases"`
	ClosingPhrases    []string         `json:"closingPhrases,omitempty" yaml:"closing_phrases"`
}

// GrammarIssue is a finding from the sermon grammar checker.
type GrammarIssue struct {
	Rule       string `json:"rule"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Offset     int    `json:"offset"`
	Length     int    `json:"length"`
	Excerpt    string `json:"excerpt"`
	Suggestion string `json:"suggestion,omitempty"`
}
