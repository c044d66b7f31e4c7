package models

import "time"

// TermCategories are the theological term categories.
var TermCategories = []string{
	"THEOLOGY_PROPER", "CHRISTOLOGY", "PNEUMATOLOGY", "SOTERIOLOGY",
	"ECCLESIOLOGY", "ESCHATOLOGY", "SCRIPTURE", "WORSHIP", "ETHICS",
}

// Progress contexts for theological term practice.
var TermContexts = []string{"recognition", "translation", "usage", "writing"}

// TheologicalTerm is a Hungarian theological term with Korean glosses.
type TheologicalTerm struct {
	ID                  string    `json:"id" yaml:"id"`
	Hungarian           string    `json:"hungarian" yaml:"hungarian"`
	Korean              string    `json:"korean_meaning" yaml:"korean"`
	Category            string    `json:"category" yaml:"category"`
	DifficultyLevel     string    `json:"difficulty_level" yaml:"difficulty_level"`
	DefinitionHungarian string    `json:"definition_hungarian" yaml:"definition_hungarian"`
	DefinitionKorean    string    `json:"definition_korean" yaml:"definition_korean"`
	UsageExamples       []string  `json:"usage_examples" yaml:"usage_examples"`
	RelatedTerms        []string  `json:"related_terms" yaml:"related_terms"`
	Pronunciation       string    `json:"pronunciation_guide,omitempty" yaml:"pronunciation"`
	Etymology           string    `json:"etymology,omitempty" yaml:"etymology"`
	ScriptureReferences []string  `json:"scripture_references" yaml:"scripture_references"`
	UsageFrequency      int       `json:"usage_frequency" yaml:"usage_frequency"`
	UpdatedAt           time.Time `json:"updated_at" yaml:"-"`
}

// TermProgress is a learner's mastery of one term.
type TermProgress struct {
	UserID         string    `json:"user_id"`
	TermID         string    `json:"term_id"`
	Attempts       int       `json:"attempts"`
	Correct        int       `json:"correct"`
	Mastery        float64   `json:"mastery"`
	AvgResponseMs  int       `json:"avg_response_time_ms"`
	LastDifficulty int       `json:"last_difficulty_perceived"`
	LastContext    string    `json:"last_context"`
	LastPracticed  time.Time `json:"last_practiced_at"`
}

// TermAttempt is one practice answer for a term.
type TermAttempt struct {
	TermID              string `json:"term_id"`
	Correct             bool   `json:"correct"`
	ResponseTimeMs      int    `json:"response_time_ms"`
	DifficultyPerceived int    `json:"difficulty_perceived"`
	Context             string `json:"context"`
}
