package models

import "time"

// Grammar exercise types.
var ExerciseTypes = []string{"fill_blank", "multiple_choice", "translation", "conjugation", "declension", "word_order"}

// GrammarRule is one rule inside a lesson explanation.
type GrammarRule struct {
	Rule        string   `json:"rule" yaml:"rule"`
	Explanation string   `json:"explanation" yaml:"explanation"`
	Pattern     string   `json:"pattern" yaml:"pattern"`
	Exceptions  []string `json:"exceptions,omitempty" yaml:"exceptions"`
}

// GrammarExplanation is the bilingual explanation of a lesson.
type GrammarExplanation struct {
	Korean         string        `json:"korean" yaml:"korean"`
	Hungarian      string        `json:"hungarian" yaml:"hungarian"`
	KeyPoints      []string      `json:"keyPoints" yaml:"key_points"`
	Rules          []GrammarRule `json:"rules" yaml:"rules"`
	CommonMistakes []string      `json:"commonMistakes" yaml:"common_mistakes"`
}

// WordBreakdown annotates one word of an example.
type WordBreakdown struct {
	Word        string `json:"word" yaml:"word"`
	Role        string `json:"role" yaml:"role"`
	Explanation string `json:"explanation" yaml:"explanation"`
}

// GrammarExample is an annotated example sentence.
type GrammarExample struct {
	Hungarian    string          `json:"hungarian" yaml:"hungarian"`
	Korean       string          `json:"korean" yaml:"korean"`
	Romanization string          `json:"romanization,omitempty" yaml:"romanization"`
	Breakdown    []WordBreakdown `json:"breakdown,omitempty" yaml:"breakdown"`
}

// GrammarExercise is a checkable exercise. Answers holds every accepted answer.
type GrammarExercise struct {
	ID          string   `json:"id" yaml:"id"`
	Type        string   `json:"type" yaml:"type"`
	Question    string   `json:"question" yaml:"question"`
	Options     []string `json:"options,omitempty" yaml:"options"`
	Answers     []string `json:"-" yaml:"answers"`
	Explanation string   `json:"-" yaml:"explanation"`
	Hints       []string `json:"hints" yaml:"hints"`
}

// GrammarLesson is a unit of the grammar curriculum.
type GrammarLesson struct {
	ID                 string             `json:"id" yaml:"id"`
	Level              string             `json:"level" yaml:"level"`
	Unit               int                `json:"unit" yaml:"unit"`
	Lesson             int                `json:"lesson" yaml:"lesson"`
	Title              string             `json:"title" yaml:"title"`
	TitleKorean        string             `json:"titleKorean" yaml:"title_korean"`
	Category           string             `json:"category" yaml:"category"`
	Difficulty         int                `json:"difficulty" yaml:"difficulty"`
	EstimatedMinutes   int                `json:"estimatedMinutes" yaml:"estimated_minutes"`
	Prerequisites      []string           `json:"prerequisites" yaml:"prerequisites"`
	Objectives         []string           `json:"objectives" yaml:"objectives"`
	Explanation        GrammarExplanation `json:"explanation" yaml:"explanation"`
	Examples           []GrammarExample   `json:"examples" yaml:"examples"`
	Exercises          []GrammarExercise  `json:"exercises" yaml:"exercises"`
	Notes              []string           `json:"notes,omitempty" yaml:"notes"`
	HungarianSpecifics []string           `json:"hungarianSpecifics,omitempty" yaml:"hungarian_specifics"`
}

// Exercise returns the exercise with id.
func (l *GrammarLesson) Exercise(id string) (GrammarExercise, bool) {
	for _, e := range l.Exercises {
		if e.ID == id {
			return e, true
		}
	}
	return GrammarExercise{}, false
}

// LessonProgress records a learner's result for a lesson.
type LessonProgress struct {
	UserID      string    `json:"userId"`
	LessonID    string    `json:"lessonId"`
	BestScore   int       `json:"bestScore"`
	Attempts    int       `json:"attempts"`
	CompletedAt time.Time `json:"completedAt"`
}
