// Package content loads the curriculum, question bank, sermon templates,
// vocabulary and theological terms from YAML trees.
package content

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/storage"
)

// Content kinds, named after the top-level directory that holds them.
const (
	KindGrammar    = "grammar"
	KindVocabulary = "vocabulary"
	KindTerms      = "terms"
	KindAssessment = "assessment"
	KindSermon     = "sermon"
)

// Kinds lists every content directory.
var Kinds = []string{KindGrammar, KindVocabulary, KindTerms, KindAssessment, KindSermon}

//go:embed defaults
var defaultsFS embed.FS

// Defaults returns the content tree compiled into the binary.
func Defaults() fs.FS {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		panic(err)
	}
	return sub
}

// Source is a named content tree. Later sources override earlier ones by id.
type Source struct {
	Name     string
	Provider storage.Provider
}

// Bundle is everything parsed from a set of sources.
type Bundle struct {
	Lessons   []models.GrammarLesson
	Questions []models.AssessmentQuestion
	Templates []models.SermonTemplate
	// Vocabulary and Terms are keyed by source key ("name:path").
	Vocabulary map[string][]models.VocabularyCard
	Terms      map[string][]models.TheologicalTerm
	// Checksums maps source keys of vocabulary and term files to their checksum.
	Checksums map[string]string

	files []string
}

type grammarFile struct {
	Lessons []models.GrammarLesson `yaml:"lessons"`
}

type assessmentFile struct {
	Questions []models.AssessmentQuestion `yaml:"questions"`
}

type sermonFile struct {
	Templates []models.SermonTemplate `yaml:"templates"`
}

type termsFile struct {
	Terms []models.TheologicalTerm `yaml:"terms"`
}

type vocabularyFile struct {
	Cards []vocabEntry `yaml:"cards"`
}

type vocabEntry struct {
	ID              string                `yaml:"id"`
	Hungarian       string                `yaml:"hungarian"`
	Korean          string                `yaml:"korean"`
	WordClass       string                `yaml:"word_class"`
	Level           string                `yaml:"level"`
	Difficulty      string                `yaml:"difficulty"`
	Pronunciation   string                `yaml:"pronunciation"`
	Examples        []models.UsageExample `yaml:"examples"`
	Tags            []string              `yaml:"tags"`
	CulturalContext string                `yaml:"cultural_context"`
	Theological     bool                  `yaml:"theological"`
}

func (e vocabEntry) card() models.VocabularyCard {
	return models.VocabularyCard{
		ID:              e.ID,
		Hungarian:       e.Hungarian,
		Korean:          e.Korean,
		WordClass:       e.WordClass,
		Level:           e.Level,
		Difficulty:      e.Difficulty,
		Pronunciation:   e.Pronunciation,
		Examples:        nonNil(e.Examples),
		Tags:            nonNil(e.Tags),
		CulturalContext: e.CulturalContext,
		Theological:     e.Theological,
	}
}

// SourceKey identifies a file of a source in the content_sources table.
func SourceKey(source, p string) string {
	return source + ":" + p
}

// KindOf returns the content kind of a slash separated path, or "".
func KindOf(p string) string {
	first, _, ok := strings.Cut(path.Clean(p), "/")
	if !ok {
		return ""
	}
	for _, k := range Kinds {
		if k == first {
			return k
		}
	}
	return ""
}

// Load reads and validates every content file of sources. Invalid files are
// logged and skipped so one bad file does not take the catalog down.
func Load(sources []Source, logger *slog.Logger) (*Bundle, error) {
	b := &Bundle{
		Vocabulary: map[string][]models.VocabularyCard{},
		Terms:      map[string][]models.TheologicalTerm{},
		Checksums:  map[string]string{},
	}
	lessons := newOrdered[models.GrammarLesson]()
	questions := newOrdered[models.AssessmentQuestion]()
	templates := newOrdered[models.SermonTemplate]()

	for _, src := range sources {
		metas, err := src.Provider.List("")
		if err != nil {
			return nil, fmt.Errorf("content: list %s: %w", src.Name, err)
		}
		for _, m := range metas {
			kind := KindOf(m.Path)
			if kind == "" {
				continue
			}
			data, err := src.Provider.Read(m.Path)
			if err != nil {
				logger.Warn("content: read failed", slog.String("source", src.Name),
					slog.String("path", m.Path), slog.String("error", err.Error()))
				continue
			}
			key := SourceKey(src.Name, m.Path)
			if err := b.add(kind, key, data, lessons, questions, templates); err != nil {
				logger.Warn("content: invalid file", slog.String("source", src.Name),
					slog.String("path", m.Path), slog.String("error", err.Error()))
				continue
			}
			if kind == KindVocabulary || kind == KindTerms {
				b.Checksums[key] = m.Checksum
				b.files = append(b.files, key)
			}
		}
	}

	b.Lessons = lessons.values()
	b.Questions = questions.values()
	b.Templates = templates.values()
	sortLessons(b.Lessons)

	known := make(map[string]struct{}, len(b.Lessons))
	for _, l := range b.Lessons {
		known[l.ID] = struct{}{}
	}
	for _, l := range b.Lessons {
		for _, p := range l.Prerequisites {
			if _, ok := known[p]; !ok {
				logger.Warn("content: unknown prerequisite", slog.String("lesson", l.ID), slog.String("prerequisite", p))
			}
		}
	}
	return b, nil
}

func (b *Bundle) add(kind, key string, data []byte,
	lessons *ordered[models.GrammarLesson],
	questions *ordered[models.AssessmentQuestion],
	templates *ordered[models.SermonTemplate],
) error {
	switch kind {
	case KindGrammar:
		var f grammarFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return err
		}
		for _, l := range f.Lessons {
			if err := validateLesson(l); err != nil {
				return fmt.Errorf("lesson %s: %w", l.ID, err)
			}
		}
		for _, l := range f.Lessons {
			l.Prerequisites = nonNil(l.Prerequisites)
			lessons.put(l.ID, l)
		}
	case KindAssessment:
		var f assessmentFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return err
		}
		for _, q := range f.Questions {
			if err := validateQuestion(q); err != nil {
				return fmt.Errorf("question %s: %w", q.ID, err)
			}
		}
		for _, q := range f.Questions {
			if q.Points == 0 {
				q.Points = 1
			}
			questions.put(q.ID, q)
		}
	case KindSermon:
		var f sermonFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return err
		}
		for _, t := range f.Templates {
			if err := validateTemplate(t); err != nil {
				return fmt.Errorf("template %s: %w", t.ID, err)
			}
		}
		for _, t := range f.Templates {
			templates.put(t.ID, t)
		}
	case KindTerms:
		var f termsFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return err
		}
		for _, t := range f.Terms {
			if err := validateTerm(t); err != nil {
				return fmt.Errorf("term %s: %w", t.ID, err)
			}
		}
		b.Terms[key] = f.Terms
	case KindVocabulary:
		var f vocabularyFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return err
		}
		cards := make([]models.VocabularyCard, 0, len(f.Cards))
		for _, e := range f.Cards {
			c := e.card()
			if err := validateCard(c); err != nil {
				return fmt.Errorf("card %s: %w", e.ID, err)
			}
			cards = append(cards, c)
		}
		b.Vocabulary[key] = cards
	}
	return nil
}

func validateLesson(l models.GrammarLesson) error {
	if err := validation.ValidateStruct(&l,
		validation.Field(&l.ID, validation.Required),
		validation.Field(&l.Level, validation.Required, validation.In(anySlice(models.CEFRLevels)...)),
		validation.Field(&l.Title, validation.Required),
		validation.Field(&l.TitleKorean, validation.Required),
		validation.Field(&l.Difficulty, validation.Min(1), validation.Max(5)),
	); err != nil {
		return err
	}
	for _, e := range l.Exercises {
		if err := validation.ValidateStruct(&e,
			validation.Field(&e.ID, validation.Required),
			validation.Field(&e.Type, validation.Required, validation.In(anySlice(models.ExerciseTypes)...)),
			validation.Field(&e.Question, validation.Required),
			validation.Field(&e.Answers, validation.Required),
		); err != nil {
			return fmt.Errorf("exercise %s: %w", e.ID, err)
		}
	}
	return nil
}

func validateQuestion(q models.AssessmentQuestion) error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.ID, validation.Required),
		validation.Field(&q.Type, validation.Required, validation.In("multiple_choice", "fill_blank")),
		validation.Field(&q.SkillArea, validation.Required, validation.In(anySlice(models.SkillAreas)...)),
		validation.Field(&q.Level, validation.Required, validation.In(anySlice(models.CEFRLevels)...)),
		validation.Field(&q.Question, validation.Required),
		validation.Field(&q.Answers, validation.Required),
	)
}

func validateTemplate(t models.SermonTemplate) error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Title, validation.By(func(any) error {
			if t.Title.Hungarian == "" || t.Title.Korean == "" {
				return validation.NewError("validation_title", "both hungarian and korean titles are required")
			}
			return nil
		})),
		validation.Field(&t.Difficulty, validation.Required, validation.In(anySlice(models.CEFRLevels)...)),
		validation.Field(&t.Sections, validation.Required),
	)
}

func validateTerm(t models.TheologicalTerm) error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Hungarian, validation.Required),
		validation.Field(&t.Korean, validation.Required),
		validation.Field(&t.Category, validation.Required, validation.In(anySlice(models.TermCategories)...)),
		validation.Field(&t.DifficultyLevel, validation.Required, validation.In(anySlice(models.CEFRLevels)...)),
	)
}

func validateCard(c models.VocabularyCard) error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Hungarian, validation.Required),
		validation.Field(&c.Korean, validation.Required),
		validation.Field(&c.WordClass, validation.Required, validation.In(anySlice(models.WordClasses)...)),
		validation.Field(&c.Level, validation.Required, validation.In(anySlice(models.CEFRLevels)...)),
		validation.Field(&c.Difficulty, validation.Required, validation.In(anySlice(models.Difficulties)...)),
	)
}

func anySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ordered keeps insertion order while letting later puts replace by id.
type ordered[T any] struct {
	index map[string]int
	items []T
}

func newOrdered[T any]() *ordered[T] {
	return &ordered[T]{index: map[string]int{}}
}

func (o *ordered[T]) put(id string, v T) {
	if i, ok := o.index[id]; ok {
		o.items[i] = v
		return
	}
	o.index[id] = len(o.items)
	o.items = append(o.items, v)
}

func (o *ordered[T]) values() []T {
	return nonNil(o.items)
}
