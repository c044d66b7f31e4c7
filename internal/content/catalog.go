package content

import (
	"cmp"
	"slices"
	"sync"

	"github.com/starford/hunlearn/internal/models"
)

// Catalog is the in-memory view of static content. It is safe for
// concurrent use and is swapped wholesale on reload.
type Catalog struct {
	mu        sync.RWMutex
	lessons   []models.GrammarLesson
	byID      map[string]int
	questions []models.AssessmentQuestion
	templates []models.SermonTemplate
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: map[string]int{}}
}

// Replace installs the static parts of b.
func (c *Catalog) Replace(b *Bundle) {
	byID := make(map[string]int, len(b.Lessons))
	for i, l := range b.Lessons {
		byID[l.ID] = i
	}
	c.mu.Lock()
	c.lessons = b.Lessons
	c.byID = byID
	c.questions = b.Questions
	c.templates = b.Templates
	c.mu.Unlock()
}

// Lessons returns lessons in curriculum order. Empty filters match all.
func (c *Catalog) Lessons(level, category string) []models.GrammarLesson {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []models.GrammarLesson{}
	for _, l := range c.lessons {
		if (level == "" || l.Level == level) && (category == "" || l.Category == category) {
			out = append(out, l)
		}
	}
	return out
}

// Lesson returns the lesson with id.
func (c *Catalog) Lesson(id string) (models.GrammarLesson, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return models.GrammarLesson{}, false
	}
	return c.lessons[i], true
}

// Questions returns the assessment question bank.
func (c *Catalog) Questions() []models.AssessmentQuestion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.questions
}

// Question returns the bank item with id.
func (c *Catalog) Question(id string) (models.AssessmentQuestion, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, q := range c.questions {
		if q.ID == id {
			return q, true
		}
	}
	return models.AssessmentQuestion{}, false
}

// TemplateFilter narrows Templates. Empty fields match all.
type TemplateFilter struct {
	Difficulty string
	Category   string
	Occasion   string
}

// Templates returns the matching sermon templates.
func (c *Catalog) Templates(f TemplateFilter) []models.SermonTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []models.SermonTemplate{}
	for _, t := range c.templates {
		if f.Difficulty != "" && t.Difficulty != f.Difficulty {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Occasion != "" && !slices.Contains(t.Occasions, f.Occasion) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Template returns the template with id.
func (c *Catalog) Template(id string) (models.SermonTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.templates {
		if t.ID == id {
			return t, true
		}
	}
	return models.SermonTemplate{}, false
}

// Counts reports the catalog size for logging.
func (c *Catalog) Counts() (lessons, questions, templates int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lessons), len(c.questions), len(c.templates)
}

func sortLessons(ls []models.GrammarLesson) {
	slices.SortStableFunc(ls, func(a, b models.GrammarLesson) int {
		if c := cmp.Compare(models.LevelIndex(a.Level), models.LevelIndex(b.Level)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Unit, b.Unit); c != 0 {
			return c
		}
		return cmp.Compare(a.Lesson, b.Lesson)
	})
}
