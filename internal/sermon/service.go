// Package sermon manages sermon drafts and the writing aids around them:
// templates, outline generation and the rule-based grammar checker.
package sermon

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/content"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/store"
)

const completedPoints = 100

// Sermon lengths in minutes.
var sermonLengths = map[string]int{"short": 15, "medium": 25, "long": 35}

// DraftInput is the editable part of a draft.
type DraftInput struct {
	Title              models.BilingualText  `json:"title"`
	ScriptureReference string                `json:"scriptureReference"`
	Topic              string                `json:"topic"`
	Content            models.SermonContent  `json:"content"`
	Metadata           models.SermonMetadata `json:"metadata"`
}

// Validate checks the draft payload.
func (in DraftInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.By(func(any) error {
			return validation.ValidateStruct(&in.Title,
				validation.Field(&in.Title.Hungarian, validation.Required, validation.RuneLength(1, 200)),
				validation.Field(&in.Title.Korean, validation.Required, validation.RuneLength(1, 200)),
			)
		})),
		validation.Field(&in.ScriptureReference, validation.RuneLength(0, 100)),
		validation.Field(&in.Topic, validation.RuneLength(0, 200)),
		validation.Field(&in.Metadata, validation.By(func(any) error {
			m := in.Metadata
			return validation.ValidateStruct(&m,
				validation.Field(&m.EstimatedDuration, validation.Min(0), validation.Max(180)),
				validation.Field(&m.DifficultyLevel, validation.In(anySlice(models.CEFRLevels)...)),
				validation.Field(&m.Tags, validation.Length(0, 20)),
			)
		})),
	)
}

// CheckInput is a grammar check request.
type CheckInput struct {
	Text  string `json:"text"`
	Level string `json:"level"`
}

// Validate checks the grammar check payload.
func (in CheckInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Text, validation.Required, validation.RuneLength(1, 20000)),
		validation.Field(&in.Level, validation.In(anySlice(models.CEFRLevels)...)),
	)
}

// ApplyTemplateInput creates a draft from a template.
type ApplyTemplateInput struct {
	TemplateID         string               `json:"templateId"`
	Title              models.BilingualText `json:"title"`
	ScriptureReference string               `json:"scriptureReference"`
}

// OutlineTopic describes what the sermon is about.
type OutlineTopic struct {
	Korean       string `json:"korean"`
	Scripture    string `json:"scripture"`
	SermonLength string `json:"sermonLength"`
}

// OutlineInput is an outline generation request.
type OutlineInput struct {
	Topic      OutlineTopic `json:"topic"`
	UserLevel  string       `json:"userLevel"`
	TemplateID string       `json:"templateId"`
}

// Validate checks the outline request.
func (in OutlineInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Topic, validation.By(func(any) error {
			if strings.TrimSpace(in.Topic.Korean) == "" && strings.TrimSpace(in.Topic.Scripture) == "" {
				return validation.NewError("validation_topic_required", "korean topic or scripture is required")
			}
			if _, ok := sermonLengths[in.Topic.SermonLength]; in.Topic.SermonLength != "" && !ok {
				return validation.NewError("validation_sermon_length", "sermonLength must be short, medium or long")
			}
			return nil
		})),
		validation.Field(&in.UserLevel, validation.Required, validation.In(anySlice(models.CEFRLevels)...)),
	)
}

// Outline is a generated sermon plan.
type Outline struct {
	Title              models.BilingualText     `json:"title"`
	TemplateID         string                   `json:"templateId"`
	ScriptureReference string                   `json:"scriptureReference,omitempty"`
	Sections           []models.OutlineSection  `json:"sections"`
	OpeningPhrases     []string                 `json:"openingPhrases"`
	TransitionPhrases  []string                 `json:"transitionPhrases"`
	ClosingPhrases     []string                 `json:"closingPhrases"`
	TotalMinutes       int                      `json:"totalEstimatedMinutes"`
	Terms              []models.TheologicalTerm `json:"theologicalTerms"`
}

// Stats summarises a learner's drafts.
type Stats struct {
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"byStatus"`
	TotalWords       int            `json:"totalWords"`
	AverageWords     int            `json:"averageWords"`
	UpdatedThisMonth int            `json:"updatedThisMonth"`
}

// Service implements the sermon operations.
type Service struct {
	db      *store.DB
	catalog *content.Catalog
	game    *gamification.Service
	logger  *slog.Logger
	now     func() time.Time
}

// NewService returns a Service. game may be nil.
func NewService(db *store.DB, catalog *content.Catalog, game *gamification.Service, logger *slog.Logger) *Service {
	return &Service{db: db, catalog: catalog, game: game, logger: logger, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Create stores a new draft.
func (s *Service) Create(userID string, in DraftInput) (*models.SermonDraft, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	d := &models.SermonDraft{ID: uuid.NewString(), UserID: userID, Status: models.DraftStatusDraft}
	apply(d, in)
	if err := s.db.InsertDraft(d); err != nil {
		return nil, err
	}
	return d, nil
}

func apply(d *models.SermonDraft, in DraftInput) {
	d.Title = models.BilingualText{
		Hungarian: strings.TrimSpace(in.Title.Hungarian),
		Korean:    strings.TrimSpace(in.Title.Korean),
	}
	d.ScriptureReference = strings.TrimSpace(in.ScriptureReference)
	d.Topic = strings.TrimSpace(in.Topic)
	d.Content = in.Content
	d.Content.Outline = nonNil(d.Content.Outline)
	d.Metadata = in.Metadata
	d.Metadata.Tags = nonNil(d.Metadata.Tags)
}

// List returns a page of the learner's drafts.
func (s *Service) List(f store.DraftFilter) ([]models.SermonDraft, int, error) {
	switch f.Sort {
	case "", "recent", "oldest", "title":
	default:
		return nil, 0, apperr.Invalid("sort", "must be recent, oldest or title")
	}
	if f.Status != "" && !slices.Contains(models.DraftStatuses, f.Status) {
		return nil, 0, apperr.Invalid("status", "must be one of %s", strings.Join(models.DraftStatuses, ", "))
	}
	return s.db.ListDrafts(f)
}

// Search finds drafts whose titles, topic, scripture or body contain q.
func (s *Service) Search(userID, q string, limit, offset int) ([]models.SermonDraft, int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, 0, apperr.Invalid("q", "is required")
	}
	return s.db.ListDrafts(store.DraftFilter{UserID: userID, Query: q, Limit: limit, Offset: offset})
}

// Get returns one of the learner's drafts.
func (s *Service) Get(userID, id string) (*models.SermonDraft, error) {
	return s.db.DraftByID(userID, id)
}

// Update replaces a draft's fields. expectVersion 0 skips the version check.
func (s *Service) Update(userID, id string, in DraftInput, expectVersion int) (*models.SermonDraft, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	d, err := s.db.DraftByID(userID, id)
	if err != nil {
		return nil, err
	}
	if expectVersion == 0 {
		expectVersion = d.Version
	}
	apply(d, in)
	if err := s.db.UpdateDraft(d, expectVersion); err != nil {
		return nil, err
	}
	return d, nil
}

// SetStatus moves a draft to status. Completing a draft awards points the
// first time.
func (s *Service) SetStatus(userID, id, status string) (*models.SermonDraft, *models.Award, error) {
	if !slices.Contains(models.DraftStatuses, status) {
		return nil, nil, apperr.Invalid("status", "must be one of %s", strings.Join(models.DraftStatuses, ", "))
	}
	d, err := s.db.DraftByID(userID, id)
	if err != nil {
		return nil, nil, err
	}
	if d.Status == status {
		return d, nil, nil
	}
	firstCompletion := status == models.DraftStatusCompleted && d.CompletedAt == nil
	d.Status = status
	if status == models.DraftStatusCompleted {
		now := s.now().UTC()
		d.CompletedAt = &now
	}
	if err := s.db.UpdateDraft(d, d.Version); err != nil {
		return nil, nil, err
	}

	var award *models.Award
	if firstCompletion && s.game != nil {
		award, err = s.game.Award(userID, gamification.Activity{
			Source:      models.SourceSermonCompleted,
			BasePoints:  completedPoints,
			Description: "설교문 완성: " + d.Title.Korean,
			Theological: true,
		})
		if err != nil {
			s.logger.Warn("award sermon points failed", slog.String("error", err.Error()))
			award = nil
		}
	}
	return d, award, nil
}

// Delete archives a draft.
func (s *Service) Delete(userID, id string) error {
	_, _, err := s.SetStatus(userID, id, models.DraftStatusArchived)
	return err
}

// Duplicate copies a draft into a new DRAFT at version 1.
func (s *Service) Duplicate(userID, id string) (*models.SermonDraft, error) {
	src, err := s.db.DraftByID(userID, id)
	if err != nil {
		return nil, err
	}
	d := &models.SermonDraft{
		ID:     uuid.NewString(),
		UserID: userID,
		Title: models.BilingualText{
			Hungarian: src.Title.Hungarian + " (másolat)",
			Korean:    src.Title.Korean + " (복사본)",
		},
		ScriptureReference: src.ScriptureReference,
		Topic:              src.Topic,
		Content:            src.Content,
		Metadata:           src.Metadata,
		Status:             models.DraftStatusDraft,
	}
	d.Content.Outline = slices.Clone(src.Content.Outline)
	d.Metadata.Tags = slices.Clone(src.Metadata.Tags)
	if err := s.db.InsertDraft(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Stats summarises the learner's drafts.
func (s *Service) Stats(userID string) (*Stats, error) {
	counts, err := s.db.DraftStatusCounts(userID)
	if err != nil {
		return nil, err
	}
	active, err := s.db.DraftsUpdatedSince(userID, time.Time{})
	if err != nil {
		return nil, err
	}
	st := &Stats{ByStatus: counts}
	for _, n := range counts {
		st.Total += n
	}
	monthAgo := s.now().AddDate(0, -1, 0)
	for _, d := range active {
		st.TotalWords += d.WordCount()
		if d.UpdatedAt.After(monthAgo) {
			st.UpdatedThisMonth++
		}
	}
	if len(active) > 0 {
		st.AverageWords = st.TotalWords / len(active)
	}
	return st, nil
}

// CheckGrammar runs the grammar checker and lists the theological terms the
// text uses.
func (s *Service) CheckGrammar(in CheckInput) (*GrammarReport, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	level := in.Level
	if level == "" {
		level = models.LevelB1
	}
	rep := Check(in.Text, level)

	seen := map[string]struct{}{}
	var words []string
	for _, t := range tokenize(in.Text) {
		w := strings.ToLower(t.word)
		if _, ok := seen[w]; !ok {
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}
	terms, err := s.db.TermsByHungarian(words)
	if err != nil {
		return nil, err
	}
	for _, t := range terms {
		rep.Terms = append(rep.Terms, t.Hungarian)
	}
	return &rep, nil
}

// Templates lists sermon templates.
func (s *Service) Templates(f content.TemplateFilter) []models.SermonTemplate {
	return s.catalog.Templates(f)
}

// Template returns one template.
func (s *Service) Template(id string) (*models.SermonTemplate, error) {
	t, ok := s.catalog.Template(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &t, nil
}

// ApplyTemplate creates a draft whose outline is the template's sections.
func (s *Service) ApplyTemplate(userID string, in ApplyTemplateInput) (*models.SermonDraft, error) {
	if strings.TrimSpace(in.TemplateID) == "" {
		return nil, apperr.Invalid("templateId", "is required")
	}
	t, err := s.Template(in.TemplateID)
	if err != nil {
		return nil, err
	}
	return s.Create(userID, DraftInput{
		Title:              in.Title,
		ScriptureReference: in.ScriptureReference,
		Content:            models.SermonContent{Outline: slices.Clone(t.Sections)},
		Metadata: models.SermonMetadata{
			EstimatedDuration: t.EstimatedMinutes,
			DifficultyLevel:   t.Difficulty,
			Tags:              slices.Clone(t.TheologicalThemes),
			Style:             t.Category,
		},
	})
}

// GenerateOutline builds an outline from a template suited to the learner's
// level, scaled to the requested sermon length.
func (s *Service) GenerateOutline(in OutlineInput) (*Outline, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	var t models.SermonTemplate
	if in.TemplateID != "" {
		tp, err := s.Template(in.TemplateID)
		if err != nil {
			return nil, err
		}
		t = *tp
	} else {
		var ok bool
		if t, ok = s.templateForLevel(in.UserLevel); !ok {
			return nil, fmt.Errorf("%w: no sermon templates loaded", apperr.ErrNotFound)
		}
	}

	minutes := t.EstimatedMinutes
	if m, ok := sermonLengths[in.Topic.SermonLength]; ok {
		minutes = m
	}
	sections := slices.Clone(t.Sections)
	planned := 0
	for _, sec := range sections {
		planned += sec.TimeMinutes
	}
	total := 0
	for i := range sections {
		if planned > 0 {
			sections[i].TimeMinutes = max(1, int(math.Round(float64(sections[i].TimeMinutes)*float64(minutes)/float64(planned))))
		}
		total += sections[i].TimeMinutes
	}

	terms := []models.TheologicalTerm{}
	if q := strings.TrimSpace(in.Topic.Korean); q != "" {
		found, _, err := s.db.SearchTerms(store.TermFilter{Query: q, Limit: 5})
		if err != nil {
			return nil, err
		}
		maxLevel := models.LevelIndex(in.UserLevel) + 1
		for _, term := range found {
			if models.LevelIndex(term.DifficultyLevel) <= maxLevel {
				terms = append(terms, term)
			}
		}
	}

	out := &Outline{
		TemplateID:         t.ID,
		ScriptureReference: strings.TrimSpace(in.Topic.Scripture),
		Sections:           sections,
		OpeningPhrases:     nonNil(t.OpeningPhrases),
		TransitionPhrases:  nonNil(t.TransitionPhrases),
		ClosingPhrases:     nonNil(t.ClosingPhrases),
		TotalMinutes:       total,
		Terms:              terms,
	}
	out.Title.Korean = strings.TrimSpace(in.Topic.Korean)
	if out.Title.Korean == "" {
		out.Title.Korean = "하나님의 말씀"
	}
	switch {
	case len(terms) > 0:
		out.Title.Hungarian = capitalize(terms[0].Hungarian)
	case out.ScriptureReference != "":
		out.Title.Hungarian = "Igehirdetés: " + out.ScriptureReference
	default:
		out.Title.Hungarian = t.Title.Hungarian
	}
	return out, nil
}

// templateForLevel prefers a template at the learner's level, then the
// closest easier one, then the easiest available.
func (s *Service) templateForLevel(level string) (models.SermonTemplate, bool) {
	all := s.catalog.Templates(content.TemplateFilter{})
	if len(all) == 0 {
		return models.SermonTemplate{}, false
	}
	want := models.LevelIndex(level)
	best, bestIdx := -1, -1
	for i, t := range all {
		idx := models.LevelIndex(t.Difficulty)
		if idx <= want && idx > bestIdx {
			best, bestIdx = i, idx
		}
	}
	if best >= 0 {
		return all[best], true
	}
	return slices.MinFunc(all, func(a, b models.SermonTemplate) int {
		return cmp.Compare(models.LevelIndex(a.Difficulty), models.LevelIndex(b.Difficulty))
	}), true
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
