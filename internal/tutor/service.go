// Package tutor answers learners' free-form questions through an LLM.
package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/llm"
	"github.com/starford/hunlearn/internal/models"
)

const (
	maxTokens     = 2048
	defaultCount  = 5
	maxCount      = 20
	systemPrompt  = "당신은 한국인 목회자를 위한 헝가리어 튜터입니다. 항상 한국어로 설명하고, 헝가리어 예문에는 한국어 번역을 붙이며, 요청된 JSON 형식으로만 답합니다."
	maxTextLength = 5000
)

// Levels the tutor accepts.
var levels = []any{models.LevelA1, models.LevelA2, models.LevelB1, models.LevelB2}

// Example is a sentence with its translation.
type Example struct {
	Hungarian string `json:"hungarian"`
	Korean    string `json:"korean"`
	Context   string `json:"context,omitempty"`
}

// GrammarQuestionInput asks about a grammar topic.
type GrammarQuestionInput struct {
	GrammarTopic string `json:"grammarTopic"`
	Question     string `json:"question"`
	UserLevel    string `json:"userLevel"`
	Context      string `json:"context,omitempty"`
}

// Validate checks the request.
func (in GrammarQuestionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.GrammarTopic, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&in.Question, validation.Required, validation.RuneLength(1, 2000)),
		validation.Field(&in.UserLevel, validation.Required, validation.In(levels...)),
	)
}

// GrammarAnswer is the tutor's grammar explanation.
type GrammarAnswer struct {
	Explanation    string    `json:"explanation"`
	Examples       []Example `json:"examples"`
	CommonMistakes []string  `json:"commonMistakes"`
	Tips           []string  `json:"tips"`
}

// Vocabulary request types.
var requestTypes = map[string]string{
	"examples":  "예문을 10개 이상 제시하세요.",
	"etymology": "어원과 단어 형성 과정을 자세히 설명하세요.",
	"usage":     "여러 맥락에서의 용법을 설명하세요.",
	"synonyms":  "유의어, 반의어, 관련 표현을 제시하세요.",
	"full":      "어원, 용법, 예문, 유의어와 신학적 용례를 모두 포함하세요.",
}

// VocabularyInput asks for a word explanation.
type VocabularyInput struct {
	Word        string `json:"word"`
	UserLevel   string `json:"userLevel"`
	RequestType string `json:"requestType"`
}

// Validate checks the request.
func (in VocabularyInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Word, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&in.UserLevel, validation.Required, validation.In(levels...)),
		validation.Field(&in.RequestType, validation.Required, validation.In(keys(requestTypes)...)),
	)
}

// VocabularyExplanation describes a word.
type VocabularyExplanation struct {
	Word             string    `json:"word"`
	Meaning          string    `json:"meaning"`
	Examples         []Example `json:"examples"`
	Etymology        string    `json:"etymology,omitempty"`
	Usage            string    `json:"usage,omitempty"`
	Synonyms         []string  `json:"synonyms"`
	Antonyms         []string  `json:"antonyms"`
	TheologicalUsage string    `json:"theologicalUsage,omitempty"`
}

var writingTypes = map[string]string{
	"sentence":  "문장",
	"paragraph": "단락",
	"sermon":    "설교문",
}

// FeedbackInput asks for corrections of a text.
type FeedbackInput struct {
	OriginalText string   `json:"originalText"`
	UserLevel    string   `json:"userLevel"`
	WritingType  string   `json:"writingType"`
	FocusAreas   []string `json:"focusAreas,omitempty"`
}

// Validate checks the request.
func (in FeedbackInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.OriginalText, validation.Required, validation.RuneLength(1, maxTextLength)),
		validation.Field(&in.UserLevel, validation.Required, validation.In(levels...)),
		validation.Field(&in.WritingType, validation.Required, validation.In(keys(writingTypes)...)),
		validation.Field(&in.FocusAreas, validation.Length(0, 10)),
	)
}

// Correction is one suggested change.
type Correction struct {
	Category    string `json:"category"`
	Original    string `json:"original"`
	Suggestion  string `json:"suggestion"`
	Explanation string `json:"explanation"`
}

// Feedback is the tutor's review of a text.
type Feedback struct {
	Strengths     []string     `json:"strengths"`
	CorrectedText string       `json:"correctedText"`
	Corrections   []Correction `json:"corrections"`
	Advice        string       `json:"advice"`
	Score         int          `json:"score"`
}

// ExamplesInput asks for example sentences. Count defaults to 5.
type ExamplesInput struct {
	GrammarPoint string `json:"grammarPoint"`
	Difficulty   string `json:"difficulty"`
	Count        int    `json:"count"`
}

// Validate checks the request.
func (in ExamplesInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.GrammarPoint, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&in.Difficulty, validation.Required, validation.In(levels...)),
		validation.Field(&in.Count, validation.Min(0), validation.Max(maxCount)),
	)
}

// ExampleSet is a list of generated examples.
type ExampleSet struct {
	Examples []Example `json:"examples"`
	Pattern  string    `json:"pattern"`
}

// AdviceInput asks for a study plan.
type AdviceInput struct {
	UserLevel string   `json:"userLevel"`
	WeakAreas []string `json:"weakAreas"`
}

// Validate checks the request.
func (in AdviceInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.UserLevel, validation.Required, validation.In(levels...)),
		validation.Field(&in.WeakAreas, validation.Required, validation.Length(1, 10), validation.Each(validation.Required)),
	)
}

// Strategy is a plan for one weak area.
type Strategy struct {
	Area       string   `json:"area"`
	Method     string   `json:"method"`
	Activities []string `json:"activities"`
	Weeks      int      `json:"weeks"`
}

// Advice is a personal study plan.
type Advice struct {
	Strategies  []Strategy `json:"strategies"`
	DailyPlan   []string   `json:"dailyPlan"`
	WeeklyFocus []string   `json:"weeklyFocus"`
	Resources   []string   `json:"resources"`
	SermonTips  []string   `json:"sermonTips"`
}

// Status describes the configured provider.
type Status struct {
	Enabled  bool     `json:"enabled"`
	Provider string   `json:"provider"`
	Model    string   `json:"model,omitempty"`
	Features []string `json:"features"`
}

// Service answers tutor requests. A nil provider disables it.
type Service struct {
	provider llm.Provider
	name     string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewService returns a Service for provider, which may be nil.
func NewService(provider llm.Provider, name string, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{provider: provider, name: name, timeout: timeout, logger: logger}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool { return s.provider != nil }

// Status reports the provider and the available features.
func (s *Service) Status() Status {
	st := Status{Enabled: s.Enabled(), Provider: s.name, Features: []string{}}
	if s.Enabled() {
		st.Model = s.provider.ModelID()
		st.Features = []string{"grammar-question", "vocabulary-explain", "writing-feedback", "generate-examples", "study-advice"}
	}
	return st
}

func (s *Service) generate(ctx context.Context, purpose string, schema *llm.Schema, prompt string, out any) error {
	if s.provider == nil {
		return fmt.Errorf("%w: AI tutor is disabled", apperr.ErrUnavailable)
	}
	ctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, purpose), s.timeout)
	defer cancel()

	resp, err := s.provider.Generate(ctx, llm.UserPrompt(systemPrompt, prompt, schema, maxTokens))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.logger.Error("tutor request failed", slog.String("purpose", purpose), slog.String("error", err.Error()))
		return fmt.Errorf("%w: AI tutor failed: %w", apperr.ErrUnavailable, err)
	}
	if err := json.Unmarshal(resp.Content, out); err != nil {
		return fmt.Errorf("%w: decode tutor response: %w", apperr.ErrUnavailable, err)
	}
	return nil
}

// GrammarQuestion explains a grammar topic at the learner's level.
func (s *Service) GrammarQuestion(ctx context.Context, in GrammarQuestionInput) (*GrammarAnswer, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "학습자 레벨: %s\n문법 주제: %s\n질문: %s\n", in.UserLevel, in.GrammarTopic, in.Question)
	if in.Context != "" {
		fmt.Fprintf(&b, "현재 학습 내용: %s\n", in.Context)
	}
	b.WriteString("레벨에 맞게 설명하고 예문 3-5개, 흔한 실수, 추가 학습 팁을 제시하세요.")

	var out GrammarAnswer
	if err := s.generate(ctx, "grammar-question", grammarAnswerSchema, b.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExplainVocabulary describes a word in the requested depth.
func (s *Service) ExplainVocabulary(ctx context.Context, in VocabularyInput) (*VocabularyExplanation, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	prompt := fmt.Sprintf("단어: %s\n학습자 레벨: %s\n요청: %s\n신학적·교회 맥락에서 쓰이면 theologicalUsage에 따로 적으세요. 해당 없는 항목은 빈 값으로 두세요.",
		in.Word, in.UserLevel, requestTypes[in.RequestType])

	var out VocabularyExplanation
	if err := s.generate(ctx, "vocabulary-explain", vocabularySchema, prompt, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WritingFeedback corrects a learner's text.
func (s *Service) WritingFeedback(ctx context.Context, in FeedbackInput) (*Feedback, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	focus := "모든 영역을 종합적으로 검토하세요."
	if len(in.FocusAreas) > 0 {
		focus = "다음 영역에 집중하세요: " + strings.Join(in.FocusAreas, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "학습자 레벨: %s\n작문 유형: %s\n%s\n\n학습자의 작문:\n%s\n\n", in.UserLevel, writingTypes[in.WritingType], focus, in.OriginalText)
	b.WriteString("문법 오류, 어휘 선택, 자연스러운 표현을 검토하고 잘된 점과 개선점을 균형 있게 제시하세요.")
	if in.WritingType == "sermon" {
		b.WriteString(" 신학적 표현의 적절성도 theology 항목으로 검토하세요.")
	}

	var out Feedback
	if err := s.generate(ctx, "writing-feedback", feedbackSchema, b.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateExamples writes example sentences for a grammar point.
func (s *Service) GenerateExamples(ctx context.Context, in ExamplesInput) (*ExampleSet, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	if in.Count == 0 {
		in.Count = defaultCount
	}
	prompt := fmt.Sprintf("문법 포인트: %s\n난이도: %s\n예문 %d개를 만드세요. 일부는 일상 대화, 일부는 교회 맥락의 문장으로 하고, 마지막에 핵심 패턴을 요약하세요.",
		in.GrammarPoint, in.Difficulty, in.Count)

	var out ExampleSet
	if err := s.generate(ctx, "generate-examples", examplesSchema, prompt, &out); err != nil {
		return nil, err
	}
	if len(out.Examples) > in.Count {
		out.Examples = out.Examples[:in.Count]
	}
	return &out, nil
}

// StudyAdvice builds a study plan around the learner's weak areas.
func (s *Service) StudyAdvice(ctx context.Context, in AdviceInput) (*Advice, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	prompt := fmt.Sprintf("학습자 레벨: %s\n약점 영역: %s\n영역별 학습 전략, 일일 계획, 요일별 초점, 추천 자료, 설교문 작성 팁을 제시하세요.",
		in.UserLevel, strings.Join(in.WeakAreas, ", "))

	var out Advice
	if err := s.generate(ctx, "study-advice", adviceSchema, prompt, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func keys(m map[string]string) []any {
	out := make([]any, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
