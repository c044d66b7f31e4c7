package api

import (
	"net/http"

	"github.com/starford/hunlearn/internal/tutor"
)

// TutorStatus handles GET /api/ai-tutor/status.
func (h *Handler) TutorStatus(w http.ResponseWriter, _ *http.Request) {
	ok(w, http.StatusOK, "AI tutor status", h.svc.Tutor.Status())
}

// GrammarQuestion handles POST /api/ai-tutor/grammar-question.
func (h *Handler) GrammarQuestion(w http.ResponseWriter, r *http.Request) {
	var in tutor.GrammarQuestionInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.svc.Tutor.GrammarQuestion(r.Context(), in)
	if err != nil {
		writeError(w, "tutor grammar question", err)
		return
	}
	ok(w, http.StatusOK, "grammar answer", out)
}

// ExplainVocabulary handles POST /api/ai-tutor/vocabulary-explain.
func (h *Handler) ExplainVocabulary(w http.ResponseWriter, r *http.Request) {
	var in tutor.VocabularyInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.svc.Tutor.ExplainVocabulary(r.Context(), in)
	if err != nil {
		writeError(w, "tutor vocabulary", err)
		return
	}
	ok(w, http.StatusOK, "vocabulary explanation", out)
}

// WritingFeedback handles POST /api/ai-tutor/writing-feedback.
func (h *Handler) WritingFeedback(w http.ResponseWriter, r *http.Request) {
	var in tutor.FeedbackInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.svc.Tutor.WritingFeedback(r.Context(), in)
	if err != nil {
		writeError(w, "tutor writing feedback", err)
		return
	}
	ok(w, http.StatusOK, "writing feedback", out)
}

// GenerateExamples handles POST /api/ai-tutor/generate-examples.
func (h *Handler) GenerateExamples(w http.ResponseWriter, r *http.Request) {
	var in tutor.ExamplesInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.svc.Tutor.GenerateExamples(r.Context(), in)
	if err != nil {
		writeError(w, "tutor examples", err)
		return
	}
	ok(w, http.StatusOK, "examples", out)
}

// StudyAdvice handles POST /api/ai-tutor/study-advice.
func (h *Handler) StudyAdvice(w http.ResponseWriter, r *http.Request) {
	var in tutor.AdviceInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.svc.Tutor.StudyAdvice(r.Context(), in)
	if err != nil {
		writeError(w, "tutor study advice", err)
		return
	}
	ok(w, http.StatusOK, "study advice", out)
}
