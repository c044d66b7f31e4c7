package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hunlearn/internal/assessment"
	"github.com/starford/hunlearn/internal/curriculum"
	"github.com/starford/hunlearn/internal/store"
)

// ListLessons handles GET /api/grammar-lessons.
func (h *Handler) ListLessons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lessons, err := h.svc.Curriculum.Lessons(userID(r), q.Get("level"), q.Get("category"))
	if err != nil {
		writeError(w, "list lessons", err)
		return
	}
	ok(w, http.StatusOK, "lessons", map[string]any{"lessons": lessons, "total": len(lessons)})
}

// GetLesson handles GET /api/grammar-lessons/{id}.
func (h *Handler) GetLesson(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Curriculum.Lesson(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get lesson", err)
		return
	}
	ok(w, http.StatusOK, "lesson", l)
}

// CheckExercise handles POST /api/grammar-lessons/{id}/exercises/{exerciseId}/check.
func (h *Handler) CheckExercise(w http.ResponseWriter, r *http.Request) {
	var req CheckAnswerRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Curriculum.CheckExercise(chi.URLParam(r, "id"), chi.URLParam(r, "exerciseId"), req.Answer)
	if err != nil {
		writeError(w, "check exercise", err)
		return
	}
	ok(w, http.StatusOK, "answer checked", res)
}

// CompleteLesson handles POST /api/grammar-lessons/{id}/complete.
func (h *Handler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	var in curriculum.CompleteInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.svc.Curriculum.Complete(userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, "complete lesson", err)
		return
	}
	ok(w, http.StatusOK, "lesson completed", res)
}

// CurriculumProgress handles GET /api/curriculum/progress.
func (h *Handler) CurriculumProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Curriculum.Progress(userID(r))
	if err != nil {
		writeError(w, "curriculum progress", err)
		return
	}
	ok(w, http.StatusOK, "curriculum progress", p)
}

// StartAssessment handles POST /api/assessment/start.
func (h *Handler) StartAssessment(w http.ResponseWriter, r *http.Request) {
	var in assessment.StartInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.svc.Assessment.Start(userID(r), in)
	if err != nil {
		writeError(w, "start assessment", err)
		return
	}
	ok(w, http.StatusCreated, "assessment started", res)
}

// NextQuestion handles GET /api/assessment/{id}/next.
func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Assessment.Next(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "next question", err)
		return
	}
	ok(w, http.StatusOK, "next question", q)
}

// AnswerQuestion handles POST /api/assessment/{id}/answer.
func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var in assessment.AnswerInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.svc.Assessment.Answer(userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, "answer question", err)
		return
	}
	ok(w, http.StatusOK, "answer recorded", res)
}

// AssessmentResults handles GET /api/assessment/{id}/results.
func (h *Handler) AssessmentResults(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Assessment.Results(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "assessment results", err)
		return
	}
	ok(w, http.StatusOK, "assessment results", sess)
}

// AssessmentHistory handles GET /api/assessment/history.
func (h *Handler) AssessmentHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := store.Page(queryInt(r, "limit", 0), queryInt(r, "offset", 0), 10, 50)
	list, total, err := h.svc.Assessment.History(userID(r), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		writeError(w, "assessment history", err)
		return
	}
	ok(w, http.StatusOK, "assessment history", map[string]any{"assessments": list, "pagination": page(total, limit, offset)})
}

// AssessmentStatus handles GET /api/assessment/{id}/status.
func (h *Handler) AssessmentStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Assessment.Status(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "assessment status", err)
		return
	}
	ok(w, http.StatusOK, "assessment status", st)
}

// PauseAssessment handles POST /api/assessment/{id}/pause.
func (h *Handler) PauseAssessment(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Assessment.Pause(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "pause assessment", err)
		return
	}
	ok(w, http.StatusOK, "assessment paused", sess)
}

// ResumeAssessment handles POST /api/assessment/{id}/resume.
func (h *Handler) ResumeAssessment(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Assessment.Resume(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "resume assessment", err)
		return
	}
	ok(w, http.StatusOK, "assessment resumed", res)
}
