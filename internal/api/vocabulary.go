package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hunlearn/internal/store"
	"github.com/starford/hunlearn/internal/vocabulary"
)

// ListCards handles GET /api/vocabulary.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := store.Page(queryInt(r, "limit", 0), queryInt(r, "offset", 0), 20, 100)
	cards, total, err := h.svc.Vocabulary.List(store.CardFilter{
		UserID:     userID(r),
		Level:      q.Get("level"),
		Difficulty: q.Get("difficulty"),
		WordClass:  q.Get("word_class"),
		Tag:        q.Get("tag"),
		Query:      q.Get("q"),
		Sort:       q.Get("sort"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeError(w, "list cards", err)
		return
	}
	ok(w, http.StatusOK, "vocabulary", map[string]any{
		"cards":      cards,
		"pagination": page(total, limit, offset),
	})
}

// GetCard handles GET /api/vocabulary/{id}.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Vocabulary.Get(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get card", err)
		return
	}
	ok(w, http.StatusOK, "card", c)
}

// CreateCard handles POST /api/vocabulary.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var in vocabulary.CardInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Vocabulary.Create(userID(r), in)
	if err != nil {
		writeError(w, "create card", err)
		return
	}
	ok(w, http.StatusCreated, "card created", c)
}

// UpdateCard handles PUT /api/vocabulary/{id}.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var in vocabulary.CardInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Vocabulary.Update(userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, "update card", err)
		return
	}
	ok(w, http.StatusOK, "card updated", c)
}

// DeleteCard handles DELETE /api/vocabulary/{id}.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Vocabulary.Delete(userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete card", err)
		return
	}
	ok(w, http.StatusOK, "card deleted", nil)
}

// DueCards handles GET /api/vocabulary/due.
func (h *Handler) DueCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.Vocabulary.Due(userID(r), queryInt(r, "limit", 50), queryInt(r, "new_limit", 10))
	if err != nil {
		writeError(w, "due cards", err)
		return
	}
	ok(w, http.StatusOK, "due cards", map[string]any{"cards": cards, "total": len(cards)})
}

// Practice handles POST /api/vocabulary/practice.
func (h *Handler) Practice(w http.ResponseWriter, r *http.Request) {
	var in vocabulary.PracticeInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.svc.Vocabulary.Practice(userID(r), in)
	if err != nil {
		writeError(w, "practice", err)
		return
	}
	ok(w, http.StatusOK, "review recorded", res)
}

// CardSchedule handles GET /api/vocabulary/{id}/schedule.
func (h *Handler) CardSchedule(w http.ResponseWriter, r *http.Request) {
	intervals, err := h.svc.Vocabulary.Schedule(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "card schedule", err)
		return
	}
	ok(w, http.StatusOK, "schedule preview", map[string]any{"intervals": intervals})
}

// VocabularyStats handles GET /api/vocabulary/stats.
func (h *Handler) VocabularyStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Vocabulary.Stats(userID(r))
	if err != nil {
		writeError(w, "vocabulary stats", err)
		return
	}
	ok(w, http.StatusOK, "vocabulary stats", st)
}

// CreateSession handles POST /api/vocabulary/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decode(w, r, &req) {
		return
	}
	sess, cards, err := h.svc.Vocabulary.CreateSession(userID(r), req.SessionType, req.TargetMinutes)
	if err != nil {
		writeError(w, "create session", err)
		return
	}
	ok(w, http.StatusCreated, "session created", map[string]any{"session": sess, "cards": cards})
}

// GetSession handles GET /api/vocabulary/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, cards, err := h.svc.Vocabulary.Session(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get session", err)
		return
	}
	ok(w, http.StatusOK, "session", map[string]any{"session": sess, "cards": cards})
}

// CompleteSession handles POST /api/vocabulary/sessions/{id}/complete.
func (h *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	sess, award, err := h.svc.Vocabulary.CompleteSession(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "complete session", err)
		return
	}
	ok(w, http.StatusOK, "session completed", map[string]any{"session": sess, "award": award})
}
