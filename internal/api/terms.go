package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hunlearn/internal/store"
	"github.com/starford/hunlearn/internal/terms"
)

// SearchTerms handles GET /api/theological-terms and its aliases.
func (h *Handler) SearchTerms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if query == "" {
		query = q.Get("q")
	}
	f := store.TermFilter{
		Query:      query,
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty_level"),
		Sort:       q.Get("sort"),
		Limit:      queryInt(r, "limit", 20),
		Offset:     queryInt(r, "offset", 0),
	}
	res, err := h.svc.Terms.Search(f)
	if err != nil {
		writeError(w, "search terms", err)
		return
	}
	limit, offset := store.Page(f.Limit, f.Offset, 20, 100)
	ok(w, http.StatusOK, "terms", map[string]any{
		"terms":         res.Terms,
		"categoryStats": res.Categories,
		"pagination":    page(res.Total, limit, offset),
	})
}

// GetTerm handles GET /api/theological-terms/{id}.
func (h *Handler) GetTerm(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Terms.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get term", err)
		return
	}
	ok(w, http.StatusOK, "term", t)
}

// TermsByCategory handles GET /api/theological-terms/category/{category}.
func (h *Handler) TermsByCategory(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Terms.ByCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, "terms by category", err)
		return
	}
	ok(w, http.StatusOK, "terms", map[string]any{"terms": list, "total": len(list)})
}

// RandomTerm handles GET /api/theological-terms/random.
func (h *Handler) RandomTerm(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Terms.Random(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, "random term", err)
		return
	}
	ok(w, http.StatusOK, "term", t)
}

// Dictionary handles GET /api/theological-terms/dictionary.
func (h *Handler) Dictionary(w http.ResponseWriter, r *http.Request) {
	limit, offset := store.Page(queryInt(r, "limit", 0), queryInt(r, "offset", 0), 50, 100)
	list, total, err := h.svc.Terms.Dictionary(r.URL.Query().Get("letter"), limit, offset)
	if err != nil {
		writeError(w, "dictionary", err)
		return
	}
	ok(w, http.StatusOK, "dictionary", map[string]any{"terms": list, "pagination": page(total, limit, offset)})
}

// RecordTermProgress handles POST /api/theological-terms/progress.
func (h *Handler) RecordTermProgress(w http.ResponseWriter, r *http.Request) {
	var in terms.ProgressInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.svc.Terms.RecordProgress(userID(r), in)
	if err != nil {
		writeError(w, "record term progress", err)
		return
	}
	ok(w, http.StatusOK, "progress recorded", res)
}

// TermProgress handles GET /api/theological-terms/progress.
func (h *Handler) TermProgress(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Terms.Progress(userID(r))
	if err != nil {
		writeError(w, "term progress", err)
		return
	}
	ok(w, http.StatusOK, "term progress", sum)
}

// TermsForReview handles GET /api/theological-terms/review.
func (h *Handler) TermsForReview(w http.ResponseWriter, r *http.Request) {
	limit, _ := store.Page(queryInt(r, "limit", 0), 0, 20, 100)
	list, err := h.svc.Terms.Review(userID(r), limit)
	if err != nil {
		writeError(w, "terms for review", err)
		return
	}
	ok(w, http.StatusOK, "terms for review", map[string]any{"terms": list, "total": len(list)})
}

// TermStatistics handles GET /api/theological-terms/statistics.
func (h *Handler) TermStatistics(w http.ResponseWriter, _ *http.Request) {
	st, err := h.svc.Terms.Statistics()
	if err != nil {
		writeError(w, "term statistics", err)
		return
	}
	ok(w, http.StatusOK, "term statistics", st)
}
