package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hunlearn/internal/content"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/sermon"
	"github.com/starford/hunlearn/internal/store"
)

func setETag(w http.ResponseWriter, d *models.SermonDraft) {
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(d.Version)))
}

// ifMatch parses the If-Match header as a draft version. Missing headers
// yield 0, meaning unconditional.
func ifMatch(r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" {
		return 0, true
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// ListDrafts handles GET /api/sermon/drafts.
func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := store.Page(queryInt(r, "limit", 0), queryInt(r, "offset", 0), 20, 100)
	drafts, total, err := h.svc.Sermon.List(store.DraftFilter{
		UserID: userID(r),
		Status: q.Get("status"),
		Sort:   q.Get("sort"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, "list drafts", err)
		return
	}
	ok(w, http.StatusOK, "drafts", map[string]any{"drafts": drafts, "pagination": page(total, limit, offset)})
}

// SearchDrafts handles GET /api/sermon/drafts/search.
func (h *Handler) SearchDrafts(w http.ResponseWriter, r *http.Request) {
	limit, offset := store.Page(queryInt(r, "limit", 0), queryInt(r, "offset", 0), 20, 100)
	drafts, total, err := h.svc.Sermon.Search(userID(r), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeError(w, "search drafts", err)
		return
	}
	ok(w, http.StatusOK, "drafts", map[string]any{"drafts": drafts, "pagination": page(total, limit, offset)})
}

// DraftStats handles GET /api/sermon/drafts/stats.
func (h *Handler) DraftStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Sermon.Stats(userID(r))
	if err != nil {
		writeError(w, "draft stats", err)
		return
	}
	ok(w, http.StatusOK, "draft stats", st)
}

// CreateDraft handles POST /api/sermon/drafts.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var in sermon.DraftInput
	if !decode(w, r, &in) {
		return
	}
	d, err := h.svc.Sermon.Create(userID(r), in)
	if err != nil {
		writeError(w, "create draft", err)
		return
	}
	setETag(w, d)
	ok(w, http.StatusCreated, "draft created", d)
}

// GetDraft handles GET /api/sermon/drafts/{id}.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Sermon.Get(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get draft", err)
		return
	}
	setETag(w, d)
	ok(w, http.StatusOK, "draft", d)
}

// UpdateDraft handles PUT /api/sermon/drafts/{id}. A stale If-Match version
// is rejected with 409.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	version, valid := ifMatch(r)
	if !valid {
		fail(w, http.StatusBadRequest, "VALIDATION_ERROR", "If-Match must be a draft version", nil)
		return
	}
	var in sermon.DraftInput
	if !decode(w, r, &in) {
		return
	}
	d, err := h.svc.Sermon.Update(userID(r), chi.URLParam(r, "id"), in, version)
	if err != nil {
		writeError(w, "update draft", err)
		return
	}
	setETag(w, d)
	ok(w, http.StatusOK, "draft updated", d)
}

// DeleteDraft handles DELETE /api/sermon/drafts/{id} by archiving the draft.
func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Sermon.Delete(userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete draft", err)
		return
	}
	ok(w, http.StatusOK, "draft archived", nil)
}

// SetDraftStatus handles PUT /api/sermon/drafts/{id}/status.
func (h *Handler) SetDraftStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decode(w, r, &req) {
		return
	}
	d, award, err := h.svc.Sermon.SetStatus(userID(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, "set draft status", err)
		return
	}
	setETag(w, d)
	ok(w, http.StatusOK, "status updated", map[string]any{"draft": d, "award": award})
}

// DuplicateDraft handles POST /api/sermon/drafts/{id}/duplicate.
func (h *Handler) DuplicateDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Sermon.Duplicate(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "duplicate draft", err)
		return
	}
	setETag(w, d)
	ok(w, http.StatusCreated, "draft duplicated", d)
}

// CheckGrammar handles POST /api/sermon/check-grammar.
func (h *Handler) CheckGrammar(w http.ResponseWriter, r *http.Request) {
	var in sermon.CheckInput
	if !decode(w, r, &in) {
		return
	}
	rep, err := h.svc.Sermon.CheckGrammar(in)
	if err != nil {
		writeError(w, "check grammar", err)
		return
	}
	ok(w, http.StatusOK, "grammar checked", rep)
}

// ListTemplates handles GET /api/sermon/templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list := h.svc.Sermon.Templates(content.TemplateFilter{
		Difficulty: q.Get("difficulty"),
		Category:   q.Get("category"),
		Occasion:   q.Get("occasion"),
	})
	ok(w, http.StatusOK, "templates", map[string]any{"templates": list, "total": len(list)})
}

// GetTemplate handles GET /api/sermon/templates/{id}.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Sermon.Template(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get template", err)
		return
	}
	ok(w, http.StatusOK, "template", t)
}

// ApplyTemplate handles POST /api/sermon/apply-template.
func (h *Handler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var in sermon.ApplyTemplateInput
	if !decode(w, r, &in) {
		return
	}
	d, err := h.svc.Sermon.ApplyTemplate(userID(r), in)
	if err != nil {
		writeError(w, "apply template", err)
		return
	}
	setETag(w, d)
	ok(w, http.StatusCreated, "draft created from template", d)
}

// GenerateOutline handles POST /api/sermon/generate-outline.
func (h *Handler) GenerateOutline(w http.ResponseWriter, r *http.Request) {
	var in sermon.OutlineInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.svc.Sermon.GenerateOutline(in)
	if err != nil {
		writeError(w, "generate outline", err)
		return
	}
	ok(w, http.StatusOK, "outline generated", out)
}
