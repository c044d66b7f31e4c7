package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/hunlearn/internal/analytics"
	"github.com/starford/hunlearn/internal/assessment"
	"github.com/starford/hunlearn/internal/auth"
	"github.com/starford/hunlearn/internal/curriculum"
	"github.com/starford/hunlearn/internal/fsrs"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/llm"
	"github.com/starford/hunlearn/internal/sermon"
	"github.com/starford/hunlearn/internal/terms"
	"github.com/starford/hunlearn/internal/testutil"
	"github.com/starford/hunlearn/internal/tutor"
	"github.com/starford/hunlearn/internal/vocabulary"
)

// testEnv wires every service against a temp SQLite file. A nil provider
// disables the tutor.
func testEnv(t *testing.T, provider llm.Provider) http.Handler {
	t.Helper()
	db := testutil.TestDB(t)
	catalog := testutil.TestContent(t, db)
	logger := testutil.Logger()

	tokens := auth.NewTokens("test-secret", "hunlearn-test", time.Hour, 24*time.Hour)
	game := gamification.NewService(db, nil, logger)
	vocab := vocabulary.NewService(db, fsrs.Default(), game, logger)
	cur := curriculum.NewService(db, catalog, game, logger)

	svc := Services{
		Auth:         auth.NewService(db, tokens, bcrypt.MinCost, logger),
		Vocabulary:   vocab,
		Sermon:       sermon.NewService(db, catalog, game, logger),
		Terms:        terms.NewService(db, game, logger),
		Curriculum:   cur,
		Assessment:   assessment.NewService(db, catalog, game, logger),
		Gamification: game,
		Analytics:    analytics.NewService(db, vocab, cur, game, logger),
		Tutor:        tutor.NewService(provider, "test", time.Second, logger),
	}

	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	return NewRouter(svc, sseHandler)
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func do(t *testing.T, router http.Handler, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: body is not an envelope: %s", method, path, w.Body.String())
	}
	return w, resp
}

func register(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	w, resp := do(t, router, http.MethodPost, "/auth/register", "", map[string]any{
		"name":          "Kim Pastor",
		"email":         email,
		"password":      "Passw0rdX",
		"currentLevel":  "A1",
		"targetLevel":   "B1",
		"learningGoals": []string{"SERMON_WRITING"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d, body = %s", w.Code, w.Body.String())
	}
	var data struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	return data.Tokens.AccessToken
}

func TestAuthFlow(t *testing.T) {
	router := testEnv(t, nil)
	token := register(t, router, "kim@example.com")

	w, resp := do(t, router, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Kim Pastor", "email": "kim@example.com", "password": "Passw0rdX",
		"currentLevel": "A1", "targetLevel": "B1", "learningGoals": []string{"GRAMMAR"},
	})
	if w.Code != http.StatusConflict || resp.Success {
		t.Errorf("duplicate register = %d, success = %v", w.Code, resp.Success)
	}

	w, _ = do(t, router, http.MethodPost, "/auth/login", "", LoginRequest{Email: "kim@example.com", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login = %d, want 401", w.Code)
	}
	w, _ = do(t, router, http.MethodPost, "/auth/login", "", LoginRequest{Email: "kim@example.com", Password: "Passw0rdX"})
	if w.Code != http.StatusOK {
		t.Errorf("login = %d, body = %s", w.Code, w.Body.String())
	}

	w, resp = do(t, router, http.MethodGet, "/auth/profile", token, nil)
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("profile = %d, body = %s", w.Code, w.Body.String())
	}

	w, resp = do(t, router, http.MethodGet, "/auth/profile", "", nil)
	if w.Code != http.StatusUnauthorized || resp.Success || resp.Error == nil || resp.Error.Code != "UNAUTHORIZED" {
		t.Errorf("profile without token = %d, body = %s", w.Code, w.Body.String())
	}
	w, _ = do(t, router, http.MethodGet, "/auth/profile", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("profile with garbage token = %d, want 401", w.Code)
	}
}

func TestRegisterValidationDetails(t *testing.T) {
	router := testEnv(t, nil)
	w, resp := do(t, router, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "K", "email": "nope", "password": "short",
		"currentLevel": "C2", "targetLevel": "B1", "learningGoals": []string{"DANCING"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("register = %d, want 400", w.Code)
	}
	for _, field := range []string{"name", "email", "password", "currentLevel", "learningGoals"} {
		if _, ok := resp.Error.Details[field]; !ok {
			t.Errorf("missing detail for %s: %v", field, resp.Error.Details)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON = %d, want 400", rec.Code)
	}
}

func TestVocabularyPaginationAndPractice(t *testing.T) {
	router := testEnv(t, nil)
	token := register(t, router, "kim@example.com")

	w, resp := do(t, router, http.MethodGet, "/vocabulary?limit=5&offset=0", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d, body = %s", w.Code, w.Body.String())
	}
	var list struct {
		Cards      []json.RawMessage `json:"cards"`
		Pagination pagination        `json:"pagination"`
	}
	_ = json.Unmarshal(resp.Data, &list)
	if len(list.Cards) != 5 || list.Pagination.Total != 12 || !list.Pagination.HasMore || list.Pagination.Limit != 5 {
		t.Errorf("page = %d cards, %+v", len(list.Cards), list.Pagination)
	}

	w, _ = do(t, router, http.MethodGet, "/vocabulary?sort=random", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad sort = %d, want 400", w.Code)
	}

	w, resp = do(t, router, http.MethodPost, "/vocabulary/practice", token, vocabulary.PracticeInput{
		CardID: "seed-isten", Rating: fsrs.Good, ResponseTimeMs: 1200,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("practice = %d, body = %s", w.Code, w.Body.String())
	}
	var res vocabulary.PracticeResult
	_ = json.Unmarshal(resp.Data, &res)
	if len(res.NextIntervals) != 4 || res.Award == nil || res.Progress.Schedule.Reps != 1 {
		t.Errorf("practice result = %+v", res)
	}

	w, _ = do(t, router, http.MethodPost, "/vocabulary/practice", token, map[string]any{"cardId": "seed-isten", "rating": 7})
	if w.Code != http.StatusBadRequest {
		t.Errorf("rating 7 = %d, want 400", w.Code)
	}
	w, _ = do(t, router, http.MethodPost, "/vocabulary/practice", token, map[string]any{"cardId": "missing", "rating": 3})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing card = %d, want 404", w.Code)
	}

	w, _ = do(t, router, http.MethodGet, "/vocabulary/seed-isten/schedule", token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("schedule = %d", w.Code)
	}
}

func TestCardOwnership(t *testing.T) {
	router := testEnv(t, nil)
	owner := register(t, router, "owner@example.com")
	other := register(t, router, "other@example.com")

	card := map[string]any{
		"hungarianWord": "igehirdetés", "koreanMeaning": "설교", "wordClass": "NOUN",
		"level": "B1", "difficulty": "INTERMEDIATE",
	}
	w, resp := do(t, router, http.MethodPost, "/vocabulary", owner, card)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(resp.Data, &created)

	w, _ = do(t, router, http.MethodPut, "/vocabulary/"+created.ID, other, card)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign update = %d, want 403", w.Code)
	}
	w, _ = do(t, router, http.MethodDelete, "/vocabulary/"+created.ID, owner, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete = %d", w.Code)
	}

	w, resp = do(t, router, http.MethodPost, "/vocabulary", owner, map[string]any{})
	if w.Code != http.StatusBadRequest || resp.Error.Details["hungarianWord"] == "" {
		t.Errorf("empty card = %d, details = %v", w.Code, resp.Error)
	}
}

func TestSermonDraftConcurrency(t *testing.T) {
	router := testEnv(t, nil)
	token := register(t, router, "kim@example.com")
	other := register(t, router, "lee@example.com")

	draft := map[string]any{"title": map[string]string{"hungarian": "A kegyelem", "korean": "은혜"}}
	w, resp := do(t, router, http.MethodPost, "/sermon/drafts", token, draft)
	if w.Code != http.StatusCreated || w.Header().Get("ETag") != `"1"` {
		t.Fatalf("create = %d, etag = %q", w.Code, w.Header().Get("ETag"))
	}
	var d struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(resp.Data, &d)

	w, _ = do(t, router, http.MethodPut, "/sermon/drafts/"+d.ID, token, draft, "If-Match", `"1"`)
	if w.Code != http.StatusOK || w.Header().Get("ETag") != `"2"` {
		t.Errorf("update = %d, etag = %q", w.Code, w.Header().Get("ETag"))
	}
	w, _ = do(t, router, http.MethodPut, "/sermon/drafts/"+d.ID, token, draft, "If-Match", `"1"`)
	if w.Code != http.StatusConflict {
		t.Errorf("stale update = %d, want 409", w.Code)
	}
	w, _ = do(t, router, http.MethodPut, "/sermon/drafts/"+d.ID, token, draft, "If-Match", "abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad If-Match = %d, want 400", w.Code)
	}

	w, _ = do(t, router, http.MethodGet, "/sermon/drafts/"+d.ID, other, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign draft = %d, want 404", w.Code)
	}

	w, _ = do(t, router, http.MethodGet, "/sermon/drafts/search", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search without q = %d, want 400", w.Code)
	}

	w, resp = do(t, router, http.MethodPost, "/sermon/check-grammar", token, map[string]string{"text": "isten  szeret minket"})
	if w.Code != http.StatusOK || !resp.Success {
		t.Errorf("check grammar = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestAssessmentAndLessons(t *testing.T) {
	router := testEnv(t, nil)
	token := register(t, router, "kim@example.com")

	w, resp := do(t, router, http.MethodPost, "/assessment/start", token, map[string]any{"assessmentType": "LEVEL_PLACEMENT"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start = %d, body = %s", w.Code, w.Body.String())
	}
	var start struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	_ = json.Unmarshal(resp.Data, &start)

	w, _ = do(t, router, http.MethodGet, "/assessment/"+start.Session.ID+"/status", token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	w, _ = do(t, router, http.MethodGet, "/assessment/"+start.Session.ID+"/results", token, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("results before completion = %d, want 409", w.Code)
	}

	w, _ = do(t, router, http.MethodPost, "/grammar-lessons/A1-01-02/complete", token, map[string]int{"score": 80})
	if w.Code != http.StatusConflict {
		t.Errorf("locked lesson = %d, want 409", w.Code)
	}
	w, _ = do(t, router, http.MethodPost, "/grammar-lessons/A1-01-01/complete", token, map[string]int{"score": 80})
	if w.Code != http.StatusOK {
		t.Errorf("complete = %d, body = %s", w.Code, w.Body.String())
	}

	w, resp = do(t, router, http.MethodGet, "/dashboard/stats", token, nil)
	if w.Code != http.StatusOK || !resp.Success {
		t.Errorf("dashboard = %d", w.Code)
	}
	w, _ = do(t, router, http.MethodGet, "/analytics/overview?period=1y", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad period = %d, want 400", w.Code)
	}
}

func TestTutor(t *testing.T) {
	body := map[string]any{"grammarTopic": "Tárgyeset", "question": "Mikor kell -t?", "userLevel": "A2"}

	disabled := testEnv(t, nil)
	token := register(t, disabled, "kim@example.com")
	w, resp := do(t, disabled, http.MethodPost, "/ai-tutor/grammar-question", token, body)
	if w.Code != http.StatusServiceUnavailable || resp.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("disabled tutor = %d, body = %s", w.Code, w.Body.String())
	}

	enabled := testEnv(t, &llm.Mock{Fallback: true})
	token = register(t, enabled, "kim@example.com")
	w, _ = do(t, enabled, http.MethodPost, "/ai-tutor/grammar-question", token, body)
	if w.Code != http.StatusOK {
		t.Errorf("mock tutor = %d, body = %s", w.Code, w.Body.String())
	}
	w, _ = do(t, enabled, http.MethodPost, "/ai-tutor/vocabulary-explain", token, map[string]string{"word": "hit", "userLevel": "C2", "requestType": "full"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("level outside A1..B2 = %d, want 400", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	router := testEnv(t, nil)
	w, resp := do(t, router, http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound || resp.Success {
		t.Errorf("unknown route = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestEventsRequireAuth(t *testing.T) {
	router := testEnv(t, nil)
	token := register(t, router, "kim@example.com")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("events without token = %d, want 401", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req = httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("events = %d, content type %q", w.Code, w.Header().Get("Content-Type"))
	}
}
