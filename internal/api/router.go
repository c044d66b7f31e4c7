package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hunlearn/internal/analytics"
	"github.com/starford/hunlearn/internal/assessment"
	"github.com/starford/hunlearn/internal/auth"
	"github.com/starford/hunlearn/internal/curriculum"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/sermon"
	"github.com/starford/hunlearn/internal/terms"
	"github.com/starford/hunlearn/internal/tutor"
	"github.com/starford/hunlearn/internal/vocabulary"
)

// Services are the domain services behind the API.
type Services struct {
	Auth         *auth.Service
	Vocabulary   *vocabulary.Service
	Sermon       *sermon.Service
	Terms        *terms.Service
	Curriculum   *curriculum.Service
	Assessment   *assessment.Service
	Gamification *gamification.Service
	Analytics    *analytics.Service
	Tutor        *tutor.Service
}

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc Services, sseHandler http.Handler) chi.Router {
	h := &Handler{svc: svc}

	r := chi.NewRouter()

	// Public.
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(svc.Auth.Tokens()))

		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/profile", h.Profile)
		r.Put("/auth/profile", h.UpdateProfile)
		r.Post("/auth/change-password", h.ChangePassword)

		r.Route("/vocabulary", func(r chi.Router) {
			r.Get("/", h.ListCards)
			r.Post("/", h.CreateCard)
			r.Get("/due", h.DueCards)
			r.Get("/stats", h.VocabularyStats)
			r.Post("/practice", h.Practice)
			r.Post("/sessions", h.CreateSession)
			r.Get("/sessions/{id}", h.GetSession)
			r.Post("/sessions/{id}/complete", h.CompleteSession)
			r.Get("/{id}", h.GetCard)
			r.Put("/{id}", h.UpdateCard)
			r.Delete("/{id}", h.DeleteCard)
			r.Get("/{id}/schedule", h.CardSchedule)
		})

		r.Route("/sermon", func(r chi.Router) {
			r.Get("/drafts", h.ListDrafts)
			r.Post("/drafts", h.CreateDraft)
			r.Get("/drafts/search", h.SearchDrafts)
			r.Get("/drafts/stats", h.DraftStats)
			r.Get("/drafts/{id}", h.GetDraft)
			r.Put("/drafts/{id}", h.UpdateDraft)
			r.Delete("/drafts/{id}", h.DeleteDraft)
			r.Put("/drafts/{id}/status", h.SetDraftStatus)
			r.Post("/drafts/{id}/duplicate", h.DuplicateDraft)
			r.Post("/check-grammar", h.CheckGrammar)
			r.Get("/templates", h.ListTemplates)
			r.Get("/templates/{id}", h.GetTemplate)
			r.Post("/apply-template", h.ApplyTemplate)
			r.Post("/generate-outline", h.GenerateOutline)
			r.Get("/theological-terms", h.SearchTerms)
		})

		r.Route("/theological-terms", func(r chi.Router) {
			r.Get("/", h.SearchTerms)
			r.Get("/search", h.SearchTerms)
			r.Get("/random", h.RandomTerm)
			r.Get("/dictionary", h.Dictionary)
			r.Get("/review", h.TermsForReview)
			r.Get("/statistics", h.TermStatistics)
			r.Get("/progress", h.TermProgress)
			r.Post("/progress", h.RecordTermProgress)
			r.Get("/category/{category}", h.TermsByCategory)
			r.Get("/{id}", h.GetTerm)
		})

		r.Route("/grammar-lessons", func(r chi.Router) {
			r.Get("/", h.ListLessons)
			r.Get("/{id}", h.GetLesson)
			r.Post("/{id}/exercises/{exerciseId}/check", h.CheckExercise)
			r.Post("/{id}/complete", h.CompleteLesson)
		})
		r.Get("/curriculum/progress", h.CurriculumProgress)

		r.Route("/assessment", func(r chi.Router) {
			r.Post("/start", h.StartAssessment)
			r.Get("/history", h.AssessmentHistory)
			r.Get("/{id}/next", h.NextQuestion)
			r.Post("/{id}/answer", h.AnswerQuestion)
			r.Get("/{id}/results", h.AssessmentResults)
			r.Get("/{id}/status", h.AssessmentStatus)
			r.Post("/{id}/pause", h.PauseAssessment)
			r.Post("/{id}/resume", h.ResumeAssessment)
		})

		r.Route("/gamification", func(r chi.Router) {
			r.Get("/profile", h.GamificationProfile)
			r.Get("/streak", h.Streak)
			r.Get("/achievements", h.Achievements)
			r.Get("/challenges", h.Challenges)
			r.Post("/challenges/{id}/claim", h.ClaimChallenge)
			r.Get("/leaderboard", h.Leaderboard)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", h.DashboardStats)
			r.Get("/recent-activities", h.RecentActivities)
			r.Get("/recommendations", h.Recommendations)
			r.Get("/achievements", h.Achievements)
		})
		r.Get("/analytics/overview", h.AnalyticsOverview)

		r.Route("/ai-tutor", func(r chi.Router) {
			r.Get("/status", h.TutorStatus)
			r.Post("/grammar-question", h.GrammarQuestion)
			r.Post("/vocabulary-explain", h.ExplainVocabulary)
			r.Post("/writing-feedback", h.WritingFeedback)
			r.Post("/generate-examples", h.GenerateExamples)
			r.Post("/study-advice", h.StudyAdvice)
		})

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	return r
}
