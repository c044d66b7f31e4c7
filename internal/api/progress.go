package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hunlearn/internal/store"
)

// GamificationProfile handles GET /api/gamification/profile.
func (h *Handler) GamificationProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Gamification.Profile(userID(r))
	if err != nil {
		writeError(w, "gamification profile", err)
		return
	}
	ok(w, http.StatusOK, "profile", p)
}

// Streak handles GET /api/gamification/streak.
func (h *Handler) Streak(w http.ResponseWriter, r *http.Request) {
	current, longest, err := h.svc.Gamification.Streak(userID(r))
	if err != nil {
		writeError(w, "streak", err)
		return
	}
	ok(w, http.StatusOK, "streak", map[string]int{"current": current, "longest": longest})
}

// Achievements handles GET /api/gamification/achievements and
// GET /api/dashboard/achievements.
func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	badges, err := h.svc.Analytics.Achievements(userID(r))
	if err != nil {
		writeError(w, "achievements", err)
		return
	}
	earned := 0
	for _, b := range badges {
		if b.Earned {
			earned++
		}
	}
	ok(w, http.StatusOK, "achievements", map[string]any{"achievements": badges, "earned": earned, "total": len(badges)})
}

// Challenges handles GET /api/gamification/challenges.
func (h *Handler) Challenges(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Gamification.Challenges(userID(r))
	if err != nil {
		writeError(w, "challenges", err)
		return
	}
	ok(w, http.StatusOK, "daily challenges", map[string]any{"challenges": list})
}

// ClaimChallenge handles POST /api/gamification/challenges/{id}/claim.
func (h *Handler) ClaimChallenge(w http.ResponseWriter, r *http.Request) {
	award, err := h.svc.Gamification.ClaimChallenge(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "claim challenge", err)
		return
	}
	ok(w, http.StatusOK, "challenge claimed", map[string]any{"award": award})
}

// Leaderboard handles GET /api/gamification/leaderboard.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	limit, _ := store.Page(queryInt(r, "limit", 0), 0, 10, 100)
	list, err := h.svc.Gamification.Leaderboard(period, limit)
	if err != nil {
		writeError(w, "leaderboard", err)
		return
	}
	ok(w, http.StatusOK, "leaderboard", map[string]any{"period": period, "entries": list})
}

// DashboardStats handles GET /api/dashboard/stats.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Analytics.Dashboard(userID(r))
	if err != nil {
		writeError(w, "dashboard stats", err)
		return
	}
	ok(w, http.StatusOK, "dashboard stats", st)
}

// RecentActivities handles GET /api/dashboard/recent-activities.
func (h *Handler) RecentActivities(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Analytics.RecentActivities(userID(r), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, "recent activities", err)
		return
	}
	ok(w, http.StatusOK, "recent activities", map[string]any{"activities": list})
}

// Recommendations handles GET /api/dashboard/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Analytics.Recommendations(userID(r))
	if err != nil {
		writeError(w, "recommendations", err)
		return
	}
	ok(w, http.StatusOK, "recommendations", map[string]any{"recommendations": list})
}

// AnalyticsOverview handles GET /api/analytics/overview.
func (h *Handler) AnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Analytics.Overview(userID(r), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, "analytics overview", err)
		return
	}
	ok(w, http.StatusOK, "analytics overview", o)
}
