package api

import (
	"net/http"

	"github.com/starford/hunlearn/internal/auth"
)

// Handler holds API route handlers.
type Handler struct {
	svc Services
}

// userID returns the authenticated learner. Routes using it run behind
// AuthMiddleware.
func userID(r *http.Request) string {
	return auth.UserID(r.Context())
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if !decode(w, r, &in) {
		return
	}
	u, tokens, err := h.svc.Auth.Register(in)
	if err != nil {
		writeError(w, "register", err)
		return
	}
	ok(w, http.StatusCreated, "registered", map[string]any{"user": u, "tokens": tokens})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	u, tokens, err := h.svc.Auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, "login", err)
		return
	}
	ok(w, http.StatusOK, "logged in", map[string]any{"user": u, "tokens": tokens})
}

// Refresh handles POST /api/auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decode(w, r, &req) {
		return
	}
	tokens, err := h.svc.Auth.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, "refresh", err)
		return
	}
	ok(w, http.StatusOK, "token refreshed", map[string]any{"tokens": tokens})
}

// Logout handles POST /api/auth/logout. Tokens are stateless; the client
// discards them.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	ok(w, http.StatusOK, "logged out", nil)
}

// Profile handles GET /api/auth/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Auth.Profile(userID(r))
	if err != nil {
		writeError(w, "get profile", err)
		return
	}
	ok(w, http.StatusOK, "profile", u)
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in auth.ProfileInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.svc.Auth.UpdateProfile(userID(r), in)
	if err != nil {
		writeError(w, "update profile", err)
		return
	}
	ok(w, http.StatusOK, "profile updated", u)
}

// ChangePassword handles POST /api/auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Auth.ChangePassword(userID(r), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, "change password", err)
		return
	}
	ok(w, http.StatusOK, "password changed", nil)
}
