package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const maxBody = 1 << 20

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest is the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// SessionRequest starts a review session.
type SessionRequest struct {
	SessionType   string `json:"sessionType"`
	TargetMinutes int    `json:"targetMinutes"`
}

// StatusRequest changes a draft status.
type StatusRequest struct {
	Status string `json:"status"`
}

// CheckAnswerRequest is an exercise answer.
type CheckAnswerRequest struct {
	Answer string `json:"answer"`
}

// decode reads a JSON body into v. It writes the 400 response itself and
// reports false when the body is not valid JSON.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		fail(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body", nil)
		return false
	}
	return true
}

// queryInt returns the integer query parameter name, or def when it is
// missing or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}
