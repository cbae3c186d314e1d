package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"snapforge/internal/middleware"
)

type sessionRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	// VisitorID, when present, is the anonymous identity to retire.
	VisitorID string `json:"visitor_id,omitempty"`
}

type sessionResponse struct {
	Token   string         `json:"token"`
	Profile profilePayload `json:"profile"`
}

// CreateSession exchanges a credentials stub for a signed session token. On
// first sight the profile is created with the starting allotment. Signing in
// retires the caller's visitor identity: its wallet is destroyed and its
// session dropped from the queue.
func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "email is required")
		return
	}

	p, err := a.Profiles.Upsert(r.Context(), req.Email, strings.TrimSpace(req.Name), a.StartingCredits)
	if err != nil {
		a.Logger.Error().Err(err).Str("email", req.Email).Msg("profile upsert failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not create session")
		return
	}

	token, err := middleware.SignSession(a.JWTSecret, p, middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.Logger.Error().Err(err).Msg("session signing failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not create session")
		return
	}

	if visitorID := strings.TrimSpace(req.VisitorID); visitorID != "" {
		a.Ledger.CloseWallet(r.Context(), visitorID)
		a.Engine.Drop(visitorID)
	}

	a.json(w, http.StatusOK, sessionResponse{Token: token, Profile: newProfilePayload(p)})
}
