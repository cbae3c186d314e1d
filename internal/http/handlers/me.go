package handlers

import (
	"errors"
	"net/http"
	"time"

	"snapforge/internal/domain"
	"snapforge/internal/middleware"
)

type profilePayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Plan      string    `json:"plan"`
	Role      string    `json:"role"`
	Credits   int       `json:"credits"`
	RenewedAt time.Time `json:"renewed_at"`
}

func newProfilePayload(p *domain.Profile) profilePayload {
	return profilePayload{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Plan:      string(p.Plan),
		Role:      string(p.Role),
		Credits:   p.Credits,
		RenewedAt: p.RenewedAt,
	}
}

// Me returns the caller's profile and balance. Loading an authenticated
// profile renews stale monthly credits as a side effect; loading a visitor
// creates the wallet with the starting grant on first sight.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "identity required")
		return
	}

	if id.Anonymous {
		wallet, err := a.Ledger.OpenWallet(r.Context(), id.ID)
		if err != nil {
			a.Logger.Error().Err(err).Str("visitor_id", id.ID).Msg("wallet load failed")
			a.error(w, http.StatusInternalServerError, "internal", "could not load wallet")
			return
		}
		a.json(w, http.StatusOK, map[string]any{
			"visitor_id": wallet.VisitorID,
			"credits":    wallet.Credits,
			"granted_at": wallet.GrantedAt,
		})
		return
	}

	p, err := a.Profiles.Profile(r.Context(), id.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", id.ID).Msg("profile load failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not load profile")
		return
	}
	p, _ = a.Ledger.GrantIfStale(r.Context(), p)
	a.json(w, http.StatusOK, newProfilePayload(p))
}
