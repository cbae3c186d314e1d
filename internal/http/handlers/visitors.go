package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

// CreateVisitor mints a fresh anonymous identity with the starting credit
// grant. The id doubles as the wallet key and the queue ticket.
func (a *App) CreateVisitor(w http.ResponseWriter, r *http.Request) {
	visitorID := uuid.NewString()
	wallet, err := a.Ledger.OpenWallet(r.Context(), visitorID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("visitor wallet creation failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not create visitor")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"visitor_id": wallet.VisitorID,
		"credits":    wallet.Credits,
		"granted_at": wallet.GrantedAt,
	})
}
