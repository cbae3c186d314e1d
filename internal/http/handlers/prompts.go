package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"snapforge/internal/domain"
	"snapforge/internal/middleware"
	"snapforge/internal/providers/prompt"
)

type promptEnhanceRequest struct {
	Description string `json:"description"`
	Mode        string `json:"mode,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// PromptEnhance rewrites a rough description into a generation-ready prompt.
// Enhancement costs prompt credits; the balance check fails closed.
func (a *App) PromptEnhance(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "identity required")
		return
	}
	var req promptEnhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "description is required")
		return
	}
	cost := a.Ledger.Cost(domain.OpPrompt)
	if !a.Ledger.HasSufficient(r.Context(), id, cost) {
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits")
		return
	}

	started := time.Now()
	res, err := a.Enhancer.Enhance(r.Context(), prompt.EnhanceRequest{
		Description: req.Description,
		Mode:        req.Mode,
		Locale:      middleware.LocaleFromContext(r.Context()),
	})
	a.recordUsage(r, id.ID, "prompt_enhance", err == nil, started)
	if err != nil {
		a.Logger.Error().Err(err).Msg("prompt enhance failed")
		a.error(w, http.StatusBadGateway, "provider", "enhancer failed")
		return
	}
	balance := a.Ledger.Debit(r.Context(), id, cost)
	a.json(w, http.StatusOK, map[string]any{
		"prompt":   res.Prompt,
		"keywords": res.Keywords,
		"metadata": res.Metadata,
		"provider": res.Provider,
		"balance":  balance,
	})
}

// Chat answers a styling question. Costs chat credits.
func (a *App) Chat(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "identity required")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}
	cost := a.Ledger.Cost(domain.OpChat)
	if !a.Ledger.HasSufficient(r.Context(), id, cost) {
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits")
		return
	}

	started := time.Now()
	res, err := a.Enhancer.Chat(r.Context(), prompt.ChatRequest{Message: req.Message})
	a.recordUsage(r, id.ID, "chat", err == nil, started)
	if err != nil {
		a.Logger.Error().Err(err).Msg("chat failed")
		a.error(w, http.StatusBadGateway, "provider", "chat failed")
		return
	}
	balance := a.Ledger.Debit(r.Context(), id, cost)
	a.json(w, http.StatusOK, map[string]any{
		"reply":    res.Reply,
		"provider": res.Provider,
		"balance":  balance,
	})
}
