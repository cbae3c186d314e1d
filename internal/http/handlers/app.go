// Package handlers exposes the generation core over HTTP. Handlers stay
// thin: decode, resolve the caller's identity, delegate to the engine or
// ledger, encode.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"snapforge/internal/engine"
	"snapforge/internal/infra"
	"snapforge/internal/infra/geoip"
	"snapforge/internal/ledger"
	"snapforge/internal/middleware"
	"snapforge/internal/providers/prompt"
	"snapforge/internal/sqlinline"
	"snapforge/internal/storage"
	"snapforge/internal/store"
)

type App struct {
	Logger   zerolog.Logger
	SQL      infra.SQLExecutor
	Engine   *engine.Engine
	Ledger   *ledger.Ledger
	Profiles *store.ProfileStore
	Enhancer prompt.Enhancer
	Geo      geoip.CountryResolver
	Files    *storage.FileStore

	JWTSecret string
	// StartingCredits seeds newly created accounts.
	StartingCredits int
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

// recordUsage inserts a usage event with a best-effort country code. Failures
// are logged and swallowed; bookkeeping never blocks a response.
func (a *App) recordUsage(r *http.Request, actorID, eventType string, success bool, started time.Time) {
	requestID := middleware.RequestIDFromContext(r.Context())
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	country := geoip.CountryOf(a.Geo, r)
	latency := int(time.Since(started).Milliseconds())
	_, err := a.SQL.Exec(r.Context(), sqlinline.QInsertUsageEvent, actorID, requestID, eventType, success, latency, country)
	if err != nil {
		a.Logger.Warn().Err(err).Str("event", eventType).Msg("usage event insert failed")
	}
}
