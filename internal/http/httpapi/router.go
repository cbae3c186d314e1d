// Package httpapi assembles the chi router and middleware chain in front of
// the handler set.
package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"snapforge/internal/http/handlers"
	"snapforge/internal/infra"
	mw "snapforge/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		mw.Logger(app.Logger),
		mw.CORS(cfg.CORSOrigins),
		mw.Locale("en"),
		mw.Identity(cfg.JWTSecret),
		mw.RateLimit(cfg.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/auth/session", app.CreateSession)
	r.Post("/v1/visitors", app.CreateVisitor)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireIdentity)

		r.Get("/v1/me", app.Me)

		r.Route("/v1/generations", func(r chi.Router) {
			r.Post("/", app.Generate)
			r.Post("/video", app.GenerateVideo)
			r.Post("/mode", app.SwitchMode)
			r.Get("/history", app.History)
			r.Get("/history/zip", app.HistoryZip)
		})

		r.Get("/v1/queue/position", app.QueuePosition)
		r.Post("/v1/queue/leave", app.LeaveQueue)

		r.Post("/v1/prompts/enhance", app.PromptEnhance)
		r.Post("/v1/chat", app.Chat)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuthenticated)
		r.Post("/v1/coupons/redeem", app.RedeemCoupon)
	})

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(mw.RequireAdmin)

		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", app.CreatePromptPreset)
			r.Get("/", app.ListPromptPresets)
			r.Put("/{id}", app.UpdatePromptPreset)
			r.Delete("/{id}", app.DeletePromptPreset)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Post("/", app.CreateCoupon)
			r.Get("/", app.ListCoupons)
		})
	})

	return r
}
