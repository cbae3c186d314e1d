package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"snapforge/internal/middleware"
	"snapforge/internal/sqlinline"
)

type promptPreset struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type presetRequest struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Mode  string `json:"mode"`
}

func scanPreset(row pgx.Row) (*promptPreset, error) {
	var p promptPreset
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Mode, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePromptPreset registers a curated prompt template.
func (a *App) CreatePromptPreset(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Slug) == "" || strings.TrimSpace(req.Title) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "slug and title are required")
		return
	}
	preset, err := scanPreset(a.SQL.QueryRow(r.Context(), sqlinline.QInsertPromptPreset,
		req.Slug, req.Title, req.Body, req.Mode, id.ID))
	if err != nil {
		a.Logger.Error().Err(err).Str("slug", req.Slug).Msg("preset insert failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not create preset")
		return
	}
	a.json(w, http.StatusCreated, preset)
}

// ListPromptPresets returns the newest presets first.
func (a *App) ListPromptPresets(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectPromptPresets, limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("preset list failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not list presets")
		return
	}
	defer rows.Close()

	presets := []promptPreset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			a.Logger.Error().Err(err).Msg("preset scan failed")
			a.error(w, http.StatusInternalServerError, "internal", "could not list presets")
			return
		}
		presets = append(presets, *p)
	}
	a.json(w, http.StatusOK, map[string]any{"presets": presets})
}

// UpdatePromptPreset edits a preset in place.
func (a *App) UpdatePromptPreset(w http.ResponseWriter, r *http.Request) {
	presetID := chi.URLParam(r, "id")
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	preset, err := scanPreset(a.SQL.QueryRow(r.Context(), sqlinline.QUpdatePromptPreset,
		presetID, req.Title, req.Body, req.Mode))
	if errors.Is(err, pgx.ErrNoRows) {
		a.error(w, http.StatusNotFound, "not_found", "preset not found")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("preset_id", presetID).Msg("preset update failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not update preset")
		return
	}
	a.json(w, http.StatusOK, preset)
}

// DeletePromptPreset removes a preset.
func (a *App) DeletePromptPreset(w http.ResponseWriter, r *http.Request) {
	presetID := chi.URLParam(r, "id")
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QDeletePromptPreset, presetID); err != nil {
		a.Logger.Error().Err(err).Str("preset_id", presetID).Msg("preset delete failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not delete preset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type coupon struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	Credits        int        `json:"credits"`
	MaxRedemptions int        `json:"max_redemptions"`
	Redeemed       int        `json:"redeemed"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type couponRequest struct {
	Code           string     `json:"code"`
	Credits        int        `json:"credits"`
	MaxRedemptions int        `json:"max_redemptions"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

func scanCoupon(row pgx.Row) (*coupon, error) {
	var c coupon
	if err := row.Scan(&c.ID, &c.Code, &c.Credits, &c.MaxRedemptions, &c.Redeemed, &c.ExpiresAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCoupon mints a credit coupon.
func (a *App) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Code) == "" || req.Credits <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "code and positive credits are required")
		return
	}
	if req.MaxRedemptions <= 0 {
		req.MaxRedemptions = 1
	}
	c, err := scanCoupon(a.SQL.QueryRow(r.Context(), sqlinline.QInsertCoupon,
		req.Code, req.Credits, req.MaxRedemptions, req.ExpiresAt))
	if err != nil {
		a.Logger.Error().Err(err).Str("code", req.Code).Msg("coupon insert failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not create coupon")
		return
	}
	a.json(w, http.StatusCreated, c)
}

// ListCoupons returns every coupon, newest first.
func (a *App) ListCoupons(w http.ResponseWriter, r *http.Request) {
	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectCoupons)
	if err != nil {
		a.Logger.Error().Err(err).Msg("coupon list failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not list coupons")
		return
	}
	defer rows.Close()

	coupons := []coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			a.Logger.Error().Err(err).Msg("coupon scan failed")
			a.error(w, http.StatusInternalServerError, "internal", "could not list coupons")
			return
		}
		coupons = append(coupons, *c)
	}
	a.json(w, http.StatusOK, map[string]any{"coupons": coupons})
}

type redeemRequest struct {
	Code string `json:"code"`
}

// RedeemCoupon claims one redemption and credits the caller's balance.
// Exhausted or expired codes answer 404 without touching the ledger.
func (a *App) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok || id.Anonymous {
		a.error(w, http.StatusUnauthorized, "unauthorized", "sign in required")
		return
	}
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "code is required")
		return
	}

	var credits int
	err := a.SQL.QueryRow(r.Context(), sqlinline.QRedeemCoupon, req.Code, id.ID).Scan(&credits)
	if errors.Is(err, pgx.ErrNoRows) {
		a.error(w, http.StatusNotFound, "not_found", "coupon not available")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("code", req.Code).Msg("coupon redeem failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not redeem coupon")
		return
	}

	p, err := a.Ledger.Grant(r.Context(), id.ID, credits)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", id.ID).Msg("coupon grant failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not apply credits")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"granted": credits, "balance": p.Credits})
}
