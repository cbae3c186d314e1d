package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"snapforge/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// SessionClaims is the JWT payload issued at sign-in.
type SessionClaims struct {
	Plan   string `json:"plan"`
	Role   string `json:"role"`
	Locale string `json:"locale,omitempty"`
	jwt.RegisteredClaims
}

const sessionTTL = 30 * 24 * time.Hour

// SignSession issues a signed session token for an authenticated profile.
func SignSession(secret string, p *domain.Profile, locale string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Plan:   string(p.Plan),
		Role:   string(p.Role),
		Locale: locale,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    "snapforge",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifySession parses and validates a session token.
func VerifySession(secret, token string) (*SessionClaims, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("verify session: invalid token")
	}
	return &claims, nil
}

// Identity resolves the caller's identity for every request. A valid Bearer
// token yields an authenticated identity; otherwise an X-Visitor-ID header
// yields an anonymous one. A malformed or expired token is rejected rather
// than downgraded to anonymous.
func Identity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "" {
				scheme, token, ok := strings.Cut(auth, " ")
				if !ok || !strings.EqualFold(scheme, "Bearer") {
					http.Error(w, "invalid authorization", http.StatusUnauthorized)
					return
				}
				claims, err := VerifySession(secret, token)
				if err != nil {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				id := domain.Identity{
					ID:   claims.Subject,
					Plan: domain.Plan(claims.Plan),
					Role: domain.Role(claims.Role),
				}
				next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
				return
			}
			if visitorID := strings.TrimSpace(r.Header.Get("X-Visitor-ID")); visitorID != "" {
				id := domain.VisitorIdentity(visitorID)
				next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireIdentity rejects requests that carry neither a session token nor a
// visitor id.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			http.Error(w, "identity required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthenticated rejects anonymous and unidentified callers.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok || id.Anonymous {
			http.Error(w, "sign in required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok || !id.IsAdmin() {
			http.Error(w, "admin only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ContextWithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}
