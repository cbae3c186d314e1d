package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"snapforge/internal/domain"
)

const testSecret = "test-secret"

func testProfile() *domain.Profile {
	return &domain.Profile{
		ID:    "11111111-2222-3333-4444-555555555555",
		Email: "ana@example.com",
		Plan:  domain.PlanPro,
		Role:  domain.RoleUser,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	token, err := SignSession(testSecret, testProfile(), "en")
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}

	claims, err := VerifySession(testSecret, token)
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if claims.Subject != testProfile().ID {
		t.Fatalf("Subject = %q, want %q", claims.Subject, testProfile().ID)
	}
	if claims.Plan != "pro" || claims.Role != "user" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifySessionRejectsWrongSecret(t *testing.T) {
	token, err := SignSession(testSecret, testProfile(), "en")
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}
	if _, err := VerifySession("other-secret", token); err == nil {
		t.Fatalf("VerifySession accepted token signed with another secret")
	}
}

func TestVerifySessionRejectsExpired(t *testing.T) {
	claims := SessionClaims{
		Plan: "free",
		Role: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifySession(testSecret, token); err == nil {
		t.Fatalf("VerifySession accepted expired token")
	}
}

func captureIdentity(t *testing.T) (http.Handler, *domain.Identity, *bool) {
	t.Helper()
	var got domain.Identity
	var seen bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return Identity(testSecret)(h), &got, &seen
}

func TestIdentityBearerToken(t *testing.T) {
	handler, got, seen := captureIdentity(t)

	token, err := SignSession(testSecret, testProfile(), "en")
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !*seen || got.Anonymous || got.ID != testProfile().ID {
		t.Fatalf("identity = %+v (seen=%v)", *got, *seen)
	}
	if !got.IsPro() {
		t.Fatalf("expected pro identity, got %+v", *got)
	}
}

func TestIdentityVisitorHeader(t *testing.T) {
	handler, got, seen := captureIdentity(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Visitor-ID", "v-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !*seen || !got.Anonymous || got.ID != "v-42" {
		t.Fatalf("identity = %+v (seen=%v)", *got, *seen)
	}
}

func TestIdentityRejectsBadToken(t *testing.T) {
	handler, _, seen := captureIdentity(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if *seen {
		t.Fatalf("handler ran despite bad token")
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAdmin(next)

	tests := []struct {
		name string
		id   *domain.Identity
		want int
	}{
		{name: "no identity", id: nil, want: http.StatusForbidden},
		{name: "visitor", id: &domain.Identity{ID: "v-1", Anonymous: true}, want: http.StatusForbidden},
		{name: "regular user", id: &domain.Identity{ID: "u-1", Role: domain.RoleUser}, want: http.StatusForbidden},
		{name: "admin", id: &domain.Identity{ID: "u-2", Role: domain.RoleAdmin}, want: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.id != nil {
				req = req.WithContext(ContextWithIdentity(req.Context(), *tc.id))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
