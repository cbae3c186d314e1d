package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		fallback string
		want     string
	}{
		{
			name: "x-locale overrides",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "DE")
				r.Header.Set("Accept-Language", "en-US")
			},
			want: "de",
		},
		{
			name: "accept-language used",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "fr-FR,en;q=0.9")
			},
			want: "fr",
		},
		{
			name:     "fallback when nothing set",
			setup:    func(r *http.Request) {},
			fallback: "en",
			want:     "en",
		},
		{
			name: "underscore separator",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "pt_BR")
			},
			want: "pt",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			if got := detectLocale(req, tc.fallback); got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLocaleMiddlewareStoresContextValue(t *testing.T) {
	var got string
	handler := Locale("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "es-MX")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "es" {
		t.Fatalf("locale = %q, want es", got)
	}
}
