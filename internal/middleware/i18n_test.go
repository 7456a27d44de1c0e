package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticResolver struct {
	code string
	err  error
}

func (s staticResolver) CountryCode(ip string) (string, error) {
	return s.code, s.err
}

func localeProbe(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = LocaleFromContext(r.Context())
	})
}

func TestLocaleHeaderPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		xLocale  string
		accept   string
		resolver staticResolver
		want     string
	}{
		{"explicit header wins", "ur", "en-US", staticResolver{code: "US"}, "ur"},
		{"accept language fallback", "", "ur-PK,ur;q=0.9,en;q=0.5", staticResolver{}, "ur"},
		{"accept language english", "", "en-GB,en;q=0.8", staticResolver{}, "en"},
		{"geoip hint when headers silent", "", "", staticResolver{code: "PK"}, "ur"},
		{"unknown country falls back to default", "", "", staticResolver{code: "FR"}, "en"},
		{"geoip failure falls back to default", "", "", staticResolver{err: errors.New("no db")}, "en"},
		{"unparseable header ignored", "!!!", "", staticResolver{}, "en"},
		{"unsupported language maps to english", "de-DE", "", staticResolver{}, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := Locale(tt.resolver, "en")(localeProbe(&got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.xLocale != "" {
				req.Header.Set("X-Locale", tt.xLocale)
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Fatalf("locale = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocaleFromClaims(t *testing.T) {
	var got string
	handler := Locale(nil, "en")(localeProbe(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Locale", "en")
	ctx := req.Context()
	ctx = contextWithLocale(ctx, "ur")
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))

	if got != "ur" {
		t.Fatalf("locale = %q, want claim locale ur", got)
	}
}

func TestLocaleNilResolver(t *testing.T) {
	var got string
	handler := Locale(nil, "ur")(localeProbe(&got))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "ur" {
		t.Fatalf("locale = %q, want configured default", got)
	}
}
