package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"server/internal/infra/geoip"
)

const LocaleKey contextKey = "locale"

var localeTags = []language.Tag{
	language.English,
	language.Urdu,
}

var localeMatcher = language.NewMatcher(localeTags)

// countryLocales maps ISO country codes to a locale hint used when the request
// carries no explicit language preference.
var countryLocales = map[string]string{
	"PK": "ur",
}

// Locale resolves the response language for a request and stores it in the
// context. Precedence: locale already set by authentication, the X-Locale
// header, Accept-Language, a GeoIP country hint, then the configured default.
func Locale(resolver geoip.CountryResolver, defaultLocale string) func(http.Handler) http.Handler {
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := normalizeLocale(LocaleFromContext(r.Context()))
			if locale == "" {
				locale = normalizeLocale(r.Header.Get("X-Locale"))
			}
			if locale == "" {
				locale = matchAcceptLanguage(r.Header.Get("Accept-Language"))
			}
			if locale == "" && resolver != nil {
				if code, err := resolver.CountryCode(clientIP(r)); err == nil {
					locale = countryLocales[code]
				}
			}
			if locale == "" {
				locale = normalizeLocale(defaultLocale)
			}
			if locale == "" {
				locale = "en"
			}
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, LocaleKey, locale)
}

// LocaleFromContext returns the resolved locale, or empty when unresolved.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return ""
}

func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	_, index, _ := localeMatcher.Match(tag)
	if localeTags[index] == language.Urdu {
		return "ur"
	}
	return "en"
}

func matchAcceptLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, index, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	if localeTags[index] == language.Urdu {
		return "ur"
	}
	return "en"
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
