package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/ngenohkevin/racetime_clock/internal/localize"
)

// SessionLocaleKey is the session key holding the viewer's preferred locale
const SessionLocaleKey = "locale"

type contextKey struct{}

// Locale creates a middleware that resolves the viewer's locale, preferring
// the one stored in the session over the Accept-Language header
func Locale(sessionManager *scs.SessionManager, resolver *localize.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Static files are never localized
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			locale := resolver.Resolve(r.Header.Get("Accept-Language"))
			if preferred := sessionManager.GetString(r.Context(), SessionLocaleKey); preferred != "" {
				if l, ok := localize.Lookup(preferred); ok {
					locale = l
				}
			}

			next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), locale)))
		})
	}
}

// WithLocale returns a copy of ctx carrying locale
func WithLocale(ctx context.Context, locale localize.Locale) context.Context {
	return context.WithValue(ctx, contextKey{}, locale)
}

// LocaleFrom returns the locale stored in ctx, or the first supported locale
func LocaleFrom(ctx context.Context) localize.Locale {
	if l, ok := ctx.Value(contextKey{}).(localize.Locale); ok {
		return l
	}
	return localize.Locales[0]
}
