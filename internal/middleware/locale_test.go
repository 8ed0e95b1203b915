package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ngenohkevin/racetime_clock/internal/localize"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestLocaleFromAcceptLanguage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := scs.New()
	resolver := localize.NewResolver(ctx, localize.Locales[0], time.Minute)

	var got localize.Locale
	handler := sessions.LoadAndSave(Locale(sessions, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFrom(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-CH,de;q=0.9")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, language.German, got.Tag)
}

func TestLocaleFromEmptyContext(t *testing.T) {
	assert.Equal(t, localize.Locales[0].Tag, LocaleFrom(context.Background()).Tag)
}
