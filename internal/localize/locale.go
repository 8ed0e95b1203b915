package localize

import (
	"context"
	"strings"
	"time"

	"github.com/ngenohkevin/racetime_clock/internal/cache"
	"golang.org/x/text/language"
)

// Locale holds the layouts used to render instants for one language
type Locale struct {
	Tag       language.Tag
	Date      string
	Time      string
	Separator string
}

// Layout returns the Go layout for mode
func (l Locale) Layout(mode Mode) string {
	switch mode {
	case DateOnly:
		return l.Date
	case TimeOnly:
		return l.Time
	default:
		return l.Date + l.Separator + l.Time
	}
}

// Locales are the supported locales; the first is the fallback
var Locales = []Locale{
	{Tag: language.AmericanEnglish, Date: "1/2/2006", Time: "3:04:05 PM", Separator: ", "},
	{Tag: language.BritishEnglish, Date: "02/01/2006", Time: "15:04:05", Separator: ", "},
	{Tag: language.German, Date: "2.1.2006", Time: "15:04:05", Separator: ", "},
	{Tag: language.French, Date: "02/01/2006", Time: "15:04:05", Separator: " "},
	{Tag: language.Spanish, Date: "2/1/2006", Time: "15:04:05", Separator: ", "},
	{Tag: language.Japanese, Date: "2006/1/2", Time: "15:04:05", Separator: " "},
	{Tag: language.Dutch, Date: "2-1-2006", Time: "15:04:05", Separator: ", "},
	{Tag: language.Swedish, Date: "2006-01-02", Time: "15:04:05", Separator: " "},
}

var matcher = language.NewMatcher(supportedTags())

func supportedTags() []language.Tag {
	tags := make([]language.Tag, len(Locales))
	for i, l := range Locales {
		tags[i] = l.Tag
	}
	return tags
}

// Match returns the supported locale closest to the given tags and whether
// the match is meaningful
func Match(tags ...language.Tag) (Locale, bool) {
	if len(tags) == 0 {
		return Locales[0], false
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Locales[0], false
	}
	return Locales[idx], true
}

// Lookup finds the locale for a BCP 47 tag such as "de-AT"
func Lookup(tag string) (Locale, bool) {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return Locales[0], false
	}
	return Match(t)
}

// Resolver maps Accept-Language headers to locales, memoizing the result
type Resolver struct {
	fallback Locale
	ttl      time.Duration
	cache    *cache.Cache[string, Locale]
}

// NewResolver creates a resolver that falls back to fallback and caches
// lookups for ttl
func NewResolver(ctx context.Context, fallback Locale, ttl time.Duration) *Resolver {
	return &Resolver{
		fallback: fallback,
		ttl:      ttl,
		cache:    cache.New[string, Locale](ctx, ttl),
	}
}

// Fallback returns the locale used when nothing matches
func (r *Resolver) Fallback() Locale {
	return r.fallback
}

// Resolve returns the locale for an Accept-Language header value. Lookups
// are memoized by the parsed, weight-ordered tag list, so spacing and
// q-value spelling do not create separate entries.
func (r *Resolver) Resolve(acceptLanguage string) Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return r.fallback
	}

	key := cacheKey(tags)
	if locale, ok := r.cache.Get(key); ok {
		return locale
	}

	locale := r.fallback
	if matched, ok := Match(tags...); ok {
		locale = matched
	}

	r.cache.Set(key, locale, r.ttl)
	return locale
}

// cacheKey joins the canonical form of tags
func cacheKey(tags []language.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}
