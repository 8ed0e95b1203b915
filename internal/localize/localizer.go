// Package localize renders absolute instants as viewer-local date and time
// strings.
package localize

import (
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/ngenohkevin/racetime_clock/internal/instant"
)

// Mode selects which parts of an instant are rendered
type Mode int

// Rendering modes
const (
	Full Mode = iota
	DateOnly
	TimeOnly
)

// Modes lists every mode in the order a pass handles them
var Modes = []Mode{Full, DateOnly, TimeOnly}

// Class returns the markup class that tags an element with mode
func (m Mode) Class() string {
	switch m {
	case DateOnly:
		return "onlydate"
	case TimeOnly:
		return "onlytime"
	default:
		return "datetime"
	}
}

func (m Mode) selector() string {
	return "time." + m.Class()
}

// Result is the outcome of localizing one element
type Result struct {
	Mode     Mode
	Datetime string
	Text     string
	Err      error
}

// Localizer formats instants for a single viewer
type Localizer struct {
	locale   Locale
	location *time.Location
	logger   *log.Logger
}

// New creates a localizer for locale in location
func New(locale Locale, location *time.Location, logger *log.Logger) *Localizer {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Localizer{locale: locale, location: location, logger: logger}
}

// Locale returns the localizer's locale
func (l *Localizer) Locale() Locale {
	return l.locale
}

// Location returns the viewer's location
func (l *Localizer) Location() *time.Location {
	return l.location
}

// Format renders t in the viewer's location
func (l *Localizer) Format(t time.Time, mode Mode) string {
	return t.In(l.location).Format(l.locale.Layout(mode))
}

// Annotations reads the datetime and latency attributes of an element
func Annotations(s *goquery.Selection) instant.Annotations {
	datetime, _ := s.Attr(instant.DatetimeAttr)
	latency, hasLatency := s.Attr(instant.LatencyAttr)
	return instant.Annotations{Datetime: datetime, Latency: latency, HasLatency: hasLatency}
}

// Localize rewrites every localizable element under root, root included.
// Elements that cannot be parsed keep their text and are reported in the
// results.
func (l *Localizer) Localize(root *goquery.Selection) []Result {
	if root == nil || root.Length() == 0 {
		return nil
	}

	var results []Result
	for _, mode := range Modes {
		matches := root.Filter(mode.selector()).AddSelection(root.Find(mode.selector()))
		matches.Each(func(_ int, el *goquery.Selection) {
			res := l.localizeOne(el, mode)
			if res.Err != nil {
				l.logger.Debug("instant skipped", "mode", mode.Class(), "datetime", res.Datetime, "err", res.Err)
			}
			results = append(results, res)
		})
	}

	return results
}

// LocalizeDocument localizes the whole document
func (l *Localizer) LocalizeDocument(doc *goquery.Document) []Result {
	if doc == nil {
		return nil
	}
	return l.Localize(doc.Selection)
}

func (l *Localizer) localizeOne(el *goquery.Selection, mode Mode) (res Result) {
	annotations := Annotations(el)
	res = Result{Mode: mode, Datetime: annotations.Datetime}

	defer func() {
		if r := recover(); r != nil {
			res.Err = errors.Newf("localize panicked: %v", r)
		}
	}()

	t, err := instant.Resolve(annotations, l.location)
	if err != nil {
		res.Err = err
		return res
	}

	res.Text = l.Format(t, mode)
	el.SetText(res.Text)
	return res
}
