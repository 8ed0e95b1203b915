// Package instant parses the reference-instant and latency annotations
// carried by timer and localizable elements.
package instant

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	// ErrMalformedInstant is returned when a datetime annotation cannot be parsed
	ErrMalformedInstant = errors.New("malformed instant")
	// ErrMalformedLatency is returned when a latency annotation is not a number of milliseconds
	ErrMalformedLatency = errors.New("malformed latency")
)

// Attribute names used in markup
const (
	DatetimeAttr = "datetime"
	LatencyAttr  = "data-latency"
)

// Annotations are the raw values an element carries
type Annotations struct {
	Datetime   string
	Latency    string
	HasLatency bool
}

// Layouts without a zone offset are read in the viewer's location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// Parse reads an absolute instant. Offset-less date-times are interpreted in
// loc, bare dates in UTC.
func Parse(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.Wrap(ErrMalformedInstant, "empty datetime")
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	// Some producers separate date and time with a space
	if t, err := time.Parse("2006-01-02 15:04:05.999999999Z07:00", raw); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}

	return time.Time{}, errors.Wrapf(ErrMalformedInstant, "cannot parse %q", raw)
}

// ParseLatency reads a signed latency in milliseconds. An empty value is zero.
func ParseLatency(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, errors.Wrapf(ErrMalformedLatency, "cannot parse %q", raw)
	}
	ns := ms * float64(time.Millisecond)
	// float64(MaxInt64) rounds up to 2^63, the first value that does not fit
	if math.Abs(ns) >= float64(math.MaxInt64) {
		return 0, errors.Wrapf(ErrMalformedLatency, "%q out of range", raw)
	}

	return time.Duration(ns), nil
}

// LatencyOffset returns the parsed latency, zero when absent
func (a Annotations) LatencyOffset() (time.Duration, error) {
	if !a.HasLatency {
		return 0, nil
	}
	return ParseLatency(a.Latency)
}

// Resolve returns the annotated instant with its latency applied
func Resolve(a Annotations, loc *time.Location) (time.Time, error) {
	t, err := Parse(a.Datetime, loc)
	if err != nil {
		return time.Time{}, err
	}

	latency, err := a.LatencyOffset()
	if err != nil {
		return time.Time{}, err
	}

	return t.Add(latency), nil
}
