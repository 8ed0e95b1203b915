package timer

import (
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/cockroachdb/errors"
)

const tenth = 100 * time.Millisecond

// ErrOutOfRange is returned when an elapsed time does not fit in a time.Duration
var ErrOutOfRange = errors.New("elapsed time out of range")

// Duration is an elapsed time decomposed for display as H:MM:SS.d
type Duration struct {
	Negative bool
	Hours    int64
	Minutes  int64
	Seconds  int64
	Tenths   int64
}

// Decompose splits delta into whole hours, minutes, seconds and tenths of a
// second. Each step floors the remainder, so nothing carries into a larger unit.
func Decompose(delta time.Duration) Duration {
	d := Duration{Negative: delta < 0}

	magnitude := delta
	if d.Negative {
		magnitude = -delta
	}
	// -minDuration has no positive counterpart
	if magnitude < 0 {
		magnitude = time.Duration(1<<63 - 1)
	}

	d.Hours = int64(magnitude / time.Hour)
	magnitude -= time.Duration(d.Hours) * time.Hour
	d.Minutes = int64(magnitude / time.Minute)
	magnitude -= time.Duration(d.Minutes) * time.Minute
	d.Seconds = int64(magnitude / time.Second)
	magnitude -= time.Duration(d.Seconds) * time.Second
	d.Tenths = int64(magnitude / tenth)

	return d
}

// Format computes the display duration for a reference instant as seen at
// now. It fails rather than render a saturated or wrapped value.
func Format(now, reference time.Time, latency time.Duration) (Duration, error) {
	delta := now.Sub(reference)
	// Sub saturates at the Duration bounds
	if !reference.Add(delta).Equal(now) {
		return Duration{}, errors.Wrapf(ErrOutOfRange, "%s since %s", now.Format(time.RFC3339), reference.Format(time.RFC3339))
	}

	if (latency > 0 && delta > math.MaxInt64-latency) || (latency < 0 && delta < math.MinInt64-latency) {
		return Duration{}, errors.Wrapf(ErrOutOfRange, "latency %s", latency)
	}

	return Decompose(delta + latency), nil
}

// Clock returns the signed H:MM:SS part
func (d Duration) Clock() string {
	sign := ""
	if d.Negative {
		sign = "-"
	}
	return fmt.Sprintf("%s%d:%02d:%02d", sign, d.Hours, d.Minutes, d.Seconds)
}

// Fraction returns the tenths suffix including its leading dot
func (d Duration) Fraction() string {
	return fmt.Sprintf(".%d", d.Tenths)
}

// String returns the plain-text rendering, e.g. 1:02:05.4
func (d Duration) String() string {
	return d.Clock() + d.Fraction()
}

// HTML returns the markup rendering with a de-emphasized tenths digit
func (d Duration) HTML() template.HTML {
	return template.HTML(d.Clock() + "<small>" + d.Fraction() + "</small>")
}
