package templates

import (
	"strconv"

	"github.com/ngenohkevin/racetime_clock/internal/models"
)

// Utility functions for timer markup

// formatLatency renders milliseconds without trailing zeros
func formatLatency(ms float64) string {
	return strconv.FormatFloat(ms, 'f', -1, 64)
}

// timerContent returns the markup inside a timer element, a placeholder
// until the timer has been rendered once
func timerContent(t models.Timer) string {
	if t.Rendered {
		return t.HTML
	}
	return "--:--:--"
}

// timerPath is where a timer's delete form posts
func timerPath(t models.Timer) string {
	return "/timers/" + t.ID
}
