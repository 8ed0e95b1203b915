package timer

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ngenohkevin/racetime_clock/internal/instant"
)

// ErrDetached is returned by targets whose element left the document
var ErrDetached = errors.New("target detached")

// Target is a display element whose text tracks the time since its
// reference instant. The engine only reads its annotations and rewrites its
// rendered text.
type Target interface {
	Annotations() (instant.Annotations, error)
	Render(d Duration) error
}

// Element is an in-memory target that keeps its last rendered duration
type Element struct {
	annotations instant.Annotations

	mu       sync.RWMutex
	rendered Duration
	updated  bool
}

// NewElement creates an element for a reference instant and optional latency
func NewElement(annotations instant.Annotations) *Element {
	return &Element{annotations: annotations}
}

// Annotations returns the element's reference instant and latency
func (e *Element) Annotations() (instant.Annotations, error) {
	return e.annotations, nil
}

// Render replaces the displayed duration. It never fails.
func (e *Element) Render(d Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rendered = d
	e.updated = true
	return nil
}

// Text returns the displayed duration; ok is false until the first render
func (e *Element) Text() (d Duration, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rendered, e.updated
}
