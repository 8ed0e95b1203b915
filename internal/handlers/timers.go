package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ngenohkevin/racetime_clock/internal/instant"
	"github.com/ngenohkevin/racetime_clock/internal/models"
	"github.com/ngenohkevin/racetime_clock/internal/timer"
)

// timers returns the registered in-memory timers in registration order
func (h *Handler) timers() []models.Timer {
	var out []models.Timer
	for _, entry := range h.Engine.Registry().Snapshot() {
		el, ok := entry.Target.(*timer.Element)
		if !ok {
			continue
		}
		out = append(out, timerModel(entry.ID, el))
	}
	return out
}

// timerModel converts a registered element to its HTTP representation
func timerModel(id uuid.UUID, el *timer.Element) models.Timer {
	annotations, _ := el.Annotations()
	t := models.Timer{
		ID:       id.String(),
		Datetime: annotations.Datetime,
	}
	if annotations.HasLatency {
		if ms, err := strconv.ParseFloat(annotations.Latency, 64); err == nil {
			t.LatencyMS = &ms
		}
	}
	if d, ok := el.Text(); ok {
		t.Text = d.String()
		t.HTML = string(d.HTML())
		t.Rendered = true
	}
	return t
}

// CreateTimer handles the request to register a live timer
func (h *Handler) CreateTimer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	annotations := instant.Annotations{Datetime: req.Datetime}
	if req.LatencyMS != nil {
		annotations.Latency = strconv.FormatFloat(*req.LatencyMS, 'f', -1, 64)
		annotations.HasLatency = true
	}

	reference, err := instant.Parse(annotations.Datetime, h.Config.Location)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid datetime: %v", err), http.StatusBadRequest)
		return
	}
	latency, err := annotations.LatencyOffset()
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid latency: %v", err), http.StatusBadRequest)
		return
	}

	d, err := timer.Format(h.Clock.Now(), reference, latency)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid timer: %v", err), http.StatusBadRequest)
		return
	}

	el := timer.NewElement(annotations)
	// Render once so the timer has text before the next frame
	if err := el.Render(d); err != nil {
		h.Logger.Error("rendering timer", "err", err)
		http.Error(w, "Error rendering timer", http.StatusInternalServerError)
		return
	}
	id := h.Engine.Registry().Add(el)

	h.Logger.Info("timer registered", "id", id, "datetime", req.Datetime)
	h.writeJSON(w, http.StatusCreated, timerModel(id, el))
}

// GetTimer handles the request to read a timer's current text
func (h *Handler) GetTimer(w http.ResponseWriter, r *http.Request) {
	id, ok := timerID(w, r)
	if !ok {
		return
	}

	target, found := h.Engine.Registry().Get(id)
	el, isElement := target.(*timer.Element)
	if !found || !isElement {
		http.Error(w, "Timer not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, timerModel(id, el))
}

// DeleteTimer handles the request to unregister a timer
func (h *Handler) DeleteTimer(w http.ResponseWriter, r *http.Request) {
	id, ok := timerID(w, r)
	if !ok {
		return
	}

	if !h.Engine.Registry().Remove(id) {
		http.Error(w, "Timer not found", http.StatusNotFound)
		return
	}
	h.Logger.Info("timer removed", "id", id)

	// Dashboard forms come back to the dashboard
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// timerID parses the timer ID URL parameter, answering 400 when invalid
func timerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		http.Error(w, "Missing timer ID", http.StatusBadRequest)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "Invalid timer ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeJSON encodes v as the response body
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("writing response", "err", err)
	}
}
