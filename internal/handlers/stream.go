package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ngenohkevin/racetime_clock/internal/models"
	"github.com/ngenohkevin/racetime_clock/internal/timer"
)

// streamBuffer is how many refresh cycles a slow client may lag behind
const streamBuffer = 8

// StreamTimers handles the request to stream every refresh cycle as
// server-sent events
func (h *Handler) StreamTimers(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates, unsubscribe := h.Engine.Subscribe(streamBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case results, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(tickUpdates(results))
			if err != nil {
				h.Logger.Error("encoding tick", "err", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: tick\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// tickUpdates converts engine results for the wire
func tickUpdates(results []timer.Result) []models.TickUpdate {
	updates := make([]models.TickUpdate, 0, len(results))
	for _, res := range results {
		u := models.TickUpdate{ID: res.ID.String()}
		if res.Err != nil {
			u.Error = res.Err.Error()
		} else {
			u.Text = res.Duration.String()
		}
		updates = append(updates, u)
	}
	return updates
}
