package models

// Timer is a registered live timer as exposed over HTTP
type Timer struct {
	ID        string   `json:"id"`
	Datetime  string   `json:"datetime"`
	LatencyMS *float64 `json:"latency_ms,omitempty"`
	Text      string   `json:"text"`
	HTML      string   `json:"-"`
	Rendered  bool     `json:"rendered"`
}

// CreateTimerRequest registers a timer counting from Datetime
type CreateTimerRequest struct {
	Datetime  string   `json:"datetime"`
	LatencyMS *float64 `json:"latency_ms,omitempty"`
}

// TickUpdate is one timer's state after a refresh cycle
type TickUpdate struct {
	ID    string `json:"id"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}
