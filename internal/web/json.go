package web

import (
	"encoding/json"
	"net/http"
)

// Request and response shapes for the /api endpoints. Durations cross
// the wire in whole seconds; timestamps are RFC3339.

type sensorResponse struct {
	Outcome     string  `json:"outcome"`
	Temperature float64 `json:"temperature,omitempty"`
	Humidity    float64 `json:"humidity,omitempty"`
	MeasuredAt  string  `json:"measured_at"`
}

type relayState struct {
	State string `json:"state"` // "on" or "off"
}

type timerJSON struct {
	Enabled      bool  `json:"enabled"`
	OnDuration   int64 `json:"onDuration"`
	OffDuration  int64 `json:"offDuration"`
	CurrentState bool  `json:"currentState"`
}

// timerUpdate allows partial updates: absent fields keep their value.
type timerUpdate struct {
	Enabled     *bool  `json:"enabled"`
	OnDuration  *int64 `json:"onDuration"`
	OffDuration *int64 `json:"offDuration"`
}

type hostnameJSON struct {
	Hostname string `json:"hostname"`
}

type readingJSON struct {
	ID          string  `json:"id"`
	TakenAt     string  `json:"taken_at"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorJSON{Error: msg})
}
