package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/temcontrol/temcontrol/internal/relay"
)

const defaultReadingsLimit = 100

// handleSensor takes a fresh reading on demand. The result also feeds
// the status tracker so on-demand reads show up in counts and history.
func (s *Server) handleSensor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sample := s.sampler.Sample()
	s.tracker.RecordReading(sample.Reading, sample.TakenAt)

	resp := sensorResponse{
		Outcome:    sample.Outcome.String(),
		MeasuredAt: sample.TakenAt.UTC().Format(time.RFC3339),
	}
	if !sample.OK() {
		s.log.Warnw("on-demand read failed", "outcome", sample.Outcome)
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Temperature = sample.Temperature
	resp.Humidity = sample.Humidity
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, relayState{State: onOff(s.relay.Snapshot().CurrentState)})

	case http.MethodPost:
		var req relayState
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		var on bool
		switch req.State {
		case "on":
			on = true
		case "off":
			on = false
		default:
			writeError(w, http.StatusBadRequest, `state must be "on" or "off"`)
			return
		}

		// Manual control takes the timer out of the loop.
		if err := s.relay.SetManual(s.now(), on); err != nil {
			s.log.Errorw("relay write failed", "err", err)
			writeError(w, http.StatusInternalServerError, "relay write failed")
			return
		}
		s.tracker.SetRelay(s.relay.Snapshot())
		writeJSON(w, http.StatusOK, relayState{State: onOff(on)})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, timerFromSnapshot(s.relay.Snapshot()))

	case http.MethodPost:
		var req timerUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if (req.OnDuration != nil && *req.OnDuration < 0) ||
			(req.OffDuration != nil && *req.OffDuration < 0) {
			writeError(w, http.StatusBadRequest, "durations must not be negative")
			return
		}

		cur := s.relay.Snapshot()
		enabled := cur.Enabled
		onFor := cur.OnDuration
		offFor := cur.OffDuration
		if req.Enabled != nil {
			enabled = *req.Enabled
		}
		if req.OnDuration != nil {
			onFor = time.Duration(*req.OnDuration) * time.Second
		}
		if req.OffDuration != nil {
			offFor = time.Duration(*req.OffDuration) * time.Second
		}

		if err := s.relay.Configure(s.now(), enabled, onFor, offFor); err != nil {
			s.log.Errorw("timer update failed", "err", err)
			writeError(w, http.StatusInternalServerError, "relay write failed")
			return
		}
		s.tracker.SetRelay(s.relay.Snapshot())
		writeJSON(w, http.StatusOK, timerFromSnapshot(s.relay.Snapshot()))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleHostname(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, hostnameJSON{Hostname: s.names.Hostname()})

	case http.MethodPost:
		var req hostnameJSON
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.names.SetHostname(req.Hostname); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Infow("hostname changed", "hostname", req.Hostname)
		writeJSON(w, http.StatusOK, hostnameJSON{Hostname: s.names.Hostname()})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleReadings serves persisted history. from/to are RFC3339 and
// optional; limit defaults to 100.
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.readings == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}

	q := r.URL.Query()
	var from, to time.Time
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, http.StatusBadRequest, "from: want RFC3339 timestamp")
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, http.StatusBadRequest, "to: want RFC3339 timestamp")
			return
		}
	}
	limit := defaultReadingsLimit
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit: want positive integer")
			return
		}
	}

	rows, err := s.readings.List(r.Context(), from, to, limit)
	if err != nil {
		s.log.Errorw("readings query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	out := make([]readingJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, readingJSON{
			ID:          row.ID,
			TakenAt:     row.TakenAt.UTC().Format(time.RFC3339),
			Temperature: row.Temperature,
			Humidity:    row.Humidity,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func timerFromSnapshot(snap relay.Snapshot) timerJSON {
	return timerJSON{
		Enabled:      snap.Enabled,
		OnDuration:   int64(snap.OnDuration / time.Second),
		OffDuration:  int64(snap.OffDuration / time.Second),
		CurrentState: snap.CurrentState,
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
