package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Sensor        SensorJSON `json:"sensor"`
	Relay         RelayJSON  `json:"relay"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"read_counts"`
	Config        ConfigJSON `json:"config"`
}

// SensorJSON is the JSON representation of the sensor state.
type SensorJSON struct {
	LastOutcome string  `json:"last_outcome"`
	LastReadAt  string  `json:"last_read_at,omitempty"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	MeasuredAt  string  `json:"measured_at,omitempty"`
}

// RelayJSON is the JSON representation of the relay controller state.
type RelayJSON struct {
	State      string `json:"state"`
	TimerOn    bool   `json:"timer_enabled"`
	OnSeconds  int64  `json:"on_duration_s"`
	OffSeconds int64  `json:"off_duration_s"`
	LastToggle string `json:"last_toggle,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of decode outcome counts.
type CountsJSON struct {
	OK         int `json:"ok"`
	Timeout    int `json:"timeout"`
	Checksum   int `json:"checksum_mismatch"`
	NotPresent int `json:"not_present"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Hostname    string `json:"hostname"`
	SampleMs    int64  `json:"sample_ms"`
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	DBPath      string `json:"db_path"`
}

func buildInner(snap Snapshot) StatusInner {
	outcome := "none"
	if !snap.LastAt.IsZero() {
		outcome = snap.Last.Outcome.String()
	}

	sj := SensorJSON{
		LastOutcome: outcome,
		Temperature: snap.LastOK.Temperature,
		Humidity:    snap.LastOK.Humidity,
	}
	if !snap.LastAt.IsZero() {
		sj.LastReadAt = snap.LastAt.UTC().Format(time.RFC3339)
	}
	if !snap.LastOKAt.IsZero() {
		sj.MeasuredAt = snap.LastOKAt.UTC().Format(time.RFC3339)
	}

	rj := RelayJSON{
		State:      stateString(snap.Relay.CurrentState),
		TimerOn:    snap.Relay.Enabled,
		OnSeconds:  int64(snap.Relay.OnDuration / time.Second),
		OffSeconds: int64(snap.Relay.OffDuration / time.Second),
	}
	if !snap.Relay.LastToggle.IsZero() {
		rj.LastToggle = snap.Relay.LastToggle.UTC().Format(time.RFC3339)
	}

	return StatusInner{
		Sensor:        sj,
		Relay:         rj,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			OK:         snap.Counts.OK,
			Timeout:    snap.Counts.Timeout,
			Checksum:   snap.Counts.Checksum,
			NotPresent: snap.Counts.NotPresent,
		},
		Config: ConfigJSON{
			Hostname:    snap.Config.Hostname,
			SampleMs:    snap.Config.SampleMs,
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			DBPath:      snap.Config.DBPath,
		},
	}
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
