// Package status provides a thread-safe status tracker for the temcontrol
// daemon. It is read by the HTTP handlers, the websocket pusher, and the
// MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/temcontrol/temcontrol/internal/relay"
	"github.com/temcontrol/temcontrol/internal/sensor"
)

// Counts tracks decode attempts by outcome since startup.
type Counts struct {
	OK         int
	Timeout    int
	Checksum   int
	NotPresent int
}

// Config contains daemon configuration for display.
type Config struct {
	Hostname    string
	Broker      string
	HTTPAddr    string
	SampleMs    int64
	PollMs      int64
	HeartbeatMs int64
	DBPath      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	// Last is the most recent decode attempt, whatever its outcome.
	Last   sensor.Reading
	LastAt time.Time

	// LastOK is the most recent successful reading; zero until the
	// first success.
	LastOK   sensor.Reading
	LastOKAt time.Time

	Counts        Counts
	Relay         relay.Snapshot
	MQTTConnected bool
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// RecordReading notes one decode attempt and bumps its outcome counter.
func (t *Tracker) RecordReading(r sensor.Reading, at time.Time) {
	t.mu.Lock()
	t.snap.Last = r
	t.snap.LastAt = at
	switch r.Outcome {
	case sensor.OutcomeOK:
		t.snap.Counts.OK++
		t.snap.LastOK = r
		t.snap.LastOKAt = at
	case sensor.OutcomeTimeout:
		t.snap.Counts.Timeout++
	case sensor.OutcomeChecksum:
		t.snap.Counts.Checksum++
	case sensor.OutcomeNotPresent:
		t.snap.Counts.NotPresent++
	}
	t.mu.Unlock()
}

// SetRelay records the relay controller state. Called on every poll tick.
func (t *Tracker) SetRelay(s relay.Snapshot) {
	t.mu.Lock()
	t.snap.Relay = s
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
