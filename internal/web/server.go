// Package web provides the HTTP API and status page for the temcontrol daemon.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/temcontrol/temcontrol/internal/logger"
	"github.com/temcontrol/temcontrol/internal/relay"
	"github.com/temcontrol/temcontrol/internal/sensor"
	"github.com/temcontrol/temcontrol/internal/status"
	"github.com/temcontrol/temcontrol/internal/store"
)

// Sampler takes one sensor reading on demand.
type Sampler interface {
	Sample() sensor.Sample
}

// ReadingStore lists persisted readings.
type ReadingStore interface {
	List(ctx context.Context, from, to time.Time, limit int) ([]store.Reading, error)
}

// HostnameStore reads and persists the device name.
type HostnameStore interface {
	Hostname() string
	SetHostname(name string) error
}

// Deps are the collaborators the server reads from and drives.
// Readings may be nil if persistence is disabled.
type Deps struct {
	Tracker  *status.Tracker
	Relay    *relay.Controller
	Sampler  Sampler
	Readings ReadingStore
	Names    HostnameStore
	Log      *logger.Logger
	Now      func() time.Time
}

// Server serves the JSON API, the live websocket, and the status page.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	relay      *relay.Controller
	sampler    Sampler
	readings   ReadingStore
	names      HostnameStore
	log        *logger.Logger
	now        func() time.Time
	upgrader   websocket.Upgrader
}

// New creates a Server listening on addr once started.
func New(addr string, deps Deps) *Server {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		tracker:  deps.Tracker,
		relay:    deps.Relay,
		sampler:  deps.Sampler,
		readings: deps.Readings,
		names:    deps.Names,
		log:      deps.Log,
		now:      now,
		upgrader: websocket.Upgrader{
			// The API is already open to the LAN; the websocket is no
			// more sensitive than the JSON endpoints.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleStatusJSON)
	mux.HandleFunc("/api/sensor", s.handleSensor)
	mux.HandleFunc("/api/relay", s.handleRelay)
	mux.HandleFunc("/api/timer", s.handleTimer)
	mux.HandleFunc("/api/hostname", s.handleHostname)
	mux.HandleFunc("/api/readings", s.handleReadings)
	mux.HandleFunc("/api/live", s.handleLive)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: cors.AllowAll().Handler(mux),
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleStatusJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
