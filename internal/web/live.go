package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/temcontrol/temcontrol/internal/status"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// How often a status snapshot is pushed to the peer.
	pushPeriod = 2 * time.Second
)

// handleLive upgrades to a websocket and streams status snapshots until
// the peer goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "err", err)
		return
	}

	s.log.Debugw("live client connected", "remote", conn.RemoteAddr())
	go s.writePump(conn)
	s.readPump(conn)
}

// readPump discards inbound frames and keeps the read deadline fresh
// off pongs. Returning closes the connection, which stops the writer.
func (s *Server) readPump(conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn) {
	push := time.NewTicker(pushPeriod)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		push.Stop()
		ping.Stop()
		conn.Close()
	}()

	// Send the first snapshot immediately so clients render without
	// waiting a full push period.
	if err := s.writeSnapshot(conn); err != nil {
		return
	}

	for {
		select {
		case <-push.C:
			if err := s.writeSnapshot(conn); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, status.FormatJSON(s.tracker.Snapshot()))
}
