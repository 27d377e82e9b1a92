package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blackwell-systems/vertexctl/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongDelay  = 60 * time.Second
	pingPeriod = pongDelay * 9 / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents streams every hub event to the client as JSON
// {"event": ..., "payload": ...} text messages.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("problem initiating websocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	stop := make(chan struct{})
	msgs := make(chan events.Message, sendBuffer)
	unsubscribe := s.hub.Subscribe(func(m events.Message) {
		select {
		case msgs <- m:
		case <-stop:
		}
	})
	defer unsubscribe()
	defer close(stop)

	// The read loop only services control frames and notices disconnects.
	_ = conn.SetReadDeadline(time.Now().Add(pongDelay))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongDelay))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.log.Debug("failed to write ping", "error", err)
				return
			}
		case m := <-msgs:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				s.log.Debug("event client went away", "error", err)
				return
			}
		}
	}
}
