package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// echoStatus is sent once when a connection is established.
type echoStatus struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// echoFrame mirrors one inbound frame back to the sender.
type echoFrame struct {
	Echo      string `json:"echo"`
	Timestamp string `json:"timestamp"`
}

// EchoRouter serves the echo variant: a bare WebSocket server used to verify
// connectivity before pointing the platform at the relay. No parsing, no
// branching - every frame comes straight back.
type EchoRouter struct {
	logger *log.Logger
	mux    *http.ServeMux
}

func NewEchoRouter(logger *log.Logger) http.Handler {
	r := &EchoRouter{
		logger: logger,
		mux:    http.NewServeMux(),
	}

	r.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.mux.HandleFunc("GET /", r.handleEchoWS)

	return r.mux
}

func (r *EchoRouter) handleEchoWS(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("echo_ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	r.logger.Printf("echo_ws: connection established")

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go keepAlive(ctx, conn)

	status := echoStatus{
		Type:      "connected",
		Status:    "ok",
		Message:   "echo server ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeWS(conn, status); err != nil {
		r.logger.Printf("echo_ws: failed to send status: %v", err)
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Printf("echo_ws: connection closed")
			} else {
				r.logger.Printf("echo_ws: read error: %v", err)
			}
			return
		}

		frame := echoFrame{
			Echo:      string(msg),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if err := writeWS(conn, frame); err != nil {
			r.logger.Printf("echo_ws: write error: %v", err)
			return
		}
	}
}

func writeWS(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
