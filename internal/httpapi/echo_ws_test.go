package httpapi

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestEcho(t *testing.T) *websocket.Conn {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	srv := httptest.NewServer(NewEchoRouter(logger))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestEchoStatusOnConnect(t *testing.T) {
	conn := newTestEcho(t)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var status echoStatus
	if err := conn.ReadJSON(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}

	if status.Type != "connected" {
		t.Errorf("type = %q, want %q", status.Type, "connected")
	}
	if status.Status != "ok" {
		t.Errorf("status = %q, want %q", status.Status, "ok")
	}
	if status.Timestamp == "" {
		t.Error("timestamp should not be empty")
	}
}

func TestEchoMirrorsFrames(t *testing.T) {
	conn := newTestEcho(t)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var status echoStatus
	if err := conn.ReadJSON(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}

	frames := []string{"x", `{"interaction_type":"response_required"}`, "not json at all"}
	for _, frame := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("write %q: %v", frame, err)
		}

		var echo echoFrame
		if err := conn.ReadJSON(&echo); err != nil {
			t.Fatalf("read echo for %q: %v", frame, err)
		}
		if echo.Echo != frame {
			t.Errorf("echo = %q, want %q", echo.Echo, frame)
		}
		if echo.Timestamp == "" {
			t.Error("timestamp should not be empty")
		}
	}
}

func TestEchoHealthz(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	srv := httptest.NewServer(NewEchoRouter(logger))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
