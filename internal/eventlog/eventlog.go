package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventType represents the type of relay event
type EventType string

const (
	EventConnectionOpened   EventType = "connection_opened"
	EventGreetingSent       EventType = "greeting_sent"
	EventResponseRequired   EventType = "response_required"
	EventUpdateOnly         EventType = "update_only"
	EventUnknownInteraction EventType = "unknown_interaction"
	EventMalformedFrame     EventType = "malformed_frame"
	EventLLMError           EventType = "llm_error"
	EventResponseSent       EventType = "response_sent"
	EventConnectionClosed   EventType = "connection_closed"
)

// Logger provides async event logging to the database. Only call lifecycle
// events are recorded - conversation content never is.
type Logger struct {
	db *pgxpool.Pool
}

// New creates a new event logger. A nil pool makes every call a no-op so
// the relay runs unchanged without a database.
func New(db *pgxpool.Pool) *Logger {
	return &Logger{db: db}
}

// Log writes an event to the database synchronously
func (l *Logger) Log(ctx context.Context, connID string, eventType EventType, data map[string]any) error {
	if l.db == nil || connID == "" {
		return nil // Silently skip if no DB or connection ID
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		dataJSON = []byte("{}")
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO relay_events (conn_id, event_type, event_data)
		VALUES ($1, $2, $3)
	`, connID, string(eventType), dataJSON)

	return err
}

// LogAsync logs an event without blocking the connection's read loop
func (l *Logger) LogAsync(connID string, eventType EventType, data map[string]any) {
	if l.db == nil || connID == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.Log(ctx, connID, eventType, data)
	}()
}
