package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lukasbauer/retell-relay/internal/convstore"
	"github.com/lukasbauer/retell-relay/internal/eventlog"
	"github.com/lukasbauer/retell-relay/internal/llm"
)

// apologyText is sent instead of a model reply whenever the completion call
// fails. The caller must always hear an answer, never silence.
const apologyText = "I apologize, but I'm experiencing technical difficulties. Please try again."

const defaultGreeting = "Hello! I'm your AI assistant. How can I help you today?"

// retellEvent is one inbound frame from Retell. interaction_type
// discriminates between a turn that needs a reply and an informational
// transcript update.
type retellEvent struct {
	InteractionType string           `json:"interaction_type"`
	CallID          string           `json:"call_id"`
	ResponseID      int              `json:"response_id"`
	Transcript      []transcriptTurn `json:"transcript"`
}

type transcriptTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// retellResponse is the envelope Retell expects for every reply. The relay
// always sends complete, atomic replies and never ends the call itself, so
// content_complete and end_call are fixed.
type retellResponse struct {
	ResponseType    string `json:"response_type"`
	ResponseID      int    `json:"response_id"`
	Content         string `json:"content"`
	ContentComplete bool   `json:"content_complete"`
	EndCall         bool   `json:"end_call"`
}

// relaySession manages a single call's WebSocket connection. Each session
// runs in its own goroutine; the only state shared across connections is
// the conversation cache, keyed by call ID.
type relaySession struct {
	connID string // for log correlation and the event log
	callID string

	conn   *websocket.Conn
	connMu sync.Mutex

	llmClient llm.Client

	conversations *convstore.Store
	eventLog      *eventlog.Logger
	logger        *log.Logger
	cfg           RouterConfig

	ctx    context.Context
	cancel context.CancelFunc
}

func (r *Router) handleRelayWS(w http.ResponseWriter, req *http.Request) {
	if r.cfg.MistralAPIKey == "" {
		r.logger.Printf("relay_ws: missing Mistral API key")
		captureError(req, fmt.Errorf("relay not configured: missing Mistral API key"), "relay_ws: configuration error")
		http.Error(w, "relay not configured", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("relay_ws: upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(req.Context())

	session := &relaySession{
		connID:        uuid.NewString(),
		callID:        req.PathValue("callID"),
		conn:          conn,
		conversations: r.conversations,
		eventLog:      r.eventLog,
		logger:        r.logger,
		cfg:           r.cfg,
		ctx:           ctx,
		cancel:        cancel,
	}

	session.llmClient = llm.NewMistralClient(llm.MistralConfig{
		APIKey:  r.cfg.MistralAPIKey,
		Model:   r.cfg.MistralModel,
		BaseURL: r.cfg.MistralBaseURL,
	})

	r.logger.Printf("relay_ws: connection established for call %s (conn %s)", session.callID, session.connID)

	session.run()
}

func (s *relaySession) run() {
	defer s.cleanup()

	s.eventLog.LogAsync(s.connID, eventlog.EventConnectionOpened, map[string]any{"call_id": s.callID})

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go keepAlive(s.ctx, s.conn)

	s.sendGreeting()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("relay_ws: connection closed for call %s", s.callID)
			} else {
				s.logger.Printf("relay_ws: read error for call %s: %v", s.callID, err)
			}
			return
		}

		s.processMessage(msg)
	}
}

// processMessage classifies one inbound frame and routes it. Malformed
// frames are logged and dropped without a reply - answering them would only
// confuse the platform.
func (s *relaySession) processMessage(msg []byte) {
	var event retellEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.logger.Printf("relay_ws: failed to parse message: %v", err)
		s.eventLog.LogAsync(s.connID, eventlog.EventMalformedFrame, nil)
		return
	}

	if event.CallID != "" {
		s.callID = event.CallID
	}

	switch event.InteractionType {
	case "response_required":
		s.handleResponseRequired(&event)

	case "update_only":
		// Transcript updates need no reply; the next response_required
		// carries the full transcript again.
		s.logger.Printf("relay_ws: received transcript update for call %s", s.callID)
		s.eventLog.LogAsync(s.connID, eventlog.EventUpdateOnly, map[string]any{"call_id": s.callID})

	default:
		s.logger.Printf("relay_ws: unknown interaction type: %q", event.InteractionType)
		s.eventLog.LogAsync(s.connID, eventlog.EventUnknownInteraction, map[string]any{"interaction_type": event.InteractionType})
	}
}

// handleResponseRequired runs one response cycle: rebuild the conversation
// from the transcript, ask the model, and send exactly one response back.
// On completion failure the apology text is substituted so the invariant
// of one response per cycle holds either way.
func (s *relaySession) handleResponseRequired(event *retellEvent) {
	s.eventLog.LogAsync(s.connID, eventlog.EventResponseRequired, map[string]any{
		"call_id":     s.callID,
		"response_id": event.ResponseID,
	})

	transcript := make([]llm.Message, 0, len(event.Transcript))
	for _, turn := range event.Transcript {
		transcript = append(transcript, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	userMessage := llm.LatestUserMessage(transcript)
	s.logger.Printf("relay_ws: processing user message: %s", userMessage)

	messages := llm.BuildConversation(transcript, userMessage)
	s.conversations.Put(s.callID, messages)

	content, err := s.llmClient.Complete(s.ctx, messages)
	if err != nil {
		s.logger.Printf("relay_ws: completion error for call %s: %v", s.callID, err)
		sentry.CaptureException(err)
		s.eventLog.LogAsync(s.connID, eventlog.EventLLMError, map[string]any{"error": err.Error()})
		content = apologyText
	}

	if err := s.sendResponse(event.ResponseID, content); err != nil {
		s.logger.Printf("relay_ws: failed to send response for call %s: %v", s.callID, err)
		return
	}

	s.logger.Printf("relay_ws: sent response %d (%d chars)", event.ResponseID, len(content))
	s.eventLog.LogAsync(s.connID, eventlog.EventResponseSent, map[string]any{"response_id": event.ResponseID})
}

// sendGreeting sends the fixed greeting as response 0 as soon as the
// connection is established, before any platform event arrives.
func (s *relaySession) sendGreeting() {
	greeting := s.cfg.GreetingText
	if greeting == "" {
		greeting = defaultGreeting
	}

	if err := s.sendResponse(0, greeting); err != nil {
		s.logger.Printf("relay_ws: failed to send greeting: %v", err)
		return
	}

	s.logger.Printf("relay_ws: sent initial greeting for call %s", s.callID)
	s.eventLog.LogAsync(s.connID, eventlog.EventGreetingSent, map[string]any{"call_id": s.callID})
}

func (s *relaySession) sendResponse(responseID int, content string) error {
	resp := retellResponse{
		ResponseType:    "response",
		ResponseID:      responseID,
		Content:         content,
		ContentComplete: true,
		EndCall:         false,
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(resp)
}

func (s *relaySession) cleanup() {
	s.cancel()

	s.connMu.Lock()
	_ = s.conn.Close()
	s.connMu.Unlock()

	if s.callID != "" {
		s.conversations.Delete(s.callID)
	}

	s.eventLog.LogAsync(s.connID, eventlog.EventConnectionClosed, map[string]any{"call_id": s.callID})
	s.logger.Printf("relay_ws: session closed for call %s (conn %s)", s.callID, s.connID)
}
