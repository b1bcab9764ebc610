package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lukasbauer/retell-relay/internal/convstore"
	"github.com/lukasbauer/retell-relay/internal/eventlog"
)

type RouterConfig struct {
	// Completion API
	MistralAPIKey  string
	MistralModel   string // empty = fine-tuned default
	MistralBaseURL string // empty = hosted API; overridden in tests

	// Greeting spoken by the platform when the call connects
	GreetingText string
}

type Router struct {
	cfg           RouterConfig
	logger        *log.Logger
	conversations *convstore.Store
	eventLog      *eventlog.Logger
	mux           *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *log.Logger, conversations *convstore.Store, eventLog *eventlog.Logger) http.Handler {
	r := &Router{
		cfg:           cfg,
		logger:        logger,
		conversations: conversations,
		eventLog:      eventLog,
		mux:           http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(r.mux)
}

func (r *Router) routes() {
	// Health check
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)

	// Retell custom-LLM WebSocket (no auth - see deployment notes)
	r.mux.HandleFunc("GET /llm-websocket/{callID}", r.handleRelayWS)
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
