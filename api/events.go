package api

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Event identifies an operational action worth logging.
type Event string

const (
	EventLoginSuccess   Event = "login_success"
	EventLoginFailure   Event = "login_failure"
	EventLogout         Event = "logout"
	EventQueryForwarded Event = "query_forwarded"
	EventQueryFailed    Event = "query_failed"
)

// eventLogger writes structured operational events. Passwords and session
// tokens never reach it.
type eventLogger struct {
	logger  *slog.Logger
	metrics *metricsCollector
}

func newEventLogger(logger *slog.Logger) *eventLogger {
	return &eventLogger{
		logger: logger.With("component", "events"),
	}
}

func (el *eventLogger) log(event Event, r *http.Request, attrs ...slog.Attr) {
	base := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	base = append(base, attrs...)

	level := slog.LevelInfo
	if event == EventLoginFailure || event == EventQueryFailed {
		level = slog.LevelWarn
	}
	el.logger.LogAttrs(r.Context(), level, "event", base...)
	el.metrics.recordEvent(event)
}

// logUser is a convenience for events tied to a username.
func (el *eventLogger) logUser(event Event, r *http.Request, username string, extra ...slog.Attr) {
	attrs := append([]slog.Attr{slog.String("username", username)}, extra...)
	el.log(event, r, attrs...)
}

// logFailure records a failed action with its reason.
func (el *eventLogger) logFailure(event Event, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := append([]slog.Attr{slog.String("reason", reason)}, extra...)
	el.log(event, r, attrs...)
}
