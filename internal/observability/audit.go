package observability

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const auditEventVersion = 1

type AuditInput struct {
	EventName   string
	ActorUserID string
	TargetType  string
	TargetID    string
	Action      string
	Outcome     string
	Reason      string
}

type AuditEvent struct {
	EventID      string `json:"event_id"`
	EventVersion int    `json:"event_version"`
	EventName    string `json:"event_name"`
	ActorUserID  string `json:"actor_user_id"`
	ActorIP      string `json:"actor_ip"`
	TargetType   string `json:"target_type"`
	TargetID     string `json:"target_id"`
	Action       string `json:"action"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason"`
	RequestID    string `json:"request_id"`
	TraceID      string `json:"trace_id,omitempty"`
	SpanID       string `json:"span_id,omitempty"`
	TS           string `json:"ts"`
}

func BuildAuditEvent(r *http.Request, in AuditInput) AuditEvent {
	ev := AuditEvent{
		EventID:      uuid.NewString(),
		EventVersion: auditEventVersion,
		EventName:    in.EventName,
		ActorUserID:  orUnknown(in.ActorUserID),
		ActorIP:      clientIP(r),
		TargetType:   in.TargetType,
		TargetID:     orUnknown(in.TargetID),
		Action:       in.Action,
		Outcome:      in.Outcome,
		Reason:       orUnknown(in.Reason),
		RequestID:    orUnknown(r.Header.Get("X-Request-Id")),
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		ev.TraceID = sc.TraceID().String()
		ev.SpanID = sc.SpanID().String()
	}
	return ev
}

func (e AuditEvent) Validate() error {
	var missing []string
	for name, v := range map[string]string{
		"event_name":  e.EventName,
		"target_type": e.TargetType,
		"action":      e.Action,
		"outcome":     e.Outcome,
		"request_id":  e.RequestID,
		"ts":          e.TS,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if e.EventVersion != auditEventVersion {
		missing = append(missing, "event_version")
	}
	if len(missing) > 0 {
		return errors.New("audit event missing fields: " + strings.Join(missing, ","))
	}
	return nil
}

// EmitAudit logs one audit line for a mutating request. Extra key/value
// pairs are appended after the taxonomy fields.
func EmitAudit(r *http.Request, in AuditInput, attrs ...any) {
	ev := BuildAuditEvent(r, in)
	if err := ev.Validate(); err != nil {
		slog.WarnContext(r.Context(), "invalid audit event", "error", err, "event_name", in.EventName)
	}
	base := []any{
		"event_id", ev.EventID,
		"event_version", ev.EventVersion,
		"event_name", ev.EventName,
		"actor_user_id", ev.ActorUserID,
		"actor_ip", ev.ActorIP,
		"target_type", ev.TargetType,
		"target_id", ev.TargetID,
		"action", ev.Action,
		"outcome", ev.Outcome,
		"reason", ev.Reason,
		"request_id", ev.RequestID,
		"method", r.Method,
		"path", r.URL.Path,
		"ts", ev.TS,
	}
	slog.InfoContext(r.Context(), "audit", append(base, attrs...)...)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return orUnknown(r.RemoteAddr)
	}
	return host
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unknown"
	}
	return v
}
