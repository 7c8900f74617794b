// Package audit records who changed what. Mutating operations receive an
// explicit RequestContext instead of reading it from ambient state.
package audit

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/legalize/backoffice/internal/logging"
)

// RequestContext describes the request a mutation originates from. Jobs and
// CLIs use System.
type RequestContext struct {
	User      string
	IP        string
	UserAgent string
	Path      string
	Method    string
}

// System is the context of scheduled jobs and management commands.
func System(name string) RequestContext {
	return RequestContext{User: "system", Path: name}
}

// FromRequest captures the audit fields of an HTTP request. user is the
// authenticated operator, if any.
func FromRequest(r *http.Request, user string) RequestContext {
	return RequestContext{
		User:      user,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Path:      r.URL.Path,
		Method:    r.Method,
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Event is one audited change.
type Event struct {
	Action   string
	Entity   string
	EntityID int64
	Changes  []string
}

type Recorder interface {
	Record(ctx context.Context, rc RequestContext, ev Event)
}

// LogRecorder writes audit events to the structured log.
type LogRecorder struct {
	log logging.Logger
}

func NewLogRecorder(log logging.Logger) *LogRecorder {
	return &LogRecorder{log: log.With("module", "audit")}
}

func (r *LogRecorder) Record(ctx context.Context, rc RequestContext, ev Event) {
	r.log.Info(ctx, "audit",
		"action", ev.Action,
		"entity", ev.Entity,
		"entity_id", ev.EntityID,
		"changes", ev.Changes,
		"user", rc.User,
		"ip", rc.IP,
		"user_agent", rc.UserAgent,
		"path", rc.Path,
		"method", rc.Method,
	)
}
