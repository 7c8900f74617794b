// Package metrics registers the Prometheus collectors of the back office.
// Path labels are normalized so numeric ids do not blow up cardinality.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backoffice_reminder_sweep_duration_seconds",
		Help:    "Duration of reminder sweeps.",
		Buckets: prometheus.DefBuckets,
	})

	RemindersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_reminders_created_total",
		Help: "Reminders created by sweeps, by type.",
	}, []string{"type"})

	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_emails_sent_total",
		Help: "Client e-mails accepted by the mail server, by template.",
	}, []string{"template"})

	InpolChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_inpol_checks_total",
		Help: "inPOL watcher runs, by outcome.",
	}, []string{"outcome"})

	InpolChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_inpol_changes_total",
		Help: "Proceeding changes detected by the inPOL watcher.",
	})

	// OCRDuration satisfies the summons observer interface directly.
	OCRDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backoffice_ocr_duration_seconds",
		Help:    "Duration of OCR runs on uploaded scans.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backoffice_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Outcome labels for InpolChecks.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Middleware records request counts and durations.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := NormalizePath(r.URL.Path)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// NormalizePath replaces numeric path segments with {id}.
func NormalizePath(p string) string {
	for numericSegment.MatchString(p) {
		p = numericSegment.ReplaceAllString(p, "/{id}$1")
	}
	return p
}
