// Package observability holds the process-level error reporting and HTTP
// instrumentation shared by the API and the daemon.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// ErrorReporter receives unexpected server errors.
type ErrorReporter interface {
	Capture(ctx context.Context, err error, extra map[string]any)
	Flush(timeout time.Duration) bool
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Capture(context.Context, error, map[string]any) {}
func (NopReporter) Flush(time.Duration) bool { return true }

// SentryConfig describes the Sentry project.
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
}

// SentryReporter forwards errors to Sentry.
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter initialises a Sentry client. An empty DSN yields a NopReporter.
func NewSentryReporter(cfg SentryConfig) (ErrorReporter, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return NopReporter{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// NewSentryReporterWithHub wraps an existing hub.
func NewSentryReporterWithHub(hub *sentry.Hub) *SentryReporter {
	return &SentryReporter{hub: hub}
}

// Capture reports err with extra context attached to a fresh scope.
func (r *SentryReporter) Capture(ctx context.Context, err error, extra map[string]any) {
	if err == nil {
		return
	}
	hub := r.hub
	if h := sentry.GetHubFromContext(ctx); h != nil {
		hub = h
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range extra {
			scope.SetExtra(k, v)
		}
		hub.CaptureException(err)
	})
}

// Flush waits for buffered events.
func (r *SentryReporter) Flush(timeout time.Duration) bool { return r.hub.Flush(timeout) }

// SentryMiddleware binds a per-request hub carrying request context so that
// captured errors are attributed to the request.
func SentryMiddleware(r ErrorReporter, next http.Handler) http.Handler {
	sr, ok := r.(*SentryReporter)
	if !ok {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hub := sr.hub.Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetRequest(req)
			scope.SetTag("http.method", req.Method)
			scope.SetTag("http.route", req.URL.Path)
			scope.SetContext("Request", map[string]any{
				"Method":  req.Method,
				"URL":     req.URL.String(),
				"Headers": safeHeaders(req.Header),
			})
		})
		next.ServeHTTP(w, req.WithContext(sentry.SetHubOnContext(req.Context(), hub)))
	})
}

func safeHeaders(h http.Header) map[string]any {
	safe := make(map[string]any, len(h))
	for k, v := range h {
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
			safe[k] = "[FILTERED]"
			continue
		}
		safe[k] = v
	}
	return safe
}
