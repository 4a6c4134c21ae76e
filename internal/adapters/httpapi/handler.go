// Package httpapi exposes the consular service over JSON HTTP.
package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"consulardesk/internal/adapters/exports"
	"consulardesk/internal/core"
	"consulardesk/internal/observability"
)

const apiPrefix = "/api/v1/"

// Handler routes API requests to the service.
type Handler struct {
	svc      *core.Service
	exports  exports.Scheduler
	reporter observability.ErrorReporter
	metrics  *observability.HTTPMetrics
	logger   core.Logger
	timeout  time.Duration

	resources map[string]resource
	order     []string
	chain     http.Handler
}

// Option customises a Handler.
type Option func(*Handler)

// WithExports enables the export endpoints.
func WithExports(s exports.Scheduler) Option {
	return func(h *Handler) { h.exports = s }
}

// WithErrorReporter receives unexpected server errors and recovered panics.
func WithErrorReporter(r observability.ErrorReporter) Option {
	return func(h *Handler) {
		if r != nil {
			h.reporter = r
		}
	}
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *observability.HTTPMetrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(l core.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithRequestTimeout bounds each request; zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// NewHandler constructs the API handler for svc.
func NewHandler(svc *core.Service, opts ...Option) *Handler {
	h := &Handler{
		svc:       svc,
		reporter:  observability.NopReporter{},
		logger:    nopLogger{},
		resources: make(map[string]resource),
	}
	for _, opt := range opts {
		opt(h)
	}
	register(h, svc.Visas())
	register(h, svc.Employees())
	register(h, svc.Candidates())
	register(h, svc.Contacts())
	register(h, svc.Appointments())
	register(h, svc.Individuals())
	register(h, svc.Articles())
	for _, c := range svc.Collections() {
		h.order = append(h.order, c.Name())
	}

	var chain http.Handler = http.HandlerFunc(h.route)
	chain = timeoutMiddleware(h.timeout, chain)
	chain = recoverMiddleware(h.reporter, h.logger, chain)
	if h.metrics != nil {
		chain = h.metrics.Middleware(h.routeLabel, chain)
	}
	chain = observability.SentryMiddleware(h.reporter, chain)
	h.chain = loggingMiddleware(h.logger, chain)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.chain.ServeHTTP(w, r)
}

func (h *Handler) route(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/healthz":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	case path == "/metrics":
		if h.metrics == nil {
			http.NotFound(w, r)
			return
		}
		h.metrics.Handler().ServeHTTP(w, r)
		return
	case !strings.HasPrefix(path, apiPrefix):
		http.NotFound(w, r)
		return
	}

	segments := strings.Split(strings.TrimPrefix(path, apiPrefix), "/")
	head, rest := segments[0], segments[1:]
	switch head {
	case "collections":
		h.only(w, r, http.MethodGet, len(rest) == 0, h.handleCollections)
	case "search":
		h.only(w, r, http.MethodGet, len(rest) == 0, h.handleSearch)
	case "dashboard":
		h.only(w, r, http.MethodGet, len(rest) == 0, h.handleDashboard)
	case "settings":
		h.handleSettings(w, r, rest)
	case "exports":
		if h.exports == nil {
			http.NotFound(w, r)
			return
		}
		h.handleExports(w, r, rest)
	default:
		res, ok := h.resources[head]
		if !ok {
			writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		h.handleCollection(w, r, res, rest)
	}
}

func (h *Handler) only(w http.ResponseWriter, r *http.Request, method string, exact bool, next http.HandlerFunc) {
	if !exact {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	next(w, r)
}

// routeLabel collapses identifiers so that metric labels stay bounded.
func (h *Handler) routeLabel(r *http.Request) string {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if !strings.HasPrefix(path, apiPrefix) {
		switch path {
		case "/healthz", "/metrics":
			return path
		}
		return "other"
	}
	segments := strings.Split(strings.TrimPrefix(path, apiPrefix), "/")
	head := segments[0]
	if _, ok := h.resources[head]; !ok {
		switch head {
		case "collections", "search", "dashboard":
			return apiPrefix + head
		case "settings":
			if len(segments) > 1 {
				return apiPrefix + "settings/{section}"
			}
			return apiPrefix + "settings"
		case "exports":
			if len(segments) > 1 {
				return apiPrefix + "exports/{id}"
			}
			return apiPrefix + "exports"
		}
		return "other"
	}
	label := apiPrefix + head
	if len(segments) > 1 {
		label += "/{id}"
	}
	if len(segments) > 2 {
		label += "/" + segments[2]
	}
	if len(segments) > 3 {
		label += "/{name}"
	}
	return label
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	hits, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits, "total": len(hits)})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request, rest []string) {
	switch len(rest) {
	case 0:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		settings, err := h.svc.Settings(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
	case 1:
		if r.Method != http.MethodPut {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		payload, err := readAll(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable request body")
			return
		}
		settings, res, err := h.svc.UpdateSettingsSection(r.Context(), rest[0], payload)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		out := map[string]any{"settings": settings}
		if v := violations(res); v != nil {
			out["warnings"] = v
		}
		writeJSON(w, http.StatusOK, out)
	default:
		writeError(w, http.StatusNotFound, "endpoint not found")
	}
}

type exportRequest struct {
	Collection  string            `json:"collection"`
	Search      string            `json:"search"`
	Filters     map[string]string `json:"filters"`
	Formats     []string          `json:"formats"`
	RequestedBy string            `json:"requested_by"`
}

func (h *Handler) handleExports(w http.ResponseWriter, r *http.Request, rest []string) {
	switch len(rest) {
	case 0:
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req exportRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid export request payload")
			return
		}
		formats := make([]exports.Format, 0, len(req.Formats))
		for _, f := range req.Formats {
			formats = append(formats, exports.Format(f))
		}
		record, err := h.exports.EnqueueExport(r.Context(), exports.ExportInput{
			Collection:  req.Collection,
			Query:       core.Query{Search: req.Search, Filters: req.Filters},
			Formats:     formats,
			RequestedBy: req.RequestedBy,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
	case 1:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		record, ok := h.exports.GetExport(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "export not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"export": record})
	default:
		writeError(w, http.StatusNotFound, "endpoint not found")
	}
}
