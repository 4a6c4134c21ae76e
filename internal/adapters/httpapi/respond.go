package httpapi

import (
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"consulardesk/internal/adapters/exports"
	"consulardesk/internal/core"
	"consulardesk/pkg/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type violationView struct {
	Rule     string          `json:"rule"`
	Severity domain.Severity `json:"severity"`
	Message  string          `json:"message"`
	EntityID string          `json:"entity_id,omitempty"`
}

func violations(res core.Result) []violationView {
	if len(res.Violations) == 0 {
		return nil
	}
	out := make([]violationView, 0, len(res.Violations))
	for _, v := range res.Violations {
		out = append(out, violationView{Rule: v.Rule, Severity: v.Severity, Message: v.Message, EntityID: v.EntityID})
	}
	return out
}

// statusClientClosedRequest marks requests abandoned by the caller. It is
// only visible in logs and metrics.
const statusClientClosedRequest = 499

func statusFor(err error) int {
	var input *exports.InputError
	switch {
	case errors.As(err, &input):
		return http.StatusBadRequest
	case errors.Is(err, exports.ErrQueueFull):
		return http.StatusServiceUnavailable
	}
	switch core.KindOf(err) {
	case core.KindInvalid:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	case core.KindConfirmationRequired:
		return http.StatusPreconditionRequired
	case core.KindTimeout:
		return http.StatusGatewayTimeout
	case core.KindCanceled:
		return statusClientClosedRequest
	case core.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Validation failures carry their
// field list; unexpected errors are reported and hidden from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.reporter.Capture(r.Context(), err, map[string]any{"method": r.Method, "path": r.URL.Path})
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal server error")
		return
	}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, status, map[string]any{"error": err.Error(), "fields": validation.Fields})
		return
	}
	var rules domain.RuleViolationError
	if errors.As(err, &rules) {
		writeJSON(w, status, map[string]any{"error": err.Error(), "violations": violations(rules.Result)})
		return
	}
	writeError(w, status, err.Error())
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func readAll(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func decodeBody(r *http.Request, into any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(into)
}
