package core

import (
	"context"
	"errors"

	"consulardesk/internal/blob"
	"consulardesk/pkg/domain"
)

// ErrorKind groups service errors by how a caller should react to them.
type ErrorKind string

const (
	KindInvalid              ErrorKind = "invalid"
	KindNotFound             ErrorKind = "not_found"
	KindConflict             ErrorKind = "conflict"
	KindConfirmationRequired ErrorKind = "confirmation_required"
	KindTimeout              ErrorKind = "timeout"
	KindCanceled             ErrorKind = "canceled"
	KindUnavailable          ErrorKind = "unavailable"
	KindInternal             ErrorKind = "internal"
)

// ErrNoBlobStore is returned by document operations when no blob store is configured.
var ErrNoBlobStore = errors.New("document storage not configured")

// KindOf classifies err. Nil errors have no kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var (
		validation *domain.ValidationError
		status     *domain.InvalidStatusError
		filter     *domain.UnknownFilterError
		transition *domain.TransitionError
		notFound   domain.NotFoundError
		rules      domain.RuleViolationError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &status), errors.As(err, &filter):
		return KindInvalid
	case errors.As(err, &notFound), errors.Is(err, blob.ErrNotFound):
		return KindNotFound
	case errors.As(err, &transition), errors.As(err, &rules), errors.Is(err, blob.ErrExists):
		return KindConflict
	case errors.Is(err, domain.ErrConfirmationRequired):
		return KindConfirmationRequired
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrNoBlobStore), errors.Is(err, blob.ErrUnsupported):
		return KindUnavailable
	}
	return KindInternal
}
