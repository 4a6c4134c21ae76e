// Package blob is the only entry point to document storage. It re-exports the
// core abstractions, builds object keys and constructs the configured driver.
package blob

import (
	"path"
	"strings"

	"consulardesk/internal/blob/core"
)

type (
	Driver           = core.Driver
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
	Info             = core.Info
	Store            = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
)

// Key joins segments into an object key. Empty segments are dropped and
// slashes inside a segment are kept as separators.
func Key(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.Trim(s, "/"); s != "" {
			parts = append(parts, s)
		}
	}
	return path.Join(parts...)
}

// Prefix is Key with a trailing slash, suitable for List.
func Prefix(segments ...string) string {
	k := Key(segments...)
	if k == "" {
		return ""
	}
	return k + "/"
}
