package blob

import (
	"context"
	"fmt"

	"consulardesk/internal/infra/blob/fs"
	memorystore "consulardesk/internal/infra/blob/memory"
	infraS3 "consulardesk/internal/infra/blob/s3"
)

// S3Config configures the S3 driver.
type S3Config = infraS3.Config

// Config selects and configures a driver.
type Config struct {
	Driver Driver
	FSRoot string
	// FSBaseURL prefixes URLs handed out by the filesystem driver.
	FSBaseURL string
	S3        S3Config
}

// Open constructs the Store described by cfg. The filesystem driver is used
// when no driver is named.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		var opts []fs.Option
		if cfg.FSBaseURL != "" {
			opts = append(opts, fs.WithBaseURL(cfg.FSBaseURL))
		}
		return NewFilesystem(cfg.FSRoot, opts...)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewFilesystem constructs a filesystem-backed Store rooted at root.
func NewFilesystem(root string, opts ...fs.Option) (Store, error) {
	store, err := fs.New(root, opts...)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewMemory returns an in-memory Store suitable for tests.
func NewMemory() Store { return memorystore.New() }

// NewS3 constructs an S3-backed Store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	store, err := infraS3.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewMockS3ForTests exposes the in-memory S3 fake for cross-package tests.
func NewMockS3ForTests() Store { return infraS3.NewMockForTests() }
