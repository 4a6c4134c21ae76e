package integration

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"consulardesk/internal/blob"
	"consulardesk/internal/core"
	"consulardesk/pkg/domain"
)

// TestIntegrationSmoke runs a write/read cycle through the service for each
// in-process store and blob adapter.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()

	storeVariants := []struct {
		name string
		cfg  func(t *testing.T) core.StorageConfig
	}{
		{
			name: "memory-store",
			cfg:  func(*testing.T) core.StorageConfig { return core.StorageConfig{Driver: core.StorageMemory} },
		},
		{
			name: "sqlite-store",
			cfg: func(t *testing.T) core.StorageConfig {
				return core.StorageConfig{Driver: core.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "desk.db")}
			},
		},
	}

	blobVariants := []struct {
		name string
		open func(t *testing.T) blob.Store
	}{
		{
			name: "memory-blob",
			open: func(*testing.T) blob.Store { return blob.NewMemory() },
		},
		{
			name: "filesystem-blob",
			open: func(t *testing.T) blob.Store {
				fs, err := blob.NewFilesystem(t.TempDir())
				if err != nil {
					t.Fatalf("new filesystem blob: %v", err)
				}
				return fs
			},
		},
		{
			name: "mock-s3-blob",
			open: func(*testing.T) blob.Store { return blob.NewMockS3ForTests() },
		},
	}

	for _, sv := range storeVariants {
		for _, bv := range blobVariants {
			t.Run(sv.name+"/"+bv.name, func(t *testing.T) {
				store, err := core.OpenPersistentStore(ctx, sv.cfg(t), nil)
				if err != nil {
					t.Fatalf("open store: %v", err)
				}
				var traces bytes.Buffer
				svc := core.NewService(store,
					core.WithMetricsRecorder(core.NewExpvarMetricsRecorder("")),
					core.WithTracer(core.NewJSONTracer(&traces)),
					core.WithBlobStore(bv.open(t)),
				)
				t.Cleanup(func() { _ = svc.Close() })

				visa, _, err := svc.Visas().Create(ctx, core.VisaApplication{
					Category:       "Business",
					ApplicantName:  "Ana Ebang",
					PassportNumber: "GQ7654321",
					ContactEmail:   "ana@example.com",
				})
				if err != nil {
					t.Fatalf("create visa: %v", err)
				}
				if visa.ID != "BV001" {
					t.Fatalf("expected BV001 in an empty store, got %s", visa.ID)
				}

				doc, err := svc.UploadVisaDocument(ctx, visa.ID, core.Upload{
					Name:        "passport.pdf",
					ContentType: "application/pdf",
					Body:        strings.NewReader("scan"),
				})
				if err != nil {
					t.Fatalf("upload: %v", err)
				}
				docs, err := svc.ListVisaDocuments(ctx, visa.ID)
				if err != nil || len(docs) != 1 {
					t.Fatalf("list documents: %v %+v", err, docs)
				}
				_, body, err := svc.OpenVisaDocument(ctx, visa.ID, doc.Name)
				if err != nil {
					t.Fatalf("open document: %v", err)
				}
				data, err := io.ReadAll(body)
				_ = body.Close()
				if err != nil || string(data) != "scan" {
					t.Fatalf("unexpected document body %q (%v)", data, err)
				}

				if _, _, err := svc.Visas().UpdateStatus(ctx, visa.ID, "approved"); err != nil {
					t.Fatalf("approve: %v", err)
				}
				got, err := svc.Visas().Get(ctx, visa.ID)
				if err != nil {
					t.Fatalf("get: %v", err)
				}
				if got.Status != domain.VisaApproved {
					t.Fatalf("expected Approved, got %s", got.Status)
				}
				summary, err := svc.Summary(ctx)
				if err != nil {
					t.Fatalf("summary: %v", err)
				}
				if summary.TotalVisas != 1 {
					t.Fatalf("expected one application, got %d", summary.TotalVisas)
				}
				if traces.Len() == 0 {
					t.Fatalf("expected spans to be written")
				}
			})
		}
	}
}
