package core

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"consulardesk/internal/blob"
	"consulardesk/pkg/domain"
)

func newDocumentService(t *testing.T) (*Service, blob.Store) {
	t.Helper()
	store := blob.NewMemory()
	svc := newSeededService(t, WithBlobStore(store))
	n := 0
	svc.newID = func() string {
		n++
		return "doc" + strconv.Itoa(n)
	}
	return svc, store
}

func TestVisaDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store := newDocumentService(t)

	doc, err := svc.UploadVisaDocument(ctx, "BV001", Upload{Name: "../scans/passport.pdf", ContentType: "application/pdf", Body: strings.NewReader("%PDF-1.7")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Name != "doc1-passport.pdf" || doc.Key != "visas/BV001/doc1-passport.pdf" || doc.Size != 8 {
		t.Fatalf("unexpected document info %+v", doc)
	}
	if doc.Metadata[metaDocumentName] != "passport.pdf" {
		t.Fatalf("expected original name in metadata, got %v", doc.Metadata)
	}

	visa, _ := svc.Visas().Get(ctx, "BV001")
	if len(visa.Documents) != 1 || visa.Documents[0] != "doc1-passport.pdf" {
		t.Fatalf("expected document list entry, got %v", visa.Documents)
	}

	listed, err := svc.ListVisaDocuments(ctx, "BV001")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != doc.Name {
		t.Fatalf("unexpected listing %+v", listed)
	}

	info, body, err := svc.OpenVisaDocument(ctx, "BV001", doc.Name)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	raw, _ := io.ReadAll(body)
	_ = body.Close()
	if string(raw) != "%PDF-1.7" || info.ContentType != "application/pdf" {
		t.Fatalf("unexpected download %q %+v", raw, info)
	}

	if err := svc.DeleteVisaDocument(ctx, "BV001", doc.Name, DeleteOptions{}); !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if err := svc.DeleteVisaDocument(ctx, "BV001", doc.Name, DeleteOptions{Confirmed: true}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	visa, _ = svc.Visas().Get(ctx, "BV001")
	if len(visa.Documents) != 0 {
		t.Fatalf("document list must shrink, got %v", visa.Documents)
	}
	if remaining, _ := store.List(ctx, "visas/BV001/"); len(remaining) != 0 {
		t.Fatalf("blob must be removed, got %+v", remaining)
	}
	if err := svc.DeleteVisaDocument(ctx, "BV001", doc.Name, DeleteOptions{Confirmed: true}); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestVisaDocumentErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t)

	if _, err := svc.UploadVisaDocument(ctx, "ZZ999", Upload{Name: "a.pdf", Body: strings.NewReader("x")}); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found for unknown visa, got %v", err)
	}
	if _, err := svc.UploadVisaDocument(ctx, "BV001", Upload{Name: "  ", Body: strings.NewReader("x")}); KindOf(err) != KindInvalid {
		t.Fatalf("expected invalid for blank name, got %v", err)
	}
	if _, err := svc.UploadVisaDocument(ctx, "BV001", Upload{Name: "a.pdf"}); KindOf(err) != KindInvalid {
		t.Fatalf("expected invalid for missing body, got %v", err)
	}
	if _, _, err := svc.OpenVisaDocument(ctx, "BV001", "missing.pdf"); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found for missing document, got %v", err)
	}

	bare := newSeededService(t)
	if _, err := bare.ListVisaDocuments(ctx, "BV001"); !errors.Is(err, ErrNoBlobStore) || KindOf(err) != KindUnavailable {
		t.Fatalf("expected ErrNoBlobStore, got %v", err)
	}
}

func TestSetArticleImageReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	svc, store := newDocumentService(t)

	article, first, err := svc.SetArticleImage(ctx, "2", Upload{Name: "cover.png", ContentType: "image/png", Body: strings.NewReader("png-1")})
	if err != nil {
		t.Fatalf("set image: %v", err)
	}
	if article.FeaturedImage != first.Key || first.Key != "articles/2/doc1-cover.png" {
		t.Fatalf("expected article to point at %s, got %+v", first.Key, article)
	}
	if article.Status != domain.ArticleDraft {
		t.Fatalf("image upload must not change status")
	}

	article, second, err := svc.SetArticleImage(ctx, "2", Upload{Name: "cover.png", ContentType: "image/png", Body: strings.NewReader("png-2")})
	if err != nil {
		t.Fatalf("replace image: %v", err)
	}
	if article.FeaturedImage != second.Key || second.Key == first.Key {
		t.Fatalf("expected new key, got %s", article.FeaturedImage)
	}
	stored, _ := store.List(ctx, "articles/2/")
	if len(stored) != 1 || stored[0].Key != second.Key {
		t.Fatalf("previous image must be removed, got %+v", stored)
	}

	if _, _, err := svc.SetArticleImage(ctx, "99", Upload{Name: "x.png", Body: strings.NewReader("x")}); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found for unknown article, got %v", err)
	}
}
