package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"consulardesk/internal/blob"
	"consulardesk/pkg/domain"
)

const metaDocumentName = "document-name"

// DocumentInfo describes an uploaded file attached to a record.
type DocumentInfo struct {
	// Name is the stored file name, also the handle used to download it.
	Name string `json:"name"`
	blob.Info
}

// Upload is a file handed to the document operations.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

func cleanFileName(entity EntityType, name string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "" || base == "." || base == ".." || base == "/" {
		return "", &domain.ValidationError{
			Entity: entity,
			Fields: []domain.FieldError{{Field: "name", Message: "is required"}},
		}
	}
	return base, nil
}

func visaPrefix(id string) string    { return blob.Prefix("visas", id) }
func articlePrefix(id string) string { return blob.Prefix("articles", id) }

func (s *Service) requireBlobs() error {
	if s.blobs == nil {
		return ErrNoBlobStore
	}
	return nil
}

func (s *Service) describe(ctx context.Context, info blob.Info, prefix string) DocumentInfo {
	if url, err := s.blobs.PresignURL(ctx, info.Key, blob.SignedURLOptions{Method: "GET"}); err == nil {
		info.URL = url
	}
	return DocumentInfo{Name: strings.TrimPrefix(info.Key, prefix), Info: info}
}

func (s *Service) putDocument(ctx context.Context, entity EntityType, prefix string, up Upload) (blob.Info, string, error) {
	name, err := cleanFileName(entity, up.Name)
	if err != nil {
		return blob.Info{}, "", err
	}
	if up.Body == nil {
		return blob.Info{}, "", &domain.ValidationError{
			Entity: entity,
			Fields: []domain.FieldError{{Field: "body", Message: "is required"}},
		}
	}
	stored := s.newID() + "-" + name
	info, err := s.blobs.Put(ctx, prefix+stored, up.Body, blob.PutOptions{
		ContentType: up.ContentType,
		Metadata:    map[string]string{metaDocumentName: name},
	})
	if err != nil {
		return blob.Info{}, "", fmt.Errorf("store %s: %w", name, err)
	}
	return info, stored, nil
}

// UploadVisaDocument stores a file for the application and appends its name to
// the application's document list.
func (s *Service) UploadVisaDocument(ctx context.Context, visaID string, up Upload) (DocumentInfo, error) {
	var out DocumentInfo
	err := s.instrument(ctx, "upload_visa_document", EntityVisaApplication, "", func(ctx context.Context) (string, error) {
		if err := s.requireBlobs(); err != nil {
			return visaID, err
		}
		if _, err := s.visas.Get(ctx, visaID); err != nil {
			return visaID, err
		}
		info, stored, err := s.putDocument(ctx, EntityVisaApplication, visaPrefix(visaID), up)
		if err != nil {
			return visaID, err
		}
		if _, _, err := s.visas.Update(ctx, visaID, func(v *VisaApplication) error {
			v.Documents = append(v.Documents, stored)
			return nil
		}); err != nil {
			if _, derr := s.blobs.Delete(ctx, info.Key); derr != nil {
				s.logger.Warn("orphaned document cleanup failed", "key", info.Key, "error", derr)
			}
			return visaID, err
		}
		out = s.describe(ctx, info, visaPrefix(visaID))
		return visaID, nil
	})
	return out, err
}

// ListVisaDocuments returns the stored files of an application ordered by key.
func (s *Service) ListVisaDocuments(ctx context.Context, visaID string) ([]DocumentInfo, error) {
	out := []DocumentInfo{}
	err := s.instrument(ctx, "list_visa_documents", EntityVisaApplication, "", func(ctx context.Context) (string, error) {
		if err := s.requireBlobs(); err != nil {
			return visaID, err
		}
		if _, err := s.visas.Get(ctx, visaID); err != nil {
			return visaID, err
		}
		infos, err := s.blobs.List(ctx, visaPrefix(visaID))
		if err != nil {
			return visaID, err
		}
		for _, info := range infos {
			out = append(out, s.describe(ctx, info, visaPrefix(visaID)))
		}
		return visaID, nil
	})
	return out, err
}

// OpenVisaDocument streams one stored file. The caller closes the reader.
func (s *Service) OpenVisaDocument(ctx context.Context, visaID, name string) (DocumentInfo, io.ReadCloser, error) {
	var (
		out  DocumentInfo
		body io.ReadCloser
	)
	err := s.instrument(ctx, "open_visa_document", EntityVisaApplication, "", func(ctx context.Context) (string, error) {
		if err := s.requireBlobs(); err != nil {
			return visaID, err
		}
		if _, err := s.visas.Get(ctx, visaID); err != nil {
			return visaID, err
		}
		clean, err := cleanFileName(EntityVisaApplication, name)
		if err != nil {
			return visaID, err
		}
		info, rc, err := s.blobs.Get(ctx, visaPrefix(visaID)+clean)
		if err != nil {
			return visaID, err
		}
		out = DocumentInfo{Name: clean, Info: info}
		body = rc
		return visaID, nil
	})
	return out, body, err
}

// DeleteVisaDocument removes a stored file and its entry in the document list.
func (s *Service) DeleteVisaDocument(ctx context.Context, visaID, name string, opts DeleteOptions) error {
	return s.instrument(ctx, "delete_visa_document", EntityVisaApplication, "", func(ctx context.Context) (string, error) {
		if err := s.requireBlobs(); err != nil {
			return visaID, err
		}
		if !opts.Confirmed {
			return visaID, domain.ErrConfirmationRequired
		}
		clean, err := cleanFileName(EntityVisaApplication, name)
		if err != nil {
			return visaID, err
		}
		current, err := s.visas.Get(ctx, visaID)
		if err != nil {
			return visaID, err
		}
		existed, err := s.blobs.Delete(ctx, visaPrefix(visaID)+clean)
		if err != nil {
			return visaID, err
		}
		listed := slices.Contains(current.Documents, clean)
		if !existed && !listed {
			return visaID, fmt.Errorf("document %s: %w", clean, blob.ErrNotFound)
		}
		if !listed {
			return visaID, nil
		}
		_, _, err = s.visas.Update(ctx, visaID, func(v *VisaApplication) error {
			v.Documents = slices.DeleteFunc(v.Documents, func(d string) bool { return d == clean })
			return nil
		})
		return visaID, err
	})
}

// SetArticleImage stores a featured image and points the article at it. The
// previous image, if any, is removed.
func (s *Service) SetArticleImage(ctx context.Context, articleID string, up Upload) (Article, DocumentInfo, error) {
	var (
		updated Article
		out     DocumentInfo
	)
	err := s.instrument(ctx, "set_article_image", EntityArticle, "", func(ctx context.Context) (string, error) {
		if err := s.requireBlobs(); err != nil {
			return articleID, err
		}
		current, err := s.articles.Get(ctx, articleID)
		if err != nil {
			return articleID, err
		}
		info, _, err := s.putDocument(ctx, EntityArticle, articlePrefix(articleID), up)
		if err != nil {
			return articleID, err
		}
		updated, _, err = s.articles.Update(ctx, articleID, func(a *Article) error {
			a.FeaturedImage = info.Key
			return nil
		})
		if err != nil {
			if _, derr := s.blobs.Delete(ctx, info.Key); derr != nil {
				s.logger.Warn("orphaned image cleanup failed", "key", info.Key, "error", derr)
			}
			return articleID, err
		}
		if previous := current.FeaturedImage; previous != "" && previous != info.Key {
			if _, derr := s.blobs.Delete(ctx, previous); derr != nil && !errors.Is(derr, blob.ErrNotFound) {
				s.logger.Warn("previous image cleanup failed", "key", previous, "error", derr)
			}
		}
		out = s.describe(ctx, info, articlePrefix(articleID))
		return articleID, nil
	})
	return updated, out, err
}
