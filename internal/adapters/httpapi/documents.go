package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"consulardesk/internal/core"
)

// maxUploadBytes bounds a single uploaded file.
const maxUploadBytes = 32 << 20

var errNoFile = errors.New("upload requires a multipart \"file\" part or a raw body with ?name=")

// readUpload accepts either multipart/form-data with a "file" part or a raw
// body named by the ?name= parameter. The returned closer releases the part.
func readUpload(w http.ResponseWriter, r *http.Request) (core.Upload, io.Closer, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		mr, err := r.MultipartReader()
		if err != nil {
			return core.Upload{}, nil, err
		}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return core.Upload{}, nil, errNoFile
			}
			if err != nil {
				return core.Upload{}, nil, err
			}
			if part.FormName() != "file" {
				_ = part.Close()
				continue
			}
			return core.Upload{
				Name:        part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Body:        part,
			}, part, nil
		}
	}
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		return core.Upload{}, nil, errNoFile
	}
	return core.Upload{Name: name, ContentType: mediaType, Body: r.Body}, r.Body, nil
}

func (h *Handler) handleVisaDocuments(w http.ResponseWriter, r *http.Request, visaID string, rest []string) {
	switch len(rest) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			docs, err := h.svc.ListVisaDocuments(r.Context(), visaID)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
		case http.MethodPost:
			up, closer, err := readUpload(w, r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			defer closer.Close()
			doc, err := h.svc.UploadVisaDocument(r.Context(), visaID, up)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"document": doc})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case 1:
		name := rest[0]
		switch r.Method {
		case http.MethodGet:
			info, body, err := h.svc.OpenVisaDocument(r.Context(), visaID, name)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			defer body.Close()
			contentType := info.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			w.Header().Set("Content-Type", contentType)
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
			if info.Size > 0 {
				w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
			}
			w.WriteHeader(http.StatusOK)
			if _, err := io.Copy(w, body); err != nil {
				h.logger.Warn("document download interrupted", "visa", visaID, "name", info.Name, "error", err)
			}
		case http.MethodDelete:
			if err := h.svc.DeleteVisaDocument(r.Context(), visaID, name, core.DeleteOptions{Confirmed: confirmed(r)}); err != nil {
				h.fail(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		writeError(w, http.StatusNotFound, "endpoint not found")
	}
}

func (h *Handler) handleArticleImage(w http.ResponseWriter, r *http.Request, articleID string) {
	up, closer, err := readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer closer.Close()
	article, image, err := h.svc.SetArticleImage(r.Context(), articleID, up)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": article, "image": image})
}
