package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"consulardesk/internal/core"
)

// reserved query parameters that never name a filter dimension.
var reservedParams = map[string]bool{"q": true, "confirm": true, "limit": true}

// resource serves the generic routes of one collection.
type resource interface {
	core.CollectionHandle
	list(w http.ResponseWriter, r *http.Request)
	create(w http.ResponseWriter, r *http.Request)
	get(w http.ResponseWriter, r *http.Request, id string)
	patch(w http.ResponseWriter, r *http.Request, id string)
	status(w http.ResponseWriter, r *http.Request, id string)
	remove(w http.ResponseWriter, r *http.Request, id string)
}

type collectionResource[T any] struct {
	*core.Collection[T]
	h *Handler
}

func register[T any](h *Handler, c *core.Collection[T]) {
	h.resources[c.Name()] = &collectionResource[T]{Collection: c, h: h}
}

// queryFrom turns ?q=&<dimension>= parameters into a collection query.
func queryFrom(values url.Values) core.Query {
	q := core.Query{Search: values.Get("q")}
	for key, vals := range values {
		if reservedParams[key] || len(vals) == 0 {
			continue
		}
		if q.Filters == nil {
			q.Filters = make(map[string]string)
		}
		q.Filters[key] = vals[0]
	}
	return q
}

func (c *collectionResource[T]) list(w http.ResponseWriter, r *http.Request) {
	q := queryFrom(r.URL.Query())
	var (
		items []T
		err   error
	)
	if strings.TrimSpace(q.Search) == "" && len(q.Filters) == 0 {
		items, err = c.List(r.Context())
	} else {
		items, err = c.Filter(r.Context(), q)
	}
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (c *collectionResource[T]) create(w http.ResponseWriter, r *http.Request) {
	var rec T
	if err := decodeBody(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+c.Name()+" payload")
		return
	}
	created, res, err := c.Create(r.Context(), rec)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse(created, res))
}

func (c *collectionResource[T]) get(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := c.Get(r.Context(), id)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": rec})
}

// patch merges the JSON body onto the stored record.
func (c *collectionResource[T]) patch(w http.ResponseWriter, r *http.Request, id string) {
	body, err := readAll(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+c.Name()+" payload")
		return
	}
	updated, res, err := c.Update(r.Context(), id, func(rec *T) error {
		return json.Unmarshal(body, rec)
	})
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse(updated, res))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (c *collectionResource[T]) status(w http.ResponseWriter, r *http.Request, id string) {
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid status payload")
		return
	}
	updated, res, err := c.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse(updated, res))
}

func (c *collectionResource[T]) remove(w http.ResponseWriter, r *http.Request, id string) {
	_, err := c.Delete(r.Context(), id, core.DeleteOptions{Confirmed: confirmed(r)})
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func confirmed(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("confirm")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func itemResponse(item any, res core.Result) map[string]any {
	out := map[string]any{"item": item}
	if v := violations(res); v != nil {
		out["warnings"] = v
	}
	return out
}

type collectionView struct {
	Name       string          `json:"name"`
	Entity     core.EntityType `json:"entity"`
	Dimensions []string        `json:"dimensions"`
	Statuses   []string        `json:"statuses"`
	Initial    string          `json:"initial_status"`
}

func (h *Handler) handleCollections(w http.ResponseWriter, _ *http.Request) {
	out := make([]collectionView, 0, len(h.order))
	for _, name := range h.order {
		res := h.resources[name]
		out = append(out, collectionView{
			Name:       res.Name(),
			Entity:     res.Entity(),
			Dimensions: res.Dimensions(),
			Statuses:   res.Machine().States(),
			Initial:    res.Machine().Initial(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": out})
}

func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request, res resource, segments []string) {
	switch len(segments) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			res.list(w, r)
		case http.MethodPost:
			res.create(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case 1:
		id := segments[0]
		switch r.Method {
		case http.MethodGet:
			res.get(w, r, id)
		case http.MethodPatch:
			res.patch(w, r, id)
		case http.MethodDelete:
			res.remove(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		id, action := segments[0], segments[1]
		switch {
		case action == "status" && len(segments) == 2:
			if r.Method != http.MethodPut {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			res.status(w, r, id)
		case action == "documents" && res.Name() == h.svc.Visas().Name():
			h.handleVisaDocuments(w, r, id, segments[2:])
		case action == "image" && len(segments) == 2 && res.Name() == h.svc.Articles().Name():
			if r.Method != http.MethodPut {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			h.handleArticleImage(w, r, id)
		default:
			writeError(w, http.StatusNotFound, "endpoint not found")
		}
	}
}
