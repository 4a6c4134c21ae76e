// Package elastic keeps the global search index in Elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	json "github.com/goccy/go-json"

	"consulardesk/internal/core"
)

const defaultIndex = "consulardesk-search"

// Config describes the cluster and index.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Index implements core.SearchIndex.
type Index struct {
	client *elasticsearch.Client
	index  string
	rank   map[core.EntityType]int
}

type indexedDoc struct {
	core.SearchDocument
	Rank int `json:"rank"`
}

// New connects to the cluster and creates the index when it is missing.
func New(ctx context.Context, cfg Config) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	name := cfg.Index
	if name == "" {
		name = defaultIndex
	}
	idx := &Index{client: client, index: name, rank: make(map[core.EntityType]int)}
	for i, entity := range core.SearchOrder() {
		idx.rank[entity] = i
	}
	if err := idx.ensure(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Name returns the index name.
func (x *Index) Name() string { return x.index }

const mapping = `{
  "mappings": {
    "properties": {
      "type":        {"type": "keyword"},
      "id":          {"type": "keyword"},
      "title":       {"type": "text"},
      "subtitle":    {"type": "text"},
      "description": {"type": "text"},
      "status":      {"type": "keyword"},
      "date":        {"type": "keyword"},
      "url":         {"type": "keyword", "index": false},
      "text":        {"type": "wildcard"},
      "seq":         {"type": "long"},
      "rank":        {"type": "integer"}
    }
  }
}`

func (x *Index) ensure(ctx context.Context) error {
	res, err := x.client.Indices.Exists([]string{x.index}, x.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", x.index, err)
	}
	drain(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}
	res, err = x.client.Indices.Create(x.index,
		x.client.Indices.Create.WithContext(ctx),
		x.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", x.index, err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", x.index, res.String())
	}
	return nil
}

func docID(entity core.EntityType, id string) string { return string(entity) + ":" + id }

// Index upserts docs with a single bulk request.
func (x *Index) Index(ctx context.Context, docs []core.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}
	var body bytes.Buffer
	for _, doc := range docs {
		meta := map[string]map[string]string{"index": {"_index": x.index, "_id": docID(doc.Type, doc.ID)}}
		line, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		body.Write(line)
		body.WriteByte('\n')
		src, err := json.Marshal(indexedDoc{SearchDocument: doc, Rank: x.rank[doc.Type]})
		if err != nil {
			return fmt.Errorf("encode %s: %w", doc.ID, err)
		}
		body.Write(src)
		body.WriteByte('\n')
	}
	res, err := x.client.Bulk(&body,
		x.client.Bulk.WithContext(ctx),
		x.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.String())
	}
	var reply struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if reply.Errors {
		return fmt.Errorf("bulk index: one or more documents rejected")
	}
	return nil
}

// Remove deletes the document of one record. Missing documents are ignored.
func (x *Index) Remove(ctx context.Context, entity core.EntityType, id string) error {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: docID(entity, id), Refresh: "true"}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	defer drain(res)
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete document: %s", res.String())
	}
	return nil
}

func escapeWildcard(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return r.Replace(s)
}

// Query returns documents whose text contains text, case-insensitively,
// ordered by entity rank then insertion order.
func (x *Index) Query(ctx context.Context, text string, limit int) ([]core.SearchHit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []core.SearchHit{}, nil
	}
	query := map[string]any{
		"size": limit,
		"query": map[string]any{
			"wildcard": map[string]any{
				"text": map[string]any{
					"value":            "*" + escapeWildcard(text) + "*",
					"case_insensitive": true,
				},
			},
		},
		"sort": []any{
			map[string]any{"rank": "asc"},
			map[string]any{"seq": "asc"},
		},
	}
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	res, err := x.client.Search(
		x.client.Search.WithContext(ctx),
		x.client.Search.WithIndex(x.index),
		x.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer drain(res)
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.String())
	}
	var reply struct {
		Hits struct {
			Hits []struct {
				Source indexedDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := make([]core.SearchHit, 0, len(reply.Hits.Hits))
	for _, hit := range reply.Hits.Hits {
		out = append(out, hit.Source.SearchHit)
	}
	return out, nil
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
