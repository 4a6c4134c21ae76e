package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"consulardesk/internal/blob/core"
)

func TestStoreBasicFlow(t *testing.T) {
	store := newMockStore("documents", 0)
	ctx := context.Background()
	info, err := store.Put(ctx, "visas/BV001/photo.jpg", bytes.NewReader([]byte("hello")), core.PutOptions{
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"owner": "BV001"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "visas/BV001/photo.jpg" || info.ContentType != "image/jpeg" || info.Size != 5 {
		t.Fatalf("unexpected info %#v", info)
	}
	if info.Metadata["owner"] != "BV001" {
		t.Fatalf("metadata not round-tripped: %#v", info.Metadata)
	}
	if _, err := store.Put(ctx, "visas/BV001/photo.jpg", bytes.NewReader([]byte("again")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := store.Get(ctx, "visas/BV001/photo.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "hello" {
		t.Fatalf("get mismatch: %q", data)
	}
	if url, err := store.PresignURL(ctx, "visas/BV001/photo.jpg", core.SignedURLOptions{}); err != nil || url == "" {
		t.Fatalf("presign: %v %s", err, url)
	}
	if ok, err := store.Delete(ctx, "visas/BV001/photo.jpg"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "visas/BV001/photo.jpg"); err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
}

func TestStoreMissingKeysWrapNotFound(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	if _, err := store.Head(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: http.MethodPut}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported presign, got %v", err)
	}
}

func TestStoreListPaginates(t *testing.T) {
	store := newMockStore("documents", 1)
	ctx := context.Background()
	for _, key := range []string{"b.txt", "a.txt", "c.txt", "other/d.txt"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte(key)), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	list, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 4 || list[0].Key != "a.txt" || list[3].Key != "other/d.txt" {
		t.Fatalf("unexpected listing %+v", list)
	}
	if list, err := store.List(ctx, "missing/"); err != nil || len(list) != 0 {
		t.Fatalf("expected empty list: %v %+v", err, list)
	}
	if url, err := store.PresignURL(ctx, "a.txt", core.SignedURLOptions{Expiry: 30 * time.Second}); err != nil || url == "" {
		t.Fatalf("presign custom expiry: %v %s", err, url)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
	s, err := New(context.Background(), Config{
		Bucket:          "consular-docs",
		Endpoint:        "https://minio.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Driver() != core.DriverS3 {
		t.Fatalf("expected DriverS3")
	}
}

func TestInfoDefaults(t *testing.T) {
	store := NewMockForTests()
	etag := "\"etagval\""
	info := store.info("k", 10, nil, &etag, map[string]string{"x": "y"}, nil)
	if info.ETag != "etagval" || info.ContentType != "" || info.Size != 10 || info.LastModified.IsZero() {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestDecodeChunked(t *testing.T) {
	if _, ok := decodeChunked([]byte("not-chunked")); ok {
		t.Fatalf("plain body should not decode")
	}
	if _, ok := decodeChunked([]byte("5\r\nabc\r\n0\r\n")); ok {
		t.Fatalf("size mismatch should fail")
	}
	if b, ok := decodeChunked([]byte("5\r\nhello\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n\r\n")); !ok || string(b) != "hello" {
		t.Fatalf("expected hello, got %q", b)
	}
}

func TestFakeRejectsUnsupportedMethod(t *testing.T) {
	rt := &fakeS3{objects: map[string]fakeObject{}}
	req, _ := http.NewRequest(http.MethodPatch, "https://mock.s3.local/bucket/key", nil)
	resp, _ := rt.RoundTrip(req)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", resp.StatusCode)
	}
}
