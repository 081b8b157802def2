package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"blochsweep/internal/blob/core"
)

func TestStore_MockedBasicFlow(t *testing.T) { //nolint:cyclop
	ctx := context.Background()
	store := NewMock()
	if store.Driver() != core.DriverS3 || store.Bucket() != "mock-bucket" {
		t.Fatalf("unexpected store identity %s %s", store.Driver(), store.Bucket())
	}
	payload := []byte(`{"deltas":[0,1,2]}`)
	info, err := store.Put(ctx, "sweeps/a.json", bytes.NewReader(payload), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"points": "3"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Metadata["points"] != "3" {
		t.Fatalf("metadata not round-tripped: %+v", info.Metadata)
	}
	if _, err := store.Put(ctx, "sweeps/a.json", bytes.NewReader([]byte("x")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := store.Get(ctx, "sweeps/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(body, payload) {
		t.Fatalf("unexpected body %q", body)
	}
	if _, err := store.Put(ctx, "other/b.json", strings.NewReader("{}"), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}
	list, err := store.List(ctx, "sweeps/")
	if err != nil || len(list) != 1 || list[0].Key != "sweeps/a.json" || list[0].Size != int64(len(payload)) {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
	ok, err := store.Delete(ctx, "sweeps/a.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "sweeps/a.json")
	if err != nil || ok {
		t.Fatalf("second delete should report missing: %v %v", ok, err)
	}
}

func TestStore_NotFoundMapping(t *testing.T) {
	ctx := context.Background()
	store := NewMock()
	if _, err := store.Head(ctx, "missing.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "missing.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Put(ctx, "", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("put: expected ErrInvalidKey, got %v", err)
	}
}

func TestStore_New(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
	s, err := New(context.Background(), Config{
		Bucket:          "sweeps",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Bucket() != "sweeps" {
		t.Fatalf("unexpected bucket %s", s.Bucket())
	}
}

func TestDecodeChunked(t *testing.T) {
	if _, ok := decodeChunked([]byte("not-chunked")); ok {
		t.Fatalf("expected plain body to be rejected")
	}
	if _, ok := decodeChunked([]byte("5\r\nabc\r\n0\r\n")); ok {
		t.Fatalf("expected short chunk to be rejected")
	}
	if b, ok := decodeChunked([]byte("5\r\nhello\r\n0\r\n")); !ok || string(b) != "hello" {
		t.Fatalf("expected hello, got %q %v", b, ok)
	}
	multi := "3;chunk-signature=abc\r\nfoo\r\n3\r\nbar\r\n0\r\nx-amz-checksum-crc32:AAAAAA==\r\n\r\n"
	if b, ok := decodeChunked([]byte(multi)); !ok || string(b) != "foobar" {
		t.Fatalf("expected foobar, got %q %v", b, ok)
	}
}
