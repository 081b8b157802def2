package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"blochsweep/internal/blob/core"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}

	md := map[string]string{"points": "5"}
	info, err := s.Put(ctx, "sweeps/a.json", bytes.NewReader([]byte("{}")), core.PutOptions{ContentType: "application/json", Metadata: md})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	md["points"] = "mutated"
	if info.Size != 2 || info.ETag == "" || info.Metadata["points"] != "5" {
		t.Fatalf("unexpected info %+v", info)
	}

	if _, err := s.Put(ctx, "sweeps/a.json", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	got, rc, err := s.Get(ctx, "sweeps/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "{}" || got.Metadata["points"] != "5" {
		t.Fatalf("unexpected get %q %+v", body, got)
	}
	got.Metadata["points"] = "changed"
	head, err := s.Head(ctx, "sweeps/a.json")
	if err != nil || head.Metadata["points"] != "5" {
		t.Fatalf("metadata leaked through Get: %+v %v", head, err)
	}

	if _, err := s.Put(ctx, "other/b.json", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}
	list, err := s.List(ctx, "sweeps/")
	if err != nil || len(list) != 1 || list[0].Key != "sweeps/a.json" {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 2 || all[0].Key != "other/b.json" {
		t.Fatalf("list not sorted: %+v", all)
	}

	ok, err := s.Delete(ctx, "sweeps/a.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, _ = s.Delete(ctx, "sweeps/a.json")
	if ok {
		t.Fatalf("second delete reported existing")
	}
	if _, err := s.Head(ctx, "sweeps/a.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Get(ctx, "sweeps/a.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutRejectsEmptyKeyAndCancelledContext(t *testing.T) {
	s := New()
	if _, err := s.Put(context.Background(), " ", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, "k", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
