package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"blochsweep/internal/catalog"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	for _, cfg := range []catalog.Config{
		{Driver: catalog.DriverMemory},
		{SQLitePath: path},
		{Driver: catalog.DriverSQLite, SQLitePath: path},
	} {
		s, err := catalog.Open(ctx, cfg)
		if err != nil {
			t.Fatalf("open %+v: %v", cfg, err)
		}
		run := catalog.Run{ID: catalog.NewID(), Kind: catalog.KindSteady, Points: 2, StartedAt: time.Now().UTC()}
		if err := s.Record(ctx, run); err != nil {
			t.Fatalf("record on %+v: %v", cfg, err)
		}
		if _, err := s.Get(ctx, run.ID); err != nil {
			t.Fatalf("get on %+v: %v", cfg, err)
		}
		if _, err := s.Get(ctx, "absent"); !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on %+v, got %v", cfg, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	if _, err := catalog.Open(ctx, catalog.Config{Driver: "etcd"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestNewIDIsUUID(t *testing.T) {
	a, b := catalog.NewID(), catalog.NewID()
	if a == b {
		t.Fatalf("ids collide")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("not a uuid: %v", err)
	}
}
