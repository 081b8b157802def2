package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"blochsweep/internal/catalog/core"
)

func TestRecordGetList(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := core.Run{ID: "b", Kind: core.KindSteady, Points: 3, StartedAt: base.Add(time.Minute)}
	earlier := core.Run{ID: "a", Kind: core.KindEvolve, Points: 1, Failed: []int{0}, StartedAt: base}
	for _, r := range []core.Run{later, earlier} {
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("record %s: %v", r.ID, err)
		}
	}
	runs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "a" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	runs[0].Failed[0] = 99
	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Failed[0] != 0 {
		t.Fatalf("listed run aliases stored slice")
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordReplacesAndValidates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	if err := s.Record(ctx, core.Run{ID: "x", Kind: core.KindSteady, Points: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(ctx, core.Run{ID: "x", Kind: core.KindSteady, Points: 7}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ := s.Get(ctx, "x")
	if got.Points != 7 {
		t.Fatalf("expected replacement, got %+v", got)
	}
	if err := s.Record(ctx, core.Run{ID: "y", Kind: "bogus"}); !errors.Is(err, core.ErrInvalidRun) {
		t.Fatalf("expected ErrInvalidRun, got %v", err)
	}
	if err := s.Record(ctx, core.Run{Kind: core.KindSteady}); !errors.Is(err, core.ErrInvalidRun) {
		t.Fatalf("expected ErrInvalidRun for empty id, got %v", err)
	}
}
