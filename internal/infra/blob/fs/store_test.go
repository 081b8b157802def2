package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"blochsweep/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStore_PutGetHeadListDelete(t *testing.T) { //nolint:cyclop
	ctx := context.Background()
	store := newTempStore(t)
	info, err := store.Put(ctx, "sweeps/rb.json", bytes.NewReader([]byte("hello")), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"points": "5"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "sweeps/rb.json" || info.Size != 5 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "sweeps/rb.json", bytes.NewReader([]byte("x")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	h, err := store.Head(ctx, "sweeps/rb.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	g, rc, err := store.Get(ctx, "sweeps/rb.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if string(b) != "hello" || g.ETag != h.ETag || g.Metadata["points"] != "5" {
		t.Fatalf("unexpected get artifacts %+v", g)
	}
	list, err := store.List(ctx, "sweeps/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "sweeps/rb.json" {
		t.Fatalf("unexpected list %+v", list)
	}
	ok, err := store.Delete(ctx, "sweeps/rb.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "sweeps/rb.json")
	if err != nil || ok {
		t.Fatalf("second delete should be false")
	}
	if _, err := store.Head(ctx, "sweeps/rb.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "sweeps/rb.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	for _, key := range []string{"", "  ", "../escape.json", "/abs.json", "a.meta", "a.lock"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestStore_ListSkipsLocksAndTemporaries(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	unlock, err := store.Lock(ctx, "sweeps/a.json")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := store.Put(ctx, "sweeps/a.json", bytes.NewReader([]byte("1")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.Root(), "sweeps", ".tmp-stray"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray: %v", err)
	}
	list, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "sweeps/a.json" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestStore_LockSerialisesWriters(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)

	unlock, err := store.Lock(ctx, "sweeps/k.json")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := store.Lock(short, "sweeps/k.json"); err == nil {
		t.Fatalf("expected second lock to time out")
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	order := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			release, err := store.Lock(ctx, "sweeps/k.json")
			if err != nil {
				t.Errorf("lock %d: %v", i, err)
				return
			}
			defer func() { _ = release() }()
			key := "sweeps/k-" + strconv.Itoa(i) + ".json"
			if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
				t.Errorf("put %d: %v", i, err)
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	if len(order) != 4 {
		t.Fatalf("expected 4 writers, got %v", order)
	}
}

func TestNewDefaultsRoot(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	store, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Root() != DefaultRoot {
		t.Fatalf("unexpected root %s", store.Root())
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultRoot)); err != nil {
		t.Fatalf("root not created: %v", err)
	}
}
