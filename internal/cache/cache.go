// Package cache persists encoded sweep result sets in a blob store under
// string keys, fronted by an in-process LRU of the encoded payloads.
//
// Every key maps to the object `sweeps/<key>.json`. Save replaces an existing
// entry by deleting it and writing a fresh create-only blob while holding the
// key's writer lock. A reader never sees a half-written entry, but a Load
// racing a replacing Save may briefly get ErrCacheMiss; callers are expected
// to keep a single writer per key.
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"blochsweep/internal/blob"
)

const (
	// Prefix is the object-key namespace of cache entries.
	Prefix = "sweeps/"
	// Suffix is appended to every cache key.
	Suffix = ".json"
	// DefaultLRUSize is the number of payloads kept in memory.
	DefaultLRUSize = 32
)

var (
	// ErrCacheMiss is returned by Load for absent keys.
	ErrCacheMiss = errors.New("cache: miss")
	// ErrInvalidKey is returned for keys outside [A-Za-z0-9._-].
	ErrInvalidKey = errors.New("cache: invalid key")
)

// Entry describes one stored result set.
type Entry struct {
	Key      string
	Size     int64
	Modified time.Time
	Metadata map[string]string
}

// Cache is safe for concurrent use.
type Cache struct {
	store  blob.Store
	front  *lru.Cache[string, []byte]
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	lruSize int
	logger  *slog.Logger
}

// WithLRUSize sets the in-memory front size; zero or negative disables it.
func WithLRUSize(n int) Option { return func(o *options) { o.lruSize = n } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// New wraps store.
func New(store blob.Store, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, errors.New("cache: nil store")
	}
	o := options{lruSize: DefaultLRUSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	c := &Cache{
		store:  store,
		logger: o.logger.With("component", "cache", "driver", string(store.Driver())),
		locks:  make(map[string]*sync.Mutex),
	}
	if o.lruSize > 0 {
		front, err := lru.New[string, []byte](o.lruSize)
		if err != nil {
			return nil, err
		}
		c.front = front
	}
	return c, nil
}

// ObjectKey returns the blob key backing a cache key.
func ObjectKey(key string) string { return Prefix + key + Suffix }

// ValidateKey rejects empty keys and keys that could escape the namespace.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if key == "." || key == ".." || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidKey, key, r)
		}
	}
	return nil
}

// Exists reports whether key has a stored entry.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	if c.front != nil && c.front.Contains(key) {
		return true, nil
	}
	_, err := c.store.Head(ctx, ObjectKey(key))
	if errors.Is(err, blob.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache exists %s: %w", key, err)
	}
	return true, nil
}

// Load returns the payload stored at key, or ErrCacheMiss.
func (c *Cache) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if c.front != nil {
		if b, ok := c.front.Get(key); ok {
			return bytes.Clone(b), nil
		}
	}
	_, rc, err := c.store.Get(ctx, ObjectKey(key))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}
	if err != nil {
		return nil, fmt.Errorf("cache load %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("cache load %s: %w", key, err)
	}
	if c.front != nil {
		c.front.Add(key, bytes.Clone(b))
	}
	c.logger.Info("cache entry loaded", "key", key, "bytes", len(b))
	return b, nil
}

// Save stores payload at key, replacing any existing entry.
func (c *Cache) Save(ctx context.Context, key string, payload []byte, meta map[string]string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	unlock, err := c.lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	obj := ObjectKey(key)
	replaced, err := c.store.Delete(ctx, obj)
	if err != nil {
		return fmt.Errorf("cache save %s: %w", key, err)
	}
	if c.front != nil {
		c.front.Remove(key)
	}
	opts := blob.PutOptions{ContentType: "application/json", Metadata: meta}
	if _, err := c.store.Put(ctx, obj, bytes.NewReader(payload), opts); err != nil {
		return fmt.Errorf("cache save %s: %w", key, err)
	}
	if c.front != nil {
		c.front.Add(key, bytes.Clone(payload))
	}
	c.logger.Info("cache entry saved", "key", key, "bytes", len(payload), "replaced", replaced)
	return nil
}

// Delete removes key, reporting whether it existed.
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	unlock, err := c.lock(ctx, key)
	if err != nil {
		return false, err
	}
	defer unlock()
	if c.front != nil {
		c.front.Remove(key)
	}
	ok, err := c.store.Delete(ctx, ObjectKey(key))
	if err != nil {
		return false, fmt.Errorf("cache delete %s: %w", key, err)
	}
	return ok, nil
}

// List returns every entry ordered by key.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	infos, err := c.store.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("cache list: %w", err)
	}
	out := make([]Entry, 0, len(infos))
	for _, inf := range infos {
		key, ok := strings.CutSuffix(strings.TrimPrefix(inf.Key, Prefix), Suffix)
		if !ok || ValidateKey(key) != nil {
			continue
		}
		out = append(out, Entry{Key: key, Size: inf.Size, Modified: inf.LastModified, Metadata: inf.Metadata})
	}
	return out, nil
}

// lock serialises writers to key within the process and, when the store
// supports it, across processes.
func (c *Cache) lock(ctx context.Context, key string) (func(), error) {
	c.mu.Lock()
	m, ok := c.locks[key]
	if !ok {
		m = &sync.Mutex{}
		c.locks[key] = m
	}
	c.mu.Unlock()
	m.Lock()

	locker, ok := c.store.(blob.Locker)
	if !ok {
		return m.Unlock, nil
	}
	release, err := locker.Lock(ctx, ObjectKey(key))
	if err != nil {
		m.Unlock()
		return nil, err
	}
	return func() {
		if err := release(); err != nil {
			c.logger.Warn("releasing cache lock", "key", key, "err", err)
		}
		m.Unlock()
	}, nil
}
