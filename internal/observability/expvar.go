package observability

import (
	"expvar"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// Expvar publishes aggregate solve times and outcome counters via expvar,
// for deployments that want process-local metrics without a scraper.
type Expvar struct {
	name      string
	mu        sync.Mutex
	durations map[string]float64
	results   map[string]map[string]int64
	cache     map[string]int64
}

// ExpvarSnapshot is a read-only view of the recorded metrics.
type ExpvarSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	Cache       map[string]int64            `json:"cache_lookups_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

var _ Recorder = (*Expvar)(nil)

// NewExpvar publishes a recorder under name. An empty name gets a unique
// generated one; expvar panics on duplicate names.
func NewExpvar(name string) *Expvar {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("blochsweep_sweep_metrics_%d", id)
	}
	rec := &Expvar{
		name:      name,
		durations: make(map[string]float64),
		results:   make(map[string]map[string]int64),
		cache:     make(map[string]int64, 2),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name.
func (r *Expvar) Name() string { return r.name }

// Snapshot returns a copy of the aggregated metrics.
func (r *Expvar) Snapshot() ExpvarSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make(map[string]map[string]int64, len(r.results))
	for kind, counts := range r.results {
		results[kind] = maps.Clone(counts)
	}
	return ExpvarSnapshot{
		DurationsMS: maps.Clone(r.durations),
		Results:     results,
		Cache:       maps.Clone(r.cache),
		RecordedAt:  time.Now().UTC(),
	}
}

func (r *Expvar) PointSolved(kind string, elapsed time.Duration) {
	r.mu.Lock()
	r.durations[kind] += float64(elapsed) / float64(time.Millisecond)
	r.count(kind, "solved")
	r.mu.Unlock()
}

func (r *Expvar) PointFailed(kind string) {
	r.mu.Lock()
	r.count(kind, "failed")
	r.mu.Unlock()
}

func (r *Expvar) CacheLookup(hit bool) {
	status := "miss"
	if hit {
		status = "hit"
	}
	r.mu.Lock()
	r.cache[status]++
	r.mu.Unlock()
}

// count must be called with mu held.
func (r *Expvar) count(kind, status string) {
	if _, ok := r.results[kind]; !ok {
		r.results[kind] = make(map[string]int64, 2)
	}
	r.results[kind][status]++
}
