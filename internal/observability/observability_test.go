package observability

import (
	"bytes"
	"encoding/json"
	"expvar"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("new prometheus: %v", err)
	}
	p.PointSolved("steady", 3*time.Millisecond)
	p.PointSolved("steady", 5*time.Millisecond)
	p.PointFailed("steady")
	p.PointFailed("evolve")
	p.CacheLookup(true)
	p.CacheLookup(false)
	p.CacheLookup(false)

	if got := testutil.ToFloat64(p.solved.WithLabelValues("steady")); got != 2 {
		t.Fatalf("solved=%v", got)
	}
	if got := testutil.ToFloat64(p.failed.WithLabelValues("evolve")); got != 1 {
		t.Fatalf("failed evolve=%v", got)
	}
	if got := testutil.ToFloat64(p.lookups.WithLabelValues("miss")); got != 2 {
		t.Fatalf("misses=%v", got)
	}
	if n := testutil.CollectAndCount(p.duration); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
	expected := `
# HELP blochsweep_cache_lookups_total Result cache lookups by outcome.
# TYPE blochsweep_cache_lookups_total counter
blochsweep_cache_lookups_total{result="hit"} 1
blochsweep_cache_lookups_total{result="miss"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "blochsweep_cache_lookups_total"); err != nil {
		t.Fatalf("unexpected exposition: %v", err)
	}
}

func TestPrometheusReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	a.PointFailed("parallel")
	b.PointFailed("parallel")
	if got := testutil.ToFloat64(a.failed.WithLabelValues("parallel")); got != 2 {
		t.Fatalf("expected shared counter, got %v", got)
	}
}

func TestExpvarRecorder(t *testing.T) {
	rec := NewExpvar("")
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.PointSolved("parallel", 2*time.Millisecond)
		}()
	}
	wg.Wait()
	rec.PointFailed("parallel")
	rec.CacheLookup(true)

	snap := rec.Snapshot()
	if snap.Results["parallel"]["solved"] != 10 || snap.Results["parallel"]["failed"] != 1 {
		t.Fatalf("unexpected results %+v", snap.Results)
	}
	if snap.DurationsMS["parallel"] != 20 {
		t.Fatalf("unexpected durations %+v", snap.DurationsMS)
	}
	if snap.Cache["hit"] != 1 {
		t.Fatalf("unexpected cache counts %+v", snap.Cache)
	}

	v := expvar.Get(rec.Name())
	if v == nil {
		t.Fatalf("recorder not published")
	}
	var decoded ExpvarSnapshot
	if err := json.Unmarshal([]byte(v.String()), &decoded); err != nil {
		t.Fatalf("decode published value: %v", err)
	}
	if decoded.Results["parallel"]["solved"] != 10 {
		t.Fatalf("published snapshot stale: %+v", decoded)
	}
	snap.Results["parallel"]["solved"] = 0
	if rec.Snapshot().Results["parallel"]["solved"] != 10 {
		t.Fatalf("snapshot aliases recorder state")
	}
}

func TestMeasureLogsElapsed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	stop := Measure(logger, "steady state")
	stop()
	out := buf.String()
	if !strings.Contains(out, `name="steady state"`) || !strings.Contains(out, "elapsed=") {
		t.Fatalf("unexpected log line %q", out)
	}
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.PointSolved("steady", time.Second)
	r.PointFailed("steady")
	r.CacheLookup(true)
}
