package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blochsweep"

// Prometheus exports recorder events as counters and a solve-time histogram.
type Prometheus struct {
	solved   *prometheus.CounterVec
	failed   *prometheus.CounterVec
	lookups  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus registers the collectors on reg. A nil reg means
// prometheus.DefaultRegisterer. Registering twice on the same registry
// reuses the existing collectors.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prometheus{
		solved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_solved_total",
			Help:      "Sweep points solved successfully.",
		}, []string{"kind"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_failed_total",
			Help:      "Sweep points whose solve failed and were left absent.",
		}, []string{"kind"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "point_duration_seconds",
			Help:      "Wall time of a single successful point solve.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}, []string{"kind"}),
	}
	var err error
	if p.solved, err = register(reg, p.solved); err != nil {
		return nil, err
	}
	if p.failed, err = register(reg, p.failed); err != nil {
		return nil, err
	}
	if p.lookups, err = register(reg, p.lookups); err != nil {
		return nil, err
	}
	if p.duration, err = register(reg, p.duration); err != nil {
		return nil, err
	}
	return p, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (p *Prometheus) PointSolved(kind string, elapsed time.Duration) {
	p.solved.WithLabelValues(kind).Inc()
	p.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (p *Prometheus) PointFailed(kind string) {
	p.failed.WithLabelValues(kind).Inc()
}

func (p *Prometheus) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.lookups.WithLabelValues(result).Inc()
}
