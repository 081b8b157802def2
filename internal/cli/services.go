package cli

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blochsweep/internal/blob"
	"blochsweep/internal/cache"
	"blochsweep/internal/catalog"
	"blochsweep/internal/observability"
)

const shutdownGrace = 2 * time.Second

func (a *app) openCache(ctx context.Context) (*cache.Cache, error) {
	store, err := blob.Open(ctx, a.cfg.Cache.Blob())
	if err != nil {
		return nil, fmt.Errorf("opening cache store: %w", err)
	}
	return cache.New(store,
		cache.WithLRUSize(a.cfg.Cache.LRUSize),
		cache.WithLogger(a.logger),
	)
}

func (a *app) openCatalog(ctx context.Context) (catalog.Store, error) {
	store, err := catalog.Open(ctx, a.cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("opening run catalog: %w", err)
	}
	return store, nil
}

// recorder builds the configured metrics recorder and, when metrics.addr is
// set, starts serving it. The returned stop func shuts the server down.
func (a *app) recorder() (observability.Recorder, func(), error) {
	noop := func() {}
	var (
		rec     observability.Recorder
		handler http.Handler
		path    string
	)
	switch a.cfg.Metrics.Recorder {
	case "", "none":
		return observability.Nop{}, noop, nil
	case "prometheus":
		reg := prometheus.NewRegistry()
		p, err := observability.NewPrometheus(reg)
		if err != nil {
			return nil, nil, err
		}
		rec, handler, path = p, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), "/metrics"
	case "expvar":
		rec, handler, path = observability.NewExpvar(""), expvar.Handler(), "/debug/vars"
	default:
		return nil, nil, fmt.Errorf("unknown metrics recorder %q", a.cfg.Metrics.Recorder)
	}
	if a.cfg.Metrics.Addr == "" {
		return rec, noop, nil
	}
	stop, err := a.serve(a.cfg.Metrics.Addr, path, handler)
	if err != nil {
		return nil, nil, err
	}
	return rec, stop, nil
}

func (a *app) serve(addr, path string, h http.Handler) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle(path, h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", ln.Addr().String(), "path", path)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
