// Package observability exposes Prometheus metrics and the health endpoints
// of the crawler process.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	healthCheckTimeoutShort = 5 * time.Second
	healthCheckTimeoutLong  = 10 * time.Second
)

// Pinger reports whether the remote automation session is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsFunc returns the current run counters for the stats endpoint.
type StatsFunc func(ctx context.Context) (interface{}, error)

// HealthServer provides health check and metrics endpoints for the crawler.
type HealthServer struct {
	pinger Pinger
	stats  StatsFunc
	port   int
	ready  atomic.Bool
	server *http.Server
}

// NewHealthServer creates a new HealthServer.
func NewHealthServer(pinger Pinger, stats StatsFunc, port int) *HealthServer {
	hs := &HealthServer{
		pinger: pinger,
		stats:  stats,
		port:   port,
	}
	hs.ready.Store(false)

	return hs
}

// SetReady marks the server as ready.
func (hs *HealthServer) SetReady(ready bool) {
	hs.ready.Store(ready)
}

// Start starts the health server and shuts it down when ctx is cancelled.
func (hs *HealthServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", hs.handleHealthz)
	mux.HandleFunc("/readyz", hs.handleReadyz)
	mux.HandleFunc("/stats", hs.handleStats)
	mux.Handle("/metrics", promhttp.Handler())

	hs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", hs.port),
		Handler:           mux,
		ReadHeaderTimeout: healthCheckTimeoutShort,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), healthCheckTimeoutShort)
		defer cancel()

		_ = hs.server.Shutdown(shutdownCtx) //nolint:errcheck,contextcheck // Best-effort shutdown, must use new context
	}()

	if err := hs.server.ListenAndServe(); err != nil {
		return fmt.Errorf("start health server: %w", err)
	}

	return nil
}

// handleHealthz handles liveness probes.
func (hs *HealthServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write([]byte("ok")) //nolint:errcheck // Best-effort write
}

// handleReadyz handles readiness probes against the remote session.
func (hs *HealthServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !hs.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeoutShort)
	defer cancel()

	if err := hs.pinger.Ping(ctx); err != nil {
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)

	_, _ = w.Write([]byte("ok")) //nolint:errcheck // Best-effort write
}

// handleStats returns run statistics.
func (hs *HealthServer) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeoutLong)
	defer cancel()

	stats, err := hs.stats(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	_ = json.NewEncoder(w).Encode(stats) //nolint:errcheck,errchkjson // Best-effort encode
}
