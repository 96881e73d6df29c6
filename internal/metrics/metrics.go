package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ticker outcomes used as the "outcome" label of seeker_tickers_total.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// Run statuses used as the "status" label of seeker_runs_total.
const (
	StatusOK          = "ok"
	StatusInterrupted = "interrupted"
	StatusFailed      = "failed"
)

// Metrics holds the Prometheus collectors of the screener. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	TickersTotal  *prometheus.CounterVec // labels: outcome
	FetchDuration prometheus.Histogram
	RunDuration   prometheus.Histogram
	RunsTotal     *prometheus.CounterVec // labels: status
	LastRunPassed prometheus.Gauge
	LastRunTime   prometheus.Gauge
}

// New creates the collectors and registers them on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TickersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seeker_tickers_total",
			Help: "Tickers processed by outcome",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seeker_fetch_duration_seconds",
			Help:    "Price history fetch latency per ticker",
			Buckets: prometheus.DefBuckets,
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seeker_run_duration_seconds",
			Help:    "Wall time of a full screening run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400},
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seeker_runs_total",
			Help: "Screening runs by status (ok, interrupted, failed)",
		}, []string{"status"}),
		LastRunPassed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seeker_last_run_passed",
			Help: "Tickers accepted by the most recent run",
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seeker_last_run_timestamp_seconds",
			Help: "Unix time the most recent run finished",
		}),
	}
	m.Registry.MustRegister(
		m.TickersTotal,
		m.FetchDuration,
		m.RunDuration,
		m.RunsTotal,
		m.LastRunPassed,
		m.LastRunTime,
	)
	return m
}

func (m *Metrics) ObserveTicker(outcome string) {
	if m == nil {
		return
	}
	m.TickersTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// ObserveRun records the end of a run.
func (m *Metrics) ObserveRun(status string, passed int, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
	m.LastRunPassed.Set(float64(passed))
	m.LastRunTime.SetToCurrentTime()
}

// Health reports the outcome of the latest run on /healthz.
type Health struct {
	mu        sync.RWMutex
	StartedAt time.Time
	LastRunAt time.Time
	LastRunID string
	LastError string
	Running   bool
}

func NewHealth() *Health {
	return &Health{StartedAt: time.Now()}
}

func (h *Health) RunStarted() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.Running = true
	h.mu.Unlock()
}

// RunFinished records the latest run; err may be nil.
func (h *Health) RunFinished(runID string, err error) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Running = false
	h.LastRunAt = time.Now()
	h.LastRunID = runID
	h.LastError = ""
	if err != nil {
		h.LastError = err.Error()
	}
}

// ServeHTTP handles the /healthz endpoint. The service is degraded while the
// latest run failed.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := struct {
		Status    string `json:"status"`
		Uptime    string `json:"uptime"`
		Running   bool   `json:"running"`
		LastRunAt string `json:"last_run_at,omitempty"`
		LastRunID string `json:"last_run_id,omitempty"`
		LastError string `json:"last_error,omitempty"`
	}{
		Status:    "healthy",
		Uptime:    time.Since(h.StartedAt).Round(time.Second).String(),
		Running:   h.Running,
		LastRunID: h.LastRunID,
		LastError: h.LastError,
	}
	if !h.LastRunAt.IsZero() {
		status.LastRunAt = h.LastRunAt.Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	if h.LastError != "" {
		status.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, m *Metrics, health *Health) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] metrics server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
