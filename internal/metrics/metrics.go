// Package metrics exports sync observations to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nts"

var sessionStates = []domain.SessionState{domain.SessionConnecting, domain.SessionConnected, domain.SessionFailed}

// Metrics implements ports.SyncMetrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	sessionState      *prometheus.GaugeVec
	passes            *prometheus.CounterVec
	passDuration      prometheus.Histogram
	recordsFetched    *prometheus.CounterVec
	recordsSkipped    *prometheus.CounterVec
	recordsReconciled *prometheus.CounterVec
	recordsUploaded   prometheus.Counter
	uploadAttempts    *prometheus.CounterVec
}

var _ ports.SyncMetrics = (*Metrics)(nil)

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		sessionState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "1 for the current remote session state, 0 otherwise",
		}, []string{"state"}),

		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_passes_total",
			Help:      "Sync passes by outcome",
		}, []string{"outcome"}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_pass_duration_seconds",
			Help:      "Wall time of a sync pass",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		recordsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Raw records read from the source store",
		}, []string{"collection"}),

		recordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records dropped during a pass by stage",
		}, []string{"stage"}),

		recordsReconciled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_reconciled_total",
			Help:      "Records placed by the basal reconciler by outcome",
		}, []string{"outcome"}),

		recordsUploaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_uploaded_total",
			Help:      "Records accepted by the remote service",
		}),

		uploadAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_attempts_total",
			Help:      "Upload chunk attempts by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) SessionState(state domain.SessionState) {
	for _, known := range sessionStates {
		value := 0.0
		if known == state {
			value = 1
		}
		m.sessionState.WithLabelValues(string(known)).Set(value)
	}
}

func (m *Metrics) PassFinished(outcome string, elapsed time.Duration) {
	m.passes.WithLabelValues(outcome).Inc()
	m.passDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RecordsFetched(collection string, n int) {
	m.recordsFetched.WithLabelValues(collection).Add(float64(n))
}

func (m *Metrics) RecordsSkipped(stage string, n int) {
	m.recordsSkipped.WithLabelValues(stage).Add(float64(n))
}

func (m *Metrics) RecordsReconciled(outcome string, n int) {
	m.recordsReconciled.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) RecordsUploaded(n int) {
	m.recordsUploaded.Add(float64(n))
}

func (m *Metrics) UploadAttempt(result string) {
	m.uploadAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(listener) }()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve metrics: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
