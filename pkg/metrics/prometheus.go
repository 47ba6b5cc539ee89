package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry              *prometheus.Registry
	authAttempts          *prometheus.CounterVec
	transactionsProcessed prometheus.Counter
	transactionsFailed    prometheus.Counter
	transactionDuration   prometheus.Histogram
	accountBalance        *prometheus.GaugeVec
	logger                *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &MetricsCollector{
		registry: registry,
		authAttempts: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Authentication attempts by outcome",
		}, []string{"outcome"}),
		transactionsProcessed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "transactions_processed_total",
			Help: "Total number of committed transactions",
		}),
		transactionsFailed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "transactions_failed_total",
			Help: "Total number of declined or failed transactions",
		}),
		transactionDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "transaction_processing_duration_seconds",
			Help:    "Time taken to process a transaction",
			Buckets: prometheus.DefBuckets,
		}),
		accountBalance: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "account_balance",
			Help: "Latest committed account balance",
		}, []string{"account_id"}),
		logger: logger,
	}

	return collector
}

func (m *MetricsCollector) RecordAuthAttempt(success bool) {
	outcome := "failed"
	if success {
		outcome = "ok"
	}
	m.authAttempts.WithLabelValues(outcome).Inc()
}

func (m *MetricsCollector) RecordTransaction(duration time.Duration, success bool) {
	if success {
		m.transactionsProcessed.Inc()
	} else {
		m.transactionsFailed.Inc()
	}
	m.transactionDuration.Observe(duration.Seconds())
}

func (m *MetricsCollector) UpdateAccountBalance(accountID string, balance float64) {
	m.accountBalance.WithLabelValues(accountID).Set(balance)
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
