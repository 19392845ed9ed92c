// Package metrics exposes Prometheus counters for LLM usage and response
// latency, served on an optional HTTP listener.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	llmTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commercelens_llm_tokens_total",
			Help: "Total tokens consumed by LLM calls",
		},
		[]string{"model", "operation", "kind"},
	)

	responseTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "commercelens_response_time_seconds",
			Help:    "End-to-end response time per operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	sqlAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commercelens_sql_attempts_total",
			Help: "SQL generation attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordTokens accumulates prompt and completion token counts for one call.
func RecordTokens(model, operation string, promptTokens, completionTokens int) {
	llmTokensTotal.WithLabelValues(model, operation, "prompt").Add(float64(promptTokens))
	llmTokensTotal.WithLabelValues(model, operation, "completion").Add(float64(completionTokens))
}

// ObserveResponseTime records the duration of one operation.
func ObserveResponseTime(operation string, d time.Duration) {
	responseTime.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordSQLAttempt counts one SQL generation attempt. Outcome is "ok",
// "invalid", or "failed".
func RecordSQLAttempt(outcome string) {
	sqlAttemptsTotal.WithLabelValues(outcome).Inc()
}

// Server serves the /metrics endpoint.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a metrics listener on the given port.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server failed: %w", err)
	}

	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
