package konf

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Namespace is the Prometheus namespace for konfd's own metrics.
const Namespace = "konfd"

// Metrics tracks query counts by operation and outcome, exposed on the
// optional /metrics endpoint.
type Metrics struct {
	registry *prometheus.Registry
	queries  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "queries_total",
		Help:      "Configuration queries handled, by operation and outcome.",
	}, []string{"op", "outcome"})
	reg.MustRegister(queries)

	return &Metrics{registry: reg, queries: queries}
}

func (m *Metrics) Observe(op byte, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.queries.WithLabelValues(string(op), outcome).Inc()
}

// Server serves /metrics for Prometheus scraping. Start always listens;
// callers that want no endpoint do not create a Server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(port int, m *Metrics, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Start() {
	go func() {
		if s.logger != nil {
			s.logger.Info("konfd metrics server starting", zap.String("addr", s.httpServer.Addr))
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("konfd metrics server error", zap.Error(err))
			}
		}
	}()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil && s.logger != nil {
		s.logger.Error("konfd metrics server shutdown error", zap.Error(err))
	}
}
