package rpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// #region metrics
// Metrics holds the per-method request collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics registers the RPC collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: method, code (gRPC status code)
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tolstack",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Unary RPCs handled, by method and status code",
		}, []string{"method", "code"}),
		// Labels: method
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tolstack",
			Subsystem: "rpc",
			Name:      "latency_seconds",
			Help:      "Unary RPC latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
	}
}

// #endregion metrics

// #region interceptor
// UnaryInterceptor logs every call with its method, duration and status
// code, and records it in m when m is non-nil.
func UnaryInterceptor(logger *slog.Logger, m *Metrics) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)
		code := status.Code(err)

		if m != nil {
			m.requests.WithLabelValues(info.FullMethod, code.String()).Inc()
			m.latency.WithLabelValues(info.FullMethod).Observe(elapsed.Seconds())
		}
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "rpc",
			"method", info.FullMethod,
			"code", code.String(),
			"duration", elapsed,
		)
		return resp, err
	}
}

// #endregion interceptor
