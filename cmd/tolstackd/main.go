// Command tolstackd serves the Analysis gRPC service and a Prometheus
// metrics endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/tolstack/internal/config"
	"github.com/danielpatrickdp/tolstack/internal/rpc"
	"github.com/danielpatrickdp/tolstack/internal/runlog"
	"github.com/danielpatrickdp/tolstack/internal/runner"
)

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("tolstackd exited", "error", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := runlog.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := runner.DefaultOptions()
	opts.Stackup = cfg.Stackup()
	opts.Chain = cfg.Chain()
	opts.Verdict = cfg.Verdict()
	opts.SigmaLevel = cfg.SigmaLevel
	opts.Logger = logger
	opts.Metrics = runner.NewMetrics(reg)

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(rpc.UnaryInterceptor(logger, rpc.NewMetrics(reg))))
	rpc.Register(srv, rpc.NewServer(opts, store))

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc listening", "addr", lis.Addr().String(), "db", cfg.DBPath)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("metrics listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.GracefulStop()
		return metricsSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// #endregion run
