package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"eduportal/internal/config"
	"eduportal/internal/logging"
	"eduportal/internal/metrics"
	"eduportal/internal/session"
	"eduportal/internal/store"
)

// Worker removes expired portal sessions from postgres. Redis and memory
// backends expire sessions on their own.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	if cfg.SessionBackend != "postgres" {
		logger.Info("nothing to sweep", zap.String("backend", cfg.SessionBackend))
		return
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	srv := metricsServer(":"+cfg.MetricsPort, reg)
	go func() {
		logger.Info("worker metrics listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	sessions := session.NewPostgresStore(db.Client)
	logger.Info("sweeper started", zap.Duration("interval", cfg.SweepInterval))
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		sweep(ctx, sessions, m, logger)
		select {
		case <-ctx.Done():
			logger.Info("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// metricsServer exposes the worker registry on /metrics.
func metricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

func sweep(ctx context.Context, sessions *session.PostgresStore, m *metrics.Metrics, logger *zap.Logger) {
	n, err := sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("sweep failed", zap.Error(err))
		}
		return
	}
	m.Swept(n)
	if n > 0 {
		logger.Info("expired sessions removed", zap.Int64("count", n))
	}
}
