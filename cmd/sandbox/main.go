// Command sandbox serves an in-memory organization backend with demo data so
// the portal can run without the real service.
package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"eduportal/internal/config"
	"eduportal/internal/logging"
	"eduportal/internal/sandbox"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env)
	defer func() { _ = logger.Sync() }()

	srv := sandbox.New(sandbox.WithLogger(logger))
	demo := srv.Seed()
	logger.Info("sandbox seeded",
		zap.String("organization", demo.OrganizationID),
		zap.String("admin", sandbox.AdminEmail),
		zap.String("tutor", sandbox.TutorEmail),
		zap.Strings("students", demo.StudentEmails))

	hs := &http.Server{
		Addr:              ":" + cfg.SandboxPort,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("sandbox listening", zap.String("addr", hs.Addr))
	if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("sandbox failed", zap.Error(err))
	}
}
