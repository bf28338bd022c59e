package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"eduportal/internal/config"
	"eduportal/internal/session"
	"eduportal/internal/store"
	"eduportal/internal/toast"
)

// Backends are the storage connections selected by configuration.
type Backends struct {
	DB       *store.DB
	Redis    *store.Redis
	Sessions session.Store
	Toasts   toast.Queue
}

// Open connects whatever SESSION_BACKEND and TOAST_BACKEND require. Postgres
// is migrated on open.
func Open(ctx context.Context, cfg config.App, log *zap.Logger) (*Backends, error) {
	b := &Backends{}
	needRedis := cfg.SessionBackend == "redis" || cfg.ToastBackend == "redis"
	if needRedis {
		r, err := store.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.Redis = r
	}

	switch cfg.SessionBackend {
	case "memory":
		b.Sessions = session.NewMemoryStore()
	case "redis":
		b.Sessions = session.NewRedisStore(b.Redis.Client, "")
	case "postgres":
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.DB = db
		if err := db.Migrate(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.Sessions = session.NewPostgresStore(db.Client)
	default:
		b.Close()
		return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	switch cfg.ToastBackend {
	case "memory":
		b.Toasts = toast.NewInMemory(toast.DefaultLimit)
	case "redis":
		b.Toasts = toast.NewRedisQueue(b.Redis.Client, "", cfg.SessionTTL)
	default:
		b.Close()
		return nil, fmt.Errorf("unknown TOAST_BACKEND %q", cfg.ToastBackend)
	}

	log.Info("backends ready",
		zap.String("sessions", cfg.SessionBackend),
		zap.String("toasts", cfg.ToastBackend))
	return b, nil
}

// Healthy reports connectivity of each connected backend.
func (b *Backends) Healthy(ctx context.Context) map[string]bool {
	out := map[string]bool{}
	if b.DB != nil {
		out["db"] = b.DB.Healthy(ctx)
	}
	if b.Redis != nil {
		out["redis"] = b.Redis.Healthy(ctx)
	}
	return out
}

// Close releases every connection.
func (b *Backends) Close() {
	if b.DB != nil {
		_ = b.DB.Close()
	}
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
}
