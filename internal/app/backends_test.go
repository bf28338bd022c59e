package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eduportal/internal/config"
	"eduportal/internal/session"
	"eduportal/internal/toast"
)

func TestOpenMemoryBackends(t *testing.T) {
	b, err := Open(context.Background(), config.App{SessionBackend: "memory", ToastBackend: "memory"}, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &session.MemoryStore{}, b.Sessions)
	assert.IsType(t, &toast.InMemory{}, b.Toasts)
	assert.Empty(t, b.Healthy(context.Background()))
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.App{SessionBackend: "etcd", ToastBackend: "memory"}, zap.NewNop())
	assert.ErrorContains(t, err, "SESSION_BACKEND")

	_, err = Open(context.Background(), config.App{SessionBackend: "memory", ToastBackend: "kafka"}, zap.NewNop())
	assert.ErrorContains(t, err, "TOAST_BACKEND")
}
