package store

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	raw, err := fs.ReadFile(migrations, names[0])
	require.NoError(t, err)
	body := string(raw)
	assert.True(t, strings.Contains(body, "-- +goose Up"))
	assert.True(t, strings.Contains(body, "-- +goose Down"))
	assert.Contains(t, body, "portal_sessions")
}

func TestNilHandlesAreUnhealthy(t *testing.T) {
	var db *DB
	assert.False(t, db.Healthy(t.Context()))
	assert.NoError(t, db.Close())

	var r *Redis
	assert.False(t, r.Healthy(t.Context()))
}
