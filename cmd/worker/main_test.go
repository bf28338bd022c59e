package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eduportal/internal/metrics"
	"eduportal/internal/session"
)

func TestSweepServesCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expire := regexp.QuoteMeta("DELETE FROM portal_sessions WHERE expires_at <= $1")
	mock.ExpectExec(expire).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(expire).WithArgs(sqlmock.AnyArg()).WillReturnError(errors.New("connection reset"))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	sessions := session.NewPostgresStore(db)
	sweep(context.Background(), sessions, m, zap.NewNop())
	sweep(context.Background(), sessions, m, zap.NewNop())
	require.NoError(t, mock.ExpectationsWereMet())

	srv := httptest.NewServer(metricsServer("", reg).Handler)
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := new(bytes.Buffer)
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "portal_sessions_swept_total 3")
}

func TestMetricsServerOnlyServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := httptest.NewRecorder()
	metricsServer(":0", reg).Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
