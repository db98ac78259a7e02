package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/internal/api/handlers"
	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/storage"
	"github.com/wonny/screener/internal/strategy"
	"github.com/wonny/screener/pkg/logger"
	"github.com/wonny/screener/pkg/redis"
)

type stubLister struct {
	since time.Time
	key   string
	recs  []storage.Record
}

func (s *stubLister) ListSince(_ context.Context, since time.Time, key string) ([]storage.Record, error) {
	s.since, s.key = since, key
	return s.recs, nil
}

type stubDB struct{ err error }

func (s stubDB) Ping(context.Context) error { return s.err }

func newTestRouter(lister handlers.SignalLister, db HealthChecker) http.Handler {
	h := handlers.NewScreenerHandler(strategy.Default(), lister, redis.Disabled(), logger.NewNop())
	return NewRouter(h, db, logger.NewNop())
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	rec, body := get(t, newTestRouter(nil, nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "disabled", body["database"])

	rec, body = get(t, newTestRouter(nil, stubDB{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["database"])

	rec, body = get(t, newTestRouter(nil, stubDB{err: errors.New("connection refused")}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestStrategies(t *testing.T) {
	rec, body := get(t, newTestRouter(nil, nil), "/api/strategies")
	require.Equal(t, http.StatusOK, rec.Code)

	list, ok := body["strategies"].([]interface{})
	require.True(t, ok)
	assert.Len(t, list, 8)
	first := list[0].(map[string]interface{})
	assert.Equal(t, "rsi_stochastic_oversold", first["key"])
	assert.NotEmpty(t, body["hash"])
}

func TestSignals(t *testing.T) {
	lister := &stubLister{recs: []storage.Record{{
		Signal:    contracts.Signal{Symbol: "AAPL", StrategyKey: "macd_momentum", Price: 50},
		ScannedAt: time.Now().UTC(),
	}}}
	router := newTestRouter(lister, nil)

	rec, body := get(t, router, "/api/signals?hours=6&strategy=macd_momentum")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, body["count"])
	assert.Equal(t, "macd_momentum", lister.key)
	assert.WithinDuration(t, time.Now().Add(-6*time.Hour), lister.since, time.Minute)

	rec, _ = get(t, router, "/api/signals?hours=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, router, "/api/signals?hours=100000")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, router, "/api/signals?hours=720")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.WithinDuration(t, time.Now().Add(-720*time.Hour), lister.since, time.Minute)

	rec, _ = get(t, router, "/api/signals?strategy=nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignals_NoStore(t *testing.T) {
	rec, _ := get(t, newTestRouter(nil, nil), "/api/signals")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatus_RedisDisabled(t *testing.T) {
	rec, _ := get(t, newTestRouter(nil, nil), "/api/status")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec, _ := get(t, newTestRouter(nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
