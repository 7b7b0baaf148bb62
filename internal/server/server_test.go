package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinLens/internal/collector"
	"CoinLens/internal/controller"
	"CoinLens/internal/model"
	"CoinLens/internal/recorder"
	"CoinLens/internal/store"
)

type fixture struct {
	router *gin.Engine
	ctl    *controller.Controller
	cache  *ViewCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	cache := NewViewCache()
	rec := &memRecorder{}
	loader := collector.NewCollector(&collector.MockFetcher{Price: 100, Volume: 10}, time.Second, logger)
	ctl := controller.New(loader, store.New(), cache, rec, logger, controller.Options{
		Symbols:      []string{"BTC-USD", "ETH-USD"},
		DefaultChart: model.ChartPriceTrend,
		Start:        time.Now().AddDate(0, 0, -90),
	})
	t.Cleanup(ctl.Stop)

	router := NewRouter(&Config{ChartHandler: NewChartHandler(ctl, cache, rec), Logger: logger})
	return &fixture{router: router, ctl: ctl, cache: cache}
}

func (f *fixture) do(t *testing.T, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	f.router.ServeHTTP(w, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

type memRecorder struct {
	recorder.NoopRecorder
	events []recorder.FetchEvent
}

func (m *memRecorder) RecordFetch(e *recorder.FetchEvent) error {
	m.events = append(m.events, *e)
	return nil
}

func (m *memRecorder) RecentFetches(limit int) ([]recorder.FetchEvent, error) {
	if limit > len(m.events) {
		limit = len(m.events)
	}
	return m.events[:limit], nil
}

func TestChartBeforeLoadIsEmpty(t *testing.T) {
	f := newFixture(t)
	w, body := f.do(t, http.MethodGet, "/v1/chart")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["empty"])
	assert.Equal(t, "Price Trend", body["kind"])
}

func TestLoadAndSelect(t *testing.T) {
	f := newFixture(t)
	f.ctl.Start(context.Background())
	f.ctl.Wait()

	w, body := f.do(t, http.MethodGet, "/v1/status")
	assert.Equal(t, http.StatusOK, w.Code)
	snap := body["snapshot"].(map[string]any)
	assert.Equal(t, "READY", snap["state"])
	assert.Equal(t, true, snap["loaded"])
	assert.Equal(t, "Data loading complete!", body["status"].(map[string]any)["message"])
	require.NotNil(t, f.cache.Latest())

	w, body = f.do(t, http.MethodPost, "/v1/chart/ma")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Moving Average", body["kind"])
	assert.EqualValues(t, 30, body["window"])
	assert.Equal(t, model.ChartMovingAverage, f.cache.Latest().Kind)

	_, body = f.do(t, http.MethodGet, "/v1/chart?kind=volume")
	assert.Equal(t, "Monthly Volume Contribution", body["kind"])
	assert.NotEmpty(t, body["monthly_volume"])
	assert.Equal(t, model.ChartMovingAverage, f.ctl.Snapshot().Chart)

	w, body = f.do(t, http.MethodPost, "/v1/symbol/ETH-USD")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.EqualValues(t, 2, body["request"])
	f.ctl.Wait()
	assert.Equal(t, "ETH-USD", f.ctl.Snapshot().Symbol)

	w, body = f.do(t, http.MethodPost, "/v1/refresh")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.EqualValues(t, 3, body["request"])
	f.ctl.Wait()

	_, body = f.do(t, http.MethodGet, "/v1/fetches?limit=10")
	assert.Len(t, body["fetches"], 3)
}

func TestInvalidSelections(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		method, path, field string
	}{
		{http.MethodPost, "/v1/symbol/DOGE-USD", "symbol"},
		{http.MethodPost, "/v1/chart/candles", "chart"},
		{http.MethodGet, "/v1/chart?kind=candles", "chart"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w, body := f.do(t, tt.method, tt.path)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.field, body["field"])
		})
	}
	assert.Equal(t, model.StateIdle, f.ctl.Snapshot().State)

	w, _ := f.do(t, http.MethodGet, "/v1/fetches?limit=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSymbolsAndCharts(t *testing.T) {
	f := newFixture(t)
	_, body := f.do(t, http.MethodGet, "/v1/symbols")
	assert.Equal(t, []any{"BTC-USD", "ETH-USD"}, body["symbols"])
	assert.Equal(t, "BTC-USD", body["current"])

	_, body = f.do(t, http.MethodGet, "/v1/charts")
	assert.Len(t, body["charts"], len(model.ChartKinds))
	assert.Equal(t, "Price Trend", body["current"])
}
