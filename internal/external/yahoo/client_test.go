package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/httputil"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Env: "development", LogLevel: "error", LogFormat: "console"}
	log := logger.New(cfg)
	httpClient := httputil.New(log, 5*time.Second).DisableRetry()

	return NewClient(httpClient, log, config.ProviderConfig{
		BaseURL:        srv.URL,
		RequestsPerSec: 1000, // no pacing in tests
	})
}

const chartPayload = `{
	"chart": {
		"result": [{
			"timestamp": [1704153600, 1704240000, 1704326400, 1704412800],
			"indicators": {
				"quote": [{
					"open":   [100.0, 101.5, null, 99.0],
					"high":   [102.0, 103.0, null, 100.5],
					"low":    [ 99.5, 100.0, null, 98.0],
					"close":  [101.0, 102.5, null, 99.5],
					"volume": [1000000, null, null, 900000]
				}],
				"adjclose": [{
					"adjclose": [100.8, 102.3, null, null]
				}]
			}
		}],
		"error": null
	}
}`

func TestFetchHistory(t *testing.T) {
	var gotPath, gotQuery string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		w.Write([]byte(chartPayload))
	})

	bars, err := c.FetchHistory(context.Background(), "^GSPC", Period("2y"))
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/%5EGSPC", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, "range=2y")

	// The all-null row (holiday) is dropped.
	require.Len(t, bars, 3)

	first := bars[0]
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), first.Date)
	require.NotNil(t, first.Close)
	assert.Equal(t, 101.0, *first.Close)
	require.NotNil(t, first.AdjClose)
	assert.Equal(t, 100.8, *first.AdjClose)
	require.NotNil(t, first.Volume)
	assert.Equal(t, int64(1000000), *first.Volume)

	// Null volume survives as nil, not zero.
	assert.Nil(t, bars[1].Volume)

	// Null adjclose slot falls back to close.
	last := bars[2]
	require.NotNil(t, last.AdjClose)
	assert.Equal(t, 99.5, *last.AdjClose)

	// Bars come back in date order.
	assert.True(t, bars[0].Date.Before(bars[1].Date))
	assert.True(t, bars[1].Date.Before(bars[2].Date))
}

func TestFetchHistory_NoAdjCloseSeries(t *testing.T) {
	payload := `{
		"chart": {
			"result": [{
				"timestamp": [1704153600],
				"indicators": {
					"quote": [{
						"open": [100.0], "high": [101.0], "low": [99.0],
						"close": [100.5], "volume": [500]
					}]
				}
			}],
			"error": null
		}
	}`

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	})

	bars, err := c.FetchHistory(context.Background(), "XLK", Period("1mo"))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	require.NotNil(t, bars[0].AdjClose)
	assert.Equal(t, 100.5, *bars[0].AdjClose)
}

func TestFetchHistory_EmptyResult(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	bars, err := c.FetchHistory(context.Background(), "NODATA", Period("1y"))
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFetchHistory_ProviderError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := c.FetchHistory(context.Background(), "BOGUS", Period("1y"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestFetchHistory_BadStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := c.FetchHistory(context.Background(), "BOGUS", Period("1y"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchHistory_MalformedBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>rate limited</html>`))
	})

	_, err := c.FetchHistory(context.Background(), "^DJI", Period("1y"))
	assert.Error(t, err)
}

func TestHistoryRange_Query(t *testing.T) {
	q := Period("5y").query()
	assert.Equal(t, "5y", q.Get("range"))
	assert.Equal(t, "1d", q.Get("interval"))

	start := time.Date(2008, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 24, 0, 0, 0, 0, time.UTC)
	q = Between(start, end).query()
	assert.Equal(t, "1217548800", q.Get("period1"))
	assert.Empty(t, q.Get("range"))

	// Zero value defaults to two years of history.
	assert.Equal(t, "2y", HistoryRange{}.query().Get("range"))
}
