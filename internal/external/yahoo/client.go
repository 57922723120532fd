package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/httputil"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// Client fetches daily price history from the Yahoo Finance v8 chart
// API. A shared rate limiter paces consecutive history fetches so that
// batch iteration respects the provider's limits; the first request of
// a batch is never delayed, and neither is anything after the last.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a Yahoo Finance client.
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg config.ProviderConfig) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

// HistoryRange selects the span of history to fetch: either a relative
// period token ("1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "max")
// or an explicit start/end date pair.
type HistoryRange struct {
	Period string
	Start  time.Time
	End    time.Time
}

// Period builds a relative-period range.
func Period(token string) HistoryRange {
	return HistoryRange{Period: token}
}

// Between builds an explicit date range.
func Between(start, end time.Time) HistoryRange {
	return HistoryRange{Start: start, End: end}
}

func (r HistoryRange) query() url.Values {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("events", "history")
	if !r.Start.IsZero() && !r.End.IsZero() {
		q.Set("period1", strconv.FormatInt(r.Start.Unix(), 10))
		q.Set("period2", strconv.FormatInt(r.End.Unix(), 10))
		return q
	}
	period := r.Period
	if period == "" {
		period = "2y"
	}
	q.Set("range", period)
	return q
}

// String renders the range for logs and reports.
func (r HistoryRange) String() string {
	if !r.Start.IsZero() && !r.End.IsZero() {
		return fmt.Sprintf("%s~%s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}
	if r.Period == "" {
		return "2y"
	}
	return r.Period
}

// chartResponse is the Yahoo Finance chart API payload. Quote arrays
// use pointers so that null slots (holidays, half sessions) survive
// decoding as nil instead of collapsing to zero.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchHistory fetches the daily bars for one symbol. An empty result
// from the provider is reported as (nil, nil): the instrument simply
// has no data for the requested range. Transport and provider errors
// are returned to the caller, which is expected to log and move on to
// the next instrument rather than abort its batch.
func (c *Client) FetchHistory(ctx context.Context, symbol string, rng HistoryRange) ([]contracts.RawBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		c.baseURL, url.PathEscape(symbol), rng.query().Encode())

	resp, err := c.httpClient.Get(ctx, fullURL, map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("provider error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}

	bars := normalize(chart)

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"range":  rng.String(),
		"count":  len(bars),
	}).Debug("Fetched history")

	return bars, nil
}

// normalize flattens the chart payload into canonical daily bars.
// Adjusted close falls back to close when the provider carries no
// adjclose series; rows with no quote at all are dropped.
func normalize(chart chartResponse) []contracts.RawBar {
	if len(chart.Chart.Result) == 0 {
		return nil
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil
	}

	quote := result.Indicators.Quote[0]
	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]contracts.RawBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bar := contracts.RawBar{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: atInt(quote.Volume, i),
		}
		if !bar.HasQuote() {
			continue // null row, e.g. a market holiday
		}

		bar.AdjClose = at(adjClose, i)
		if bar.AdjClose == nil {
			bar.AdjClose = bar.Close
		}

		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func atInt(vals []*int64, i int) *int64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
