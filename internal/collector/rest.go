package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"CoinLens/internal/model"
)

// RESTFetcher implements Provider against a JSON bars endpoint.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, requestsPerSecond float64) *RESTFetcher {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		Limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API. Pointers catch missing fields.
type restBar struct {
	Timestamp *int64   `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

func (f *RESTFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) (*model.Series, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, classifyTransportError(symbol, err)
		}
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("start", model.Day(start).Format(time.DateOnly))
	q.Set("end", model.Day(end).Format(time.DateOnly))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, model.NewFetchError(model.FetchUnreachable, symbol, "build request: %w", err)
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, classifyTransportError(symbol, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, model.NewFetchError(model.FetchUnknownSymbol, symbol, "rest: symbol not found")
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, model.NewFetchError(model.FetchUnreachable, symbol, "rest: status %d, body: %s", resp.StatusCode, string(body))
	}

	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, model.NewFetchError(model.FetchMalformed, symbol, "decode bars: %w", err)
	}

	series := &model.Series{
		Symbol: symbol,
		Start:  model.Day(start),
		End:    model.Day(end),
		Bars:   make([]model.OHLCV, 0, len(raw)),
	}
	for i, rb := range raw {
		if rb.Timestamp == nil || rb.Open == nil || rb.High == nil || rb.Low == nil || rb.Close == nil {
			return nil, model.NewFetchError(model.FetchMalformed, symbol, "bar %d: missing required field", i)
		}
		bar := model.OHLCV{
			Date:  model.Day(time.Unix(*rb.Timestamp, 0)),
			Open:  *rb.Open,
			High:  *rb.High,
			Low:   *rb.Low,
			Close: *rb.Close,
		}
		if rb.Volume != nil {
			bar.Volume = int64(*rb.Volume)
		}
		series.Bars = append(series.Bars, bar)
	}
	// Ensure chronological order
	sort.Slice(series.Bars, func(i, j int) bool { return series.Bars[i].Date.Before(series.Bars[j].Date) })
	return series, nil
}
