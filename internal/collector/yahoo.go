package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"CoinLens/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Provider using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	Limiter   *rate.Limiter
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a Yahoo Finance fetcher paced at requestsPerSecond.
func NewYahooFetcher(proxyURL string, requestsPerSecond float64) *YahooFetcher {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	return &YahooFetcher{
		BaseURL:   yahooBaseURL,
		Client:    newHTTPClient(proxyURL),
		Limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		SymbolMap: map[string]string{},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// toFloat reports false for JSON nulls, which Yahoo emits for rows without trades.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Fetch downloads daily bars for [start, end]. period2 is exclusive on
// Yahoo's side, so it is pushed to the day after end.
func (f *YahooFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) (*model.Series, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, classifyTransportError(symbol, err)
		}
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)),
		model.Day(start).Unix(), model.Day(end).AddDate(0, 0, 1).Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, model.NewFetchError(model.FetchUnreachable, symbol, "build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, classifyTransportError(symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(symbol, err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if resp.StatusCode == http.StatusNotFound ||
		(decodeErr == nil && chart.Chart.Error != nil && chart.Chart.Error.Code == "Not Found") {
		return nil, model.NewFetchError(model.FetchUnknownSymbol, symbol, "yahoo: symbol not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, model.NewFetchError(model.FetchUnreachable, symbol, "yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if decodeErr != nil {
		return nil, model.NewFetchError(model.FetchMalformed, symbol, "yahoo decode: %w", decodeErr)
	}
	if chart.Chart.Error != nil {
		return nil, model.NewFetchError(model.FetchMalformed, symbol, "yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, model.NewFetchError(model.FetchMalformed, symbol, "yahoo: no result")
	}

	result := chart.Chart.Result[0]
	series := &model.Series{Symbol: symbol, Start: model.Day(start), End: model.Day(end), Bars: []model.OHLCV{}}
	if len(result.Timestamp) == 0 {
		return series, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, model.NewFetchError(model.FetchMalformed, symbol, "yahoo: missing quote block")
	}
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n || len(quote.Close) != n || len(quote.Volume) != n {
		return nil, model.NewFetchError(model.FetchMalformed, symbol, "yahoo: quote arrays do not match %d timestamps", n)
	}

	for i, ts := range result.Timestamp {
		o, okO := toFloat(quote.Open[i])
		h, okH := toFloat(quote.High[i])
		l, okL := toFloat(quote.Low[i])
		c, okC := toFloat(quote.Close[i])
		if !okO || !okH || !okL || !okC {
			continue // skip null bars
		}
		v, _ := toFloat(quote.Volume[i])
		series.Bars = append(series.Bars, model.OHLCV{
			Date:   model.Day(time.Unix(ts, 0)),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(v),
		})
	}
	return series, nil
}

func classifyTransportError(symbol string, err error) *model.FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.FetchError{Kind: model.FetchTimeout, Symbol: symbol, Err: err}
	}
	return &model.FetchError{Kind: model.FetchUnreachable, Symbol: symbol, Err: err}
}
