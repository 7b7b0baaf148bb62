package collector

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"CoinLens/internal/model"
)

// DefaultTimeout bounds a single fetch when none is configured.
const DefaultTimeout = 5 * time.Second

// MockFetcher returns controllable synthetic data for development and testing.
type MockFetcher struct {
	Price  float64
	Volume int64
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) (*model.Series, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, classifyTransportError(symbol, err)
	}
	return &model.Series{
		Symbol: symbol,
		Start:  model.Day(start),
		End:    model.Day(end),
		Bars:   generateMockBars(m.Price, m.Volume, model.Day(start), model.Day(end)),
	}, nil
}

func generateMockBars(basePrice float64, volume int64, start, end time.Time) []model.OHLCV {
	if basePrice <= 0 {
		basePrice = 100
	}
	if volume <= 0 {
		volume = 1000000
	}
	var bars []model.OHLCV
	for d, i := start, 0; !d.After(end); d, i = d.AddDate(0, 0, 1), i+1 {
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/15))
		bars = append(bars, model.OHLCV{
			Date:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: volume,
		})
	}
	return bars
}

// Collector guards a Provider with a timeout and validates what it returns.
type Collector struct {
	Provider Provider
	Timeout  time.Duration
	Logger   logrus.FieldLogger
	now      func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(provider Provider, timeout time.Duration, logger logrus.FieldLogger) *Collector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Collector{Provider: provider, Timeout: timeout, Logger: logger, now: time.Now}
}

// Name reports the wrapped provider.
func (c *Collector) Name() string { return c.Provider.Name() }

// Collect fetches [start, end] for symbol. Every failure is a *model.FetchError.
func (c *Collector) Collect(ctx context.Context, symbol string, start, end time.Time) (*model.Series, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	started := c.now()
	series, err := c.Provider.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, c.toFetchError(ctx, symbol, err)
	}
	if series == nil {
		return nil, model.NewFetchError(model.FetchMalformed, symbol, "%s returned no series", c.Provider.Name())
	}

	normalized, err := normalize(series, symbol, start, end)
	if err != nil {
		return nil, err
	}
	normalized.FetchedAt = c.now()
	c.Logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"provider": c.Provider.Name(),
		"bars":     len(normalized.Bars),
		"took":     c.now().Sub(started),
	}).Debug("series collected")
	return normalized, nil
}

func (c *Collector) toFetchError(ctx context.Context, symbol string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &model.FetchError{Kind: model.FetchTimeout, Symbol: symbol, Err: err}
	}
	var fe *model.FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &model.FetchError{Kind: model.FetchUnreachable, Symbol: symbol, Err: err}
}

// normalize returns a fresh series with UTC-midnight dates inside
// [start, end], sorted ascending. Duplicate dates and invalid prices are malformed.
func normalize(in *model.Series, symbol string, start, end time.Time) (*model.Series, error) {
	from, to := model.Day(start), model.Day(end)
	out := &model.Series{Symbol: symbol, Start: from, End: to, Bars: make([]model.OHLCV, 0, len(in.Bars))}
	for _, b := range in.Bars {
		b.Date = model.Day(b.Date)
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		if !validPrice(b.Open) || !validPrice(b.High) || !validPrice(b.Low) || !validPrice(b.Close) {
			return nil, model.NewFetchError(model.FetchMalformed, symbol, "bar %s: non-positive price", b.Date.Format(time.DateOnly))
		}
		if b.Volume < 0 {
			return nil, model.NewFetchError(model.FetchMalformed, symbol, "bar %s: negative volume", b.Date.Format(time.DateOnly))
		}
		out.Bars = append(out.Bars, b)
	}
	sort.SliceStable(out.Bars, func(i, j int) bool { return out.Bars[i].Date.Before(out.Bars[j].Date) })
	for i := 1; i < len(out.Bars); i++ {
		if out.Bars[i].Date.Equal(out.Bars[i-1].Date) {
			return nil, model.NewFetchError(model.FetchMalformed, symbol, "duplicate bar for %s", out.Bars[i].Date.Format(time.DateOnly))
		}
	}
	return out, nil
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}
