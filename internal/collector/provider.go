package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"CoinLens/internal/model"
)

// Provider fetches daily bars for a symbol over an inclusive date range.
// Failures are reported as *model.FetchError.
type Provider interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) (*model.Series, error)
	Name() string
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
