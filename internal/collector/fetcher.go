package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"StockDashboard/internal/model"
)

var (
	// ErrNoData means the provider answered but has no bars for the symbol.
	ErrNoData = errors.New("no data for symbol")
	// ErrInfoUnavailable means the provider has no issuer profile for the symbol.
	ErrInfoUnavailable = errors.New("issuer info unavailable")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	FetchIssuerInfo(ctx context.Context, symbol string) (model.IssuerInfo, error)
	Name() string
}

// newHTTPClient builds the client shared by the HTTP fetchers, with optional proxy support.
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
