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

	"StockDashboard/internal/model"
)

// RESTFetcher implements Fetcher against a self-hosted bars/profile REST API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars endpoint.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type restProfile struct {
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

func (f *RESTFetcher) do(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	return f.Client.Do(req)
}

func (f *RESTFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&limit=%d", f.BaseURL, url.QueryEscape(symbol), days)
	resp, err := f.do(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var rbars []restBar
	if err := json.NewDecoder(resp.Body).Decode(&rbars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	if len(rbars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	bars := make([]model.OHLCV, len(rbars))
	for i, rb := range rbars {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *RESTFetcher) FetchIssuerInfo(ctx context.Context, symbol string) (model.IssuerInfo, error) {
	endpoint := fmt.Sprintf("%s/api/v1/profile?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	resp, err := f.do(ctx, endpoint)
	if err != nil {
		return model.IssuerInfo{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return model.IssuerInfo{}, fmt.Errorf("%w: %s", ErrInfoUnavailable, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return model.IssuerInfo{}, fmt.Errorf("fetch profile: status %d", resp.StatusCode)
	}
	var p restProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return model.IssuerInfo{}, fmt.Errorf("decode profile: %w", err)
	}
	return model.IssuerInfo{Name: p.Name, Sector: p.Sector}.WithDefaults(), nil
}
