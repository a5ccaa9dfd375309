package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"StockDashboard/internal/model"

	"github.com/PaesslerAG/jsonpath"
)

const (
	yahooChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client    *http.Client
	ChartURL  string
	SearchURL string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client:    newHTTPClient(proxyURL),
		ChartURL:  yahooChartURL,
		SearchURL: yahooSearchURL,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func yahooSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				Gmtoffset            int    `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

func exchangeLocation(name string, offset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("", offset)
}

func (f *YahooFetcher) get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("yahoo read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s",
		f.ChartURL, url.PathEscape(yahooSymbol(symbol)), interval, rng)

	status, body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if jsonErr := json.Unmarshal(body, &chart); jsonErr != nil {
		if status != http.StatusOK {
			return nil, fmt.Errorf("yahoo: status %d, body: %s", status, string(body))
		}
		return nil, fmt.Errorf("yahoo decode: %w", jsonErr)
	}
	if chart.Chart.Error != nil {
		if status == http.StatusNotFound || chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s: %s", ErrNoData, symbol, chart.Chart.Error.Description)
		}
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", status, string(body))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.Gmtoffset)
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		c, okC := at(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			continue // skip null bars (holidays etc.)
		}
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).In(loc),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchDailyBars returns the daily bars of Yahoo's one-month range, which
// covers the dashboard's 30-day window. Longer windows are rejected.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if days > 31 {
		return nil, fmt.Errorf("yahoo: %d-day window exceeds the 1mo range", days)
	}
	return f.fetchChart(ctx, symbol, "1d", "1mo")
}

// FetchIssuerInfo looks the symbol up in Yahoo's search index and reads its name and sector.
func (f *YahooFetcher) FetchIssuerInfo(ctx context.Context, symbol string) (model.IssuerInfo, error) {
	ySym := yahooSymbol(symbol)
	u := fmt.Sprintf("%s?q=%s&quotesCount=5&newsCount=0", f.SearchURL, url.QueryEscape(ySym))

	status, body, err := f.get(ctx, u)
	if err != nil {
		return model.IssuerInfo{}, err
	}
	if status != http.StatusOK {
		return model.IssuerInfo{}, fmt.Errorf("yahoo search: status %d", status)
	}

	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return model.IssuerInfo{}, fmt.Errorf("yahoo search decode: %w", err)
	}
	path := fmt.Sprintf("$.quotes[?(@.symbol == %s)]", strconv.Quote(ySym))
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return model.IssuerInfo{}, fmt.Errorf("%w: %s", ErrInfoUnavailable, symbol)
	}
	matches, ok := jval.([]any)
	if !ok || len(matches) == 0 {
		return model.IssuerInfo{}, fmt.Errorf("%w: %s", ErrInfoUnavailable, symbol)
	}
	q, ok := matches[0].(map[string]any)
	if !ok {
		return model.IssuerInfo{}, fmt.Errorf("%w: %s", ErrInfoUnavailable, symbol)
	}

	info := model.IssuerInfo{
		Name:   firstString(q, "longname", "shortname"),
		Sector: firstString(q, "sectorDisp", "sector"),
	}
	return info.WithDefaults(), nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
