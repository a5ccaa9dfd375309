package collector

import (
	"context"
	"time"

	"StockDashboard/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV
	Info      *model.IssuerInfo
	BarsErr   error
	InfoErr   error
	// Now anchors generated bars; zero means time.Now.
	Now time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	if m.BarsErr != nil {
		return nil, m.BarsErr
	}
	if m.DailyData != nil {
		if len(m.DailyData) == 0 {
			return nil, ErrNoData
		}
		return m.DailyData, nil
	}
	now := m.Now
	if now.IsZero() {
		now = time.Now()
	}
	return generateMockBars(m.Price, days, now), nil
}

func (m *MockFetcher) FetchIssuerInfo(_ context.Context, symbol string) (model.IssuerInfo, error) {
	if m.InfoErr != nil {
		return model.IssuerInfo{}, m.InfoErr
	}
	if m.Info != nil {
		return *m.Info, nil
	}
	return model.IssuerInfo{Name: symbol + " Mock Corp.", Sector: "Technology"}, nil
}

func generateMockBars(basePrice float64, count int, now time.Time) []model.OHLCV {
	if basePrice == 0 {
		basePrice = 100
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		open := p * 0.999
		if i%3 == 0 {
			open = p * 1.002
		}
		bars[i] = model.OHLCV{
			Time:   day.AddDate(0, 0, -(count - i)),
			Open:   open,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 + float64(i%5)*125000,
		}
	}
	return bars
}
