package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// HistoricalSeries holds the bars fetched for one ticker, oldest first.
type HistoricalSeries struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars in the series.
func (s *HistoricalSeries) Len() int { return len(s.Bars) }
