package calculator

import (
	"StockDashboard/internal/model"

	"github.com/shopspring/decimal"
)

// ComputeMetrics derives the dashboard statistics from the fetched bars.
// All values are taken over exactly the given bars.
func ComputeMetrics(bars []model.OHLCV) (model.DerivedMetrics, error) {
	if len(bars) == 0 {
		return model.DerivedMetrics{}, ErrNoBars
	}
	first := bars[0].Close
	latest := bars[len(bars)-1].Close

	m := model.DerivedMetrics{
		LatestClose: latest,
		FirstClose:  first,
		Change:      latest - first,
		AvgVolume:   MeanVolume(bars),
	}
	m.ChangePct = PercentChange(first, latest)

	high, low, err := WindowRange(bars)
	if err != nil {
		return model.DerivedMetrics{}, err
	}
	m.High, m.Low = high, low
	return m, nil
}

// PercentChange returns (to - from) / from * 100. A zero base yields 0.
func PercentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

// MeanVolume is the arithmetic mean of Volume.
func MeanVolume(bars []model.OHLCV) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(len(bars))
}

// Round2 rounds to two decimals the way pandas does: the float is scaled by
// 100, rounded half-to-even, then scaled back. Scaling happens in binary, so
// 1.015 becomes 1.01 while 2.675 (exactly 267.5 once scaled) becomes 2.68.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v * 100).RoundBank(0).Shift(-2).InexactFloat64()
}

// RoundBar returns a copy of b with every price and the volume rounded by Round2.
func RoundBar(b model.OHLCV) model.OHLCV {
	return model.OHLCV{
		Time:   b.Time,
		Open:   Round2(b.Open),
		High:   Round2(b.High),
		Low:    Round2(b.Low),
		Close:  Round2(b.Close),
		Volume: Round2(b.Volume),
	}
}
