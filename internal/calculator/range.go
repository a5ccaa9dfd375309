package calculator

import (
	"errors"
	"math"

	"StockDashboard/internal/model"
)

// ErrNoBars is returned when a calculation receives an empty series.
var ErrNoBars = errors.New("no daily bars provided")

// WindowRange scans every bar and returns the highest High and the lowest Low.
func WindowRange(bars []model.OHLCV) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, ErrNoBars
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// CloseExtremes returns the indices of the highest and lowest close.
// Ties resolve to the earliest bar.
func CloseExtremes(bars []model.OHLCV) (maxIdx, minIdx int, err error) {
	if len(bars) == 0 {
		return 0, 0, ErrNoBars
	}
	for i, b := range bars {
		if b.Close > bars[maxIdx].Close {
			maxIdx = i
		}
		if b.Close < bars[minIdx].Close {
			minIdx = i
		}
	}
	return maxIdx, minIdx, nil
}
