package calculator

import (
	"errors"

	"github.com/markcheno/go-talib"

	"PortfolioSentinel/internal/model"
)

// ErrInsufficientData is returned when a series is shorter than the requested window.
var ErrInsufficientData = errors.New("not enough data for moving average")

// WeightedMovingAverage returns the linearly weighted moving average series of closes.
// The warm-up prefix is dropped, so the result has len(closes)-period+1 values.
func WeightedMovingAverage(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(closes) < period {
		return nil, ErrInsufficientData
	}
	wma := talib.Wma(closes, period)
	return wma[period-1:], nil
}

// Closes extracts the close prices of bars in order.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
