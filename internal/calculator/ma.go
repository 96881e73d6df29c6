package calculator

import (
	"errors"

	"StockSeeker/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the trailing simple moving average at every position of values.
// The first period-1 positions are undefined.
func SMASeries(values []float64, period int) model.Series {
	out := make(model.Series, len(values))
	for i := range values {
		// Summing each window directly keeps equal inputs producing bit-identical averages.
		sma, err := CalculateSMA(values[:i+1], period)
		if err != nil {
			out[i] = model.Undefined
			continue
		}
		out[i] = sma
	}
	return out
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractVolumes(bars []model.OHLCV) []float64 {
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	return volumes
}
