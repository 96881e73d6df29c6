package calculator

import (
	"math"

	"StockSeeker/internal/model"
)

// cciConstant is Lambert's scaling factor; it puts roughly 70-80% of values inside ±100.
const cciConstant = 0.015

// flatTolerance is the relative deviation below which a window counts as flat.
// Averaging a non-representable price such as 10.1 leaves rounding residue of
// about 1e-15 that must not turn into a ±66 reading.
const flatTolerance = 1e-12

// TypicalPrice returns (high+low+close)/3 of a bar.
func TypicalPrice(b model.OHLCV) float64 {
	return (b.High + b.Low + b.Close) / 3
}

// CCISeries computes the commodity channel index over period at every position.
// A flat window, whose typical prices are all equal or whose mean absolute
// deviation is rounding residue, yields exactly 0.
func CCISeries(bars []model.OHLCV, period int) model.Series {
	out := make(model.Series, len(bars))
	if period <= 0 {
		for i := range out {
			out[i] = model.Undefined
		}
		return out
	}

	tp := make([]float64, len(bars))
	for i, b := range bars {
		tp[i] = TypicalPrice(b)
	}

	for i := range bars {
		if i+1 < period {
			out[i] = model.Undefined
			continue
		}
		window := tp[i+1-period : i+1]
		mean, _ := CalculateSMA(window, period)
		mad := 0.0
		for _, v := range window {
			mad += math.Abs(v - mean)
		}
		mad /= float64(period)
		if mad <= flatTolerance*math.Abs(mean) || allEqual(window) {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - mean) / (cciConstant * mad)
	}
	return out
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
