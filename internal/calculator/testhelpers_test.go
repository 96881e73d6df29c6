package calculator

import (
	"time"

	"StockSeeker/internal/model"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// flatBars builds bars whose high, low and close all equal the given closes.
func flatBars(closes ...float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
