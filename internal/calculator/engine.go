package calculator

import (
	"fmt"
	"math"

	"StockSeeker/internal/model"
)

// Compute derives the moving averages and the oscillator for a price series.
// The input is not modified; the returned bars are a copy.
func Compute(series *model.PriceSeries, cfg model.ScreenConfig) (*model.EnrichedSeries, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: empty series", model.ErrData)
	}
	if err := ValidateBars(series.Bars); err != nil {
		return nil, err
	}

	bars := make([]model.OHLCV, len(series.Bars))
	copy(bars, series.Bars)

	closes := extractCloses(bars)
	return &model.EnrichedSeries{
		Symbol:     series.Symbol,
		Bars:       bars,
		SMAFast:    SMASeries(closes, cfg.SMAFastWindow),
		SMASlow:    SMASeries(closes, cfg.SMASlowWindow),
		Oscillator: CCISeries(bars, cfg.OscillatorWindow),
	}, nil
}

// AverageVolume returns the mean volume of the trailing window bars.
func AverageVolume(bars []model.OHLCV, window int) (float64, error) {
	return TrailingMean(extractVolumes(bars), window)
}

// ValidateBars rejects bars with non-positive prices, negative volume and dates that are not strictly increasing.
func ValidateBars(bars []model.OHLCV) error {
	for i, b := range bars {
		for _, f := range []struct {
			name  string
			v     float64
			price bool
		}{{"high", b.High, true}, {"low", b.Low, true}, {"close", b.Close, true}, {"volume", b.Volume, false}} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 || (f.price && f.v == 0) {
				return fmt.Errorf("%w: bar %d has invalid %s %v", model.ErrData, i, f.name, f.v)
			}
		}
		if b.High < b.Low {
			return fmt.Errorf("%w: bar %d has high %.4f below low %.4f", model.ErrData, i, b.High, b.Low)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d dated %s does not follow %s", model.ErrData, i,
				b.Time.Format("2006-01-02"), bars[i-1].Time.Format("2006-01-02"))
		}
	}
	return nil
}
