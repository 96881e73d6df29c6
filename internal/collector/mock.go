package collector

import (
	"context"
	"time"

	"StockSeeker/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols present in Series get those bars, symbols in Errors fail, and every
// other symbol gets a generated gently rising series around Price.
type MockFetcher struct {
	Price  float64
	Series map[string][]model.OHLCV
	Errors map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Series[symbol]; ok {
		return bars, nil
	}
	if m.Price <= 0 {
		return nil, nil
	}
	return generateMockBars(m.Price, start, end), nil
}

func generateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	count := len(days)
	bars := make([]model.OHLCV, count)
	for i, d := range days {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
