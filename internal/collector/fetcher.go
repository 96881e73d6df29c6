package collector

import (
	"context"
	"time"

	"StockSeeker/internal/model"
)

// Fetcher retrieves daily bars for a symbol between start and end (inclusive).
// A symbol without data yields an empty slice and a nil error; errors are
// reserved for transport and upstream failures.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}

// Universe lists the symbols to screen.
type Universe interface {
	ListTickers(ctx context.Context) ([]string, error)
	Name() string
}
