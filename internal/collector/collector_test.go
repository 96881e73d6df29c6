package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockSeeker/internal/model"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

type countingFetcher struct {
	MockFetcher
	mu    sync.Mutex
	calls int
}

func (c *countingFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.MockFetcher.FetchDailyBars(ctx, symbol, start, end)
}

type memoryCache struct {
	data map[string][]model.OHLCV
}

func (m *memoryCache) Get(_ context.Context, key string) ([]model.OHLCV, bool, error) {
	bars, ok := m.data[key]
	return bars, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, bars []model.OHLCV) error {
	m.data[key] = bars
	return nil
}

func TestNormalizeBars(t *testing.T) {
	raw := []model.OHLCV{
		{Time: day0.AddDate(0, 0, 2), High: 3, Low: 3, Close: 3},
		{Time: day0, High: 1, Low: 1, Close: 1},
		{Time: day0.AddDate(0, 0, 1)}, // null bar
		{Time: day0.AddDate(0, 0, 2).Add(time.Hour), High: 4, Low: 4, Close: 4},
	}
	bars := NormalizeBars(raw)
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d: %+v", len(bars), bars)
	}
	if bars[0].Close != 1 || bars[1].Close != 4 {
		t.Errorf("expected sorted bars keeping the last of each day, got %+v", bars)
	}
}

func TestNormalizeBars_DropsPartialNullBars(t *testing.T) {
	raw := []model.OHLCV{
		{Time: day0, High: 10, Low: 9, Close: 9.5},
		{Time: day0.AddDate(0, 0, 1), High: 10, Low: 9, Close: 0},
		{Time: day0.AddDate(0, 0, 2), High: 0, Low: 9, Close: 9.5},
		{Time: day0.AddDate(0, 0, 3), High: 10, Low: -1, Close: 9.5},
		{Time: day0.AddDate(0, 0, 4), High: 11, Low: 10, Close: 10.5},
	}
	bars := NormalizeBars(raw)
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d: %+v", len(bars), bars)
	}
	if bars[0].Close != 9.5 || bars[1].Close != 10.5 {
		t.Errorf("unexpected bars kept: %+v", bars)
	}
}

func TestCollector_FetchSeries(t *testing.T) {
	fetcher := &MockFetcher{Price: 50}
	c := NewCollector(fetcher, 0, 0)
	start := day0
	end := day0.AddDate(0, 0, 29)

	series, err := c.FetchSeries(context.Background(), "ACME", start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Symbol != "ACME" || series.Source != "mock" {
		t.Errorf("unexpected series metadata: %s/%s", series.Symbol, series.Source)
	}
	if series.Len() != 22 {
		t.Errorf("expected 22 weekday bars, got %d", series.Len())
	}
}

func TestCollector_ProviderErrorIsWrapped(t *testing.T) {
	fetcher := &MockFetcher{Errors: map[string]error{"BAD": errors.New("connection reset")}}
	c := NewCollector(fetcher, 100, 1)

	_, err := c.FetchSeries(context.Background(), "BAD", day0, day0.AddDate(0, 1, 0))
	if !errors.Is(err, model.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestCollector_EmptyIsNotAnError(t *testing.T) {
	c := NewCollector(&MockFetcher{}, 0, 0)
	series, err := c.FetchSeries(context.Background(), "NODATA", day0, day0.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 0 {
		t.Errorf("expected empty series, got %d bars", series.Len())
	}
}

func TestCollector_CacheHitSkipsFetcher(t *testing.T) {
	fetcher := &countingFetcher{MockFetcher: MockFetcher{Price: 10}}
	c := NewCollector(fetcher, 0, 0)
	c.Cache = &memoryCache{data: map[string][]model.OHLCV{}}
	end := day0.AddDate(0, 0, 10)

	for i := 0; i < 3; i++ {
		series, err := c.FetchSeries(context.Background(), "ACME", day0, end)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if series.Len() == 0 {
			t.Fatal("expected bars")
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", fetcher.calls)
	}
}

func TestCollector_CancelledContextWhileRateLimited(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 10}, 0.001, 1)
	ctx := context.Background()
	if _, err := c.FetchSeries(ctx, "A", day0, day0.AddDate(0, 0, 5)); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.FetchSeries(ctx, "B", day0, day0.AddDate(0, 0, 5)); !errors.Is(err, model.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable after cancellation, got %v", err)
	}
}

func TestCacheKey(t *testing.T) {
	got := CacheKey("yahoo", "msft", day0, day0.AddDate(1, 0, 0))
	if got != "yahoo:MSFT:20240102:20250102" {
		t.Errorf("unexpected key %s", got)
	}
}
