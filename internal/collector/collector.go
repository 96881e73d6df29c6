package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"StockSeeker/internal/model"
)

// SeriesCache stores fetched bars between runs.
type SeriesCache interface {
	Get(ctx context.Context, key string) ([]model.OHLCV, bool, error)
	Set(ctx context.Context, key string, bars []model.OHLCV) error
}

// CacheKey identifies one provider request.
func CacheKey(source, symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", source, strings.ToUpper(symbol),
		start.Format("20060102"), end.Format("20060102"))
}

// Collector wraps a Fetcher with rate limiting, optional caching and series cleanup.
type Collector struct {
	Fetcher Fetcher
	Limiter *rate.Limiter
	Cache   SeriesCache
	now     func() time.Time
}

// NewCollector creates a Collector. requestsPerSecond <= 0 disables rate limiting.
func NewCollector(fetcher Fetcher, requestsPerSecond float64, burst int) *Collector {
	c := &Collector{Fetcher: fetcher, now: time.Now}
	if requestsPerSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return c
}

// FetchSeries returns the cleaned daily history of symbol. A symbol without data
// yields an empty series and no error; provider failures wrap model.ErrProviderUnavailable.
func (c *Collector) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	key := CacheKey(c.Fetcher.Name(), symbol, start, end)
	if c.Cache != nil {
		bars, ok, err := c.Cache.Get(ctx, key)
		if err != nil {
			log.Printf("[WARN] series cache get %s: %v", key, err)
		} else if ok {
			return c.series(symbol, bars), nil
		}
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: rate limiter: %v", model.ErrProviderUnavailable, symbol, err)
		}
	}

	raw, err := c.Fetcher.FetchDailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrProviderUnavailable, symbol, err)
	}
	bars := NormalizeBars(raw)

	if c.Cache != nil && len(bars) > 0 {
		if err := c.Cache.Set(ctx, key, bars); err != nil {
			log.Printf("[WARN] series cache set %s: %v", key, err)
		}
	}
	return c.series(symbol, bars), nil
}

func (c *Collector) series(symbol string, bars []model.OHLCV) *model.PriceSeries {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	return &model.PriceSeries{
		Symbol:    symbol,
		Bars:      bars,
		Source:    c.Fetcher.Name(),
		FetchedAt: now(),
	}
}

// NormalizeBars drops bars with a missing or non-positive high, low or close
// (holidays, halted sessions, null quotes), sorts by date and keeps only the
// last bar of any calendar day.
func NormalizeBars(raw []model.OHLCV) []model.OHLCV {
	bars := make([]model.OHLCV, 0, len(raw))
	for _, b := range raw {
		if b.Close <= 0 || b.High <= 0 || b.Low <= 0 {
			continue
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && sameDay(out[n-1].Time, b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
