// Package screener runs the filter chain over a ticker universe.
package screener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"StockSeeker/internal/calculator"
	"StockSeeker/internal/collector"
	"StockSeeker/internal/metrics"
	"StockSeeker/internal/model"
	"StockSeeker/internal/strategy"
)

const defaultWorkers = 4

// SeriesProvider returns the daily history of one ticker. An unknown ticker
// yields an empty series, not an error.
type SeriesProvider interface {
	FetchSeries(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error)
}

// DateRange is the inclusive history window requested from the provider.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// LastDays returns the range of the given number of calendar days ending at end.
func LastDays(end time.Time, days int) DateRange {
	return DateRange{Start: end.AddDate(0, 0, -days), End: end}
}

// Skip records a ticker that could not be evaluated.
type Skip struct {
	Ticker string
	Reason string
}

// Report is the outcome of one run.
type Report struct {
	RunID       string
	Preset      string
	Config      model.ScreenConfig
	Range       DateRange
	StartedAt   time.Time
	FinishedAt  time.Time
	Total       int
	Processed   int
	Results     []model.ScreenResult
	Skips       []Skip
	Rejections  map[string]int // filter name -> rejected tickers
	Interrupted bool
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Status is "ok", or "interrupted" when dispatch stopped early.
func (r *Report) Status() string {
	if r.Interrupted {
		return metrics.StatusInterrupted
	}
	return metrics.StatusOK
}

// Screener evaluates tickers in parallel with a bounded worker pool.
type Screener struct {
	Provider    SeriesProvider
	Chain       *strategy.Chain
	Workers     int
	Diagnostics Diagnostics
	Metrics     *metrics.Metrics
	Preset      string
	now         func() time.Time
}

// New creates a Screener using the default filter chain.
func New(provider SeriesProvider, workers int) *Screener {
	return &Screener{
		Provider:    provider,
		Chain:       strategy.DefaultChain(),
		Workers:     workers,
		Diagnostics: NopDiagnostics{},
		now:         time.Now,
	}
}

func (s *Screener) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// RunUniverse lists the universe and screens it. A failing or empty universe
// aborts the run with model.ErrUniverseUnavailable.
func (s *Screener) RunUniverse(ctx context.Context, universe collector.Universe, rng DateRange, cfg model.ScreenConfig) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tickers, err := universe.ListTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrUniverseUnavailable, universe.Name(), err)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: %s returned no tickers", model.ErrUniverseUnavailable, universe.Name())
	}
	return s.Run(ctx, tickers, rng, cfg)
}

// Run evaluates every ticker. Per-ticker failures are recorded as skips and
// never abort the run. When ctx ends, no new ticker is dispatched, tickers in
// flight are abandoned and the report is marked Interrupted.
func (s *Screener) Run(ctx context.Context, tickers []string, rng DateRange, cfg model.ScreenConfig) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s.Provider == nil {
		return nil, fmt.Errorf("%w: no price provider", model.ErrConfig)
	}
	if rng.End.Before(rng.Start) {
		return nil, fmt.Errorf("%w: date range ends %s before it starts %s", model.ErrConfig,
			rng.End.Format("2006-01-02"), rng.Start.Format("2006-01-02"))
	}
	chain := s.Chain
	if chain == nil {
		chain = strategy.DefaultChain()
	}
	diag := s.Diagnostics
	if diag == nil {
		diag = NopDiagnostics{}
	}
	workers := s.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	report := &Report{
		RunID:      uuid.NewString(),
		Preset:     s.Preset,
		Config:     cfg,
		Range:      rng,
		StartedAt:  s.clock(),
		Total:      len(tickers),
		Rejections: make(map[string]int),
	}
	diag.Emit(Event{RunID: report.RunID, Kind: EventStarted, Total: report.Total,
		Message: fmt.Sprintf("screening %d tickers from %s to %s with %d workers", report.Total,
			rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"), workers)})

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(workers)

	for _, ticker := range tickers {
		if ctx.Err() != nil {
			break
		}
		ticker := ticker
		g.Go(func() error {
			ev := s.evaluate(ctx, chain, ticker, rng, cfg)
			if ev.kind == EventSkipped && ctx.Err() != nil {
				// Abandoned by cancellation.
				return nil
			}

			mu.Lock()
			report.Processed++
			processed := report.Processed
			switch ev.kind {
			case EventAccepted:
				report.Results = append(report.Results, ev.result)
			case EventRejected:
				report.Rejections[ev.filter]++
			case EventSkipped:
				report.Skips = append(report.Skips, Skip{Ticker: ticker, Reason: ev.err.Error()})
			}
			mu.Unlock()

			s.Metrics.ObserveTicker(outcomeLabel(ev.kind))
			diag.Emit(Event{RunID: report.RunID, Kind: ev.kind, Ticker: ticker, Processed: processed,
				Total: report.Total, Message: ev.message, Err: ev.err})
			diag.Emit(Event{RunID: report.RunID, Kind: EventProgress, Ticker: ticker,
				Processed: processed, Total: report.Total})
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = s.clock()
	report.Interrupted = ctx.Err() != nil && report.Processed < report.Total
	sort.Slice(report.Results, func(i, j int) bool { return report.Results[i].Ticker < report.Results[j].Ticker })
	sort.Slice(report.Skips, func(i, j int) bool { return report.Skips[i].Ticker < report.Skips[j].Ticker })

	s.Metrics.ObserveRun(report.Status(), len(report.Results), report.Duration())
	diag.Emit(Event{RunID: report.RunID, Kind: EventFinished, Processed: report.Processed, Total: report.Total,
		Message: fmt.Sprintf("%s: %d passed, %d skipped, %d/%d processed in %s", report.Status(),
			len(report.Results), len(report.Skips), report.Processed, report.Total,
			report.Duration().Round(time.Millisecond))})
	return report, nil
}

type evaluation struct {
	kind    EventKind
	result  model.ScreenResult
	filter  string
	message string
	err     error
}

// evaluate runs fetch, indicators and filters for one ticker.
func (s *Screener) evaluate(ctx context.Context, chain *strategy.Chain, ticker string, rng DateRange, cfg model.ScreenConfig) evaluation {
	start := time.Now()
	series, err := s.Provider.FetchSeries(ctx, ticker, rng.Start, rng.End)
	s.Metrics.ObserveFetch(time.Since(start))
	if err != nil {
		if !errors.Is(err, model.ErrProviderUnavailable) && !errors.Is(err, model.ErrData) {
			err = fmt.Errorf("%w: %v", model.ErrProviderUnavailable, err)
		}
		return evaluation{kind: EventSkipped, err: err}
	}
	if series.Len() == 0 {
		return evaluation{kind: EventSkipped, err: fmt.Errorf("%w: no price history", model.ErrData)}
	}
	if series.Symbol != ticker {
		cp := *series
		cp.Symbol = ticker
		series = &cp
	}

	enriched, err := calculator.Compute(series, cfg)
	if err != nil {
		return evaluation{kind: EventSkipped, err: err}
	}

	out := chain.Evaluate(enriched, cfg)
	if res, ok := out.Result(); ok {
		return evaluation{kind: EventAccepted, result: res, message: fmt.Sprintf(
			"last %.2f, oscillator min %.2f last %.2f, sma %.2f/%.2f, avg volume %.0f",
			res.LastPrice, res.OscillatorMin, res.OscillatorLast, res.SMAFast, res.SMASlow, res.AverageVolume)}
	}
	v, _ := out.Rejection()
	return evaluation{kind: EventRejected, filter: v.Filter, message: v.Filter + ": " + v.Reason}
}

func outcomeLabel(kind EventKind) string {
	switch kind {
	case EventAccepted:
		return metrics.OutcomeAccepted
	case EventRejected:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeSkipped
	}
}
