package strategy

import (
	"time"

	"StockSeeker/internal/model"
)

// Metrics holds the values the filters compute while evaluating a ticker.
type Metrics struct {
	Rows           int
	LastPrice      float64
	AverageVolume  float64
	OscillatorMin  float64
	OscillatorLast float64
	SMAFast        float64
	SMASlow        float64
	AsOf           time.Time
	CrossoverAt    time.Time
}

// Verdict is the result of a single filter.
type Verdict struct {
	Filter string
	Passed bool
	Reason string
}

// Filter is one predicate of the chain. Implementations must fail closed on
// malformed input instead of panicking.
type Filter interface {
	Name() string
	Apply(s *model.EnrichedSeries, cfg model.ScreenConfig, m *Metrics) Verdict
}

// Chain evaluates filters in order and stops at the first failure.
type Chain struct {
	filters []Filter
}

// NewChain creates a chain from the given filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// DefaultChain orders the filters from cheapest to most selective.
func DefaultChain() *Chain {
	return NewChain(
		SufficiencyFilter{},
		LiquidityFilter{},
		OscillatorExcursionFilter{},
		CrossoverFilter{},
	)
}

// Names returns the filter names in evaluation order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.filters))
	for i, f := range c.filters {
		names[i] = f.Name()
	}
	return names
}

// Outcome is the evaluation of one ticker.
type Outcome struct {
	Symbol   string
	Passed   bool
	Verdicts []Verdict
	Metrics  Metrics
}

// Rejection returns the verdict that stopped the chain. ok is false when the ticker passed.
func (o Outcome) Rejection() (v Verdict, ok bool) {
	if o.Passed || len(o.Verdicts) == 0 {
		return Verdict{}, false
	}
	return o.Verdicts[len(o.Verdicts)-1], true
}

// Result converts a passing outcome into a ScreenResult.
func (o Outcome) Result() (model.ScreenResult, bool) {
	if !o.Passed {
		return model.ScreenResult{}, false
	}
	return model.ScreenResult{
		Ticker:         o.Symbol,
		LastPrice:      o.Metrics.LastPrice,
		OscillatorMin:  o.Metrics.OscillatorMin,
		OscillatorLast: o.Metrics.OscillatorLast,
		SMAFast:        o.Metrics.SMAFast,
		SMASlow:        o.Metrics.SMASlow,
		AverageVolume:  o.Metrics.AverageVolume,
		AsOf:           o.Metrics.AsOf,
	}, true
}

// Evaluate runs the chain over an enriched series.
func (c *Chain) Evaluate(s *model.EnrichedSeries, cfg model.ScreenConfig) Outcome {
	out := Outcome{Verdicts: make([]Verdict, 0, len(c.filters))}
	if s == nil {
		out.Verdicts = append(out.Verdicts, Verdict{Filter: "input", Reason: "no series"})
		return out
	}
	out.Symbol = s.Symbol
	if n := s.Len(); n > 0 {
		out.Metrics.AsOf = s.Bars[n-1].Time
	}

	for _, f := range c.filters {
		v := f.Apply(s, cfg, &out.Metrics)
		v.Filter = f.Name()
		out.Verdicts = append(out.Verdicts, v)
		if !v.Passed {
			return out
		}
	}
	out.Passed = len(c.filters) > 0
	return out
}

// Evaluate runs the default chain.
func Evaluate(s *model.EnrichedSeries, cfg model.ScreenConfig) Outcome {
	return DefaultChain().Evaluate(s, cfg)
}
