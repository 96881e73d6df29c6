package strategy

import (
	"fmt"

	"StockSeeker/internal/calculator"
	"StockSeeker/internal/model"
)

func pass() Verdict { return Verdict{Passed: true} }

func fail(format string, args ...any) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...)}
}

// SufficiencyFilter requires enough history for every later filter to read a
// full window of defined indicator values.
type SufficiencyFilter struct{}

func (SufficiencyFilter) Name() string { return "sufficiency" }

func (SufficiencyFilter) Apply(s *model.EnrichedSeries, cfg model.ScreenConfig, m *Metrics) Verdict {
	n := s.Len()
	m.Rows = n
	if n < cfg.MinHistoryDays {
		return fail("have %d rows, need at least %d", n, cfg.MinHistoryDays)
	}
	if len(s.SMAFast) != n || len(s.SMASlow) != n || len(s.Oscillator) != n {
		return fail("indicator series not aligned with %d rows", n)
	}
	if _, ok := s.Oscillator.Tail(cfg.OscillatorLookbackDays); !ok {
		return fail("oscillator undefined within last %d rows", cfg.OscillatorLookbackDays)
	}
	// Crossover needs the row before the lookback window too.
	rows := cfg.CrossoverLookbackDays + 1
	if _, ok := s.SMAFast.Tail(rows); !ok {
		return fail("fast SMA undefined within last %d rows", rows)
	}
	if _, ok := s.SMASlow.Tail(rows); !ok {
		return fail("slow SMA undefined within last %d rows", rows)
	}
	return pass()
}

// LiquidityFilter requires average volume and last close strictly above their floors.
type LiquidityFilter struct{}

func (LiquidityFilter) Name() string { return "liquidity" }

func (LiquidityFilter) Apply(s *model.EnrichedSeries, cfg model.ScreenConfig, m *Metrics) Verdict {
	n := s.Len()
	if n == 0 {
		return fail("no rows")
	}
	avg, err := calculator.AverageVolume(s.Bars, cfg.VolumeWindow)
	if err != nil {
		return fail("average volume: %v", err)
	}
	last := s.Bars[n-1].Close
	m.AverageVolume = avg
	m.LastPrice = last

	if !(avg > cfg.VolumeThreshold) {
		return fail("average volume %.0f not above %.0f", avg, cfg.VolumeThreshold)
	}
	if !(last > cfg.PriceThreshold) {
		return fail("last close %.2f not above %.2f", last, cfg.PriceThreshold)
	}
	return pass()
}

// OscillatorExcursionFilter looks for an oversold reading followed by an
// overbought close within the same lookback window. The minimum and the last
// value are checked independently; the minimum is not required to precede a
// later peak.
type OscillatorExcursionFilter struct{}

func (OscillatorExcursionFilter) Name() string { return "oscillator_excursion" }

func (OscillatorExcursionFilter) Apply(s *model.EnrichedSeries, cfg model.ScreenConfig, m *Metrics) Verdict {
	window, ok := s.Oscillator.Tail(cfg.OscillatorLookbackDays)
	if !ok {
		return fail("oscillator undefined within last %d rows", cfg.OscillatorLookbackDays)
	}
	low, _, err := calculator.MinMax(window)
	if err != nil {
		return fail("oscillator window: %v", err)
	}
	last := window[len(window)-1]
	m.OscillatorMin = low
	m.OscillatorLast = last

	if !(low < cfg.OscillatorLowThreshold) {
		return fail("oscillator min %.2f not below %.2f", low, cfg.OscillatorLowThreshold)
	}
	if !(last > cfg.OscillatorHighThreshold) {
		return fail("oscillator last %.2f not above %.2f", last, cfg.OscillatorHighThreshold)
	}
	return pass()
}

// CrossoverFilter passes when the fast SMA moved from at-or-below the slow SMA
// to strictly above it on any of the last CrossoverLookbackDays transitions.
type CrossoverFilter struct{}

func (CrossoverFilter) Name() string { return "sma_crossover" }

func (CrossoverFilter) Apply(s *model.EnrichedSeries, cfg model.ScreenConfig, m *Metrics) Verdict {
	lookback := cfg.CrossoverLookbackDays
	fast, okFast := s.SMAFast.Tail(lookback + 1)
	slow, okSlow := s.SMASlow.Tail(lookback + 1)
	if !okFast || !okSlow || s.Len() < lookback+1 {
		return fail("moving averages undefined within last %d rows", lookback+1)
	}
	m.SMAFast = fast[lookback]
	m.SMASlow = slow[lookback]

	// Newest first so the reported date is the most recent crossover.
	for j := lookback; j >= 1; j-- {
		if fast[j-1] <= slow[j-1] && fast[j] > slow[j] {
			m.CrossoverAt = s.Bars[s.Len()-1-lookback+j].Time
			return pass()
		}
	}
	return fail("no fast/slow SMA crossover in last %d sessions", lookback)
}
