package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the raw daily history of one ticker, ordered by date.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	Source    string
	FetchedAt time.Time
}

// Len returns the number of bars in the series.
func (p *PriceSeries) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Bars)
}

// Last returns the most recent bar. ok is false for an empty series.
func (p *PriceSeries) Last() (bar OHLCV, ok bool) {
	if p.Len() == 0 {
		return OHLCV{}, false
	}
	return p.Bars[len(p.Bars)-1], true
}
