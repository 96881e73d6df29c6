package model

import "math"

// Series is a derived numeric sequence aligned by index with the bars it was
// computed from. Positions without enough history hold NaN.
type Series []float64

// Undefined is the value stored at positions without a derived value.
var Undefined = math.NaN()

// Defined reports whether position i holds a derived value.
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && !math.IsNaN(s[i])
}

// Tail returns the last n values. ok is false when the series is shorter than n
// or any of those values is undefined.
func (s Series) Tail(n int) (tail []float64, ok bool) {
	if n <= 0 || n > len(s) {
		return nil, false
	}
	tail = s[len(s)-n:]
	for _, v := range tail {
		if math.IsNaN(v) {
			return nil, false
		}
	}
	return tail, true
}

// Last returns the final value of the series. ok is false if it is undefined.
func (s Series) Last() (float64, bool) {
	if !s.Defined(len(s) - 1) {
		return 0, false
	}
	return s[len(s)-1], true
}

// EnrichedSeries is a price series together with the indicators the filters read.
type EnrichedSeries struct {
	Symbol     string
	Bars       []OHLCV
	SMAFast    Series
	SMASlow    Series
	Oscillator Series
}

// Len returns the number of rows.
func (e *EnrichedSeries) Len() int { return len(e.Bars) }
