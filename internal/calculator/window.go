package calculator

import (
	"errors"
	"math"
)

// TrailingMean averages the last n values, or all of them when fewer than n exist.
func TrailingMean(values []float64, n int) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("no values provided")
	}
	if n <= 0 {
		return 0, errors.New("window must be positive")
	}
	if n > len(values) {
		n = len(values)
	}
	return CalculateSMA(values, n)
}

// MinMax scans values and returns the lowest and highest.
func MinMax(values []float64) (low, high float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	low = math.Inf(1)
	high = math.Inf(-1)
	for _, v := range values {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return low, high, nil
}
