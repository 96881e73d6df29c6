package model

import (
	"errors"
	"math"
	"testing"
)

func TestPresets(t *testing.T) {
	tests := []struct {
		name      string
		low       float64
		crossover int
	}{
		{"classic", -100, 5},
		{"relaxed", -90, 5},
		{"extended", -100, 10},
	}
	for _, tt := range tests {
		cfg, err := Preset(tt.name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if cfg.OscillatorLowThreshold != tt.low || cfg.CrossoverLookbackDays != tt.crossover {
			t.Errorf("%s: expected low %v crossover %d, got %v %d", tt.name, tt.low, tt.crossover,
				cfg.OscillatorLowThreshold, cfg.CrossoverLookbackDays)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: preset should validate: %v", tt.name, err)
		}
	}
	if _, err := Preset("turbo"); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig for unknown preset, got %v", err)
	}
	if names := PresetNames(); len(names) != 3 || names[0] != "classic" {
		t.Errorf("unexpected preset names %v", names)
	}
}

func TestScreenConfig_Validate(t *testing.T) {
	cfg := DefaultScreenConfig()
	cfg.CrossoverLookbackDays = 0
	if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig for zero lookback, got %v", err)
	}

	cfg = DefaultScreenConfig()
	cfg.OscillatorLowThreshold = 100
	if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig for equal thresholds, got %v", err)
	}

	cfg = DefaultScreenConfig()
	cfg.PriceThreshold = -1
	if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig for negative price floor, got %v", err)
	}
}

func TestScreenConfig_RequiredRows(t *testing.T) {
	cfg := DefaultScreenConfig()
	if got := cfg.RequiredRows(); got != 205 {
		t.Errorf("expected 205 rows for classic, got %d", got)
	}
	cfg.CrossoverLookbackDays = 10
	if got := cfg.RequiredRows(); got != 210 {
		t.Errorf("expected 210 rows for a 10-day crossover, got %d", got)
	}
}

func TestSeries(t *testing.T) {
	s := Series{Undefined, Undefined, 1, 2, 3}
	if s.Defined(1) || !s.Defined(2) || s.Defined(5) || s.Defined(-1) {
		t.Error("unexpected Defined results")
	}
	if tail, ok := s.Tail(3); !ok || tail[0] != 1 || tail[2] != 3 {
		t.Errorf("expected [1 2 3], got %v %v", tail, ok)
	}
	if _, ok := s.Tail(4); ok {
		t.Error("tail covering an undefined value must not be ok")
	}
	if _, ok := s.Tail(6); ok {
		t.Error("tail longer than the series must not be ok")
	}
	if v, ok := s.Last(); !ok || v != 3 {
		t.Errorf("expected last 3, got %v %v", v, ok)
	}
	if _, ok := (Series{math.NaN()}).Last(); ok {
		t.Error("undefined last value must not be ok")
	}
}

func TestPriceSeries_NilSafe(t *testing.T) {
	var p *PriceSeries
	if p.Len() != 0 {
		t.Error("nil series should have length 0")
	}
	if _, ok := p.Last(); ok {
		t.Error("nil series has no last bar")
	}
}
