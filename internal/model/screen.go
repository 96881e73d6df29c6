package model

import (
	"fmt"
	"sort"
	"time"
)

// ScreenConfig parameterises one screening run. It is read-only once loaded.
type ScreenConfig struct {
	SMAFastWindow           int     `yaml:"sma_fast_window"`
	SMASlowWindow           int     `yaml:"sma_slow_window"`
	OscillatorWindow        int     `yaml:"oscillator_window"`
	OscillatorLookbackDays  int     `yaml:"oscillator_lookback_days"`
	CrossoverLookbackDays   int     `yaml:"crossover_lookback_days"`
	OscillatorLowThreshold  float64 `yaml:"oscillator_low_threshold"`
	OscillatorHighThreshold float64 `yaml:"oscillator_high_threshold"`
	VolumeWindow            int     `yaml:"volume_window"`
	VolumeThreshold         float64 `yaml:"volume_threshold"`
	PriceThreshold          float64 `yaml:"price_threshold"`
	MinHistoryDays          int     `yaml:"min_history_days"`
}

// DefaultPreset is used when no preset is configured.
const DefaultPreset = "classic"

var presets = map[string]ScreenConfig{
	// CCI(20) from below -100 to above +100, SMA20 over SMA200 within 5 sessions.
	"classic": {
		SMAFastWindow:           20,
		SMASlowWindow:           200,
		OscillatorWindow:        20,
		OscillatorLookbackDays:  20,
		CrossoverLookbackDays:   5,
		OscillatorLowThreshold:  -100,
		OscillatorHighThreshold: 100,
		VolumeWindow:            50,
		VolumeThreshold:         1_000_000,
		PriceThreshold:          5,
		MinHistoryDays:          200,
	},
	// Shallower oversold dip.
	"relaxed": {
		SMAFastWindow:           20,
		SMASlowWindow:           200,
		OscillatorWindow:        20,
		OscillatorLookbackDays:  20,
		CrossoverLookbackDays:   5,
		OscillatorLowThreshold:  -90,
		OscillatorHighThreshold: 100,
		VolumeWindow:            50,
		VolumeThreshold:         1_000_000,
		PriceThreshold:          5,
		MinHistoryDays:          200,
	},
	// Crossover may be up to 10 sessions old.
	"extended": {
		SMAFastWindow:           20,
		SMASlowWindow:           200,
		OscillatorWindow:        20,
		OscillatorLookbackDays:  20,
		CrossoverLookbackDays:   10,
		OscillatorLowThreshold:  -100,
		OscillatorHighThreshold: 100,
		VolumeWindow:            50,
		VolumeThreshold:         1_000_000,
		PriceThreshold:          5,
		MinHistoryDays:          200,
	},
}

// Preset returns the named parameter set.
func Preset(name string) (ScreenConfig, error) {
	cfg, ok := presets[name]
	if !ok {
		return ScreenConfig{}, fmt.Errorf("%w: unknown preset %q (available: %v)", ErrConfig, name, PresetNames())
	}
	return cfg, nil
}

// PresetNames lists the available presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultScreenConfig returns the classic preset.
func DefaultScreenConfig() ScreenConfig {
	return presets[DefaultPreset]
}

// Validate checks that every window and threshold is usable.
func (c ScreenConfig) Validate() error {
	windows := []struct {
		key string
		v   int
	}{
		{"sma_fast_window", c.SMAFastWindow},
		{"sma_slow_window", c.SMASlowWindow},
		{"oscillator_window", c.OscillatorWindow},
		{"oscillator_lookback_days", c.OscillatorLookbackDays},
		{"crossover_lookback_days", c.CrossoverLookbackDays},
		{"volume_window", c.VolumeWindow},
		{"min_history_days", c.MinHistoryDays},
	}
	for _, w := range windows {
		if w.v <= 0 {
			return fmt.Errorf("%w: screen.%s must be positive, got %d", ErrConfig, w.key, w.v)
		}
	}
	if c.OscillatorLowThreshold >= c.OscillatorHighThreshold {
		return fmt.Errorf("%w: screen.oscillator_low_threshold (%.2f) must be below oscillator_high_threshold (%.2f)",
			ErrConfig, c.OscillatorLowThreshold, c.OscillatorHighThreshold)
	}
	if c.VolumeThreshold < 0 {
		return fmt.Errorf("%w: screen.volume_threshold must not be negative", ErrConfig)
	}
	if c.PriceThreshold < 0 {
		return fmt.Errorf("%w: screen.price_threshold must not be negative", ErrConfig)
	}
	return nil
}

// RequiredRows is the shortest history on which every filter can see a full
// window of defined values.
func (c ScreenConfig) RequiredRows() int {
	need := c.MinHistoryDays
	// The crossover filter compares each lookback row with the row before it.
	if n := c.SMASlowWindow + c.CrossoverLookbackDays; n > need {
		need = n
	}
	if n := c.SMAFastWindow + c.CrossoverLookbackDays; n > need {
		need = n
	}
	if n := c.OscillatorWindow + c.OscillatorLookbackDays - 1; n > need {
		need = n
	}
	return need
}

// ScreenResult describes one ticker that passed every filter.
type ScreenResult struct {
	Ticker         string    `json:"ticker"`
	LastPrice      float64   `json:"last_price"`
	OscillatorMin  float64   `json:"oscillator_min"`
	OscillatorLast float64   `json:"oscillator_last"`
	SMAFast        float64   `json:"sma_fast"`
	SMASlow        float64   `json:"sma_slow"`
	AverageVolume  float64   `json:"average_volume"`
	AsOf           time.Time `json:"as_of"`
}
