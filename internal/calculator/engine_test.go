package calculator

import (
	"errors"
	"math"
	"testing"

	"StockSeeker/internal/model"
)

func TestCompute_AlignsDerivedSeries(t *testing.T) {
	cfg := model.DefaultScreenConfig()
	series := &model.PriceSeries{Symbol: "ACME", Bars: flatBars(repeat(12, 250)...)}

	enriched, err := Compute(series, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enriched.Symbol != "ACME" {
		t.Errorf("expected symbol ACME, got %s", enriched.Symbol)
	}
	for name, s := range map[string]model.Series{
		"sma_fast":   enriched.SMAFast,
		"sma_slow":   enriched.SMASlow,
		"oscillator": enriched.Oscillator,
	} {
		if len(s) != 250 {
			t.Errorf("%s: expected 250 values, got %d", name, len(s))
		}
	}
	if enriched.SMASlow.Defined(198) || !enriched.SMASlow.Defined(199) {
		t.Error("slow SMA should become defined at position 199")
	}
	if enriched.SMAFast.Defined(18) || !enriched.SMAFast.Defined(19) {
		t.Error("fast SMA should become defined at position 19")
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	bars := flatBars(repeat(5, 30)...)
	series := &model.PriceSeries{Symbol: "X", Bars: bars}
	enriched, err := Compute(series, model.DefaultScreenConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	enriched.Bars[0].Close = 999
	if series.Bars[0].Close != 5 {
		t.Error("input series was modified through the enriched copy")
	}
}

func TestCompute_DataErrors(t *testing.T) {
	nanVolume := flatBars(1, 2, 3)
	nanVolume[1].Volume = math.NaN()

	duplicate := flatBars(1, 2, 3)
	duplicate[2].Time = duplicate[1].Time

	inverted := flatBars(1, 2, 3)
	inverted[0].High = 0.5

	nullClose := flatBars(1, 2, 3)
	nullClose[2].Close = 0

	tests := []struct {
		name   string
		series *model.PriceSeries
	}{
		{"nil series", nil},
		{"empty series", &model.PriceSeries{Symbol: "E"}},
		{"missing volume", &model.PriceSeries{Bars: nanVolume}},
		{"duplicate date", &model.PriceSeries{Bars: duplicate}},
		{"high below low", &model.PriceSeries{Bars: inverted}},
		{"zero close", &model.PriceSeries{Bars: nullClose}},
	}
	for _, tt := range tests {
		_, err := Compute(tt.series, model.DefaultScreenConfig())
		if !errors.Is(err, model.ErrData) {
			t.Errorf("%s: expected ErrData, got %v", tt.name, err)
		}
	}
}

func TestAverageVolume(t *testing.T) {
	bars := flatBars(1, 1, 1, 1)
	for i := range bars {
		bars[i].Volume = float64(i+1) * 100
	}
	got, err := AverageVolume(bars, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 350 {
		t.Errorf("expected 350, got %v", got)
	}
}
