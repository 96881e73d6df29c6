package cache

import (
	"context"
	"testing"
	"time"

	"StockSeeker/internal/model"
)

func TestSeriesKey(t *testing.T) {
	if got := seriesKey("yahoo:AAPL:20240101:20241231"); got != "seeker:series:yahoo:AAPL:20240101:20241231" {
		t.Errorf("unexpected key %s", got)
	}
}

func TestBarsCodec(t *testing.T) {
	in := []model.OHLCV{
		{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 1e6},
		{Time: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 2e6},
	}
	data, err := encodeBars(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := decodeBars(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || !out[1].Time.Equal(in[1].Time) || out[1].Close != 2 {
		t.Errorf("expected %+v, got %+v", in, out)
	}
	if _, err := decodeBars([]byte("not json")); err == nil {
		t.Error("expected error for corrupt payload")
	}
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := New(ctx, Config{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("expected ping error for unreachable redis")
	}
}

func TestNewWithClient_DefaultTTL(t *testing.T) {
	c := NewWithClient(nil, 0)
	if c.ttl != DefaultTTL {
		t.Errorf("expected default ttl %v, got %v", DefaultTTL, c.ttl)
	}
}
