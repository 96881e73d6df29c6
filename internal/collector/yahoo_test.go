package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const chartBody = `{"chart":{"result":[{"timestamp":[1704205800,1704292200,1704378600],
"indicators":{"quote":[{"open":[10.0,null,11.0],"high":[10.5,null,11.5],"low":[9.5,null,10.5],
"close":[10.2,null,11.2],"volume":[1500000,null,1700000]}]}}],"error":null}}`

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	bars, err := f.FetchDailyBars(context.Background(), "BRK.B", start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/BRK-B" {
		t.Errorf("expected share-class symbol mapped to /BRK-B, got %s", gotPath)
	}
	if !strings.Contains(gotQuery, "interval=1d") || !strings.Contains(gotQuery, "period1=1704067200") {
		t.Errorf("unexpected query %s", gotQuery)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 raw bars, got %d", len(bars))
	}
	if bars[0].Close != 10.2 || bars[2].Volume != 1700000 {
		t.Errorf("unexpected bars: %+v", bars)
	}
	if bars[1].Close != 0 {
		t.Errorf("null close should decode as 0, got %v", bars[1].Close)
	}
	if got := NormalizeBars(bars); len(got) != 2 {
		t.Errorf("expected null bar dropped by normalisation, got %d bars", len(got))
	}
}

func TestYahooFetcher_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "GONE", time.Now().AddDate(-1, 0, 0), time.Now())
	if err != nil {
		t.Fatalf("expected no error for unknown symbol, got %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("expected no bars, got %d", len(bars))
	}
}

func TestYahooFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	if _, err := f.FetchDailyBars(context.Background(), "AAPL", time.Now().AddDate(-1, 0, 0), time.Now()); err == nil {
		t.Error("expected error for 429 response")
	}
}

func TestYahooFetcher_IndexAlias(t *testing.T) {
	f := NewYahooFetcher("")
	if got := f.yahooSymbol("SPX"); got != "^GSPC" {
		t.Errorf("expected ^GSPC, got %s", got)
	}
	if got := f.yahooSymbol("MSFT"); got != "MSFT" {
		t.Errorf("expected MSFT, got %s", got)
	}
}
