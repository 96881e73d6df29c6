package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockSeeker/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooChartURL,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol maps index aliases and converts share-class dots (BRK.B) to Yahoo's dashes (BRK-B).
func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return strings.ReplaceAll(symbol, ".", "-")
}

// chartResponse mirrors the parts of the v8 chart payload we read. Quote
// arrays hold null for sessions without trades.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []chartQuote `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// value returns values[i], or 0 when it is null or missing.
func value(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

// FetchDailyBars downloads daily bars between start and end.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	// period2 is exclusive upstream.
	q.Set("period2", fmt.Sprintf("%d", end.AddDate(0, 0, 1).Unix()))
	q.Set("interval", "1d")
	u := fmt.Sprintf("%s/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart chartResponse
	decodeErr := json.Unmarshal(body, &chart)
	// Unknown and delisted symbols come back as 404 with a "Not Found" chart error.
	if decodeErr == nil && chart.Chart.Error != nil && chart.Chart.Error.Code == "Not Found" {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %w", decodeErr)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   value(quote.Open, i),
			High:   value(quote.High, i),
			Low:    value(quote.Low, i),
			Close:  value(quote.Close, i),
			Volume: value(quote.Volume, i),
		})
	}
	return bars, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
