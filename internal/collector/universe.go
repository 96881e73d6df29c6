package collector

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// NasdaqTradedURL is the NASDAQ Trader directory of every US-listed security.
const NasdaqTradedURL = "https://www.nasdaqtrader.com/dynamic/SymDir/nasdaqtraded.txt"

// StaticUniverse is a fixed list of symbols.
type StaticUniverse []string

func (s StaticUniverse) Name() string { return "static" }

func (s StaticUniverse) ListTickers(_ context.Context) ([]string, error) {
	return dedupe(s), nil
}

// FileUniverse reads one symbol per line. Blank lines and lines starting with
// '#' are ignored; only the first comma-separated field of a line is used.
type FileUniverse struct {
	Path string
}

func (f FileUniverse) Name() string { return "file" }

func (f FileUniverse) ListTickers(_ context.Context) ([]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer file.Close()

	var symbols []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, strings.TrimSpace(strings.SplitN(line, ",", 2)[0]))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	return dedupe(symbols), nil
}

// NasdaqUniverse downloads the NASDAQ Trader symbol directory and keeps
// common listings from the selected exchanges.
type NasdaqUniverse struct {
	URL string
	// Listing exchange codes: N=NYSE, Q=NASDAQ, A=NYSE American, P=NYSE Arca, Z=Cboe BZX. Empty keeps all.
	Exchanges   []string
	IncludeETFs bool
	Client      *http.Client
}

// NewNasdaqUniverse creates a universe for the given listing exchanges.
func NewNasdaqUniverse(exchanges []string, includeETFs bool, proxyURL string) *NasdaqUniverse {
	return &NasdaqUniverse{
		URL:         NasdaqTradedURL,
		Exchanges:   exchanges,
		IncludeETFs: includeETFs,
		Client:      newHTTPClient(proxyURL, 60*time.Second),
	}
}

func (n *NasdaqUniverse) Name() string { return "nasdaq" }

func (n *NasdaqUniverse) ListTickers(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch symbol directory: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch symbol directory: status %d", resp.StatusCode)
	}
	return n.parse(resp.Body)
}

func (n *NasdaqUniverse) parse(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read directory header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	symIdx, ok := col["Symbol"]
	if !ok {
		return nil, errors.New("symbol directory has no Symbol column")
	}

	exchanges := make(map[string]bool, len(n.Exchanges))
	for _, e := range n.Exchanges {
		exchanges[strings.ToUpper(e)] = true
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var symbols []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read directory: %w", err)
		}
		// Footer: "File Creation Time: ...".
		if len(rec) <= symIdx || strings.HasPrefix(rec[0], "File Creation Time") {
			continue
		}
		if field(rec, "Test Issue") == "Y" {
			continue
		}
		if !n.IncludeETFs && field(rec, "ETF") == "Y" {
			continue
		}
		if len(exchanges) > 0 && !exchanges[field(rec, "Listing Exchange")] {
			continue
		}
		symbols = append(symbols, strings.TrimSpace(rec[symIdx]))
	}
	return dedupe(symbols), nil
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
