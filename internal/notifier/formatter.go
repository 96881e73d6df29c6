package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"StockSeeker/internal/model"
	"StockSeeker/internal/recorder"
	"StockSeeker/internal/screener"
)

// DefaultMaxRows bounds the result table of one message.
const DefaultMaxRows = 40

// FormatScreenReport formats a finished run into a Telegram message.
func FormatScreenReport(r *screener.Report, maxRows int) string {
	var b strings.Builder

	title := fmt.Sprintf("📊 <b>StockSeeker</b> | %s | preset %s", r.FinishedAt.Format("2006-01-02 15:04"), html.EscapeString(r.Preset))
	b.WriteString(title + "\n\n")
	b.WriteString(fmt.Sprintf("Processed: %d/%d in %s\n", r.Processed, r.Total, r.Duration().Round(time.Second)))
	b.WriteString(fmt.Sprintf("Passed: %d | Skipped: %d\n", len(r.Results), len(r.Skips)))
	if len(r.Rejections) > 0 {
		b.WriteString("Rejected by: " + formatRejections(r.Rejections) + "\n")
	}
	if r.Interrupted {
		b.WriteString("⚠️ Run interrupted before all tickers were processed\n")
	}
	b.WriteString("\n")
	b.WriteString(FormatResults(r.Results, maxRows))
	return b.String()
}

// FormatStoredRun formats a run loaded from history.
func FormatStoredRun(run *recorder.StoredRun, maxRows int) string {
	if run == nil {
		return "No screening run recorded yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Last screen</b> | %s | preset %s\n\n",
		run.FinishedAt.Format("2006-01-02 15:04"), html.EscapeString(run.Preset)))
	b.WriteString(fmt.Sprintf("Processed: %d/%d | Passed: %d | Skipped: %d\n",
		run.Processed, run.Total, len(run.Results), run.Skipped))
	if run.Interrupted {
		b.WriteString("⚠️ Run was interrupted\n")
	}
	b.WriteString("\n")
	b.WriteString(FormatResults(run.Results, maxRows))
	return b.String()
}

// FormatResults renders a fixed-width table of results.
func FormatResults(results []model.ScreenResult, maxRows int) string {
	if len(results) == 0 {
		return "No ticker passed the screen."
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	var b strings.Builder
	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-7s %9s %8s %8s %12s\n", "Ticker", "Last", "OscMin", "OscLast", "AvgVol"))
	for i, r := range results {
		if i == maxRows {
			b.WriteString(fmt.Sprintf("... and %d more\n", len(results)-maxRows))
			break
		}
		b.WriteString(fmt.Sprintf("%-7s %9.2f %8.1f %8.1f %12.0f\n",
			html.EscapeString(r.Ticker), r.LastPrice, r.OscillatorMin, r.OscillatorLast, r.AverageVolume))
	}
	b.WriteString("</pre>")
	return b.String()
}

// FormatConfig formats the active screen parameters.
func FormatConfig(preset string, cfg model.ScreenConfig) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚙️ <b>Screen parameters</b> (preset %s)\n\n", html.EscapeString(preset)))
	b.WriteString(fmt.Sprintf("SMA fast/slow: %d/%d\n", cfg.SMAFastWindow, cfg.SMASlowWindow))
	b.WriteString(fmt.Sprintf("CCI window: %d, lookback %d days\n", cfg.OscillatorWindow, cfg.OscillatorLookbackDays))
	b.WriteString(fmt.Sprintf("CCI thresholds: below %.0f then above %.0f\n", cfg.OscillatorLowThreshold, cfg.OscillatorHighThreshold))
	b.WriteString(fmt.Sprintf("Crossover lookback: %d days\n", cfg.CrossoverLookbackDays))
	b.WriteString(fmt.Sprintf("Avg volume (%d days) &gt; %.0f\n", cfg.VolumeWindow, cfg.VolumeThreshold))
	b.WriteString(fmt.Sprintf("Last close &gt; %.2f\n", cfg.PriceThreshold))
	b.WriteString(fmt.Sprintf("Min history: %d rows\n", cfg.MinHistoryDays))
	return b.String()
}

// FormatRunError reports a run that aborted before screening.
func FormatRunError(err error) string {
	return fmt.Sprintf("❌ <b>Screening failed</b>\n\n%s", html.EscapeString(err.Error()))
}

func formatRejections(m map[string]int) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s %d", name, m[name])
	}
	return strings.Join(parts, ", ")
}
