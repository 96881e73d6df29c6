// Package export writes screening results to CSV files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"StockSeeker/internal/model"
)

// Fixed2 renders a float rounded to two decimals.
type Fixed2 float64

func (f Fixed2) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(f), 'f', 2, 64), nil
}

// Row is one CSV line. Column names are part of the output contract.
type Row struct {
	Ticker         string `csv:"Ticker"`
	LastPrice      Fixed2 `csv:"Last Price"`
	OscillatorMin  Fixed2 `csv:"Oscillator Min"`
	OscillatorLast Fixed2 `csv:"Oscillator Last"`
	SMAFast        Fixed2 `csv:"SMA Fast"`
	SMASlow        Fixed2 `csv:"SMA Slow"`
	AverageVolume  Fixed2 `csv:"Average Volume"`
}

// Rows converts results into CSV rows, preserving order.
func Rows(results []model.ScreenResult) []*Row {
	rows := make([]*Row, len(results))
	for i, r := range results {
		rows[i] = &Row{
			Ticker:         r.Ticker,
			LastPrice:      Fixed2(r.LastPrice),
			OscillatorMin:  Fixed2(r.OscillatorMin),
			OscillatorLast: Fixed2(r.OscillatorLast),
			SMAFast:        Fixed2(r.SMAFast),
			SMASlow:        Fixed2(r.SMASlow),
			AverageVolume:  Fixed2(r.AverageVolume),
		}
	}
	return rows
}

// Write encodes results with a header row, also when there are no results.
func Write(w io.Writer, results []model.ScreenResult) error {
	if err := gocsv.Marshal(Rows(results), w); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return nil
}

// FileName returns the report path for a run: <dir>/screen_<preset>_<YYYYMMDD>.csv.
func FileName(dir, preset string, asOf time.Time) string {
	if preset == "" {
		preset = model.DefaultPreset
	}
	return filepath.Join(dir, fmt.Sprintf("screen_%s_%s.csv", preset, asOf.Format("20060102")))
}

// WriteCSV writes the results to path atomically: the file either holds the
// complete report or is left untouched.
func WriteCSV(path string, results []model.ScreenResult) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := Write(tmp, results); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
