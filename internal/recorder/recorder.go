package recorder

import (
	"time"

	"StockSeeker/internal/model"
	"StockSeeker/internal/screener"
)

// StoredRun is a screening run read back from history.
type StoredRun struct {
	RunID       string
	Preset      string
	StartedAt   time.Time
	FinishedAt  time.Time
	Total       int
	Processed   int
	Skipped     int
	Interrupted bool
	Rejections  map[string]int
	Results     []model.ScreenResult
}

// Recorder persists screening history for later inspection.
type Recorder interface {
	RecordRun(report *screener.Report) error
	// LatestRun returns the most recently finished run, or nil when there is none.
	LatestRun() (*StoredRun, error)
	Close() error
}
