package recorder

import "StockSeeker/internal/screener"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *screener.Report) error { return nil }
func (n *NoopRecorder) LatestRun() (*StoredRun, error)     { return nil, nil }
func (n *NoopRecorder) Close() error                       { return nil }
