package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockSeeker/internal/model"
	"StockSeeker/internal/screener"
)

// SQLiteRecorder persists screening runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS screen_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL UNIQUE,
			preset      TEXT,
			config      TEXT,
			range_start INTEGER,
			range_end   INTEGER,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			total       INTEGER,
			processed   INTEGER,
			passed      INTEGER,
			skipped     INTEGER,
			rejections  TEXT,
			interrupted INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished ON screen_runs(finished_at)`,

		`CREATE TABLE IF NOT EXISTS screen_results (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL,
			ticker          TEXT NOT NULL,
			last_price      REAL,
			oscillator_min  REAL,
			oscillator_last REAL,
			sma_fast        REAL,
			sma_slow        REAL,
			average_volume  REAL,
			as_of           INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON screen_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_ticker ON screen_results(ticker)`,

		`CREATE TABLE IF NOT EXISTS ticker_skips (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			ticker TEXT NOT NULL,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skips_run ON ticker_skips(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run, its results and its skips in one transaction.
func (r *SQLiteRecorder) RecordRun(report *screener.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := json.Marshal(report.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	rejections, err := json.Marshal(report.Rejections)
	if err != nil {
		return fmt.Errorf("marshal rejections: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO screen_runs
		(run_id, preset, config, range_start, range_end, started_at, finished_at,
		 total, processed, passed, skipped, rejections, interrupted)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		report.RunID, report.Preset, string(cfg),
		report.Range.Start.Unix(), report.Range.End.Unix(),
		report.StartedAt.Unix(), report.FinishedAt.Unix(),
		report.Total, report.Processed, len(report.Results), len(report.Skips),
		string(rejections), report.Interrupted,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, res := range report.Results {
		if _, err := tx.Exec(`INSERT INTO screen_results
			(run_id, ticker, last_price, oscillator_min, oscillator_last, sma_fast, sma_slow, average_volume, as_of)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			report.RunID, res.Ticker, res.LastPrice, res.OscillatorMin, res.OscillatorLast,
			res.SMAFast, res.SMASlow, res.AverageVolume, res.AsOf.Unix(),
		); err != nil {
			return fmt.Errorf("insert result %s: %w", res.Ticker, err)
		}
	}
	for _, s := range report.Skips {
		if _, err := tx.Exec(`INSERT INTO ticker_skips (run_id, ticker, reason) VALUES (?,?,?)`,
			report.RunID, s.Ticker, s.Reason); err != nil {
			return fmt.Errorf("insert skip %s: %w", s.Ticker, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LatestRun() (*StoredRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		run               StoredRun
		started, finished int64
		rejections        sql.NullString
		interrupted       bool
	)
	err := r.db.QueryRow(`SELECT run_id, preset, started_at, finished_at, total, processed, skipped, rejections, interrupted
		FROM screen_runs ORDER BY finished_at DESC, id DESC LIMIT 1`).
		Scan(&run.RunID, &run.Preset, &started, &finished, &run.Total, &run.Processed, &run.Skipped, &rejections, &interrupted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	run.StartedAt = time.Unix(started, 0)
	run.FinishedAt = time.Unix(finished, 0)
	run.Interrupted = interrupted
	if rejections.Valid && rejections.String != "" {
		if err := json.Unmarshal([]byte(rejections.String), &run.Rejections); err != nil {
			return nil, fmt.Errorf("decode rejections: %w", err)
		}
	}

	rows, err := r.db.Query(`SELECT ticker, last_price, oscillator_min, oscillator_last, sma_fast, sma_slow, average_volume, as_of
		FROM screen_results WHERE run_id = ? ORDER BY ticker`, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			res  model.ScreenResult
			asOf int64
		)
		if err := rows.Scan(&res.Ticker, &res.LastPrice, &res.OscillatorMin, &res.OscillatorLast,
			&res.SMAFast, &res.SMASlow, &res.AverageVolume, &asOf); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.AsOf = time.Unix(asOf, 0).UTC()
		run.Results = append(run.Results, res)
	}
	return &run, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
