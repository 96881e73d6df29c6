package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"StockSeeker/internal/collector"
	"StockSeeker/internal/export"
	"StockSeeker/internal/metrics"
	"StockSeeker/internal/model"
	"StockSeeker/internal/notifier"
	"StockSeeker/internal/recorder"
	"StockSeeker/internal/screener"
)

// ErrRunInProgress is returned when a screen is requested while another runs.
var ErrRunInProgress = errors.New("a screening run is already in progress")

// Notifier delivers messages to the user.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Job holds the parameters of the screening job.
type Job struct {
	Preset      string
	Screen      model.ScreenConfig
	HistoryDays int
	OutputDir   string
	RunTimeout  time.Duration
}

// Scheduler manages the screening cron task and user commands.
type Scheduler struct {
	Cron     *cron.Cron
	Screener *screener.Screener
	Universe collector.Universe
	Notifier Notifier // nil disables notifications
	Recorder recorder.Recorder
	Health   *metrics.Health
	Job      Job
	Ctx      context.Context

	running  atomic.Bool
	inflight sync.WaitGroup
	now      func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *screener.Screener, universe collector.Universe, n Notifier, rec recorder.Recorder, job Job) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Screener: sc,
		Universe: universe,
		Notifier: n,
		Recorder: rec,
		Job:      job,
		Ctx:      ctx,
		now:      time.Now,
	}
}

// Register adds the screening task for the given cron expression (with seconds).
func (s *Scheduler) Register(screenCron string) error {
	if _, err := s.Cron.AddFunc(screenCron, s.screenTask); err != nil {
		return fmt.Errorf("register screen task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for cron jobs and runs started with
// RunScreenAsync to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.inflight.Wait()
	log.Println("[INFO] scheduler stopped")
}

// RunScreenNow executes one screening run and returns its report (-once mode).
func (s *Scheduler) RunScreenNow() (*screener.Report, error) {
	return s.runScreen()
}

// RunScreenAsync starts a screening run in the background (RUN_ON_START and /screen).
// Stop waits for it.
func (s *Scheduler) RunScreenAsync() {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.screenTask()
	}()
}

func (s *Scheduler) screenTask() {
	if _, err := s.runScreen(); err != nil && !errors.Is(err, ErrRunInProgress) {
		log.Printf("[ERROR] screen task: %v", err)
	}
}

// runScreen lists the universe, screens it, writes the CSV report, records
// the run and sends the summary. Interrupted runs are still exported.
func (s *Scheduler) runScreen() (*screener.Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	log.Printf("[INFO] running screen task (preset %s, universe %s)", s.Job.Preset, s.Universe.Name())
	s.Health.RunStarted()
	started := time.Now()

	ctx := s.Ctx
	if s.Job.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Job.RunTimeout)
		defer cancel()
	}

	rng := screener.LastDays(s.today(), s.Job.HistoryDays)
	report, err := s.Screener.RunUniverse(ctx, s.Universe, rng, s.Job.Screen)
	if err != nil {
		s.Screener.Metrics.ObserveRun(metrics.StatusFailed, 0, time.Since(started))
		s.Health.RunFinished("", err)
		s.trySend(notifier.FormatRunError(err))
		return nil, err
	}
	if report.Preset == "" {
		report.Preset = s.Job.Preset
	}

	path := export.FileName(s.Job.OutputDir, report.Preset, report.FinishedAt)
	if err := export.WriteCSV(path, report.Results); err != nil {
		log.Printf("[ERROR] export csv: %v", err)
	} else {
		log.Printf("[INFO] wrote %d results to %s", len(report.Results), path)
	}

	if err := s.Recorder.RecordRun(report); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}

	s.trySend(notifier.FormatScreenReport(report, notifier.DefaultMaxRows))
	s.Health.RunFinished(report.RunID, nil)
	return report, nil
}

// today is the current UTC calendar date.
func (s *Scheduler) today() time.Time {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	y, m, d := now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	var cmd string
	if fields := strings.Fields(command); len(fields) > 0 {
		// Commands in groups arrive as /cmd@BotName.
		cmd = strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	}
	switch cmd {
	case "/screen":
		if s.running.Load() {
			return "⏳ " + ErrRunInProgress.Error()
		}
		s.RunScreenAsync()
		return "⏳ Screening started, the report follows when it finishes."
	case "/last":
		run, err := s.Recorder.LatestRun()
		if err != nil {
			log.Printf("[ERROR] load latest run: %v", err)
			return "❌ Could not load the last run."
		}
		return notifier.FormatStoredRun(run, notifier.DefaultMaxRows)
	case "/config":
		return notifier.FormatConfig(s.Job.Preset, s.Job.Screen)
	default:
		return "Available commands:\n• /screen run a screen now\n• /last show the latest results\n• /config show screen parameters"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
