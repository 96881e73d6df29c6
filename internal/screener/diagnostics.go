package screener

import (
	"log"
	"sync"
)

// EventKind classifies diagnostics events.
type EventKind string

const (
	EventStarted  EventKind = "started"
	EventSkipped  EventKind = "skipped"
	EventRejected EventKind = "rejected"
	EventAccepted EventKind = "accepted"
	EventProgress EventKind = "progress"
	EventFinished EventKind = "finished"
)

// Event is one structured diagnostics message of a run.
type Event struct {
	RunID     string
	Kind      EventKind
	Ticker    string
	Processed int
	Total     int
	Message   string
	Err       error
}

// Diagnostics receives run events. Implementations must be safe for
// concurrent use; events of different tickers may arrive in any order.
type Diagnostics interface {
	Emit(Event)
}

// NopDiagnostics discards every event.
type NopDiagnostics struct{}

func (NopDiagnostics) Emit(Event) {}

// LogDiagnostics writes events through the standard logger. Progress is
// logged every ProgressEvery tickers; rejections are only logged when Verbose.
type LogDiagnostics struct {
	ProgressEvery int
	Verbose       bool
}

func (d LogDiagnostics) Emit(e Event) {
	prefix := "[screen " + shortID(e.RunID) + "]"
	switch e.Kind {
	case EventStarted:
		log.Printf("[INFO] %s %s", prefix, e.Message)
	case EventAccepted:
		log.Printf("[INFO] %s %s: %s", prefix, e.Ticker, e.Message)
	case EventSkipped:
		log.Printf("[WARN] %s skip %s: %v", prefix, e.Ticker, e.Err)
	case EventRejected:
		if d.Verbose {
			log.Printf("[INFO] %s reject %s: %s", prefix, e.Ticker, e.Message)
		}
	case EventProgress:
		every := d.ProgressEvery
		if every <= 0 {
			every = 100
		}
		if e.Processed%every == 0 || e.Processed == e.Total {
			log.Printf("[INFO] %s progress %d/%d", prefix, e.Processed, e.Total)
		}
	case EventFinished:
		log.Printf("[INFO] %s %s", prefix, e.Message)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns the number of recorded events of the given kind.
func (r *Recorder) Count(kind EventKind) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Fanout forwards every event to each sink.
type Fanout []Diagnostics

func (f Fanout) Emit(e Event) {
	for _, d := range f {
		d.Emit(e)
	}
}
