package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/dlkeeper/pkg/utils"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseScanning   Phase = "scanning"
	PhaseProcessing Phase = "processing"
	PhaseComplete   Phase = "complete"
)

// SweepProgress represents progress of an organize or purge sweep
type SweepProgress struct {
	Phase       Phase
	Operation   string
	CurrentPath string
	Processed   int
	Total       int
	Bytes       int64
	Failed      int
	DryRun      bool
	StartTime   time.Time
}

// Reporter provides thread-safe progress reporting
type Reporter struct {
	current   *SweepProgress
	mu        sync.RWMutex
	listeners []chan *SweepProgress
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan *SweepProgress, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (r *Reporter) Subscribe() <-chan *SweepProgress {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan *SweepProgress, 10)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan *SweepProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Update stores the latest progress and notifies listeners without blocking.
// A listener that is behind misses intermediate updates, but a PhaseComplete
// update always reaches it: the oldest buffered update is dropped instead.
func (r *Reporter) Update(update *SweepProgress) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = update
	for _, listener := range r.listeners {
		select {
		case listener <- update:
			continue
		default:
		}

		if update.Phase != PhaseComplete {
			continue
		}
		// Sends only happen under r.mu, so after evicting one entry the
		// buffer has room.
		select {
		case <-listener:
		default:
		}
		listener <- update
	}
}

// Current returns the most recent progress update
func (r *Reporter) Current() *SweepProgress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Format returns a human-readable progress line
func Format(p *SweepProgress) string {
	if p == nil {
		return "Preparing..."
	}

	elapsed := time.Since(p.StartTime)
	prefix := ""
	if p.DryRun {
		prefix = "[DRY RUN] "
	}

	switch p.Phase {
	case PhaseScanning:
		return fmt.Sprintf("%sScanning for %s... %d files found", prefix, p.Operation, p.Total)
	case PhaseProcessing:
		percentage := 0
		if p.Total > 0 {
			percentage = (p.Processed * 100) / p.Total
		}
		return fmt.Sprintf("%s%s %d/%d files (%d%%) - %s [%s]",
			prefix,
			p.Operation,
			p.Processed,
			p.Total,
			percentage,
			utils.FormatBytes(p.Bytes),
			FormatDuration(elapsed))
	case PhaseComplete:
		return fmt.Sprintf("%s%s complete: %d files (%s), %d failed in %s",
			prefix,
			p.Operation,
			p.Processed,
			utils.FormatBytes(p.Bytes),
			p.Failed,
			FormatDuration(elapsed))
	default:
		return "Working..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
