package housekeeper

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/dlkeeper/internal/progress"
)

// sweep tracks one mutating pass and publishes its progress
type sweep struct {
	h     *Housekeeper
	state progress.SweepProgress
}

func (h *Housekeeper) startSweep(op string, total int) *sweep {
	s := &sweep{
		h: h,
		state: progress.SweepProgress{
			Phase:     progress.PhaseScanning,
			Operation: op,
			Total:     total,
			DryRun:    h.dryRun,
			StartTime: time.Now(),
		},
	}
	s.publish()
	s.state.Phase = progress.PhaseProcessing
	return s
}

func (s *sweep) step(path string, bytes int64, failed bool) {
	s.state.CurrentPath = path
	s.state.Processed++
	s.state.Bytes += bytes
	if failed {
		s.state.Failed++
	}
	s.publish()
}

func (s *sweep) finish() {
	s.state.Phase = progress.PhaseComplete
	s.state.CurrentPath = ""
	s.publish()

	s.h.log.WithFields(logrus.Fields{
		"op":        s.state.Operation,
		"processed": s.state.Processed,
		"failed":    s.state.Failed,
		"dry_run":   s.state.DryRun,
		"elapsed":   time.Since(s.state.StartTime).Round(time.Millisecond),
	}).Info("sweep finished")
}

// publish sends a copy so listeners never observe later mutations
func (s *sweep) publish() {
	if s.h.progress == nil {
		return
	}
	snapshot := s.state
	s.h.progress.Update(&snapshot)
}
