package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/dlkeeper/internal/config"
)

// Job represents a scheduled housekeeping job
type Job struct {
	Name     string
	Schedule string
	Action   string
	Days     int
	DryRun   bool
	NextRun  time.Time
	LastRun  time.Time
}

func jobFromSchedule(s config.Schedule) *Job {
	return &Job{
		Name:     s.Name,
		Schedule: s.Schedule,
		Action:   s.Action,
		Days:     s.Days,
		DryRun:   s.DryRun,
	}
}

// JobRunner executes a job when its schedule fires
type JobRunner interface {
	RunJob(job *Job) error
}

// Scheduler manages scheduled housekeeping jobs
type Scheduler struct {
	runner    JobRunner
	logger    logrus.FieldLogger
	cron      *cron.Cron
	jobs      map[string]cron.EntryID
	jobsMu    sync.RWMutex
	running   bool
	schedules []config.Schedule
}

// NewScheduler creates a new scheduler
func NewScheduler(runner JobRunner, schedules []config.Schedule, logger *logrus.Logger) *Scheduler {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	cronLogger := cron.PrintfLogger(logger)
	c := cron.New(cron.WithParser(parser), cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	return &Scheduler{
		runner:    runner,
		logger:    logger,
		cron:      c,
		jobs:      make(map[string]cron.EntryID),
		schedules: schedules,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	// Add all configured schedules
	for _, schedule := range s.schedules {
		if err := s.addJob(schedule); err != nil {
			return fmt.Errorf("failed to add schedule %s: %w", schedule.Name, err)
		}
	}

	s.cron.Start()
	s.running = true

	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		// Clean shutdown
	case <-time.After(10 * time.Second):
		s.logger.Warn("Scheduler stop timed out")
	}

	s.running = false
	s.logger.Info("Scheduler stopped")
}

// addJob registers a schedule with cron. Callers hold jobsMu.
func (s *Scheduler) addJob(schedule config.Schedule) error {
	if _, exists := s.jobs[schedule.Name]; exists {
		return fmt.Errorf("job %s already exists", schedule.Name)
	}

	job := jobFromSchedule(schedule)

	jobFunc := func() {
		s.logger.WithField("job", job.Name).Info("Executing scheduled job")
		job.LastRun = time.Now()

		if err := s.runner.RunJob(job); err != nil {
			s.logger.WithField("job", job.Name).WithError(err).Error("Job failed")
		}
	}

	id, err := s.cron.AddFunc(schedule.Schedule, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.jobs[schedule.Name] = id

	job.NextRun = s.cron.Entry(id).Next

	s.logger.WithFields(logrus.Fields{
		"job":      schedule.Name,
		"action":   schedule.Action,
		"next_run": job.NextRun,
	}).Info("Added job")
	return nil
}

// ListJobs returns the registered jobs in registration order. Next run
// times are only known once the scheduler has started.
func (s *Scheduler) ListJobs() []JobInfo {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, schedule := range s.schedules {
		id, ok := s.jobs[schedule.Name]
		if !ok {
			continue
		}
		entry := s.cron.Entry(id)
		jobs = append(jobs, JobInfo{
			Name:     schedule.Name,
			Schedule: schedule.Schedule,
			Action:   schedule.Action,
			NextRun:  entry.Next,
			PrevRun:  entry.Prev,
		})
	}

	return jobs
}

// TriggerJob runs a job immediately, outside its schedule
func (s *Scheduler) TriggerJob(name string) error {
	s.jobsMu.RLock()
	_, exists := s.jobs[name]
	var schedule config.Schedule
	for _, sched := range s.schedules {
		if sched.Name == name {
			schedule = sched
			break
		}
	}
	s.jobsMu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.logger.WithField("job", name).Info("Manually triggering job")
	return s.runner.RunJob(jobFromSchedule(schedule))
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name     string
	Schedule string
	Action   string
	NextRun  time.Time
	PrevRun  time.Time
}
