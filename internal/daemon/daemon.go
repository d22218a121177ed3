// Package daemon runs scheduled housekeeping jobs in the background.
package daemon

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/dlkeeper/internal/config"
	"github.com/fenilsonani/dlkeeper/internal/housekeeper"
)

// Daemon represents the housekeeping daemon
type Daemon struct {
	config      *config.Config
	rules       *housekeeper.CategoryRules
	scheduler   *Scheduler
	logger      *logrus.Logger
	logCloser   io.Closer
	closeOnce   sync.Once
	running     bool
	shutdownCtx context.Context
	cancelFunc  context.CancelFunc
	mu          sync.RWMutex

	// jobMu keeps two jobs from sweeping the root at the same time
	jobMu sync.Mutex
}

// New creates a new daemon instance
func New(cfg *config.Config) (*Daemon, error) {
	if cfg.Daemon == nil || len(cfg.Daemon.Schedules) == 0 {
		return nil, fmt.Errorf("no schedules configured")
	}

	rules, err := cfg.Rules()
	if err != nil {
		return nil, fmt.Errorf("invalid categories: %w", err)
	}

	logger, closer, err := NewLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Create context for shutdown
	ctx, cancel := context.WithCancel(context.Background())

	daemon := &Daemon{
		config:      cfg,
		rules:       rules,
		logger:      logger,
		logCloser:   closer,
		shutdownCtx: ctx,
		cancelFunc:  cancel,
	}

	daemon.scheduler = NewScheduler(daemon, cfg.Daemon.Schedules, logger)

	return daemon, nil
}

// Start runs the daemon until Stop is called or a shutdown signal arrives
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()
	defer d.Close()

	d.logger.WithField("root", d.config.Root).Info("Starting housekeeping daemon")

	pidFile := NewPIDFile(d.config.Daemon.PidFile)
	if err := pidFile.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer pidFile.Release()

	stopSignals := d.setupSignalHandlers()
	defer stopSignals()

	if err := d.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer d.scheduler.Stop()

	d.logger.Info("Daemon started successfully")

	// Wait for shutdown signal
	<-d.shutdownCtx.Done()

	d.logger.Info("Daemon shutting down")
	return nil
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	if d.cancelFunc != nil {
		d.cancelFunc()
	}
}

// Close releases the daemon's log file. It is safe to call more than once.
func (d *Daemon) Close() error {
	var err error
	d.closeOnce.Do(func() {
		if d.logCloser != nil {
			err = d.logCloser.Close()
		}
	})
	return err
}

// IsRunning returns whether the daemon is running
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Scheduler returns the daemon's job scheduler
func (d *Daemon) Scheduler() *Scheduler {
	return d.scheduler
}

// RunJob executes one housekeeping job against the configured root
func (d *Daemon) RunJob(job *Job) error {
	d.jobMu.Lock()
	defer d.jobMu.Unlock()

	log := d.logger.WithFields(logrus.Fields{
		"job":    job.Name,
		"action": job.Action,
		"root":   d.config.Root,
	})
	log.Info("Running housekeeping job")
	startTime := time.Now()

	opts := d.config.HousekeeperOptions()
	opts.DryRun = opts.DryRun || job.DryRun
	opts.Logger = log
	hk := housekeeper.New(opts)

	switch job.Action {
	case config.ActionOrganize:
		result, err := hk.Organize(d.config.Root, d.rules)
		if err != nil {
			log.WithError(err).Error("Organize failed")
			return fmt.Errorf("organize failed: %w", err)
		}
		log.WithFields(logrus.Fields{
			"organized":  result.Organized,
			"duplicates": result.Duplicates,
			"errors":     result.Errors,
			"dry_run":    result.DryRun,
			"duration":   time.Since(startTime).Round(time.Millisecond),
		}).Info("Organize job completed")

	case config.ActionPurge:
		days := job.Days
		if days == 0 {
			days = d.config.PurgeDays
		}
		result, err := hk.PurgeOlderThan(d.config.Root, days)
		if err != nil {
			log.WithError(err).Error("Purge failed")
			return fmt.Errorf("purge failed: %w", err)
		}
		log.WithFields(logrus.Fields{
			"days":        days,
			"deleted":     result.Deleted,
			"bytes_freed": result.BytesFreed,
			"failed":      result.Failed(),
			"dry_run":     result.DryRun,
			"duration":    time.Since(startTime).Round(time.Millisecond),
		}).Info("Purge job completed")

	default:
		return fmt.Errorf("unknown action %q", job.Action)
	}

	return nil
}

// setupSignalHandlers stops the daemon on SIGINT/SIGTERM. The returned
// function detaches the handlers.
func (d *Daemon) setupSignalHandlers() func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			d.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
			d.Stop()
		case <-d.shutdownCtx.Done():
		}
	}()

	return func() { signal.Stop(sigChan) }
}
