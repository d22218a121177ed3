package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/dlkeeper/internal/config"
	"github.com/fenilsonani/dlkeeper/internal/daemon"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled organize and purge jobs",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the scheduler in the foreground until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadDaemonConfig()
		if err != nil {
			return err
		}

		if pid, err := daemon.ReadPID(cfg.Daemon.PidFile); err == nil && daemon.IsProcessRunning(pid) {
			return fmt.Errorf("daemon is already running (pid %d)", pid)
		}

		d, err := daemon.New(cfg)
		if err != nil {
			return fmt.Errorf("error creating daemon: %w", err)
		}

		fmt.Printf("Starting dlkeeper daemon for %s...\n", cfg.Root)
		return d.Start()
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon is running and when each job fires next",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadDaemonConfig()
		if err != nil {
			return err
		}

		pid, err := daemon.ReadPID(cfg.Daemon.PidFile)
		switch {
		case err == nil && daemon.IsProcessRunning(pid):
			fmt.Printf("Daemon running (pid %d)\n", pid)
		case err != nil && !errors.Is(err, os.ErrNotExist):
			fmt.Printf("Daemon status unknown: %v\n", err)
		default:
			fmt.Println("Daemon not running")
		}

		quiet := logrus.New()
		quiet.SetOutput(io.Discard)

		s := daemon.NewScheduler(idleRunner{}, cfg.Daemon.Schedules, quiet)
		if err := s.Start(); err != nil {
			return fmt.Errorf("invalid schedules: %w", err)
		}
		defer s.Stop()

		jobs := s.ListJobs()
		fmt.Printf("Schedules: %d\n", len(jobs))
		for _, job := range jobs {
			fmt.Printf("  - %-16s %-8s %-14s next: %s\n",
				job.Name, job.Action, job.Schedule, job.NextRun.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var daemonRunJobCmd = &cobra.Command{
	Use:   "run-job <name>",
	Short: "Run one configured job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadDaemonConfig()
		if err != nil {
			return err
		}

		d, err := daemon.New(cfg)
		if err != nil {
			return fmt.Errorf("error creating daemon: %w", err)
		}
		defer d.Close()

		s := d.Scheduler()
		if err := s.Start(); err != nil {
			return err
		}
		defer s.Stop()

		return s.TriggerJob(args[0])
	},
}

// idleRunner lets status read next run times without running anything
type idleRunner struct{}

func (idleRunner) RunJob(*daemon.Job) error { return nil }

func init() {
	daemonCmd.AddCommand(daemonStartCmd, daemonStatusCmd, daemonRunJobCmd)
}

func loadDaemonConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Daemon == nil || len(cfg.Daemon.Schedules) == 0 {
		return nil, fmt.Errorf(`no schedules configured; add them to your config file:

daemon:
  schedules:
    - name: nightly-organize
      schedule: "0 2 * * *"
      action: organize`)
	}

	return cfg, nil
}
