package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/dlkeeper/internal/config"
	"github.com/fenilsonani/dlkeeper/internal/housekeeper"
	"github.com/fenilsonani/dlkeeper/internal/platform"
	"github.com/fenilsonani/dlkeeper/internal/progress"
	"github.com/fenilsonani/dlkeeper/internal/reporter"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath   string
	rootDir      string
	outputFmt    string
	outputFile   string
	logLevel     string
	verbose      bool
	dryRun       bool
	force        bool
	showProgress bool
	limit        int
	days         int
	policy       string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dlkeeper",
	Short: "Keep your downloads folder tidy",
	Long: `dlkeeper reports on, searches, organizes and purges the files in your
downloads folder. Organize sorts files into category folders by extension;
purge deletes files that have not been modified for a number of days.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show file count, total size, recent files and disk usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		hk, done := newHousekeeper(cfg)
		defer done()

		stats, err := hk.ComputeStatistics(cfg.Root)
		if err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}

		return report(func(r *reporter.Reporter) error {
			return r.Statistics(cfg.Root, stats)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently modified files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		hk, done := newHousekeeper(cfg)
		defer done()

		n := cfg.ListLimit
		if cmd.Flags().Changed("limit") {
			n = limit
		}

		files, err := hk.ListFiles(cfg.Root, n)
		if err != nil {
			return fmt.Errorf("list failed: %w", err)
		}

		return report(func(r *reporter.Reporter) error {
			return r.Files("Recent Files", files)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find files whose name contains query (case-insensitive)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		hk, done := newHousekeeper(cfg)
		defer done()

		n := cfg.SearchLimit
		if cmd.Flags().Changed("limit") {
			n = limit
		}

		files := hk.SearchFiles(cfg.Root, args[0], n)

		return report(func(r *reporter.Reporter) error {
			return r.Files(fmt.Sprintf("Search: %q", args[0]), files)
		})
	},
}

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Sort every file under the root into category folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rules, err := cfg.Rules()
		if err != nil {
			return err
		}
		hk, done := newHousekeeper(cfg)

		result, err := hk.Organize(cfg.Root, rules)
		done()
		if err != nil {
			return fmt.Errorf("organize failed: %w", err)
		}

		return report(func(r *reporter.Reporter) error {
			return r.Organize(result)
		})
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete files not modified within the last N days",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		n := cfg.PurgeDays
		if cmd.Flags().Changed("days") {
			n = days
		}

		hk, done := newHousekeeper(cfg)

		// Confirm if not force mode
		if !force && !hk.DryRun() {
			fmt.Printf("Delete every file under %s not modified in the last %d days? (y/N): ", cfg.Root, n)
			var response string
			fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				done()
				fmt.Println("Purge cancelled")
				return nil
			}
		}

		result, err := hk.PurgeOlderThan(cfg.Root, n)
		done()
		if err != nil {
			return fmt.Errorf("purge failed: %w", err)
		}

		return report(func(r *reporter.Reporter) error {
			return r.Purge(result)
		})
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details",
	Short: "Show per-category counts and the most common extensions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rules, err := cfg.Rules()
		if err != nil {
			return err
		}
		hk, done := newHousekeeper(cfg)
		defer done()

		details, err := hk.DetailedStatistics(cfg.Root, rules)
		if err != nil {
			return fmt.Errorf("details failed: %w", err)
		}

		return report(func(r *reporter.Reporter) error {
			return r.Details(details)
		})
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show statistics, category breakdown and recent files together",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rules, err := cfg.Rules()
		if err != nil {
			return err
		}
		hk, done := newHousekeeper(cfg)
		defer done()

		n := cfg.ListLimit
		if cmd.Flags().Changed("limit") {
			n = limit
		}

		ov, err := hk.Overview(context.Background(), cfg.Root, rules, n)
		if err != nil {
			return fmt.Errorf("overview failed: %w", err)
		}

		return report(func(r *reporter.Reporter) error {
			return r.Overview(ov)
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n", path)
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration file if none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.EnsureConfigExists()
		if err != nil {
			return err
		}
		fmt.Printf("Configuration file: %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configSetRootCmd = &cobra.Command{
	Use:   "set-root <dir>",
	Short: "Store a new downloads folder in the configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		home, _ := os.UserHomeDir()
		root, err := filepath.Abs(platform.ExpandHome(args[0], home))
		if err != nil {
			return fmt.Errorf("invalid root: %w", err)
		}
		cfg.Root = root
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := config.Save(cfg, path); err != nil {
			return err
		}
		fmt.Printf("Root set to %s in %s\n", root, path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is platform config dir)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "downloads folder to operate on (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "summary", "output format (summary, table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFile, "save", "", "write the report to a file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	listCmd.Flags().IntVarP(&limit, "limit", "n", housekeeper.DefaultListLimit, "maximum number of files (0 = no limit)")
	searchCmd.Flags().IntVarP(&limit, "limit", "n", housekeeper.DefaultSearchLimit, "maximum number of matches (0 = no limit)")
	overviewCmd.Flags().IntVarP(&limit, "limit", "n", housekeeper.DefaultListLimit, "maximum number of recent files (0 = no limit)")

	for _, cmd := range []*cobra.Command{organizeCmd, purgeCmd} {
		cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would happen without touching any file")
		cmd.Flags().BoolVar(&showProgress, "progress", false, "print sweep progress to stderr")
	}
	organizeCmd.Flags().StringVar(&policy, "policy", "", "what to do when the destination exists (skip, rename)")
	purgeCmd.Flags().IntVarP(&days, "days", "d", 30, "delete files older than this many days")
	purgeCmd.Flags().BoolVarP(&force, "force", "f", false, "don't ask for confirmation")

	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd, configSetRootCmd)

	rootCmd.AddCommand(
		statsCmd,
		listCmd,
		searchCmd,
		organizeCmd,
		purgeCmd,
		detailsCmd,
		overviewCmd,
		configCmd,
		daemonCmd,
	)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

// loadConfig loads the config file and applies command-line overrides
func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	changed := false
	if rootDir != "" {
		home, _ := os.UserHomeDir()
		root, err := filepath.Abs(platform.ExpandHome(rootDir, home))
		if err != nil {
			return nil, fmt.Errorf("invalid root: %w", err)
		}
		cfg.Root = root
		changed = true
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		changed = true
	}
	if policy != "" {
		cfg.Organize.DuplicatePolicy = policy
		changed = true
	}
	if dryRun {
		cfg.Organize.DryRun = true
	}

	if changed {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// newLogger builds the CLI logger. Verbose lowers the level to debug so
// skipped entries and per-file failures are shown.
func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	level := logrus.WarnLevel
	if cfg.Log.Level != "" {
		if parsed, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
			level = parsed
		}
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	return logger
}

// newHousekeeper creates the engine for the current command. The returned
// function stops progress printing and must be called once the operation
// has finished.
func newHousekeeper(cfg *config.Config) (*housekeeper.Housekeeper, func()) {
	opts := cfg.HousekeeperOptions()
	opts.Logger = newLogger(cfg)

	if !showProgress {
		return housekeeper.New(opts), func() {}
	}

	progressReporter := progress.NewReporter()
	opts.Progress = progressReporter
	updates := progressReporter.Subscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		last := 0
		for update := range updates {
			line := progress.Format(update)
			pad := ""
			if n := last - len(line); n > 0 {
				pad = strings.Repeat(" ", n)
			}
			fmt.Fprintf(os.Stderr, "\r%s%s", line, pad)
			last = len(line)
		}
		if last > 0 {
			fmt.Fprintln(os.Stderr)
		}
	}()

	var once sync.Once
	return housekeeper.New(opts), func() {
		once.Do(func() {
			progressReporter.Unsubscribe(updates)
			wg.Wait()
		})
	}
}

// report renders a result to stdout or to the --save file
func report(render func(*reporter.Reporter) error) error {
	format, err := reporter.ParseFormat(outputFmt)
	if err != nil {
		return err
	}

	if outputFile != "" {
		if err := reporter.SaveToFile(outputFile, format, render); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Printf("Report saved to %s\n", outputFile)
		return nil
	}

	return render(reporter.New(os.Stdout, format).WithVerbose(verbose))
}
