package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/dlkeeper/internal/housekeeper"
	"github.com/fenilsonani/dlkeeper/internal/platform"
	"github.com/fenilsonani/dlkeeper/internal/security"
)

// Config represents the application configuration
type Config struct {
	Root        string                 `yaml:"root"`
	Categories  []housekeeper.Category `yaml:"categories"`
	// ProtectedPaths are refused as roots in addition to system directories
	ProtectedPaths []string `yaml:"protected_paths,omitempty"`
	ListLimit   int                    `yaml:"list_limit"`
	SearchLimit int                    `yaml:"search_limit"`
	RecentDays  int                    `yaml:"recent_days"`
	PurgeDays   int                    `yaml:"purge_days"`
	Organize    OrganizeConfig         `yaml:"organize"`
	Log         LogConfig              `yaml:"log"`
	Daemon      *DaemonConfig          `yaml:"daemon,omitempty"`
}

// OrganizeConfig controls how files are moved into category folders
type OrganizeConfig struct {
	DuplicatePolicy string `yaml:"duplicate_policy"` // "skip" or "rename"
	NestedCategory  string `yaml:"nested_category"`
	DryRun          bool   `yaml:"dry_run"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty = stderr
}

// DaemonConfig holds daemon mode configuration
type DaemonConfig struct {
	PidFile   string     `yaml:"pid_file"`
	Schedules []Schedule `yaml:"schedules"`
}

// Schedule defines a scheduled housekeeping job
type Schedule struct {
	Name     string `yaml:"name"`
	Schedule string `yaml:"schedule"` // Cron expression
	Action   string `yaml:"action"`   // "organize" or "purge"
	Days     int    `yaml:"days"`     // purge only; 0 = purge_days
	DryRun   bool   `yaml:"dry_run"`
}

const (
	ActionOrganize = "organize"
	ActionPurge    = "purge"
)

// Load loads configuration from a file. Keys missing from the file keep
// their default values.
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.expandPaths(); err != nil {
		return nil, err
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) expandPaths() error {
	needsHome := strings.HasPrefix(c.Root, "~")
	if c.Daemon != nil && strings.HasPrefix(c.Daemon.PidFile, "~") {
		needsHome = true
	}
	for _, p := range c.ProtectedPaths {
		if strings.HasPrefix(p, "~") {
			needsHome = true
		}
	}
	if !needsHome {
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to expand home directory: %w", err)
	}

	c.Root = platform.ExpandHome(c.Root, homeDir)
	if c.Daemon != nil {
		c.Daemon.PidFile = platform.ExpandHome(c.Daemon.PidFile, homeDir)
	}
	for i, p := range c.ProtectedPaths {
		c.ProtectedPaths[i] = platform.ExpandHome(p, homeDir)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validator := security.NewPathValidator()
	for _, p := range c.ProtectedPaths {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("protected path must be absolute: %s", p)
		}
		validator.AddProtectedPath(p)
	}
	if err := validator.ValidateRoot(c.Root); err != nil {
		return fmt.Errorf("root: %w", err)
	}

	// Validate limits and windows
	if c.ListLimit < 0 {
		return fmt.Errorf("list_limit must be >= 0")
	}
	if c.SearchLimit < 0 {
		return fmt.Errorf("search_limit must be >= 0")
	}
	if c.RecentDays < 0 {
		return fmt.Errorf("recent_days must be >= 0")
	}
	if c.PurgeDays < 0 {
		return fmt.Errorf("purge_days must be >= 0")
	}

	if _, err := c.Rules(); err != nil {
		return fmt.Errorf("categories: %w", err)
	}

	switch housekeeper.DuplicatePolicy(c.Organize.DuplicatePolicy) {
	case "", housekeeper.DuplicateSkip, housekeeper.DuplicateRename:
	default:
		return fmt.Errorf("unknown duplicate_policy %q (want skip or rename)", c.Organize.DuplicatePolicy)
	}

	if strings.ContainsAny(c.Organize.NestedCategory, `/\`) {
		return fmt.Errorf("nested_category %q is not a valid folder name", c.Organize.NestedCategory)
	}

	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
	}

	if c.Daemon != nil {
		if err := c.Daemon.validate(); err != nil {
			return fmt.Errorf("daemon: %w", err)
		}
	}

	return nil
}

func (d *DaemonConfig) validate() error {
	names := make(map[string]bool, len(d.Schedules))
	for _, s := range d.Schedules {
		if s.Name == "" {
			return fmt.Errorf("schedule name must not be empty")
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate schedule %q", s.Name)
		}
		names[s.Name] = true

		if strings.TrimSpace(s.Schedule) == "" {
			return fmt.Errorf("schedule %q has no cron expression", s.Name)
		}
		if s.Action != ActionOrganize && s.Action != ActionPurge {
			return fmt.Errorf("schedule %q: unknown action %q (want organize or purge)", s.Name, s.Action)
		}
		if s.Days < 0 {
			return fmt.Errorf("schedule %q: days must be >= 0", s.Name)
		}
	}
	return nil
}

// Rules builds the category rule table
func (c *Config) Rules() (*housekeeper.CategoryRules, error) {
	if len(c.Categories) == 0 {
		return housekeeper.DefaultRules(), nil
	}
	return housekeeper.NewCategoryRules(c.Categories, housekeeper.FallbackCategory)
}

// HousekeeperOptions maps the configuration onto engine options.
// Logger and progress reporting are left to the caller.
func (c *Config) HousekeeperOptions() housekeeper.Options {
	return housekeeper.Options{
		RecentWindow:    housekeeper.DaysWindow(c.RecentDays),
		NestedCategory:  c.Organize.NestedCategory,
		DuplicatePolicy: housekeeper.DuplicatePolicy(c.Organize.DuplicatePolicy),
		DryRun:          c.Organize.DryRun,
	}
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	info, err := platform.GetInfo()
	if err != nil {
		return "", err
	}

	return filepath.Join(info.ConfigDir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	// Check if config exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(GetExampleConfig()), 0644); err != nil {
			return "", fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return configPath, nil
}
