package config

import (
	"path/filepath"

	"github.com/fenilsonani/dlkeeper/internal/housekeeper"
	"github.com/fenilsonani/dlkeeper/internal/platform"
)

// GetDefault returns the default configuration
func GetDefault() *Config {
	root := ""
	pidFile := filepath.Join("/tmp", platform.AppName+".pid")
	if info, err := platform.GetInfo(); err == nil {
		root = info.DownloadsDir
		pidFile = filepath.Join(info.ConfigDir, platform.AppName+".pid")
	}

	return &Config{
		Root:        root,
		Categories:  housekeeper.DefaultCategories(),
		ListLimit:   housekeeper.DefaultListLimit,
		SearchLimit: housekeeper.DefaultSearchLimit,
		RecentDays:  7,
		PurgeDays:   30,
		Organize: OrganizeConfig{
			DuplicatePolicy: string(housekeeper.DuplicateSkip), // never move onto an existing name
			NestedCategory:  housekeeper.DefaultNestedCategory,
			DryRun:          false,
		},
		Log: LogConfig{
			Level: "info",
		},
		Daemon: &DaemonConfig{
			PidFile:   pidFile,
			Schedules: []Schedule{},
		},
	}
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# dlkeeper configuration file
# Location: ~/.config/dlkeeper/config.yaml

# Folder under housekeeping
root: "~/Downloads"

# Extra folders that may never be used as root (system folders are
# always refused)
protected_paths: []

# Category rules, evaluated in order. The first category listing an
# extension wins. Extensions are lowercase without the leading dot.
# Anything unmatched goes to "other", which is appended when missing.
categories:
  - name: documents
    extensions: [pdf, doc, docx, txt, rtf, odt, xls, xlsx, ppt, pptx, csv]
  - name: images
    extensions: [jpg, jpeg, png, gif, bmp, tiff, svg, webp]
  - name: videos
    extensions: [mp4, avi, mkv, mov, wmv, flv, webm, m4v]
  - name: music
    extensions: [mp3, wav, flac, aac, ogg, wma, m4a]
  - name: archives
    extensions: [zip, rar, 7z, tar, gz, bz2]
  - name: executables
    extensions: [exe, msi, dmg, pkg, deb, rpm, app]
  - name: other
    extensions: []

# Default result limits (0 = unlimited)
list_limit: 30
search_limit: 15

# Files modified within this many days count as recent
recent_days: 7

# Default age threshold for purge, in days
purge_days: 30

organize:
  # What to do when the destination name is taken:
  #   skip   - leave the file where it is and count a duplicate
  #   rename - move it to name_v1.ext, name_v2.ext, ...
  duplicate_policy: skip
  # Files in this category get one subfolder per extension
  nested_category: documents
  # Report what would move without touching anything
  dry_run: false

log:
  level: info   # trace, debug, info, warn, error
  file: ""      # empty logs to stderr

# Scheduled housekeeping (dlkeeper daemon start)
daemon:
  pid_file: "~/.config/dlkeeper/dlkeeper.pid"
  schedules:
    - name: nightly-organize
      schedule: "0 2 * * *"
      action: organize
      dry_run: false
    - name: weekly-purge
      schedule: "0 3 * * 0"
      action: purge
      days: 60
      dry_run: false
`
}
