// Package housekeeper implements the downloads-folder housekeeping engine:
// tree statistics, listing and search, rule-based organization into
// category folders, and age-based purging.
//
// Every operation walks the root afresh; nothing is cached between calls.
// A missing root is the only error an operation returns. Failures scoped
// to a single file are recorded on that file's outcome, logged, and the
// walk continues.
package housekeeper

import (
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/dlkeeper/internal/progress"
)

const (
	// DefaultListLimit is the number of records ListFiles returns by default
	DefaultListLimit = 30
	// DefaultSearchLimit is the number of records SearchFiles returns by default
	DefaultSearchLimit = 15
	// DefaultRecentWindow decides which files count as recent in Statistics
	DefaultRecentWindow = 7 * 24 * time.Hour
	// DefaultNestedCategory gets one subfolder per extension when organizing
	DefaultNestedCategory = "documents"
	// TopExtensionsLimit caps DetailedStatistics.TopExtensions
	TopExtensionsLimit = 10
	// RetryAttempts bounds how often a move or delete of a file that is in
	// use is attempted
	RetryAttempts = 3
	// DefaultRetryDelay is the wait after the first in-use failure; it
	// doubles after each further failure
	DefaultRetryDelay = 500 * time.Millisecond
)

// MaxDays is the largest day count a time.Duration can hold
const MaxDays = int(math.MaxInt64 / int64(24*time.Hour))

var errNotDirectory = errors.New("not a directory")

// DaysWindow converts a day count to a duration. Negative counts become
// zero and counts above MaxDays are clamped so the result never wraps.
func DaysWindow(days int) time.Duration {
	if days <= 0 {
		return 0
	}
	if days > MaxDays {
		days = MaxDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// DuplicatePolicy decides what Organize does when the destination name is
// already taken.
type DuplicatePolicy string

const (
	// DuplicateSkip leaves the source where it is and counts a duplicate
	DuplicateSkip DuplicatePolicy = "skip"
	// DuplicateRename moves the source to the first free name_vN.ext
	DuplicateRename DuplicatePolicy = "rename"
)

// DiskUsageFunc reports the used percentage of the volume holding path
type DiskUsageFunc func(path string) (float64, error)

// FileRecord is a leaf file found under the root
type FileRecord struct {
	Name    string    `json:"name" yaml:"name"`
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size_bytes" yaml:"size_bytes"`
	ModTime time.Time `json:"modified_time" yaml:"modified_time"`
}

// Options configures a Housekeeper. Zero values select the defaults.
type Options struct {
	RecentWindow    time.Duration
	NestedCategory  string
	DuplicatePolicy DuplicatePolicy
	DryRun          bool
	RetryDelay      time.Duration

	Logger    logrus.FieldLogger
	Progress  *progress.Reporter
	Now       func() time.Time
	DiskUsage DiskUsageFunc
}

// Housekeeper runs housekeeping operations. It holds no per-root state and
// is safe for concurrent use by read-only operations.
type Housekeeper struct {
	recentWindow    time.Duration
	nestedCategory  string
	duplicatePolicy DuplicatePolicy
	dryRun          bool
	retryDelay      time.Duration

	log       logrus.FieldLogger
	progress  *progress.Reporter
	now       func() time.Time
	diskUsage DiskUsageFunc

	rename func(oldpath, newpath string) error
	remove func(path string) error
	sleep  func(time.Duration)
}

// New creates a Housekeeper
func New(opts Options) *Housekeeper {
	h := &Housekeeper{
		recentWindow:    opts.RecentWindow,
		nestedCategory:  opts.NestedCategory,
		duplicatePolicy: opts.DuplicatePolicy,
		dryRun:          opts.DryRun,
		retryDelay:      opts.RetryDelay,
		log:             opts.Logger,
		progress:        opts.Progress,
		now:             opts.Now,
		diskUsage:       opts.DiskUsage,
		rename:          os.Rename,
		remove:          os.Remove,
		sleep:           time.Sleep,
	}

	if h.recentWindow <= 0 {
		h.recentWindow = DefaultRecentWindow
	}
	if h.nestedCategory == "" {
		h.nestedCategory = DefaultNestedCategory
	}
	if h.duplicatePolicy == "" {
		h.duplicatePolicy = DuplicateSkip
	}
	if h.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		h.log = discard
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.diskUsage == nil {
		h.diskUsage = DiskUsagePercent
	}
	if h.retryDelay <= 0 {
		h.retryDelay = DefaultRetryDelay
	}

	return h
}

// DryRun reports whether mutating operations only simulate their effects
func (h *Housekeeper) DryRun() bool {
	return h.dryRun
}

// resolveRoot checks that root is an existing directory and returns the
// path to walk. A symlinked root is resolved so that paths produced by the
// walk and destinations computed by Organize share one prefix.
func (h *Housekeeper) resolveRoot(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", &NotFoundError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return "", &NotFoundError{Root: root, Err: errNotDirectory}
	}

	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", &NotFoundError{Root: root, Err: err}
	}

	return filepath.Clean(resolved), nil
}

// walk visits every regular file under base in lexical order. Directories
// that cannot be read and files whose metadata cannot be loaded are logged
// and skipped. Symlinks are never followed. visit may return fs.SkipAll to
// stop early.
func (h *Housekeeper) walk(base, op string, visit func(FileRecord) error) {
	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			h.logItemError(op, CategorizeError(path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			h.logItemError(op, CategorizeError(path, err))
			return nil
		}

		return visit(FileRecord{
			Name:    d.Name(),
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	})
}

// collect returns every regular file under base in traversal order
func (h *Housekeeper) collect(base, op string) []FileRecord {
	files := make([]FileRecord, 0, 64)
	h.walk(base, op, func(rec FileRecord) error {
		files = append(files, rec)
		return nil
	})
	return files
}

func (h *Housekeeper) logItemError(op string, err *ItemError) {
	if err == nil {
		return
	}
	h.log.WithFields(logrus.Fields{
		"op":     op,
		"path":   err.Path,
		"reason": err.Reason.String(),
	}).Debug(err.Original)
}

// retry runs fn until it succeeds, fails for a reason other than the file
// being in use, or RetryAttempts is reached.
func (h *Housekeeper) retry(op, path string, fn func() error) error {
	delay := h.retryDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || attempt == RetryAttempts {
			return err
		}
		if CategorizeError(path, err).Reason != ErrorFileInUse {
			return err
		}

		h.log.WithFields(logrus.Fields{
			"op":      op,
			"path":    path,
			"attempt": attempt,
			"wait":    delay,
		}).Debug("file in use, retrying")
		h.sleep(delay)
		delay *= 2
	}
}
