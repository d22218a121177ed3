package housekeeper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/dlkeeper/pkg/utils"
)

// Outcome is what happened to one file during Organize
type Outcome int

const (
	OutcomeMoved Outcome = iota
	OutcomeDuplicate
	OutcomeFailed
	OutcomeInPlace
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeFailed:
		return "failed"
	case OutcomeInPlace:
		return "in_place"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// OrganizeItem records the outcome for one file
type OrganizeItem struct {
	Source      string     `json:"source" yaml:"source"`
	Destination string     `json:"destination" yaml:"destination"`
	Category    string     `json:"category" yaml:"category"`
	Outcome     Outcome    `json:"outcome" yaml:"outcome"`
	Renamed     bool       `json:"renamed,omitempty" yaml:"renamed,omitempty"`
	Identical   bool       `json:"identical,omitempty" yaml:"identical,omitempty"`
	Err         *ItemError `json:"error,omitempty" yaml:"error,omitempty"`
}

// OrganizeResult aggregates an Organize sweep. InPlace items count toward
// none of the counters.
type OrganizeResult struct {
	Organized  int            `json:"organized_count" yaml:"organized_count"`
	Duplicates int            `json:"duplicate_count" yaml:"duplicate_count"`
	Errors     int            `json:"error_count" yaml:"error_count"`
	DryRun     bool           `json:"dry_run" yaml:"dry_run"`
	Items      []OrganizeItem `json:"items" yaml:"items"`
}

func (r *OrganizeResult) add(item OrganizeItem) {
	switch item.Outcome {
	case OutcomeMoved:
		r.Organized++
	case OutcomeDuplicate:
		r.Duplicates++
	case OutcomeFailed:
		r.Errors++
	}
	r.Items = append(r.Items, item)
}

// claims tracks paths taken and freed during a sweep so that a dry run
// resolves collisions the same way a real run would.
type claims struct {
	taken   map[string]bool
	vacated map[string]bool
}

func newClaims() *claims {
	return &claims{
		taken:   make(map[string]bool),
		vacated: make(map[string]bool),
	}
}

func (c *claims) move(src, dst string) {
	c.taken[dst] = true
	delete(c.vacated, dst)
	delete(c.taken, src)
	c.vacated[src] = true
}

// Organize moves every file under root into root/<category>, adding an
// extension subfolder for the nested category. An occupied destination is
// never overwritten: depending on the duplicate policy the file is left in
// place and counted as a duplicate, or moved to the first free
// name_vN.ext. Files are collected first and then processed in traversal
// order, so the first file to reach a destination claims it. A move that
// fails because the file is in use is retried with backoff.
func (h *Housekeeper) Organize(root string, rules *CategoryRules) (*OrganizeResult, error) {
	base, err := h.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = DefaultRules()
	}

	files := h.collect(base, "organize")
	result := &OrganizeResult{
		DryRun: h.dryRun,
		Items:  make([]OrganizeItem, 0, len(files)),
	}

	sw := h.startSweep("organize", len(files))
	plan := newClaims()

	for _, rec := range files {
		item := h.organizeFile(base, rec, rules, plan)
		if item.Err != nil {
			h.logItemError("organize", item.Err)
		}
		result.add(item)

		var moved int64
		if item.Outcome == OutcomeMoved {
			moved = rec.Size
		}
		sw.step(rec.Path, moved, item.Outcome == OutcomeFailed)
	}

	sw.finish()
	return result, nil
}

// Destination returns the path Organize would move a file named name to
func (h *Housekeeper) Destination(root, name string, rules *CategoryRules) (dir, category string) {
	if rules == nil {
		rules = DefaultRules()
	}
	ext := Extension(name)
	category = rules.Classify(ext)
	dir = filepath.Join(root, category)
	if category == h.nestedCategory && ext != "" {
		dir = filepath.Join(dir, ext)
	}
	return dir, category
}

func (h *Housekeeper) organizeFile(base string, rec FileRecord, rules *CategoryRules, plan *claims) OrganizeItem {
	destDir, category := h.Destination(base, rec.Name, rules)
	dest := filepath.Join(destDir, rec.Name)

	item := OrganizeItem{
		Source:      rec.Path,
		Destination: dest,
		Category:    category,
	}

	if dest == rec.Path {
		item.Outcome = OutcomeInPlace
		return item
	}

	if err := h.ensureDir(destDir); err != nil {
		item.Outcome = OutcomeFailed
		item.Err = &ItemError{Path: destDir, Reason: ErrorCreateDirFailed, Original: err}
		return item
	}

	taken, onDisk, err := h.occupied(dest, plan)
	if err != nil {
		item.Outcome = OutcomeFailed
		item.Err = CategorizeError(dest, err)
		return item
	}

	if taken {
		if h.duplicatePolicy != DuplicateRename {
			item.Outcome = OutcomeDuplicate
			if onDisk {
				item.Identical = h.identical(rec.Path, dest)
			}
			return item
		}

		free, err := h.freeName(destDir, rec.Name, plan)
		if err != nil {
			item.Outcome = OutcomeFailed
			item.Err = CategorizeError(dest, err)
			return item
		}
		dest = free
		item.Destination = free
		item.Renamed = true
	}

	if !h.dryRun {
		err := h.retry("organize", rec.Path, func() error {
			return h.rename(rec.Path, dest)
		})
		if err != nil {
			item.Outcome = OutcomeFailed
			item.Err = CategorizeError(rec.Path, err)
			return item
		}
	}

	plan.move(rec.Path, dest)
	item.Outcome = OutcomeMoved
	return item
}

// ensureDir creates dir and its parents. A dry run only checks that no
// non-directory is in the way.
func (h *Housekeeper) ensureDir(dir string) error {
	if !h.dryRun {
		return os.MkdirAll(dir, 0755)
	}

	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		return &os.PathError{Op: "mkdir", Path: dir, Err: errNotDirectory}
	}
	return nil
}

// occupied reports whether path is taken, either on disk or by an earlier
// move planned in this sweep.
func (h *Housekeeper) occupied(path string, plan *claims) (taken, onDisk bool, err error) {
	if plan.taken[path] {
		return true, false, nil
	}
	if plan.vacated[path] {
		return false, false, nil
	}

	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, true, nil
}

// freeName returns the first unoccupied stem_vN.ext in dir
func (h *Housekeeper) freeName(dir, name string, plan *claims) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_v%d%s", stem, n, ext))
		taken, _, err := h.occupied(candidate, plan)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

func (h *Housekeeper) identical(a, b string) bool {
	same, err := utils.SameContent(a, b)
	if err != nil {
		h.logItemError("organize", CategorizeError(b, err))
		return false
	}
	return same
}
