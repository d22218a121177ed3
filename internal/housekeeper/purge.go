package housekeeper

import "time"

// PurgeItem records one file that qualified for deletion
type PurgeItem struct {
	Path    string     `json:"path" yaml:"path"`
	Size    int64      `json:"size_bytes" yaml:"size_bytes"`
	ModTime time.Time  `json:"modified_time" yaml:"modified_time"`
	Deleted bool       `json:"deleted" yaml:"deleted"`
	Err     *ItemError `json:"error,omitempty" yaml:"error,omitempty"`
}

// PurgeResult aggregates a PurgeOlderThan sweep. Only successful deletions
// are counted; failures appear in Items alone.
type PurgeResult struct {
	Deleted    int         `json:"deleted_count" yaml:"deleted_count"`
	BytesFreed int64       `json:"bytes_freed" yaml:"bytes_freed"`
	Cutoff     time.Time   `json:"cutoff" yaml:"cutoff"`
	DryRun     bool        `json:"dry_run" yaml:"dry_run"`
	Items      []PurgeItem `json:"items" yaml:"items"`
}

// Failed returns the number of qualifying files that could not be deleted
func (r *PurgeResult) Failed() int {
	n := 0
	for _, item := range r.Items {
		if !item.Deleted {
			n++
		}
	}
	return n
}

// PurgeOlderThan permanently deletes every file under root modified before
// now minus days. Negative days are treated as zero and days beyond
// MaxDays as MaxDays. Deleting a file that is in use is retried with
// backoff; deletion failures are logged and skipped.
func (h *Housekeeper) PurgeOlderThan(root string, days int) (*PurgeResult, error) {
	base, err := h.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	cutoff := h.now().Add(-DaysWindow(days))

	var stale []FileRecord
	h.walk(base, "purge", func(rec FileRecord) error {
		if rec.ModTime.Before(cutoff) {
			stale = append(stale, rec)
		}
		return nil
	})

	result := &PurgeResult{
		Cutoff: cutoff,
		DryRun: h.dryRun,
		Items:  make([]PurgeItem, 0, len(stale)),
	}

	sw := h.startSweep("purge", len(stale))

	for _, rec := range stale {
		item := PurgeItem{Path: rec.Path, Size: rec.Size, ModTime: rec.ModTime}

		if !h.dryRun {
			err := h.retry("purge", rec.Path, func() error {
				return h.remove(rec.Path)
			})
			if err != nil {
				item.Err = CategorizeError(rec.Path, err)
				h.logItemError("purge", item.Err)
			}
		}

		if item.Err == nil {
			item.Deleted = true
			result.Deleted++
			result.BytesFreed += rec.Size
			sw.step(rec.Path, rec.Size, false)
		} else {
			sw.step(rec.Path, 0, true)
		}
		result.Items = append(result.Items, item)
	}

	sw.finish()
	return result, nil
}
