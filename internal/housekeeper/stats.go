package housekeeper

import (
	"math"
	"sort"

	"github.com/shirou/gopsutil/v3/disk"
)

// Statistics summarizes the tree under a root
type Statistics struct {
	TotalFiles       int     `json:"total_files" yaml:"total_files"`
	TotalSize        int64   `json:"total_size_bytes" yaml:"total_size_bytes"`
	RecentFiles      int     `json:"recent_files" yaml:"recent_files"`
	DiskUsagePercent float64 `json:"disk_usage_percent" yaml:"disk_usage_percent"`
}

// CategoryCount is the number of files classified into one category
type CategoryCount struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// ExtensionCount is the number of files carrying one extension
type ExtensionCount struct {
	Extension string `json:"extension" yaml:"extension"`
	Count     int    `json:"count" yaml:"count"`
}

// DetailedStatistics breaks the tree down by category and extension.
// PerCategory lists every category in rule order, zero counts included.
type DetailedStatistics struct {
	PerCategory   []CategoryCount  `json:"per_category" yaml:"per_category"`
	TopExtensions []ExtensionCount `json:"top_extensions" yaml:"top_extensions"`
}

// Count returns the file count recorded for category
func (d *DetailedStatistics) Count(category string) int {
	for _, c := range d.PerCategory {
		if c.Category == category {
			return c.Count
		}
	}
	return 0
}

// ComputeStatistics counts files and bytes under root, the files modified
// inside the recent window, and the used percentage of the root's volume.
func (h *Housekeeper) ComputeStatistics(root string) (*Statistics, error) {
	base, err := h.resolveRoot(root)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{}
	recentCutoff := h.now().Add(-h.recentWindow)

	h.walk(base, "stats", func(rec FileRecord) error {
		stats.TotalFiles++
		stats.TotalSize += rec.Size
		if rec.ModTime.After(recentCutoff) {
			stats.RecentFiles++
		}
		return nil
	})

	percent, err := h.diskUsage(base)
	if err != nil {
		h.log.WithField("path", base).Debugf("disk usage unavailable: %v", err)
		percent = 0
	}
	stats.DiskUsagePercent = clampPercent(percent)

	return stats, nil
}

// DetailedStatistics classifies every file under root with rules and
// tallies the most common extensions. Files without an extension are
// tallied under the empty extension.
func (h *Housekeeper) DetailedStatistics(root string, rules *CategoryRules) (*DetailedStatistics, error) {
	base, err := h.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = DefaultRules()
	}

	names := rules.Names()
	perCategory := make(map[string]int, len(names))
	extCounts := make(map[string]int)
	var extOrder []string

	h.walk(base, "details", func(rec FileRecord) error {
		ext := Extension(rec.Name)
		perCategory[rules.Classify(ext)]++

		if _, seen := extCounts[ext]; !seen {
			extOrder = append(extOrder, ext)
		}
		extCounts[ext]++
		return nil
	})

	details := &DetailedStatistics{
		PerCategory:   make([]CategoryCount, 0, len(names)),
		TopExtensions: make([]ExtensionCount, 0, len(extOrder)),
	}
	for _, name := range names {
		details.PerCategory = append(details.PerCategory, CategoryCount{Category: name, Count: perCategory[name]})
	}

	for _, ext := range extOrder {
		details.TopExtensions = append(details.TopExtensions, ExtensionCount{Extension: ext, Count: extCounts[ext]})
	}
	// Ties keep first-seen order
	sort.SliceStable(details.TopExtensions, func(i, j int) bool {
		return details.TopExtensions[i].Count > details.TopExtensions[j].Count
	})
	if len(details.TopExtensions) > TopExtensionsLimit {
		details.TopExtensions = details.TopExtensions[:TopExtensionsLimit]
	}

	return details, nil
}

// DiskUsagePercent returns the used percentage of the volume holding path,
// computed as (total-free)/total and rounded to one decimal.
func DiskUsagePercent(path string) (float64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	if usage.Total == 0 || usage.Free > usage.Total {
		return 0, nil
	}

	used := float64(usage.Total-usage.Free) / float64(usage.Total) * 100
	return roundTenth(used), nil
}

func clampPercent(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return roundTenth(p)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
