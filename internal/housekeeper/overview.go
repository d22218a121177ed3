package housekeeper

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Overview is the dashboard view of a root
type Overview struct {
	Root        string              `json:"root" yaml:"root"`
	Statistics  *Statistics         `json:"statistics" yaml:"statistics"`
	Details     *DetailedStatistics `json:"details" yaml:"details"`
	RecentFiles []FileRecord        `json:"recent_files" yaml:"recent_files"`
}

// Overview computes statistics, detailed statistics and the recentLimit
// newest files concurrently. Each part walks the tree on its own, so the
// result equals calling the three operations one after another.
func (h *Housekeeper) Overview(ctx context.Context, root string, rules *CategoryRules, recentLimit int) (*Overview, error) {
	if _, err := h.resolveRoot(root); err != nil {
		return nil, err
	}

	ov := &Overview{Root: root}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		stats, err := h.ComputeStatistics(root)
		ov.Statistics = stats
		return err
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		details, err := h.DetailedStatistics(root, rules)
		ov.Details = details
		return err
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		recent, err := h.ListFiles(root, recentLimit)
		ov.RecentFiles = recent
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ov, nil
}
