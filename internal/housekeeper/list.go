package housekeeper

import (
	"io/fs"
	"sort"
	"strings"
)

// ListFiles returns files under root ordered by modification time, newest
// first, truncated to limit. A limit of zero or less returns every file.
// Files with equal times keep traversal order.
func (h *Housekeeper) ListFiles(root string, limit int) ([]FileRecord, error) {
	base, err := h.resolveRoot(root)
	if err != nil {
		return nil, err
	}

	files := h.collect(base, "list")
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// SearchFiles returns files under root whose base name contains query,
// compared case-insensitively, in traversal order and truncated to limit.
// An empty query or a missing root yields an empty result.
func (h *Housekeeper) SearchFiles(root, query string, limit int) []FileRecord {
	matches := make([]FileRecord, 0)
	if query == "" {
		return matches
	}

	base, err := h.resolveRoot(root)
	if err != nil {
		h.log.WithField("root", root).Debugf("search skipped: %v", err)
		return matches
	}

	needle := strings.ToLower(query)
	h.walk(base, "search", func(rec FileRecord) error {
		if !strings.Contains(strings.ToLower(rec.Name), needle) {
			return nil
		}
		matches = append(matches, rec)
		if limit > 0 && len(matches) >= limit {
			return fs.SkipAll
		}
		return nil
	})

	return matches
}
