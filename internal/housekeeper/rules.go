package housekeeper

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FallbackCategory catches every extension no rule claims.
const FallbackCategory = "other"

// Category is a named bucket of lowercase extensions without a leading dot
type Category struct {
	Name       string   `json:"name" yaml:"name"`
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// CategoryRules is an ordered extension table. The first category listing
// an extension wins; unmatched extensions go to the fallback category.
type CategoryRules struct {
	categories []Category
	byExt      map[string]string
	fallback   string
}

// NewCategoryRules builds rules from categories in evaluation order.
// The fallback category is appended when not listed.
func NewCategoryRules(categories []Category, fallback string) (*CategoryRules, error) {
	if fallback == "" {
		fallback = FallbackCategory
	}

	rules := &CategoryRules{
		categories: make([]Category, 0, len(categories)+1),
		byExt:      make(map[string]string),
		fallback:   fallback,
	}

	seen := make(map[string]bool, len(categories))
	for _, cat := range categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("category name must not be empty")
		}
		if strings.ContainsAny(cat.Name, `/\`) || cat.Name == "." || cat.Name == ".." {
			return nil, fmt.Errorf("category name %q is not a valid folder name", cat.Name)
		}
		if seen[cat.Name] {
			return nil, fmt.Errorf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true

		exts := make([]string, 0, len(cat.Extensions))
		for _, ext := range cat.Extensions {
			if ext == "" || strings.HasPrefix(ext, ".") || ext != strings.ToLower(ext) {
				return nil, fmt.Errorf("category %q: extension %q must be lowercase without a leading dot", cat.Name, ext)
			}
			exts = append(exts, ext)
			if _, taken := rules.byExt[ext]; !taken {
				rules.byExt[ext] = cat.Name
			}
		}

		rules.categories = append(rules.categories, Category{Name: cat.Name, Extensions: exts})
	}

	if !seen[fallback] {
		rules.categories = append(rules.categories, Category{Name: fallback, Extensions: []string{}})
	}

	return rules, nil
}

// DefaultCategories returns the stock downloads rule table
func DefaultCategories() []Category {
	return []Category{
		{Name: "documents", Extensions: []string{"pdf", "doc", "docx", "txt", "rtf", "odt", "xls", "xlsx", "ppt", "pptx", "csv"}},
		{Name: "images", Extensions: []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "svg", "webp"}},
		{Name: "videos", Extensions: []string{"mp4", "avi", "mkv", "mov", "wmv", "flv", "webm", "m4v"}},
		{Name: "music", Extensions: []string{"mp3", "wav", "flac", "aac", "ogg", "wma", "m4a"}},
		{Name: "archives", Extensions: []string{"zip", "rar", "7z", "tar", "gz", "bz2"}},
		{Name: "executables", Extensions: []string{"exe", "msi", "dmg", "pkg", "deb", "rpm", "app"}},
		{Name: FallbackCategory, Extensions: []string{}},
	}
}

// DefaultRules returns rules built from DefaultCategories
func DefaultRules() *CategoryRules {
	rules, err := NewCategoryRules(DefaultCategories(), FallbackCategory)
	if err != nil {
		panic(err)
	}
	return rules
}

// Classify returns the category for a lowercase extension
func (r *CategoryRules) Classify(ext string) string {
	if cat, ok := r.byExt[ext]; ok {
		return cat
	}
	return r.fallback
}

// Names returns category names in evaluation order, fallback included
func (r *CategoryRules) Names() []string {
	names := make([]string, len(r.categories))
	for i, cat := range r.categories {
		names[i] = cat.Name
	}
	return names
}

// Categories returns a copy of the rule table
func (r *CategoryRules) Categories() []Category {
	out := make([]Category, len(r.categories))
	for i, cat := range r.categories {
		out[i] = Category{Name: cat.Name, Extensions: append([]string(nil), cat.Extensions...)}
	}
	return out
}

// Fallback returns the catch-all category name
func (r *CategoryRules) Fallback() string {
	return r.fallback
}

// Extension returns the lowercase extension of a file name without the
// dot, or "" when the name has none.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
