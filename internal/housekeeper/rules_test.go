package housekeeper

import (
	"reflect"
	"testing"
)

func TestDefaultRulesClassify(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		ext  string
		want string
	}{
		{"pdf", "documents"},
		{"csv", "documents"},
		{"jpeg", "images"},
		{"webp", "images"},
		{"mkv", "videos"},
		{"flac", "music"},
		{"7z", "archives"},
		{"gz", "archives"},
		{"dmg", "executables"},
		{"xyz", "other"},
		{"", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := rules.Classify(tt.ext); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestDefaultRulesNames(t *testing.T) {
	want := []string{"documents", "images", "videos", "music", "archives", "executables", "other"}
	if got := DefaultRules().Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestNewCategoryRules(t *testing.T) {
	t.Run("first category wins", func(t *testing.T) {
		rules, err := NewCategoryRules([]Category{
			{Name: "ebooks", Extensions: []string{"pdf", "epub"}},
			{Name: "documents", Extensions: []string{"pdf", "txt"}},
		}, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := rules.Classify("pdf"); got != "ebooks" {
			t.Errorf("Classify(pdf) = %q, want ebooks", got)
		}
		if got := rules.Classify("txt"); got != "documents" {
			t.Errorf("Classify(txt) = %q, want documents", got)
		}
	})

	t.Run("fallback appended", func(t *testing.T) {
		rules, err := NewCategoryRules([]Category{{Name: "images", Extensions: []string{"png"}}}, "misc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := rules.Names(); !reflect.DeepEqual(got, []string{"images", "misc"}) {
			t.Errorf("Names() = %v", got)
		}
		if rules.Fallback() != "misc" {
			t.Errorf("Fallback() = %q", rules.Fallback())
		}
		if got := rules.Classify("jpg"); got != "misc" {
			t.Errorf("Classify(jpg) = %q, want misc", got)
		}
	})

	t.Run("fallback not duplicated", func(t *testing.T) {
		rules, err := NewCategoryRules(DefaultCategories(), FallbackCategory)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := len(rules.Names()); n != 7 {
			t.Errorf("expected 7 categories, got %d", n)
		}
	})

	invalid := []struct {
		name       string
		categories []Category
	}{
		{"empty name", []Category{{Name: ""}}},
		{"slash in name", []Category{{Name: "a/b"}}},
		{"dot dot name", []Category{{Name: ".."}}},
		{"duplicate name", []Category{{Name: "a"}, {Name: "a"}}},
		{"dotted extension", []Category{{Name: "a", Extensions: []string{".pdf"}}}},
		{"uppercase extension", []Category{{Name: "a", Extensions: []string{"PDF"}}}},
		{"empty extension", []Category{{Name: "a", Extensions: []string{""}}}},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCategoryRules(tt.categories, ""); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCategoriesReturnsCopy(t *testing.T) {
	rules := DefaultRules()
	cats := rules.Categories()
	cats[0].Extensions[0] = "changed"

	if rules.Categories()[0].Extensions[0] != "pdf" {
		t.Error("Categories() should not expose internal slices")
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.pdf", "pdf"},
		{"PHOTO.JPG", "jpg"},
		{"archive.tar.gz", "gz"},
		{"README", ""},
		{"trailing.", ""},
	}

	for _, tt := range tests {
		if got := Extension(tt.name); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
