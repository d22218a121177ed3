package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/dlkeeper/internal/housekeeper"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestReporter(format OutputFormat) (*Reporter, *bytes.Buffer) {
	var buf bytes.Buffer
	r := New(&buf, format)
	r.now = func() time.Time { return fixedTime }
	return r, &buf
}

func sampleFiles() []housekeeper.FileRecord {
	return []housekeeper.FileRecord{
		{Name: "report.pdf", Path: "/dl/report.pdf", Size: 12_939_428, ModTime: fixedTime},
		{Name: "photo.jpg", Path: "/dl/photo.jpg", Size: 512, ModTime: fixedTime.Add(-time.Hour)},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"table", FormatTable, false},
		{"summary", FormatSummary, false},
		{"", FormatSummary, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatisticsJSON(t *testing.T) {
	r, buf := newTestReporter(FormatJSON)
	stats := &housekeeper.Statistics{TotalFiles: 3, TotalSize: 2048, RecentFiles: 1, DiskUsagePercent: 42.5}

	if err := r.Statistics("/dl", stats); err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if got["total_files"] != float64(3) {
		t.Errorf("total_files = %v", got["total_files"])
	}
	if got["total_size_bytes"] != float64(2048) {
		t.Errorf("total_size_bytes = %v", got["total_size_bytes"])
	}
	if got["total_size_formatted"] != "2.00 KB" {
		t.Errorf("total_size_formatted = %v", got["total_size_formatted"])
	}
	if got["disk_usage_percent"] != 42.5 {
		t.Errorf("disk_usage_percent = %v", got["disk_usage_percent"])
	}
	if got["root"] != "/dl" {
		t.Errorf("root = %v", got["root"])
	}
	if got["timestamp"] != "2024-05-01T12:00:00Z" {
		t.Errorf("timestamp = %v", got["timestamp"])
	}
}

func TestStatisticsSummary(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)
	stats := &housekeeper.Statistics{TotalFiles: 7, TotalSize: 12_939_428, RecentFiles: 2, DiskUsagePercent: 61.3}

	if err := r.Statistics("/dl", stats); err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Downloads Statistics", "Total files", "7", "12.34 MB", "61.3%"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFilesTable(t *testing.T) {
	r, buf := newTestReporter(FormatTable)

	if err := r.Files("Recent Files", sampleFiles()); err != nil {
		t.Fatalf("Files: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"/dl/report.pdf", "12.34 MB", "512 B", "Total: 2 files"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestFilesEmpty(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)

	if err := r.Files("Search Results", nil); err != nil {
		t.Fatalf("Files: %v", err)
	}
	if !strings.Contains(buf.String(), "No files found") {
		t.Errorf("expected empty notice, got:\n%s", buf.String())
	}
}

func TestFilesJSON(t *testing.T) {
	r, buf := newTestReporter(FormatJSON)

	if err := r.Files("Recent Files", sampleFiles()); err != nil {
		t.Fatalf("Files: %v", err)
	}

	var got struct {
		Count int `json:"count"`
		Files []struct {
			Name          string `json:"name"`
			Path          string `json:"path"`
			SizeBytes     int64  `json:"size_bytes"`
			SizeFormatted string `json:"size_formatted"`
		} `json:"files"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if got.Count != 2 || len(got.Files) != 2 {
		t.Fatalf("expected 2 files, got %+v", got)
	}
	if got.Files[0].Name != "report.pdf" || got.Files[0].SizeBytes != 12_939_428 {
		t.Errorf("unexpected first file: %+v", got.Files[0])
	}
	if got.Files[0].SizeFormatted != "12.34 MB" {
		t.Errorf("size_formatted = %q", got.Files[0].SizeFormatted)
	}
}

func TestDetailsSummary(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)
	details := &housekeeper.DetailedStatistics{
		PerCategory:   []housekeeper.CategoryCount{{Category: "documents", Count: 1}, {Category: "other", Count: 2}},
		TopExtensions: []housekeeper.ExtensionCount{{Extension: "pdf", Count: 1}, {Extension: "", Count: 1}},
	}

	if err := r.Details(details); err != nil {
		t.Fatalf("Details: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"documents", "other", ".pdf", "(none)"} {
		if !strings.Contains(out, want) {
			t.Errorf("details missing %q:\n%s", want, out)
		}
	}
}

func TestOrganizeYAML(t *testing.T) {
	r, buf := newTestReporter(FormatYAML)
	res := &housekeeper.OrganizeResult{
		Organized:  1,
		Duplicates: 1,
		Errors:     1,
		Items: []housekeeper.OrganizeItem{
			{Source: "/dl/a.pdf", Destination: "/dl/documents/pdf/a.pdf", Category: "documents", Outcome: housekeeper.OutcomeMoved},
			{Source: "/dl/b.jpg", Destination: "/dl/images/b.jpg", Category: "images", Outcome: housekeeper.OutcomeDuplicate, Identical: true},
			{
				Source: "/dl/c.mp3", Destination: "/dl/music/c.mp3", Category: "music", Outcome: housekeeper.OutcomeFailed,
				Err: &housekeeper.ItemError{Path: "/dl/c.mp3", Reason: housekeeper.ErrorPermissionDenied, Original: syscall.EACCES},
			},
		},
	}

	if err := r.Organize(res); err != nil {
		t.Fatalf("Organize: %v", err)
	}

	var got struct {
		Organized  int `yaml:"organized_count"`
		Duplicates int `yaml:"duplicate_count"`
		Errors     int `yaml:"error_count"`
		Items      []struct {
			Outcome   string `yaml:"outcome"`
			Identical bool   `yaml:"identical"`
			Error     string `yaml:"error"`
		} `yaml:"items"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}

	if got.Organized != 1 || got.Duplicates != 1 || got.Errors != 1 {
		t.Errorf("unexpected counts: %+v", got)
	}
	if len(got.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got.Items))
	}
	if got.Items[0].Outcome != "moved" || got.Items[1].Outcome != "duplicate" || got.Items[2].Outcome != "failed" {
		t.Errorf("unexpected outcomes: %+v", got.Items)
	}
	if !got.Items[1].Identical {
		t.Error("expected identical flag on duplicate")
	}
	if !strings.Contains(got.Items[2].Error, "Permission denied") {
		t.Errorf("error = %q", got.Items[2].Error)
	}
}

func TestOrganizeSummaryVerbose(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)
	r.WithVerbose(true)
	res := &housekeeper.OrganizeResult{
		Organized: 1,
		DryRun:    true,
		Items: []housekeeper.OrganizeItem{
			{Source: "/dl/a.pdf", Destination: "/dl/documents/pdf/a_v1.pdf", Outcome: housekeeper.OutcomeMoved, Renamed: true},
		},
	}

	if err := r.Organize(res); err != nil {
		t.Fatalf("Organize: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"[DRY RUN]", "Organized", "/dl/a.pdf", "a_v1.pdf", "renamed"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPurgeJSON(t *testing.T) {
	r, buf := newTestReporter(FormatJSON)
	res := &housekeeper.PurgeResult{
		Deleted:    1,
		BytesFreed: 1536,
		Cutoff:     fixedTime,
		Items: []housekeeper.PurgeItem{
			{Path: "/dl/old.zip", Size: 1536, Deleted: true},
			{Path: "/dl/locked.zip", Size: 10, Err: &housekeeper.ItemError{Path: "/dl/locked.zip", Reason: housekeeper.ErrorFileInUse}},
		},
	}

	if err := r.Purge(res); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if got["deleted_count"] != float64(1) {
		t.Errorf("deleted_count = %v", got["deleted_count"])
	}
	if got["bytes_freed"] != float64(1536) {
		t.Errorf("bytes_freed = %v", got["bytes_freed"])
	}
	if got["bytes_freed_formatted"] != "1.50 KB" {
		t.Errorf("bytes_freed_formatted = %v", got["bytes_freed_formatted"])
	}
	if got["failed_count"] != float64(1) {
		t.Errorf("failed_count = %v", got["failed_count"])
	}
	byReason, ok := got["errors_by_reason"].(map[string]any)
	if !ok || byReason["File is in use"] != float64(1) || len(byReason) != 1 {
		t.Errorf("errors_by_reason = %v", got["errors_by_reason"])
	}
}

func TestPurgeJSONOmitsEmptyErrorBreakdown(t *testing.T) {
	r, buf := newTestReporter(FormatJSON)
	res := &housekeeper.PurgeResult{
		Deleted: 1,
		Items:   []housekeeper.PurgeItem{{Path: "/dl/old.zip", Size: 1, Deleted: true}},
	}

	if err := r.Purge(res); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if strings.Contains(buf.String(), "errors_by_reason") {
		t.Errorf("unexpected errors_by_reason:\n%s", buf.String())
	}
}

func TestOrganizeSummaryGroupsErrors(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)
	fail := func(path string, reason housekeeper.ErrorReason) housekeeper.OrganizeItem {
		return housekeeper.OrganizeItem{
			Source:  path,
			Outcome: housekeeper.OutcomeFailed,
			Err:     &housekeeper.ItemError{Path: path, Reason: reason},
		}
	}
	res := &housekeeper.OrganizeResult{
		Errors: 3,
		Items: []housekeeper.OrganizeItem{
			fail("/dl/a.mp3", housekeeper.ErrorFileInUse),
			fail("/dl/b.mp3", housekeeper.ErrorPermissionDenied),
			fail("/dl/c.mp3", housekeeper.ErrorFileInUse),
		},
	}

	if err := r.Organize(res); err != nil {
		t.Fatalf("Organize: %v", err)
	}

	out := buf.String()
	denied := strings.Index(out, "Permission denied:")
	inUse := strings.Index(out, "File is in use:")
	if denied < 0 || inUse < 0 {
		t.Fatalf("summary missing reason breakdown:\n%s", out)
	}
	if denied > inUse {
		t.Errorf("reasons not in reason order:\n%s", out)
	}
	if !strings.Contains(out[inUse:], "2") {
		t.Errorf("expected 2 in-use failures:\n%s", out)
	}
}

func TestOverviewSummary(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)
	ov := &housekeeper.Overview{
		Root:        "/dl",
		Statistics:  &housekeeper.Statistics{TotalFiles: 2, TotalSize: 1024},
		Details:     &housekeeper.DetailedStatistics{PerCategory: []housekeeper.CategoryCount{{Category: "documents", Count: 2}}},
		RecentFiles: sampleFiles(),
	}

	if err := r.Overview(ov); err != nil {
		t.Fatalf("Overview: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Downloads Overview", "Files by Category", "Recent Files", "report.pdf", "1.00 KB"} {
		if !strings.Contains(out, want) {
			t.Errorf("overview missing %q:\n%s", want, out)
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	r, _ := newTestReporter(OutputFormat("xml"))
	if err := r.Statistics("/dl", &housekeeper.Statistics{}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	err := SaveToFile(path, FormatJSON, func(r *Reporter) error {
		return r.Files("Recent Files", sampleFiles())
	})
	if err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !json.Valid(data) {
		t.Errorf("saved report is not valid JSON:\n%s", data)
	}
}

func TestTruncatePath(t *testing.T) {
	short := "/dl/a.pdf"
	if got := truncatePath(short, 60); got != short {
		t.Errorf("truncatePath(short) = %q", got)
	}

	long := "/" + strings.Repeat("x", 100) + "/file.pdf"
	got := truncatePath(long, 60)
	if len(got) != 60 || !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "file.pdf") {
		t.Errorf("truncatePath(long) = %q", got)
	}

	multi := "/dl/" + strings.Repeat("é", 80) + "/résumé.pdf"
	got = truncatePath(multi, 60)
	if !utf8.ValidString(got) {
		t.Errorf("truncatePath split a rune: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 60 {
		t.Errorf("truncatePath(multi) has %d runes, want 60", n)
	}
	if !strings.HasSuffix(got, "/résumé.pdf") {
		t.Errorf("truncatePath(multi) = %q", got)
	}
}
