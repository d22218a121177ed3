package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/dlkeeper/internal/housekeeper"
	"github.com/fenilsonani/dlkeeper/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	case "":
		return FormatSummary, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (want summary, table, json or yaml)", s)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer  io.Writer
	format  OutputFormat
	verbose bool
	st      styles
	now     func() time.Time
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		st:     newStyles(writer),
		now:    time.Now,
	}
}

// WithVerbose makes summaries list every per-file outcome
func (r *Reporter) WithVerbose(verbose bool) *Reporter {
	r.verbose = verbose
	return r
}

// =============================================================================
// Serialized views
// =============================================================================

type fileView struct {
	housekeeper.FileRecord `yaml:",inline"`
	SizeFormatted          string `json:"size_formatted" yaml:"size_formatted"`
}

type filesReport struct {
	Timestamp string     `json:"timestamp" yaml:"timestamp"`
	Title     string     `json:"title" yaml:"title"`
	Count     int        `json:"count" yaml:"count"`
	Files     []fileView `json:"files" yaml:"files"`
}

type statsReport struct {
	Timestamp              string `json:"timestamp" yaml:"timestamp"`
	Root                   string `json:"root" yaml:"root"`
	housekeeper.Statistics `yaml:",inline"`
	TotalSizeFormatted     string `json:"total_size_formatted" yaml:"total_size_formatted"`
}

type detailsReport struct {
	Timestamp                      string `json:"timestamp" yaml:"timestamp"`
	housekeeper.DetailedStatistics `yaml:",inline"`
}

type organizeReport struct {
	Timestamp                  string `json:"timestamp" yaml:"timestamp"`
	housekeeper.OrganizeResult `yaml:",inline"`
	ErrorsByReason             map[string]int `json:"errors_by_reason,omitempty" yaml:"errors_by_reason,omitempty"`
}

type purgeReport struct {
	Timestamp               string `json:"timestamp" yaml:"timestamp"`
	housekeeper.PurgeResult `yaml:",inline"`
	BytesFreedFormatted     string         `json:"bytes_freed_formatted" yaml:"bytes_freed_formatted"`
	FailedCount             int            `json:"failed_count" yaml:"failed_count"`
	ErrorsByReason          map[string]int `json:"errors_by_reason,omitempty" yaml:"errors_by_reason,omitempty"`
}

type overviewReport struct {
	Timestamp   string                          `json:"timestamp" yaml:"timestamp"`
	Root        string                          `json:"root" yaml:"root"`
	Statistics  statsReport                     `json:"statistics" yaml:"statistics"`
	Details     *housekeeper.DetailedStatistics `json:"details" yaml:"details"`
	RecentFiles []fileView                      `json:"recent_files" yaml:"recent_files"`
}

func fileViews(files []housekeeper.FileRecord) []fileView {
	views := make([]fileView, len(files))
	for i, f := range files {
		views[i] = fileView{FileRecord: f, SizeFormatted: utils.FormatBytes(f.Size)}
	}
	return views
}

// reasonCounts returns the number of failures per reason, or nil
func reasonCounts(grouped map[housekeeper.ErrorReason][]*housekeeper.ItemError) map[string]int {
	if len(grouped) == 0 {
		return nil
	}
	counts := make(map[string]int, len(grouped))
	for reason, errs := range grouped {
		counts[reason.String()] = len(errs)
	}
	return counts
}

func organizeErrors(res *housekeeper.OrganizeResult) map[housekeeper.ErrorReason][]*housekeeper.ItemError {
	var errs []*housekeeper.ItemError
	for _, item := range res.Items {
		if item.Err != nil {
			errs = append(errs, item.Err)
		}
	}
	return housekeeper.GroupErrors(errs)
}

func purgeErrors(res *housekeeper.PurgeResult) map[housekeeper.ErrorReason][]*housekeeper.ItemError {
	var errs []*housekeeper.ItemError
	for _, item := range res.Items {
		if item.Err != nil {
			errs = append(errs, item.Err)
		}
	}
	return housekeeper.GroupErrors(errs)
}

func (r *Reporter) timestamp() string {
	return r.now().Format(time.RFC3339)
}

func (r *Reporter) statsView(root string, s *housekeeper.Statistics) statsReport {
	return statsReport{
		Timestamp:          r.timestamp(),
		Root:               root,
		Statistics:         *s,
		TotalSizeFormatted: utils.FormatBytes(s.TotalSize),
	}
}

// =============================================================================
// Public report methods
// =============================================================================

// Statistics reports the output of ComputeStatistics
func (r *Reporter) Statistics(root string, s *housekeeper.Statistics) error {
	return r.emit(r.statsView(root, s), func() {
		r.title("Downloads Statistics")
		r.statsLines(root, s)
	})
}

// Files reports a file listing such as ListFiles or SearchFiles output
func (r *Reporter) Files(title string, files []housekeeper.FileRecord) error {
	view := filesReport{
		Timestamp: r.timestamp(),
		Title:     title,
		Count:     len(files),
		Files:     fileViews(files),
	}

	return r.emit(view, func() {
		r.title(title)
		r.fileTable(files)
	})
}

// Details reports the output of DetailedStatistics
func (r *Reporter) Details(d *housekeeper.DetailedStatistics) error {
	view := detailsReport{Timestamp: r.timestamp(), DetailedStatistics: *d}

	return r.emit(view, func() {
		r.title("Files by Category")
		r.detailLines(d)
	})
}

// Organize reports the output of Organize
func (r *Reporter) Organize(res *housekeeper.OrganizeResult) error {
	grouped := organizeErrors(res)
	view := organizeReport{
		Timestamp:      r.timestamp(),
		OrganizeResult: *res,
		ErrorsByReason: reasonCounts(grouped),
	}

	return r.emit(view, func() {
		r.title(dryRunPrefix(res.DryRun) + "Organize Summary")
		r.line("Organized", r.st.success.Render(fmt.Sprintf("%d", res.Organized)))
		r.line("Duplicates", r.st.warning.Render(fmt.Sprintf("%d", res.Duplicates)))
		r.line("Errors", r.countStyle(res.Errors).Render(fmt.Sprintf("%d", res.Errors)))
		r.errorBreakdown(grouped)

		if !r.verbose {
			return
		}
		fmt.Fprintln(r.writer)
		for _, item := range res.Items {
			r.organizeItem(item)
		}
	})
}

// Purge reports the output of PurgeOlderThan
func (r *Reporter) Purge(res *housekeeper.PurgeResult) error {
	failed := res.Failed()
	grouped := purgeErrors(res)
	view := purgeReport{
		Timestamp:           r.timestamp(),
		PurgeResult:         *res,
		BytesFreedFormatted: utils.FormatBytes(res.BytesFreed),
		FailedCount:         failed,
		ErrorsByReason:      reasonCounts(grouped),
	}

	return r.emit(view, func() {
		r.title(dryRunPrefix(res.DryRun) + "Purge Summary")
		r.line("Cutoff", res.Cutoff.Format("2006-01-02 15:04:05"))
		r.line("Deleted", r.st.success.Render(fmt.Sprintf("%d", res.Deleted)))
		r.line("Space freed", r.st.size.Render(utils.FormatBytes(res.BytesFreed)))
		if failed > 0 {
			r.line("Failed", r.st.failure.Render(fmt.Sprintf("%d", failed)))
			r.errorBreakdown(grouped)
		}

		if !r.verbose {
			return
		}
		fmt.Fprintln(r.writer)
		for _, item := range res.Items {
			status := r.st.success.Render("deleted")
			if !item.Deleted {
				status = r.st.failure.Render("failed ")
			}
			fmt.Fprintf(r.writer, "  %s %s %s\n", status, r.st.path.Render(item.Path), r.st.size.Render(utils.FormatBytes(item.Size)))
			if item.Err != nil {
				fmt.Fprintf(r.writer, "          %s\n", r.st.muted.Render(item.Err.Reason.String()))
			}
		}
	})
}

// Overview reports statistics, category breakdown and recent files together
func (r *Reporter) Overview(ov *housekeeper.Overview) error {
	view := overviewReport{
		Timestamp:   r.timestamp(),
		Root:        ov.Root,
		Statistics:  r.statsView(ov.Root, ov.Statistics),
		Details:     ov.Details,
		RecentFiles: fileViews(ov.RecentFiles),
	}

	return r.emit(view, func() {
		r.title("Downloads Overview")
		r.statsLines(ov.Root, ov.Statistics)
		fmt.Fprintln(r.writer)
		r.title("Files by Category")
		r.detailLines(ov.Details)
		fmt.Fprintln(r.writer)
		r.title("Recent Files")
		r.fileTable(ov.RecentFiles)
	})
}

// =============================================================================
// Rendering
// =============================================================================

func (r *Reporter) emit(view any, summary func()) error {
	switch r.format {
	case FormatJSON:
		encoder := json.NewEncoder(r.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(view)
	case FormatYAML:
		encoder := yaml.NewEncoder(r.writer)
		defer encoder.Close()
		return encoder.Encode(view)
	case FormatSummary, FormatTable:
		summary()
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) title(text string) {
	fmt.Fprintln(r.writer, r.st.title.Render("=== "+text+" ==="))
}

func (r *Reporter) line(label, value string) {
	fmt.Fprintf(r.writer, "  %s %s\n", r.st.label.Render(label+":"), value)
}

func (r *Reporter) countStyle(n int) lipgloss.Style {
	if n > 0 {
		return r.st.failure
	}
	return r.st.muted
}

// errorBreakdown lists failure counts per reason in reason order
func (r *Reporter) errorBreakdown(grouped map[housekeeper.ErrorReason][]*housekeeper.ItemError) {
	reasons := make([]housekeeper.ErrorReason, 0, len(grouped))
	for reason := range grouped {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	for _, reason := range reasons {
		fmt.Fprintf(r.writer, "    %s %s\n",
			r.st.muted.Render(reason.String()+":"),
			r.st.failure.Render(fmt.Sprintf("%d", len(grouped[reason]))))
	}
}

func (r *Reporter) statsLines(root string, s *housekeeper.Statistics) {
	r.line("Root", r.st.path.Render(root))
	r.line("Total files", r.st.value.Render(fmt.Sprintf("%d", s.TotalFiles)))
	r.line("Total size", r.st.size.Render(utils.FormatBytes(s.TotalSize)))
	r.line("Recent files", r.st.value.Render(fmt.Sprintf("%d", s.RecentFiles)))
	r.line("Disk usage", r.st.value.Render(fmt.Sprintf("%.1f%%", s.DiskUsagePercent)))
}

func (r *Reporter) detailLines(d *housekeeper.DetailedStatistics) {
	for _, c := range d.PerCategory {
		r.line(c.Category, r.st.value.Render(fmt.Sprintf("%d", c.Count)))
	}

	if len(d.TopExtensions) == 0 {
		return
	}
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, r.st.category.Render("  Top extensions"))
	for i, e := range d.TopExtensions {
		ext := "." + e.Extension
		if e.Extension == "" {
			ext = "(none)"
		}
		fmt.Fprintf(r.writer, "  %2d. %-10s %d\n", i+1, ext, e.Count)
	}
}

func (r *Reporter) fileTable(files []housekeeper.FileRecord) {
	if len(files) == 0 {
		fmt.Fprintln(r.writer, r.st.muted.Render("  No files found"))
		return
	}

	// Print header
	fmt.Fprintf(r.writer, "%-60s | %-12s | %s\n", "Path", "Size", "Modified")
	fmt.Fprintln(r.writer, strings.Repeat("-", 96))

	// Print rows
	var total int64
	for _, file := range files {
		total += file.Size
		fmt.Fprintf(r.writer, "%-60s | %-12s | %s\n",
			truncatePath(file.Path, 60),
			utils.FormatBytes(file.Size),
			file.ModTime.Format("2006-01-02 15:04:05"))
	}

	// Print summary
	fmt.Fprintln(r.writer, strings.Repeat("-", 96))
	fmt.Fprintf(r.writer, "Total: %d files, %s\n", len(files), utils.FormatBytes(total))
}

func (r *Reporter) organizeItem(item housekeeper.OrganizeItem) {
	var status string
	switch item.Outcome {
	case housekeeper.OutcomeMoved:
		status = r.st.success.Render("moved    ")
	case housekeeper.OutcomeDuplicate:
		status = r.st.warning.Render("duplicate")
	case housekeeper.OutcomeFailed:
		status = r.st.failure.Render("failed   ")
	default:
		status = r.st.muted.Render("in place ")
	}

	fmt.Fprintf(r.writer, "  %s %s -> %s\n", status, r.st.path.Render(item.Source), r.st.category.Render(item.Destination))
	switch {
	case item.Err != nil:
		fmt.Fprintf(r.writer, "            %s\n", r.st.muted.Render(item.Err.Reason.String()))
	case item.Identical:
		fmt.Fprintf(r.writer, "            %s\n", r.st.muted.Render("identical content"))
	case item.Renamed:
		fmt.Fprintf(r.writer, "            %s\n", r.st.muted.Render("renamed to avoid a collision"))
	}
}

// truncatePath shortens path to width runes, keeping its tail
func truncatePath(path string, width int) string {
	runes := []rune(path)
	if len(runes) <= width {
		return path
	}
	return "..." + string(runes[len(runes)-(width-3):])
}

func dryRunPrefix(dryRun bool) string {
	if dryRun {
		return "[DRY RUN] "
	}
	return ""
}

// SaveToFile writes any report to path in the given format
func SaveToFile(path string, format OutputFormat, report func(*Reporter) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return report(New(file, format))
}
