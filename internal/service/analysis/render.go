package analysis

import (
	"fmt"
	"io"
	"strconv"

	"github.com/panbanda/bugsight/internal/output"
	"github.com/panbanda/bugsight/pkg/analyzer/metrics"
)

// fileColumns are the record columns shown per file in text and markdown.
// JSON and TOON carry the full record.
var fileColumns = []string{
	"cbo", "dit", "fanIn", "fanOut", "lcom", "noc", "rfc", "wmc",
	"numberOfMethods", "numberOfAttributes", "numberOfLinesOfCode",
}

var columnLabels = map[string]string{
	"numberOfMethods":     "methods",
	"numberOfAttributes":  "attrs",
	"numberOfLinesOfCode": "loc",
}

func label(name string) string {
	if l, ok := columnLabels[name]; ok {
		return l
	}
	return name
}

func formatValue(name string, v float64) string {
	if name == "lcom" {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// reportView renders Report as a titled set of tables. The JSON/TOON form
// is the Report itself.
type reportView struct {
	*Report
}

// Renderable adapts the report to the output formatter.
func (r *Report) Renderable() output.Renderable {
	return reportView{Report: r}
}

func (r reportView) RenderData() any {
	return r.Report
}

func (r reportView) RenderText(w io.Writer, colored bool) error {
	return r.compose(colored).RenderText(w, colored)
}

func (r reportView) RenderMarkdown(w io.Writer) error {
	return r.compose(false).RenderMarkdown(w)
}

func (r reportView) compose(colored bool) *output.Report {
	sections := []output.Renderable{r.filesTable(colored), r.summaryTable()}
	if s := r.failureSection(); s != nil {
		sections = append(sections, s)
	}
	if s := r.skippedSection(); s != nil {
		sections = append(sections, s)
	}

	title := "Object-Oriented Metrics"
	if r.Ref != "" {
		title += " @ " + r.Ref
		if len(r.Commit) >= 7 {
			title += " (" + r.Commit[:7] + ")"
		}
	}
	return &output.Report{Title: title, Sections: sections}
}

func (r reportView) filesTable(colored bool) *output.Table {
	headers := []string{"file"}
	for _, c := range fileColumns {
		headers = append(headers, label(c))
	}

	rows := make([][]string, 0, len(r.Files))
	for _, f := range r.Files {
		flat := f.Metrics.Flatten()
		row := []string{f.Path}
		for _, c := range fileColumns {
			text := formatValue(c, flat[c])
			if colored && c == "lcom" {
				text = output.ThresholdColor(flat[c], 0.5, 0.8, text)
			}
			row = append(row, text)
		}
		rows = append(rows, row)
	}

	footer := []string{fmt.Sprintf("%d files", r.Summary.Analyzed)}
	for _, c := range fileColumns {
		footer = append(footer, formatValue(c, r.Summary.Metrics[c].Mean))
	}
	if r.Summary.Analyzed == 0 {
		footer = nil
	}
	return output.NewTable("Files", headers, rows, footer, nil)
}

func (r reportView) summaryTable() *output.Table {
	headers := []string{"metric", "mean", "stddev", "p50", "p90", "max"}
	rows := make([][]string, 0, len(metrics.FeatureNames))
	for _, name := range metrics.FeatureNames {
		s, ok := r.Summary.Metrics[name]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			name,
			strconv.FormatFloat(s.Mean, 'f', 2, 64),
			strconv.FormatFloat(s.StdDev, 'f', 2, 64),
			formatValue(name, s.P50),
			formatValue(name, s.P90),
			formatValue(name, s.Max),
		})
	}
	footer := []string{
		"files",
		fmt.Sprintf("%d analyzed", r.Summary.Analyzed),
		fmt.Sprintf("%d failed", r.Summary.Failed),
		fmt.Sprintf("%d skipped", r.Summary.Skipped),
		fmt.Sprintf("%d cached", r.Summary.CacheHits),
		"",
	}
	return output.NewTable("Summary", headers, rows, footer, nil)
}

func (r reportView) failureSection() *output.Section {
	if len(r.Failures) == 0 {
		return nil
	}
	lines := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		loc := f.Path
		if f.Failure.Line > 0 {
			loc = fmt.Sprintf("%s:%d", f.Path, f.Failure.Line)
		}
		lines = append(lines, fmt.Sprintf("%s [%s] %s", loc, f.Failure.Kind, f.Failure.Message))
	}
	return &output.Section{Title: "Failures", Lines: lines}
}

func (r reportView) skippedSection() *output.Section {
	if len(r.Skipped) == 0 {
		return nil
	}
	lines := make([]string, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		lines = append(lines, s.Path+": "+s.Reason)
	}
	return &output.Section{Title: "Skipped", Lines: lines}
}

// fileView renders a single FileResult as a metric/value table.
type fileView struct {
	FileResult
}

// Renderable adapts a single result to the output formatter.
func (f FileResult) Renderable() output.Renderable {
	return fileView{FileResult: f}
}

func (f fileView) RenderData() any {
	return f.FileResult
}

func (f fileView) RenderText(w io.Writer, colored bool) error {
	return f.compose().RenderText(w, colored)
}

func (f fileView) RenderMarkdown(w io.Writer) error {
	return f.compose().RenderMarkdown(w)
}

func (f fileView) compose() *output.Report {
	if f.Failure != nil {
		line := fmt.Sprintf("[%s] %s", f.Failure.Kind, f.Failure.Message)
		if f.Failure.Line > 0 {
			line = fmt.Sprintf("line %d: %s", f.Failure.Line, line)
		}
		return &output.Report{
			Title:    f.Path,
			Sections: []output.Renderable{&output.Section{Title: "Failure", Lines: []string{line}}},
		}
	}

	flat := f.Metrics.Flatten()
	rows := make([][]string, 0, len(metrics.FeatureNames))
	for _, name := range metrics.FeatureNames {
		rows = append(rows, []string{name, formatValue(name, flat[name])})
	}
	sections := []output.Renderable{output.NewTable("Metrics", []string{"metric", "value"}, rows, nil, nil)}

	if len(f.Metrics.FanOut) > 0 || len(f.Metrics.FanIn) > 0 {
		var lines []string
		for _, mc := range metrics.SortedCounts(f.Metrics.FanOut) {
			lines = append(lines, fmt.Sprintf("%s calls %d", mc.Name, mc.Count))
		}
		for _, mc := range metrics.SortedCounts(f.Metrics.FanIn) {
			lines = append(lines, fmt.Sprintf("%s called by %d", mc.Name, mc.Count))
		}
		sections = append(sections, &output.Section{Title: "Calls", Lines: lines})
	}
	return &output.Report{Title: f.Path, Sections: sections}
}
