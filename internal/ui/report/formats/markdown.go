package formats

import (
	"fmt"
	"strings"
	"time"

	"apiguard/internal/data/history"
	"apiguard/internal/engine/model"
	"apiguard/internal/engine/report"
)

type MarkdownReportOptions struct {
	Version             string
	TableOfContents     bool
	CollapsibleSections bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(data ReportData, opts MarkdownReportOptions) (string, error) {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: API Restriction Report\n")
	b.WriteString("project: " + nonEmpty(data.Project, "unknown") + "\n")
	b.WriteString("generated_at: " + data.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	if data.RunID != "" {
		b.WriteString("run_id: " + data.RunID + "\n")
	}
	b.WriteString("---\n\n")

	b.WriteString("# API Restriction Report\n\n")
	if opts.TableOfContents {
		b.WriteString("## Table of Contents\n")
		b.WriteString("- [Summary](#summary)\n")
		b.WriteString("- [Violations](#violations)\n")
		if data.Baseline != nil {
			b.WriteString("- [Baseline](#baseline)\n")
		}
		b.WriteString("- [Notices](#notices)\n\n")
	}

	counts := make(map[model.Kind]int)
	for _, v := range data.Violations {
		counts[v.Kind]++
	}
	b.WriteString("## Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Types Scanned | %d |\n", data.TypeCount))
	b.WriteString(fmt.Sprintf("| Violations | %d |\n", len(data.Violations)))
	for _, k := range model.AllKinds {
		if counts[k] > 0 {
			b.WriteString(fmt.Sprintf("| Illegal %s | %d |\n", k, counts[k]))
		}
	}
	b.WriteString(fmt.Sprintf("| Notices | %d |\n\n", len(data.Notices)))

	m.writeViolations(&b, data.Violations, opts.CollapsibleSections)
	if data.Baseline != nil {
		m.writeBaseline(&b, *data.Baseline, opts.CollapsibleSections)
	}
	m.writeNotices(&b, data.Notices, opts.CollapsibleSections)

	return b.String(), nil
}

func (m *MarkdownGenerator) writeViolations(b *strings.Builder, rows []report.ViolationRecord, collapsible bool) {
	b.WriteString("## Violations\n")
	if len(rows) == 0 {
		b.WriteString("No restriction violations detected.\n\n")
		return
	}
	rendered := make([]string, 0, len(rows))
	for _, row := range rows {
		via := ""
		if row.Via != "" {
			via = "`" + row.Via + "`"
		}
		rendered = append(rendered, fmt.Sprintf(
			"| %s | `%s` | `%s` | %s | `%s` | %s |\n",
			row.Kind,
			escapeCell(row.Element.String()),
			escapeCell(originsCell(row)),
			via,
			escapeCell(row.Location.String()),
			lineCell(row.Location.Line),
		))
	}
	m.writeTableWithCollapse(
		b,
		"Violation details",
		collapsible,
		len(rendered) > 10,
		[]string{"| Kind | Element | Declared On | Via | Location | Line |\n", "| --- | --- | --- | --- | --- | --- |\n"},
		rendered,
	)
}

func (m *MarkdownGenerator) writeBaseline(b *strings.Builder, d history.Diff, collapsible bool) {
	b.WriteString("## Baseline\n")
	if d.Baseline == nil {
		b.WriteString("No earlier run recorded; every violation is new.\n\n")
	} else {
		b.WriteString(fmt.Sprintf("Compared with run `%s` from %s: %d new, %d fixed, %d unchanged.\n\n",
			d.Baseline.ID, d.Baseline.StartedAt.UTC().Format(time.RFC3339), len(d.New), len(d.Fixed), d.Unchanged))
	}
	write := func(title string, entries []history.Entry) {
		if len(entries) == 0 {
			return
		}
		b.WriteString("### " + title + "\n")
		rendered := make([]string, 0, len(entries))
		for _, e := range entries {
			rendered = append(rendered, fmt.Sprintf("| %s | `%s` | `%s` | %s |\n",
				e.Kind, escapeCell(e.Element), escapeCell(e.Location), lineCell(e.Line)))
		}
		m.writeTableWithCollapse(
			b,
			title+" details",
			collapsible,
			len(rendered) > 10,
			[]string{"| Kind | Element | Location | Line |\n", "| --- | --- | --- | --- |\n"},
			rendered,
		)
	}
	write("New", d.New)
	write("Fixed", d.Fixed)
}

func (m *MarkdownGenerator) writeNotices(b *strings.Builder, rows []model.Notice, collapsible bool) {
	b.WriteString("## Notices\n")
	if len(rows) == 0 {
		b.WriteString("No notices.\n\n")
		return
	}
	rendered := make([]string, 0, len(rows))
	for _, row := range rows {
		loc := ""
		if row.Location != nil {
			loc = "`" + escapeCell(row.Location.String()) + "`"
		}
		rendered = append(rendered, fmt.Sprintf("| %s | `%s` | %s | %s |\n",
			row.Kind, escapeCell(row.Subject), escapeCell(clean(row.Reason)), loc))
	}
	m.writeTableWithCollapse(
		b,
		"Notice details",
		collapsible,
		len(rendered) > 15,
		[]string{"| Kind | Subject | Reason | Location |\n", "| --- | --- | --- | --- |\n"},
		rendered,
	)
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

func lineCell(line int) string {
	if line <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", line)
}
