package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"apiguard/internal/engine/model"
	"apiguard/internal/ui/report/formats"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	violationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155")).
			Padding(0, 1)
)

// Summary renders the terminal view of a run: counts per kind, each
// violation on one line, and the baseline delta when present.
func Summary(data formats.ReportData) string {
	var b strings.Builder

	counts := make(map[model.Kind]int)
	for _, v := range data.Violations {
		counts[v.Kind]++
	}
	stats := make([]string, 0, len(model.AllKinds)+2)
	stats = append(stats, fmt.Sprintf("types scanned: %d", data.TypeCount))
	for _, k := range model.AllKinds {
		if counts[k] > 0 {
			stats = append(stats, fmt.Sprintf("illegal %s: %d", k, counts[k]))
		}
	}
	stats = append(stats, fmt.Sprintf("notices: %d", len(data.Notices)))

	header := titleStyle.Render("apiguard · " + nonEmpty(data.Project, "default"))
	b.WriteString(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(stats, "\n"))))
	b.WriteString("\n")

	if len(data.Violations) == 0 {
		b.WriteString(successStyle.Render("✔ no restriction violations"))
		b.WriteString("\n")
	} else {
		b.WriteString(violationStyle.Render(fmt.Sprintf("✖ %d violation(s)", len(data.Violations))))
		b.WriteString("\n")
		for _, v := range data.Violations {
			line := "  " + v.Message()
			if v.Location.Line > 0 {
				line += fmt.Sprintf(" [line %d]", v.Location.Line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	for _, n := range data.Notices {
		b.WriteString(noticeStyle.Render("  ! " + n.String()))
		b.WriteString("\n")
	}

	if d := data.Baseline; d != nil {
		if d.Baseline == nil {
			b.WriteString(statusStyle.Render("baseline: no earlier run"))
		} else {
			b.WriteString(statusStyle.Render(fmt.Sprintf("baseline %s: +%d new, -%d fixed, %d unchanged",
				shortID(d.Baseline.ID), len(d.New), len(d.Fixed), d.Unchanged)))
		}
		b.WriteString("\n")
		for _, e := range d.New {
			b.WriteString(violationStyle.Render("  + " + e.Message))
			b.WriteString("\n")
		}
		for _, e := range d.Fixed {
			b.WriteString(successStyle.Render("  - " + e.Message))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
