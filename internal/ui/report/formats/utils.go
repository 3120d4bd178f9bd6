package formats

import (
	"strings"
	"time"

	"apiguard/internal/data/history"
	"apiguard/internal/engine/model"
	"apiguard/internal/engine/report"
)

// ReportData is everything a report renders.
type ReportData struct {
	Project     string
	RunID       string
	GeneratedAt time.Time
	TypeCount   int
	Violations  []report.ViolationRecord
	Notices     []model.Notice
	// Baseline is set when the run was compared with a stored run.
	Baseline *history.Diff
}

// sourceURI maps a consumer's top-level type to the conventional source
// path of its compilation unit.
func sourceURI(loc model.Location) string {
	name := loc.Type
	if i := strings.IndexByte(name, '$'); i >= 0 {
		name = name[:i]
	}
	return strings.ReplaceAll(name, ".", "/") + ".java"
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
