// Package history persists analysis runs in SQLite and compares a run's
// violations against the previous run of the same project.
package history

import (
	"sort"
	"time"

	"apiguard/internal/engine/report"
)

// Run is one stored analysis.
type Run struct {
	ID             string
	Project        string
	CommitHash     string
	StartedAt      time.Time
	Duration       time.Duration
	TypeCount      int
	ViolationCount int
	NoticeCount    int
}

// Entry is the stored form of a violation.
type Entry struct {
	// Fingerprint ignores line numbers so that edits elsewhere in a file do
	// not turn an old violation into a new one.
	Fingerprint string `json:"fingerprint"`
	Kind        string `json:"kind"`
	Element     string `json:"element"`
	Origin      string `json:"origin"`
	Location    string `json:"location"`
	Line        int    `json:"line,omitempty"`
	Component   string `json:"component,omitempty"`
	Message     string `json:"message"`
}

// EntriesFrom converts violation records into history entries.
func EntriesFrom(records []report.ViolationRecord) []Entry {
	out := make([]Entry, 0, len(records))
	for _, v := range records {
		loc := v.Location
		loc.Line = 0
		out = append(out, Entry{
			Fingerprint: loc.Key() + "|" + v.Element.ID() + "|" + v.Kind.String(),
			Kind:        v.Kind.String(),
			Element:     v.Element.String(),
			Origin:      v.Origin.String(),
			Location:    v.Location.String(),
			Line:        v.Location.Line,
			Component:   v.Component,
			Message:     v.Message(),
		})
	}
	return out
}

// Diff is the comparison of a run with its baseline.
type Diff struct {
	// Baseline is nil when the project has no earlier run.
	Baseline  *Run
	New       []Entry
	Fixed     []Entry
	Unchanged int
}

// Compare matches entries by fingerprint. Multiple entries sharing a
// fingerprint are matched by count.
func Compare(baseline, current []Entry) Diff {
	remaining := make(map[string][]Entry, len(baseline))
	for _, e := range baseline {
		remaining[e.Fingerprint] = append(remaining[e.Fingerprint], e)
	}

	var d Diff
	for _, e := range current {
		if prev := remaining[e.Fingerprint]; len(prev) > 0 {
			remaining[e.Fingerprint] = prev[1:]
			d.Unchanged++
			continue
		}
		d.New = append(d.New, e)
	}
	for _, left := range remaining {
		d.Fixed = append(d.Fixed, left...)
	}
	sortEntries(d.New)
	sortEntries(d.Fixed)
	return d
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Fingerprint != entries[j].Fingerprint {
			return entries[i].Fingerprint < entries[j].Fingerprint
		}
		return entries[i].Line < entries[j].Line
	})
}
