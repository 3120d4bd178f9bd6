package formats

import (
	"encoding/json"
	"time"

	"apiguard/internal/data/history"
	"apiguard/internal/shared/version"
)

type jsonReport struct {
	Tool        string          `json:"tool"`
	Version     string          `json:"version"`
	Project     string          `json:"project"`
	RunID       string          `json:"run_id,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
	Types       int             `json:"types"`
	Violations  []jsonViolation `json:"violations"`
	Notices     []jsonNotice    `json:"notices"`
	Baseline    *jsonBaseline   `json:"baseline,omitempty"`
}

type jsonViolation struct {
	Kind      string   `json:"kind"`
	Element   string   `json:"element"`
	Origins   []string `json:"origins"`
	Via       string   `json:"via,omitempty"`
	Distance  int      `json:"distance"`
	Location  string   `json:"location"`
	Line      int      `json:"line,omitempty"`
	Component string   `json:"component,omitempty"`
	Message   string   `json:"message"`
}

type jsonNotice struct {
	Kind     string `json:"kind"`
	Subject  string `json:"subject"`
	Reason   string `json:"reason"`
	Location string `json:"location,omitempty"`
}

type jsonBaseline struct {
	RunID     string          `json:"run_id,omitempty"`
	New       []history.Entry `json:"new"`
	Fixed     []history.Entry `json:"fixed"`
	Unchanged int             `json:"unchanged"`
}

// GenerateJSON renders a machine-readable report.
func GenerateJSON(data ReportData) ([]byte, error) {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now().UTC()
	}
	out := jsonReport{
		Tool:        "apiguard",
		Version:     version.Version,
		Project:     data.Project,
		RunID:       data.RunID,
		GeneratedAt: data.GeneratedAt.UTC(),
		Types:       data.TypeCount,
		Violations:  make([]jsonViolation, 0, len(data.Violations)),
		Notices:     make([]jsonNotice, 0, len(data.Notices)),
	}
	for _, v := range data.Violations {
		origins := make([]string, 0, 1+len(v.Tied))
		for _, o := range v.Origins() {
			origins = append(origins, o.String())
		}
		out.Violations = append(out.Violations, jsonViolation{
			Kind:      v.Kind.String(),
			Element:   v.Element.String(),
			Origins:   origins,
			Via:       v.Via,
			Distance:  v.Distance,
			Location:  v.Location.String(),
			Line:      v.Location.Line,
			Component: v.Component,
			Message:   v.Message(),
		})
	}
	for _, n := range data.Notices {
		jn := jsonNotice{Kind: n.Kind.String(), Subject: n.Subject, Reason: n.Reason}
		if n.Location != nil {
			jn.Location = n.Location.String()
		}
		out.Notices = append(out.Notices, jn)
	}
	if d := data.Baseline; d != nil {
		jb := &jsonBaseline{New: d.New, Fixed: d.Fixed, Unchanged: d.Unchanged}
		if d.Baseline != nil {
			jb.RunID = d.Baseline.ID
		}
		if jb.New == nil {
			jb.New = []history.Entry{}
		}
		if jb.Fixed == nil {
			jb.Fixed = []history.Entry{}
		}
		out.Baseline = jb
	}
	return json.MarshalIndent(out, "", "  ")
}
