package formats

import (
	"fmt"
	"strings"

	"apiguard/internal/engine/model"
	"apiguard/internal/engine/report"
)

type TSVGenerator struct{}

func NewTSVGenerator() *TSVGenerator {
	return &TSVGenerator{}
}

func (t *TSVGenerator) Generate(rows []report.ViolationRecord) (string, error) {
	var buf strings.Builder

	buf.WriteString("Kind\tElement\tOrigin\tVia\tDistance\tLocation\tLine\tComponent\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			row.Kind,
			row.Element,
			originsCell(row),
			row.Via,
			row.Distance,
			row.Location,
			row.Location.Line,
			row.Component,
		))
	}

	return buf.String(), nil
}

func (t *TSVGenerator) GenerateNotices(rows []model.Notice) (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tSubject\tReason\tLocation\tLine\n")
	for _, row := range rows {
		loc, line := "", 0
		if row.Location != nil {
			loc, line = row.Location.String(), row.Location.Line
		}
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%d\n",
			row.Kind,
			row.Subject,
			clean(row.Reason),
			loc,
			line,
		))
	}

	return buf.String(), nil
}

func originsCell(v report.ViolationRecord) string {
	origins := v.Origins()
	parts := make([]string, 0, len(origins))
	for _, o := range origins {
		parts = append(parts, o.String())
	}
	return strings.Join(parts, ",")
}

func clean(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ").Replace(s)
}
