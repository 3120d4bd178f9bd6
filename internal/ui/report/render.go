package report

import (
	"fmt"
	"strings"

	"apiguard/internal/shared/version"
	"apiguard/internal/ui/report/formats"
)

// Render produces one report format. The summary format is the styled
// terminal view.
func Render(format string, data formats.ReportData) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "summary":
		return []byte(Summary(data)), nil
	case "sarif":
		return formats.GenerateSARIF(data)
	case "json":
		return formats.GenerateJSON(data)
	case "markdown":
		out, err := formats.NewMarkdownGenerator().Generate(data, formats.MarkdownReportOptions{
			Version:             version.Version,
			TableOfContents:     true,
			CollapsibleSections: true,
		})
		return []byte(out), err
	case "tsv":
		gen := formats.NewTSVGenerator()
		violations, err := gen.Generate(data.Violations)
		if err != nil {
			return nil, err
		}
		if len(data.Notices) == 0 {
			return []byte(violations), nil
		}
		notices, err := gen.GenerateNotices(data.Notices)
		if err != nil {
			return nil, err
		}
		return []byte(violations + "\n" + notices), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}
