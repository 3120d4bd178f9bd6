package formats

import (
	"encoding/json"
	"fmt"

	"apiguard/internal/engine/model"
	"apiguard/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

type sarifRuleSpec struct {
	id    string
	name  string
	text  string
	level string
}

var violationRules = map[model.Kind]sarifRuleSpec{
	model.Extend:      {"APIG001", "IllegalExtend", "A type extends a class marked no-extend.", "error"},
	model.Implement:   {"APIG002", "IllegalImplement", "A type implements an interface marked no-implement.", "error"},
	model.Instantiate: {"APIG003", "IllegalInstantiate", "A class marked no-instantiate is instantiated.", "error"},
	model.Reference:   {"APIG004", "IllegalReference", "A member marked no-reference is referenced.", "error"},
	model.Override:    {"APIG005", "IllegalOverride", "A method marked no-override is overridden.", "error"},
}

var noticeRules = map[model.NoticeKind]sarifRuleSpec{
	model.NoticeUnparseable: {"APIG101", "UnparseableArtifact", "A classpath artifact could not be read.", "note"},
	model.NoticeUnresolved:  {"APIG102", "UnresolvedReference", "A referenced type or member is absent from the classpath.", "note"},
	model.NoticeCycle:       {"APIG103", "HierarchyCycle", "The type hierarchy contains a cycle.", "warning"},
	model.NoticeDescription: {"APIG104", "DescriptionMismatch", "A description entry names an unknown element.", "note"},
}

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID     string            `json:"ruleId"`
	Level      string            `json:"level"`
	Message    sarifMessage      `json:"message"`
	Locations  []sarifLocation   `json:"locations,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation  `json:"physicalLocation"`
	LogicalLocations  []sarifLogicalLocation `json:"logicalLocations,omitempty"`
}

type sarifLogicalLocation struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document. Violations become
// results of level error; notices are emitted as notes or warnings.
// Artifact URIs are source paths relative to %SRCROOT%.
func GenerateSARIF(data ReportData) ([]byte, error) {
	usedViolations := make(map[model.Kind]bool)
	usedNotices := make(map[model.NoticeKind]bool)
	results := make([]sarifResult, 0, len(data.Violations)+len(data.Notices))

	for _, v := range data.Violations {
		spec := violationRules[v.Kind]
		usedViolations[v.Kind] = true
		result := sarifResult{
			RuleID:    spec.id,
			Level:     spec.level,
			Message:   sarifMessage{Text: v.Message()},
			Locations: []sarifLocation{locationOf(v.Location)},
			Properties: map[string]string{
				"element": v.Element.String(),
				"origin":  v.Origin.String(),
			},
		}
		if v.Component != "" {
			result.Properties["component"] = v.Component
		}
		if v.Via != "" {
			result.Properties["via"] = v.Via
		}
		results = append(results, result)
	}

	for _, n := range data.Notices {
		spec := noticeRules[n.Kind]
		usedNotices[n.Kind] = true
		result := sarifResult{
			RuleID:  spec.id,
			Level:   spec.level,
			Message: sarifMessage{Text: fmt.Sprintf("%s: %s", n.Subject, n.Reason)},
		}
		if n.Location != nil {
			result.Locations = []sarifLocation{locationOf(*n.Location)}
		}
		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "apiguard",
						Version: version.Version,
						Rules:   buildSARIFRules(usedViolations, usedNotices),
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules that have results, in rule ID
// order.
func buildSARIFRules(violations map[model.Kind]bool, notices map[model.NoticeKind]bool) []sarifRule {
	rules := make([]sarifRule, 0, len(violations)+len(notices))
	for _, k := range model.AllKinds {
		if violations[k] {
			rules = append(rules, ruleOf(violationRules[k]))
		}
	}
	for _, k := range []model.NoticeKind{model.NoticeUnparseable, model.NoticeUnresolved, model.NoticeCycle, model.NoticeDescription} {
		if notices[k] {
			rules = append(rules, ruleOf(noticeRules[k]))
		}
	}
	return rules
}

func ruleOf(spec sarifRuleSpec) sarifRule {
	return sarifRule{
		ID:               spec.id,
		Name:             spec.name,
		ShortDescription: sarifMessage{Text: spec.text},
		DefaultConfig:    sarifRuleDefaultConfig{Level: spec.level},
	}
}

func locationOf(loc model.Location) sarifLocation {
	out := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       sourceURI(loc),
				URIBaseID: "%SRCROOT%",
			},
		},
		LogicalLocations: []sarifLogicalLocation{{FullyQualifiedName: loc.String()}},
	}
	if loc.Line > 0 {
		out.PhysicalLocation.Region = &sarifRegion{StartLine: loc.Line}
	}
	return out
}
