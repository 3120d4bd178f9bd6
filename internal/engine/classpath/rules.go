package classpath

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
)

// Rule selects restriction-bearing components by name pattern and an
// optional version constraint.
type Rule struct {
	Component string
	Versions  string
}

type compiledRule struct {
	pattern    glob.Glob
	constraint *semver.Constraints
}

// Rules decides which components carry authoritative declarations.
type Rules struct {
	rules []compiledRule
}

func NewRules(rules []Rule) (*Rules, error) {
	out := &Rules{}
	for i, r := range rules {
		g, err := glob.Compile(strings.TrimSpace(r.Component), '.')
		if err != nil {
			return nil, fmt.Errorf("restricted[%d] component %q: %w", i, r.Component, err)
		}
		cr := compiledRule{pattern: g}
		if c := strings.TrimSpace(r.Versions); c != "" {
			cr.constraint, err = semver.NewConstraint(c)
			if err != nil {
				return nil, fmt.Errorf("restricted[%d] versions %q: %w", i, c, err)
			}
		}
		out.rules = append(out.rules, cr)
	}
	return out, nil
}

func (r *Rules) Empty() bool { return r == nil || len(r.rules) == 0 }

// Match reports whether a component at the given version is restricted.
// A rule with a version constraint never matches an unversioned component.
func (r *Rules) Match(component, version string) bool {
	if r == nil {
		return false
	}
	for _, rule := range r.rules {
		if !rule.pattern.Match(component) {
			continue
		}
		if rule.constraint == nil {
			return true
		}
		if version == "" {
			continue
		}
		v, err := semver.NewVersion(normalizeVersion(version))
		if err != nil {
			continue
		}
		if rule.constraint.Check(v) {
			return true
		}
	}
	return false
}

// normalizeVersion moves an OSGi qualifier (1.2.3.v2024) into semver build
// metadata.
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	parts := strings.SplitN(v, ".", 4)
	if len(parts) == 4 {
		return parts[0] + "." + parts[1] + "." + parts[2] + "+" + parts[3]
	}
	return v
}
