package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
)

var supportedFormats = map[string]bool{
	"summary":  true,
	"sarif":    true,
	"tsv":      true,
	"markdown": true,
	"json":     true,
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateClasspath(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Classpath))
	for i, item := range cfg.Classpath {
		ref := fmt.Sprintf("classpath[%d]", i)
		path := strings.TrimSpace(item.Path)
		if path == "" {
			return fmt.Errorf("%s.path must not be empty", ref)
		}
		clean := filepath.Clean(path)
		if seen[clean] {
			return fmt.Errorf("duplicate classpath entry %q", path)
		}
		seen[clean] = true

		switch item.Role {
		case "", RoleProvider, RoleConsumer, RoleBoth:
		default:
			return fmt.Errorf("%s.role must be one of: provider, consumer, both", ref)
		}
		if v := strings.TrimSpace(item.Version); v != "" {
			if _, err := semver.NewVersion(NormalizeVersion(v)); err != nil {
				return fmt.Errorf("%s.version %q: %w", ref, v, err)
			}
		}
	}
	return nil
}

func validateRestricted(cfg *Config) error {
	for i, rule := range cfg.Restricted {
		ref := fmt.Sprintf("restricted[%d]", i)
		pattern := strings.TrimSpace(rule.Component)
		if pattern == "" {
			return fmt.Errorf("%s.component must not be empty", ref)
		}
		if _, err := glob.Compile(pattern, '.'); err != nil {
			return fmt.Errorf("%s.component %q: %w", ref, pattern, err)
		}
		if c := strings.TrimSpace(rule.Versions); c != "" {
			if _, err := semver.NewConstraint(c); err != nil {
				return fmt.Errorf("%s.versions %q: %w", ref, c, err)
			}
		}
	}
	return nil
}

func validateDescriptions(cfg *Config) error {
	for i, desc := range cfg.Descriptions {
		if strings.TrimSpace(desc.Path) == "" {
			return fmt.Errorf("descriptions[%d].path must not be empty", i)
		}
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Workers > 1024 {
		return fmt.Errorf("analysis.workers must be <= 1024, got %d", cfg.Analysis.Workers)
	}
	for i, pattern := range cfg.Analysis.IgnoreUnresolved {
		if _, err := glob.Compile(pattern, '.'); err != nil {
			return fmt.Errorf("analysis.ignore_unresolved[%d] %q: %w", i, pattern, err)
		}
	}
	pkg := strings.TrimSpace(cfg.Analysis.AnnotationPackage)
	if strings.ContainsAny(pkg, "/ ") {
		return fmt.Errorf("analysis.annotation_package must be a dotted package name, got %q", pkg)
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	driver := strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	if driver != "sqlite" {
		return fmt.Errorf("db.driver must be sqlite, got %q", cfg.DB.Driver)
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	for _, format := range cfg.Output.Formats {
		f := strings.ToLower(strings.TrimSpace(format))
		if !supportedFormats[f] {
			return fmt.Errorf("output.formats contains unsupported format %q", format)
		}
	}
	return nil
}

func validateNeo4j(cfg *Config) error {
	if !cfg.Neo4j.Enabled {
		return nil
	}
	uri := strings.TrimSpace(cfg.Neo4j.URI)
	for _, scheme := range []string{"bolt://", "bolt+s://", "neo4j://", "neo4j+s://"} {
		if strings.HasPrefix(uri, scheme) {
			return nil
		}
	}
	return fmt.Errorf("neo4j.uri must use a bolt:// or neo4j:// scheme, got %q", uri)
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Port < 0 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port must be between 0 and 65535, got %d", cfg.Observability.Port)
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint is required when tracing is enabled")
	}
	return nil
}

// NormalizeVersion turns OSGi-style versions (1.2.3.qualifier) into
// semantic versions by moving the qualifier into the build metadata.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	parts := strings.SplitN(v, ".", 4)
	if len(parts) == 4 {
		return parts[0] + "." + parts[1] + "." + parts[2] + "+" + parts[3]
	}
	return v
}
