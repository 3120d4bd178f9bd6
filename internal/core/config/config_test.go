package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	content := `
project = "platform"

[[classpath]]
path = "lib/core.jar"
component = "org.example.core"
version = "3.1.0.v2024"
role = "Provider"

[[classpath]]
path = "build/classes"
component = "org.example.client"

[[restricted]]
component = "org.example.*"
versions = ">= 3.0, < 4.0"

[[descriptions]]
path = "lib/.api_description"
component = "org.example.core"

[analysis]
workers = 3
intra_component = true

[watch]
debounce = "1s"

[output]
formats = ["summary", "sarif"]
sarif = "apiguard.sarif"
`
	path := filepath.Join(t.TempDir(), "apiguard.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "platform", cfg.Project)
	require.Len(t, cfg.Classpath, 2)
	assert.Equal(t, RoleProvider, cfg.Classpath[0].Role)
	assert.Equal(t, "org.example.client", cfg.Classpath[1].Component)
	require.Len(t, cfg.Restricted, 1)
	assert.Equal(t, ">= 3.0, < 4.0", cfg.Restricted[0].Versions)
	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, 3, cfg.Analysis.LoadWorkers)
	assert.True(t, cfg.Analysis.IntraComponent)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, []string{"summary", "sarif"}, cfg.Output.Formats)
	assert.Equal(t, DefaultAnnotationPackage, cfg.Analysis.AnnotationPackage)
	assert.Equal(t, DefaultIgnoreUnresolved, cfg.Analysis.IgnoreUnresolved)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse("")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "default", cfg.Project)
	assert.Equal(t, runtime.NumCPU(), cfg.Analysis.Workers)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "history.db", cfg.DB.Path)
	assert.Equal(t, 5*time.Second, cfg.DB.BusyTimeout)
	assert.Equal(t, []string{"summary"}, cfg.Output.Formats)
	assert.Equal(t, 9464, cfg.Observability.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Watch.MinInterval)
	assert.Equal(t, []string{".git", ".apiguard"}, cfg.Exclude.Dirs)
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"future version", "version = 2"},
		{"empty classpath path", "[[classpath]]\npath = \"\""},
		{"duplicate classpath", "[[classpath]]\npath = \"a.jar\"\n[[classpath]]\npath = \"./a.jar\""},
		{"bad role", "[[classpath]]\npath = \"a.jar\"\nrole = \"owner\""},
		{"bad component version", "[[classpath]]\npath = \"a.jar\"\nversion = \"not-a-version\""},
		{"empty restricted component", "[[restricted]]\ncomponent = \"\""},
		{"bad restricted glob", "[[restricted]]\ncomponent = \"org.[\""},
		{"bad version constraint", "[[restricted]]\ncomponent = \"org.*\"\nversions = \">>> 1\""},
		{"empty description path", "[[descriptions]]\npath = \" \""},
		{"bad ignore glob", "[analysis]\nignore_unresolved = [\"java.[\"]"},
		{"bad annotation package", "[analysis]\nannotation_package = \"org/eclipse\""},
		{"unsupported driver", "[db]\ndriver = \"postgres\""},
		{"unsupported format", "[output]\nformats = [\"dot\"]"},
		{"bad neo4j scheme", "[neo4j]\nenabled = true\nuri = \"http://localhost\""},
		{"port out of range", "[observability]\nport = 70000"},
		{"tracing without endpoint", "[observability]\nenable_tracing = true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.doc)
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APIGUARD_ANALYSIS_WORKERS", "7")
	t.Setenv("APIGUARD_ANALYSIS_INTRA_COMPONENT", "TRUE")
	t.Setenv("APIGUARD_DB_PATH", "custom.db")
	t.Setenv("APIGUARD_WATCH_DEBOUNCE", "250ms")
	t.Setenv("APIGUARD_NEO4J_PASSWORD", "secret")
	t.Setenv("APIGUARD_OBSERVABILITY_PORT", "not-a-number")

	cfg, err := Parse("[analysis]\nworkers = 2")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Analysis.Workers)
	assert.True(t, cfg.Analysis.IntraComponent)
	assert.Equal(t, "custom.db", cfg.DB.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "secret", cfg.Neo4j.Password)
	assert.Equal(t, 9464, cfg.Observability.Port)
}

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, "3.1.0+v2024", NormalizeVersion("3.1.0.v2024"))
	assert.Equal(t, "3.1.0", NormalizeVersion(" 3.1.0 "))
	assert.Equal(t, "3.1", NormalizeVersion("3.1"))
}
