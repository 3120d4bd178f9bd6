package config

import "time"

// Config is the on-disk apiguard.toml layout.
type Config struct {
	Version       int             `toml:"version"`
	Project       string          `toml:"project"`
	Paths         Paths           `toml:"paths"`
	Classpath     []ClasspathItem `toml:"classpath"`
	Restricted    []RestrictedSet `toml:"restricted"`
	Descriptions  []Description   `toml:"descriptions"`
	Sources       Sources         `toml:"sources"`
	Analysis      Analysis        `toml:"analysis"`
	DB            Database        `toml:"db"`
	Output        Output          `toml:"output"`
	Neo4j         Neo4j           `toml:"neo4j"`
	Observability Observability   `toml:"observability"`
	Watch         Watch           `toml:"watch"`
	Exclude       Exclude         `toml:"exclude"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	StateDir    string `toml:"state_dir"`
	DatabaseDir string `toml:"database_dir"`
	OutputDir   string `toml:"output_dir"`
}

// ClasspathItem is one classpath location: a directory of class files, a
// jar/zip archive or a single class file.
type ClasspathItem struct {
	Path      string `toml:"path"`
	Component string `toml:"component"`
	Version   string `toml:"version"`
	// Role is "provider", "consumer" or "both". Empty defers to the
	// restricted rules.
	Role string `toml:"role"`
}

// RestrictedSet selects the classpath components whose restriction
// declarations are authoritative.
type RestrictedSet struct {
	Component string `toml:"component"`
	Versions  string `toml:"versions"`
}

type Description struct {
	Path      string `toml:"path"`
	Component string `toml:"component"`
}

type Sources struct {
	Paths []string `toml:"paths"`
}

type Analysis struct {
	Workers           int      `toml:"workers"`
	LoadWorkers       int      `toml:"load_workers"`
	IntraComponent    bool     `toml:"intra_component"`
	IgnoreUnresolved  []string `toml:"ignore_unresolved"`
	AnnotationPackage string   `toml:"annotation_package"`
	ParseCacheSize    int      `toml:"parse_cache_size"`
	FailOnViolation   bool     `toml:"fail_on_violation"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Driver      string        `toml:"driver"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Output struct {
	Formats  []string `toml:"formats"`
	SARIF    string   `toml:"sarif"`
	TSV      string   `toml:"tsv"`
	Markdown string   `toml:"markdown"`
	JSON     string   `toml:"json"`
	Summary  bool     `toml:"summary"`
}

type Neo4j struct {
	Enabled  bool   `toml:"enabled"`
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Clean    bool   `toml:"clean"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

type Watch struct {
	Debounce     time.Duration `toml:"debounce"`
	MinInterval  time.Duration `toml:"min_interval"`
	ReloadConfig bool          `toml:"reload_config"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

const (
	RoleProvider = "provider"
	RoleConsumer = "consumer"
	RoleBoth     = "both"
)

// DefaultIgnoreUnresolved lists platform packages that are normally absent
// from an analysis classpath.
var DefaultIgnoreUnresolved = []string{
	"java.**",
	"javax.**",
	"jdk.**",
	"sun.**",
	"com.sun.**",
	"org.w3c.**",
	"org.xml.**",
}

const DefaultAnnotationPackage = "org.eclipse.pde.api.tools.annotations"
