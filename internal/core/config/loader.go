package config

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes, defaults and validates a configuration document.
func Parse(doc string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(doc, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateClasspath(&cfg); err != nil {
		return nil, err
	}
	if err := validateRestricted(&cfg); err != nil {
		return nil, err
	}
	if err := validateDescriptions(&cfg); err != nil {
		return nil, err
	}
	if err := validateAnalysis(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateOutput(&cfg); err != nil {
		return nil, err
	}
	if err := validateNeo4j(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Project) == "" {
		cfg.Project = "default"
	}

	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = ".apiguard"
	}
	if strings.TrimSpace(cfg.Paths.DatabaseDir) == "" {
		cfg.Paths.DatabaseDir = ".apiguard"
	}

	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = runtime.NumCPU()
	}
	if cfg.Analysis.LoadWorkers <= 0 {
		cfg.Analysis.LoadWorkers = cfg.Analysis.Workers
	}
	if cfg.Analysis.IgnoreUnresolved == nil {
		cfg.Analysis.IgnoreUnresolved = append([]string(nil), DefaultIgnoreUnresolved...)
	}
	if strings.TrimSpace(cfg.Analysis.AnnotationPackage) == "" {
		cfg.Analysis.AnnotationPackage = DefaultAnnotationPackage
	}
	if cfg.Analysis.ParseCacheSize <= 0 {
		cfg.Analysis.ParseCacheSize = 4096
	}

	if strings.TrimSpace(cfg.DB.Driver) == "" {
		cfg.DB.Driver = "sqlite"
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "history.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{"summary"}
	}

	if strings.TrimSpace(cfg.Neo4j.URI) == "" {
		cfg.Neo4j.URI = "bolt://localhost:7687"
	}
	if strings.TrimSpace(cfg.Neo4j.User) == "" {
		cfg.Neo4j.User = "neo4j"
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MinInterval <= 0 {
		cfg.Watch.MinInterval = 2 * time.Second
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", ".apiguard"}
	}

	for i := range cfg.Classpath {
		cfg.Classpath[i].Role = strings.ToLower(strings.TrimSpace(cfg.Classpath[i].Role))
	}
}
