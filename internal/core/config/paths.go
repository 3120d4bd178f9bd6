package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot  string
	StateDir     string
	DatabaseDir  string
	DBPath       string
	OutputDir    string
	Classpath    []string
	Descriptions []string
	Sources      []string
}

// ResolvePaths makes every configured path absolute. Relative paths are
// anchored at paths.project_root, which itself defaults to the directory
// holding the configuration file.
func ResolvePaths(cfg *Config, configDir string) (ResolvedPaths, error) {
	if strings.TrimSpace(configDir) == "" {
		return ResolvedPaths{}, fmt.Errorf("config directory must not be empty")
	}
	base, err := filepath.Abs(configDir)
	if err != nil {
		return ResolvedPaths{}, err
	}

	projectRoot := base
	if strings.TrimSpace(cfg.Paths.ProjectRoot) != "" {
		projectRoot = ResolveRelative(base, cfg.Paths.ProjectRoot)
	}

	stateDir := ResolveRelative(projectRoot, cfg.Paths.StateDir)
	databaseDir := ResolveRelative(projectRoot, cfg.Paths.DatabaseDir)

	dbPath := strings.TrimSpace(cfg.DB.Path)
	if filepath.IsAbs(dbPath) {
		dbPath = filepath.Clean(dbPath)
	} else {
		dbPath = filepath.Join(databaseDir, dbPath)
	}

	outputDir := projectRoot
	if strings.TrimSpace(cfg.Paths.OutputDir) != "" {
		outputDir = ResolveRelative(projectRoot, cfg.Paths.OutputDir)
	}

	resolved := ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		StateDir:    filepath.Clean(stateDir),
		DatabaseDir: filepath.Clean(databaseDir),
		DBPath:      filepath.Clean(dbPath),
		OutputDir:   filepath.Clean(outputDir),
	}
	for _, item := range cfg.Classpath {
		resolved.Classpath = append(resolved.Classpath, ResolveRelative(projectRoot, item.Path))
	}
	for _, desc := range cfg.Descriptions {
		resolved.Descriptions = append(resolved.Descriptions, ResolveRelative(projectRoot, desc.Path))
	}
	for _, src := range cfg.Sources.Paths {
		resolved.Sources = append(resolved.Sources, ResolveRelative(projectRoot, src))
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// OutputPath resolves an output file name against the output directory.
func (p ResolvedPaths) OutputPath(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return ResolveRelative(p.OutputDir, name)
}
