// Package classpath loads class files from directories and archives into
// type descriptors.
package classpath

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/classfile"
	"apiguard/internal/engine/description"
	"apiguard/internal/engine/model"
	"apiguard/internal/shared/observability"
	"apiguard/internal/shared/util"
)

const (
	RoleProvider = "provider"
	RoleConsumer = "consumer"
	RoleBoth     = "both"

	apiDescriptionFile = ".api_description"
	manifestFile       = "META-INF/MANIFEST.MF"
)

// Entry is one classpath location: a directory, a jar/zip archive or a
// single class file.
type Entry struct {
	Path      string
	Component string
	Version   string
	Role      string
}

type Options struct {
	Workers int
	Class   classfile.Options
	Rules   *Rules
	// Exclude holds glob patterns matched against slash-separated paths
	// relative to the entry root.
	Exclude   []string
	CacheSize int
}

// Result is the outcome of one load. Notices describe skipped artifacts.
type Result struct {
	Types        []*model.TypeDescriptor
	Descriptions []*description.Description
	Notices      []model.Notice
	Artifacts    int
	CacheHits    int
}

type Loader struct {
	opts    Options
	exclude []glob.Glob
	cache   *lruCache[[sha256.Size]byte, *model.TypeDescriptor]
}

func NewLoader(opts Options) (*Loader, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	l := &Loader{
		opts:  opts,
		cache: newLRUCache[[sha256.Size]byte, *model.TypeDescriptor](opts.CacheSize),
	}
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeValidationError, "compile exclude pattern "+p)
		}
		l.exclude = append(l.exclude, g)
	}
	return l, nil
}

// artifact is one class file waiting to be parsed.
type artifact struct {
	entry int
	id    string
	read  func() ([]byte, error)
}

type entryInfo struct {
	component string
	version   string
	provider  bool
	consumer  bool
}

type parsed struct {
	td     *model.TypeDescriptor
	notice *model.Notice
	hit    bool
}

// Load reads every entry in order. Per-artifact failures become notices;
// only cancellation returns an error.
func (l *Loader) Load(ctx context.Context, entries []Entry) (*Result, error) {
	start := time.Now()
	res := &Result{}

	var artifacts []artifact
	infos := make([]entryInfo, len(entries))
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	for i, e := range entries {
		found, info, desc, closer, err := l.list(i, e)
		if closer != nil {
			closers = append(closers, closer)
		}
		if err != nil {
			slog.Warn("skipping classpath entry", "path", e.Path, "error", err)
			res.Notices = append(res.Notices, model.Notice{Kind: model.NoticeUnparseable, Subject: e.Path, Reason: err.Error()})
			continue
		}
		infos[i] = info
		if desc != nil {
			res.Descriptions = append(res.Descriptions, desc)
		}
		artifacts = append(artifacts, found...)
	}

	results := make([]parsed, len(artifacts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for i := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = l.parse(artifacts[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCanceled, "load classpath")
	}

	for i, p := range results {
		if p.notice != nil {
			res.Notices = append(res.Notices, *p.notice)
			continue
		}
		if p.hit {
			res.CacheHits++
		}
		info := infos[artifacts[i].entry]
		td := p.td.Clone()
		td.Artifact = artifacts[i].id
		td.Component = info.component
		td.Version = info.version
		if !td.LocalOrAnonymous {
			td.Provider = info.provider
		}
		td.Consumer = info.consumer
		res.Types = append(res.Types, td)
	}
	res.Artifacts = len(artifacts)

	observability.ArtifactsLoaded.Add(float64(len(res.Types)))
	observability.ArtifactsSkipped.Add(float64(len(res.Notices)))
	observability.LoadDuration.Observe(time.Since(start).Seconds())
	slog.Debug("classpath loaded", "entries", len(entries), "artifacts", len(artifacts), "types", len(res.Types), "cache_hits", res.CacheHits)
	return res, nil
}

func (l *Loader) parse(a artifact) parsed {
	data, err := a.read()
	if err != nil {
		return parsed{notice: &model.Notice{Kind: model.NoticeUnparseable, Subject: a.id, Reason: err.Error()}}
	}
	key := sha256.Sum256(data)
	if td, ok := l.cache.Get(key); ok {
		return parsed{td: td, hit: true}
	}
	td, err := classfile.Read(data, l.opts.Class)
	if err != nil {
		slog.Debug("unparseable class file", "artifact", a.id, "error", err)
		return parsed{notice: &model.Notice{Kind: model.NoticeUnparseable, Subject: a.id, Reason: err.Error()}}
	}
	l.cache.Put(key, td)
	return parsed{td: td}
}

// ClearCache drops every cached descriptor.
func (l *Loader) ClearCache() { l.cache.Clear() }

func (l *Loader) list(idx int, e Entry) ([]artifact, entryInfo, *description.Description, io.Closer, error) {
	st, err := os.Stat(e.Path)
	if err != nil {
		return nil, entryInfo{}, nil, nil, err
	}
	switch {
	case st.IsDir():
		arts, info, desc, err := l.listDir(idx, e)
		return arts, info, desc, nil, err
	case isArchive(e.Path):
		return l.listArchive(idx, e)
	case strings.HasSuffix(e.Path, ".class"):
		info := l.entryInfo(e, bundleInfo{})
		path := e.Path
		return []artifact{{entry: idx, id: path, read: func() ([]byte, error) { return os.ReadFile(path) }}}, info, nil, nil, nil
	default:
		return nil, entryInfo{}, nil, nil, apperrors.New(apperrors.CodeNotSupported, "not a directory, archive or class file")
	}
}

func (l *Loader) listDir(idx int, e Entry) ([]artifact, entryInfo, *description.Description, error) {
	var arts []artifact
	var bundle bundleInfo
	if data, err := os.ReadFile(filepath.Join(e.Path, filepath.FromSlash(manifestFile))); err == nil {
		bundle = parseManifest(data)
	}
	info := l.entryInfo(e, bundle)

	err := filepath.WalkDir(e.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(e.Path, path)
		rel = filepath.ToSlash(rel)
		if l.excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isClassFile(rel) {
			return nil
		}
		p := path
		arts = append(arts, artifact{entry: idx, id: p, read: func() ([]byte, error) { return os.ReadFile(p) }})
		return nil
	})
	if err != nil {
		return nil, info, nil, err
	}

	desc, err := loadBundledDescription(filepath.Join(e.Path, apiDescriptionFile), info.component)
	if err != nil {
		return nil, info, nil, err
	}
	return arts, info, desc, nil
}

func (l *Loader) listArchive(idx int, e Entry) ([]artifact, entryInfo, *description.Description, io.Closer, error) {
	zr, err := zip.OpenReader(e.Path)
	if err != nil {
		return nil, entryInfo{}, nil, nil, apperrors.Wrap(err, apperrors.CodeUnparseable, "open archive")
	}
	var bundle bundleInfo
	var descFile *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case manifestFile:
			if data, err := readZip(f); err == nil {
				bundle = parseManifest(data)
			}
		case apiDescriptionFile:
			descFile = f
		}
	}
	info := l.entryInfo(e, bundle)

	var desc *description.Description
	if descFile != nil {
		data, err := readZip(descFile)
		if err == nil {
			desc, err = description.ParseXML(bytes.NewReader(data))
		}
		if err != nil {
			return nil, info, nil, zr, apperrors.Wrap(err, apperrors.CodeUnparseable, "bundled "+apiDescriptionFile)
		}
		desc.Component = info.component
		desc.Source = e.Path + "!/" + apiDescriptionFile
	}

	var arts []artifact
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isClassFile(f.Name) || l.excluded(f.Name) {
			continue
		}
		zf := f
		arts = append(arts, artifact{entry: idx, id: e.Path + "!/" + f.Name, read: func() ([]byte, error) { return readZip(zf) }})
	}
	return arts, info, desc, zr, nil
}

func (l *Loader) entryInfo(e Entry, bundle bundleInfo) entryInfo {
	info := entryInfo{component: e.Component, version: e.Version}
	if info.component == "" {
		info.component = bundle.SymbolicName
	}
	if info.component == "" {
		base := filepath.Base(e.Path)
		info.component = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if info.version == "" {
		info.version = bundle.Version
	}
	switch strings.ToLower(e.Role) {
	case RoleProvider:
		info.provider = true
	case RoleConsumer:
		info.consumer = true
	case RoleBoth:
		info.provider, info.consumer = true, true
	default:
		info.provider = l.opts.Rules.Match(info.component, info.version)
		info.consumer = !info.provider
	}
	return info
}

func (l *Loader) excluded(rel string) bool {
	rel = util.NormalizePatternPath(rel)
	for _, g := range l.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func loadBundledDescription(path, component string) (*description.Description, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	d, err := description.Load(path)
	if err != nil {
		return nil, err
	}
	d.Component = component
	return d, nil
}

func readZip(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jar" || ext == ".zip"
}

// isClassFile accepts class files outside META-INF, skipping module and
// package descriptors.
func isClassFile(name string) bool {
	if !strings.HasSuffix(name, ".class") || strings.HasPrefix(name, "META-INF/") {
		return false
	}
	base := name[strings.LastIndexByte(name, '/')+1:]
	return base != "module-info.class" && base != "package-info.class"
}
