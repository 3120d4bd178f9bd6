package classpath

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/classfile/classfiletest"
	"apiguard/internal/engine/model"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writeJar(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func byName(types []*model.TypeDescriptor) map[string]*model.TypeDescriptor {
	out := make(map[string]*model.TypeDescriptor, len(types))
	for _, t := range types {
		out[t.Name] = t
	}
	return out
}

const manifest = "Manifest-Version: 1.0\r\n" +
	"Bundle-SymbolicName: org.example.api;singleton:=tr\r\n" +
	" ue\r\n" +
	"Bundle-Version: 1.4.0.v20240101\r\n"

const bundledDescription = `<?xml version="1.0" encoding="UTF-8"?>
<component name="ignored">
  <package name="api">
    <type name="Service" restrictions="2"/>
  </package>
</component>`

func TestLoadDirectoryAndJar(t *testing.T) {
	dir := t.TempDir()
	consumer := filepath.Join(dir, "consumer")
	writeFile(t, filepath.Join(consumer, "app", "Impl.class"),
		classfiletest.New("app/Impl").Implements("api/Service").Bytes())
	writeFile(t, filepath.Join(consumer, "app", "Impl$1.class"),
		classfiletest.New("app/Impl$1").
			Inner("app/Impl$1", "", "", 0).
			Enclosing("app/Impl", "run", "()V").
			Bytes())
	writeFile(t, filepath.Join(consumer, "app", "package-info.class"), []byte{0xCA, 0xFE})

	jar := filepath.Join(dir, "api.jar")
	writeJar(t, jar, map[string][]byte{
		"META-INF/MANIFEST.MF":   []byte(manifest),
		".api_description":       []byte(bundledDescription),
		"api/Service.class":      classfiletest.Interface("api/Service").Bytes(),
		"api/Base.class":         classfiletest.New("api/Base").Bytes(),
		"META-INF/versions.class": []byte("skip"),
	})

	rules, err := NewRules([]Rule{{Component: "org.example.*", Versions: ">= 1.0"}})
	require.NoError(t, err)
	l, err := NewLoader(Options{Workers: 4, Rules: rules, CacheSize: 16})
	require.NoError(t, err)

	res, err := l.Load(context.Background(), []Entry{
		{Path: consumer, Component: "app"},
		{Path: jar},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Notices)
	assert.Equal(t, 4, res.Artifacts)

	types := byName(res.Types)
	require.Len(t, types, 4)

	svc := types["api.Service"]
	require.NotNil(t, svc)
	assert.Equal(t, "org.example.api", svc.Component)
	assert.Equal(t, "1.4.0.v20240101", svc.Version)
	assert.True(t, svc.Provider)
	assert.False(t, svc.Consumer)
	assert.Equal(t, jar+"!/api/Service.class", svc.Artifact)

	impl := types["app.Impl"]
	require.NotNil(t, impl)
	assert.Equal(t, "app", impl.Component)
	assert.False(t, impl.Provider)
	assert.True(t, impl.Consumer)

	anon := types["app.Impl$1"]
	require.NotNil(t, anon)
	assert.True(t, anon.LocalOrAnonymous)
	assert.True(t, anon.Consumer)

	require.Len(t, res.Descriptions, 1)
	desc := res.Descriptions[0]
	assert.Equal(t, "org.example.api", desc.Component)
	assert.Equal(t, jar+"!/.api_description", desc.Source)
	require.Len(t, desc.Types, 1)
	assert.Equal(t, "api.Service", desc.Types[0].Name)
	assert.True(t, desc.Types[0].Restrictions.Has(model.Implement))
}

func TestLoadExplicitRoles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "both", "p", "A.class"), classfiletest.New("p/A").Bytes())
	writeFile(t, filepath.Join(dir, "p", "Local.class"),
		classfiletest.New("p/Local").
			Inner("p/Local", "", "Local", 0).
			Enclosing("p/A", "m", "()V").
			Bytes())

	l, err := NewLoader(Options{})
	require.NoError(t, err)
	res, err := l.Load(context.Background(), []Entry{
		{Path: filepath.Join(dir, "both"), Role: RoleBoth},
		{Path: filepath.Join(dir, "p", "Local.class"), Role: RoleProvider},
	})
	require.NoError(t, err)

	types := byName(res.Types)
	a := types["p.A"]
	require.NotNil(t, a)
	assert.True(t, a.Provider)
	assert.True(t, a.Consumer)
	assert.Equal(t, "both", a.Component)

	local := types["p.Local"]
	require.NotNil(t, local)
	assert.False(t, local.Provider, "local types never carry declarations")
	assert.Equal(t, "Local", local.Component)
}

func TestLoadBadArtifactsBecomeNotices(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "p", "Good.class"), classfiletest.New("p/Good").Bytes())
	writeFile(t, filepath.Join(dir, "p", "Bad.class"), []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00})
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("x"))

	l, err := NewLoader(Options{Workers: 2})
	require.NoError(t, err)
	res, err := l.Load(context.Background(), []Entry{
		{Path: dir},
		{Path: filepath.Join(dir, "missing.jar")},
		{Path: filepath.Join(dir, "notes.txt")},
	})
	require.NoError(t, err)

	require.Len(t, res.Types, 1)
	assert.Equal(t, "p.Good", res.Types[0].Name)
	require.Len(t, res.Notices, 3)
	for _, n := range res.Notices {
		assert.Equal(t, model.NoticeUnparseable, n.Kind)
	}
}

func TestLoadExcludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "p", "A.class"), classfiletest.New("p/A").Bytes())
	writeFile(t, filepath.Join(dir, "p", "internal", "B.class"), classfiletest.New("p/internal/B").Bytes())

	l, err := NewLoader(Options{Exclude: []string{"**/internal"}})
	require.NoError(t, err)
	res, err := l.Load(context.Background(), []Entry{{Path: dir}})
	require.NoError(t, err)
	require.Len(t, res.Types, 1)
	assert.Equal(t, "p.A", res.Types[0].Name)

	_, err = NewLoader(Options{Exclude: []string{"["}})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationError))
}

func TestLoadCachesByContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "p", "A.class"), classfiletest.New("p/A").Bytes())
	writeFile(t, filepath.Join(dir, "p", "B.class"), classfiletest.New("p/B").Bytes())

	l, err := NewLoader(Options{CacheSize: 8})
	require.NoError(t, err)
	entries := []Entry{{Path: dir, Component: "c", Role: RoleProvider}}

	first, err := l.Load(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, 0, first.CacheHits)

	second, err := l.Load(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, 2, second.CacheHits)
	require.Len(t, second.Types, 2)

	// Cached descriptors are cloned per load.
	second.Types[0].Component = "changed"
	assert.Equal(t, "c", first.Types[0].Component)

	l.ClearCache()
	third, err := l.Load(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, 0, third.CacheHits)
}

func TestLoadCanceled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "p", "A.class"), classfiletest.New("p/A").Bytes())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l, err := NewLoader(Options{})
	require.NoError(t, err)
	_, err = l.Load(ctx, []Entry{{Path: dir}})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCanceled))
}
