package tags

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiguard/internal/engine/description"
	"apiguard/internal/engine/model"
)

const annotationPkg = "org.eclipse.pde.api.tools.annotations"

const serviceSource = `package org.example.api;

import org.eclipse.pde.api.tools.annotations.NoExtend;
import org.eclipse.pde.api.tools.annotations.*;

/**
 * Entry point.
 *
 * @noimplement This interface is not intended to be implemented by clients.
 * @noextend
 */
public interface Service {
	/** @nooverride */
	default void start() {}

	// plain comment
	/** @noreference internal use */
	void stop();

	/** @noreference */
	int LIMIT = 3;
}
`

const widgetSource = `package org.example.api;

import org.eclipse.pde.api.tools.annotations.NoExtend;
import other.NoInstantiate;

@NoExtend
@NoInstantiate
public class Widget {
	/** @noreference */
	public Widget() {}

	/** @noreference */
	public Widget(int size) {}

	@org.eclipse.pde.api.tools.annotations.NoOverride
	public void paint() {
		Runnable r = new Runnable() {
			/** @noreference */
			public void run() {}
		};
	}

	/** @noreference */
	protected int width, height;

	/** not a tag: @noextendable */
	public static class Inner {
		/** @nooverride */
		public void layout() {}
	}
}
`

func newScanner(t *testing.T) *Scanner {
	t.Helper()
	s, err := NewScanner(Options{AnnotationPackage: annotationPkg})
	require.NoError(t, err)
	return s
}

func findEntry(entries []description.TypeEntry, name string) *description.TypeEntry {
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i]
		}
	}
	return nil
}

func TestParseSourceJavadocTags(t *testing.T) {
	entries, err := newScanner(t).ParseSource([]byte(serviceSource))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	svc := entries[0]
	assert.Equal(t, "org.example.api.Service", svc.Name)
	assert.Equal(t, model.NewRestrictionSet(model.Implement, model.Extend), svc.Restrictions)
	assert.Equal(t, []description.MemberEntry{
		{Name: "start", Restrictions: model.NewRestrictionSet(model.Override)},
		{Name: "stop", Restrictions: model.NewRestrictionSet(model.Reference)},
	}, svc.Methods)
	assert.Equal(t, []description.MemberEntry{
		{Name: "LIMIT", Restrictions: model.NewRestrictionSet(model.Reference)},
	}, svc.Fields)
}

func TestParseSourceAnnotationsAndNesting(t *testing.T) {
	entries, err := newScanner(t).ParseSource([]byte(widgetSource))
	require.NoError(t, err)

	widget := findEntry(entries, "org.example.api.Widget")
	require.NotNil(t, widget)
	assert.Equal(t, model.NewRestrictionSet(model.Extend), widget.Restrictions,
		"NoInstantiate from another package is ignored")
	assert.Equal(t, []description.MemberEntry{
		{Name: model.ConstructorName, Restrictions: model.NewRestrictionSet(model.Reference)},
		{Name: "paint", Restrictions: model.NewRestrictionSet(model.Override)},
	}, widget.Methods)
	assert.ElementsMatch(t, []description.MemberEntry{
		{Name: "width", Restrictions: model.NewRestrictionSet(model.Reference)},
		{Name: "height", Restrictions: model.NewRestrictionSet(model.Reference)},
	}, widget.Fields)

	inner := findEntry(entries, "org.example.api.Widget$Inner")
	require.NotNil(t, inner)
	assert.True(t, inner.Restrictions.Empty())
	assert.Equal(t, []description.MemberEntry{
		{Name: "layout", Restrictions: model.NewRestrictionSet(model.Override)},
	}, inner.Methods)

	for _, e := range entries {
		for _, m := range e.Methods {
			assert.NotEqual(t, "run", m.Name, "anonymous class members are skipped")
		}
	}
}

func TestParseSourceWithoutPackage(t *testing.T) {
	entries, err := newScanner(t).ParseSource([]byte("/** @noinstantiate */ class Plain {}"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Plain", entries[0].Name)
	assert.True(t, entries[0].Restrictions.Has(model.Instantiate))
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("org/example/api/Widget.java", widgetSource)
	write("org/example/api/Service.java", serviceSource)
	write("gen/Generated.java", "/** @noextend */ class Generated {}")
	write("README.md", "@noextend")

	s, err := NewScanner(Options{AnnotationPackage: annotationPkg, Workers: 2, Exclude: []string{"gen"}})
	require.NoError(t, err)
	d, notices, err := s.Scan(context.Background(), []string{root}, "org.example.api")
	require.NoError(t, err)
	assert.Empty(t, notices)
	assert.Equal(t, "org.example.api", d.Component)

	var names []string
	for _, e := range d.Types {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"org.example.api.Service", "org.example.api.Widget", "org.example.api.Widget$Inner"}, names)
}

func TestScanCanceled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "A.java"), []byte("class A {}"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := newScanner(t).Scan(ctx, []string{root}, "")
	assert.Error(t, err)
}
