package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/classfile"
	"apiguard/internal/engine/classfile/classfiletest"
	"apiguard/internal/engine/description"
	"apiguard/internal/engine/model"
)

const annotations = "org.eclipse.pde.api.tools.annotations"

func annotation(name string) string {
	return "Lorg/eclipse/pde/api/tools/annotations/" + name + ";"
}

func read(t *testing.T, b *classfiletest.Builder, component string, provider bool) *model.TypeDescriptor {
	t.Helper()
	td, err := classfile.Read(b.Bytes(), classfile.Options{AnnotationPackage: annotations})
	require.NoError(t, err)
	td.Component = component
	td.Provider = provider && !td.LocalOrAnonymous
	td.Consumer = !provider
	return td
}

// compiled returns a small provider API and a consumer that misuses it
// from a method body and from a local class.
func compiled(t *testing.T) []*model.TypeDescriptor {
	iface := classfiletest.Interface("api/INoImpl").Annotate(annotation("NoImplement"))
	iface.Method(classfiletest.AccPublic|classfiletest.AccAbstract, "call", "()V")

	widget := classfiletest.New("api/Widget").Annotate(annotation("NoInstantiate"))
	widget.Method(classfiletest.AccPublic, "<init>", "()V").
		ALoad0().InvokeSpecial("java/lang/Object", "<init>", "()V").Return()
	widget.Method(classfiletest.AccPublic, "internal", "()V").
		Annotate(annotation("NoReference")).Return()

	outer := classfiletest.New("app/Outer").
		SourceFile("Outer.java").
		Inner("app/Outer$1Local", "", "Local", 0)
	outer.Method(classfiletest.AccPublic, "m", "()V").
		Line(10).New("api/Widget").Dup().InvokeSpecial("api/Widget", "<init>", "()V").
		Line(11).InvokeVirtual("api/Widget", "internal", "()V").
		Return()

	local := classfiletest.New("app/Outer$1Local").
		Implements("api/INoImpl").
		Inner("app/Outer$1Local", "", "Local", 0).
		Enclosing("app/Outer", "m", "()V")
	local.Method(classfiletest.AccPublic, "call", "()V").Return()

	return []*model.TypeDescriptor{
		read(t, iface, "api", true),
		read(t, widget, "api", true),
		read(t, outer, "app", false),
		read(t, local, "app", false),
	}
}

func TestRunEndToEnd(t *testing.T) {
	c, notices := BuildCorpus(compiled(t), nil)
	require.Empty(t, notices)

	res, err := Run(context.Background(), c, Options{Workers: 2, IgnoreUnresolved: []string{"java.**"}})
	require.NoError(t, err)
	assert.Empty(t, res.Notices)
	require.Len(t, res.Violations, 3)

	inst := res.Violations[0]
	assert.Equal(t, model.Instantiate, inst.Kind)
	assert.Equal(t, "api.Widget", inst.Element.String())
	assert.Equal(t, "app.Outer.m()", inst.Location.String())
	assert.Equal(t, 10, inst.Location.Line)

	ref := res.Violations[1]
	assert.Equal(t, model.Reference, ref.Kind)
	assert.Equal(t, "api.Widget.internal()", ref.Element.String())
	assert.Equal(t, 11, ref.Location.Line)

	impl := res.Violations[2]
	assert.Equal(t, model.Implement, impl.Kind)
	assert.Equal(t, "api.INoImpl", impl.Origin.Type)
	assert.Equal(t, "app.Outer.m().Local", impl.Location.String())
}

func TestRunIsIdempotent(t *testing.T) {
	types := compiled(t)
	c, _ := BuildCorpus(types, nil)
	opts := Options{Workers: 4, IgnoreUnresolved: []string{"java.**"}}

	first, err := Run(context.Background(), c, opts)
	require.NoError(t, err)
	second, err := Run(context.Background(), c, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunAppliesDescriptions(t *testing.T) {
	base := &model.TypeDescriptor{Name: "api.Base", Component: "api", Provider: true}
	sub := &model.TypeDescriptor{Name: "app.Sub", Super: "api.Base", Component: "app", Consumer: true}
	descs := []*description.Description{{
		Component: "api",
		Types: []description.TypeEntry{
			{Name: "api.Base", Restrictions: model.NewRestrictionSet(model.Extend)},
			{Name: "api.Gone", Restrictions: model.NewRestrictionSet(model.Extend)},
		},
	}}

	c, notices := BuildCorpus([]*model.TypeDescriptor{base, sub}, descs)
	require.Len(t, notices, 1)
	assert.Equal(t, model.NoticeDescription, notices[0].Kind)
	assert.True(t, base.Restrictions.Empty(), "inputs are not modified")

	res, err := Run(context.Background(), c, Options{Notices: notices})
	require.NoError(t, err)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, model.Extend, res.Violations[0].Kind)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, "api.Gone", res.Notices[0].Subject)
}

func TestRunReportsCycles(t *testing.T) {
	x := &model.TypeDescriptor{Name: "app.X", Super: "app.Y", Consumer: true}
	y := &model.TypeDescriptor{Name: "app.Y", Super: "app.X", Consumer: true}

	res, err := Run(context.Background(), model.NewCorpus([]*model.TypeDescriptor{x, y}), Options{})
	require.NoError(t, err)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, model.NoticeCycle, res.Notices[0].Kind)
	assert.Equal(t, "app.X -> app.Y -> app.X", res.Notices[0].Subject)
}

func TestRunCanceled(t *testing.T) {
	c, _ := BuildCorpus(compiled(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, c, Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCanceled))
}

func TestRunRejectsBadIgnorePattern(t *testing.T) {
	_, err := Run(context.Background(), model.NewCorpus(nil), Options{IgnoreUnresolved: []string{"java.["}})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationError))
}
