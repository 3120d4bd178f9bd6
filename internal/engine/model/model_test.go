package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestrictionSet(t *testing.T) {
	s := NewRestrictionSet(Implement, Reference)
	assert.True(t, s.Has(Implement))
	assert.True(t, s.Has(Reference))
	assert.False(t, s.Has(Extend))
	assert.Equal(t, 10, s.Bits())
	assert.Equal(t, "implement|reference", s.String())
	assert.Equal(t, []Kind{Implement, Reference}, s.Kinds())

	s = s.Without(Implement).With(Override)
	assert.Equal(t, NewRestrictionSet(Reference, Override), s)
	assert.Equal(t, "none", RestrictionSet(0).String())
	assert.True(t, SetFromBits(0).Empty())
	assert.Equal(t, NewRestrictionSet(Extend, Override), SetFromBits(1|16|64))
	assert.True(t, SetFromBits(-3).Empty())
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"extend":        Extend,
		"@noimplement":  Implement,
		"NoInstantiate": Instantiate,
		"noreference":   Reference,
		" override ":    Override,
		"no-extend":     Extend,
	}
	for in, want := range cases {
		got, ok := ParseKind(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseKind("nothing")
	assert.False(t, ok)

	set, unknown := ParseRestrictionSet([]string{"implement", "@noextend", "bogus"})
	assert.Equal(t, NewRestrictionSet(Implement, Extend), set)
	assert.Equal(t, []string{"bogus"}, unknown)

	assert.Equal(t, "@noimplement", Implement.Tag())
	assert.Equal(t, "NoInstantiate", Instantiate.Annotation())
}

func TestMemberDisplay(t *testing.T) {
	m := &MemberDescriptor{Owner: "p.Outer", Kind: MemberMethod, Name: "m", Descriptor: "(I[Ljava/lang/String;J)V"}
	assert.Equal(t, "m(int, String[], long)", m.Display())
	assert.Equal(t, "p.Outer#m(I[Ljava/lang/String;J)V", m.ID())

	ctor := &MemberDescriptor{Owner: "p.Outer$Inner", Kind: MemberConstructor, Name: ConstructorName, Descriptor: "()V"}
	assert.Equal(t, "Inner()", ctor.Display())
	assert.Equal(t, "p.Outer$Inner.Inner()", ctor.Ref().String())

	f := &MemberDescriptor{Owner: "p.T", Kind: MemberField, Name: "count", Descriptor: "I"}
	assert.Equal(t, "count", f.Display())
	assert.Equal(t, "p.T#count", f.ID())
	assert.Equal(t, "p.T#count", f.Ref().ID())

	assert.Equal(t, "bad", ParameterDisplay("bad"))
}

func TestParseMethodDescriptor(t *testing.T) {
	params, ret, ok := ParseMethodDescriptor("([[IZLjava/util/List;)Ljava/lang/Runnable;")
	require.True(t, ok)
	assert.Equal(t, []string{"int[][]", "boolean", "java.util.List"}, params)
	assert.Equal(t, "java.lang.Runnable", ret)

	_, _, ok = ParseMethodDescriptor("(Ljava/lang/String")
	assert.False(t, ok)
	_, _, ok = ParseMethodDescriptor("I")
	assert.False(t, ok)
}

func TestMemberFlags(t *testing.T) {
	m := &MemberDescriptor{Kind: MemberMethod, Name: "run", Modifiers: AccPublic}
	assert.True(t, m.CanOverride())
	m.Modifiers |= AccStatic
	assert.False(t, m.CanOverride())
	m = &MemberDescriptor{Kind: MemberMethod, Name: "x", Modifiers: AccBridge | AccSynthetic}
	assert.True(t, m.IsSynthetic())
	assert.False(t, (&MemberDescriptor{Kind: MemberConstructor, Name: ConstructorName}).CanOverride())
}

func TestLocationString(t *testing.T) {
	loc := Location{
		Type: "Outer",
		Path: []Segment{{Name: "Local", Method: "m()"}},
	}
	assert.Equal(t, "Outer.m().Local", loc.String())

	deep := Location{
		Type: "p.Outer",
		Path: []Segment{
			{Name: "Inner"},
			{Name: "Local", Method: "run(int)"},
			{Name: "1", Anonymous: true, Super: "INoImpl", Method: "go()"},
		},
		Member: "call()",
		Line:   42,
	}
	assert.Equal(t, "p.Outer.Inner.run(int).Local.go().new INoImpl() {...}.call()", deep.String())
	assert.Equal(t, "p.Outer.Inner.run(int).Local.go().new INoImpl() {...}", deep.TypePath())

	other := deep
	other.Path = append([]Segment(nil), deep.Path...)
	other.Path[2].Name = "2"
	assert.Equal(t, deep.String(), other.String())
	assert.NotEqual(t, deep.Key(), other.Key())
}

func TestLocationKeySeparatesSameNamedLocals(t *testing.T) {
	first := Location{Type: "app.Outer", Path: []Segment{{Name: "Local", Method: "m()", Binary: "1Local"}}}
	second := Location{Type: "app.Outer", Path: []Segment{{Name: "Local", Method: "m()", Binary: "2Local"}}}
	assert.Equal(t, first.String(), second.String())
	assert.NotEqual(t, first.Key(), second.Key())
}

func TestCorpusLookup(t *testing.T) {
	outer := &TypeDescriptor{Name: "p.Outer", Consumer: true}
	local := &TypeDescriptor{Name: "p.Outer$1Local", LocalOrAnonymous: true, Consumer: true}
	dup := &TypeDescriptor{Name: "p.Outer", Artifact: "second"}
	api := &TypeDescriptor{Name: "p.Api", Provider: true}

	c := NewCorpus([]*TypeDescriptor{outer, local, dup, api, nil})
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1, c.Shadowed())

	got, ok := c.Lookup("p.Outer")
	require.True(t, ok)
	assert.Same(t, outer, got)

	_, ok = c.Lookup("p.Outer$1Local")
	assert.False(t, ok)
	got, ok = c.LookupAny("p.Outer$1Local")
	require.True(t, ok)
	assert.Same(t, local, got)

	consumers := c.Consumers()
	require.Len(t, consumers, 2)
	assert.Equal(t, "p.Outer", consumers[0].Name)
	assert.Equal(t, "p.Outer$1Local", consumers[1].Name)
}

func TestCloneIsIndependent(t *testing.T) {
	orig := &TypeDescriptor{
		Name:       "p.T",
		Interfaces: []string{"p.I"},
		Members:    []*MemberDescriptor{{Owner: "p.T", Name: "m", Descriptor: "()V"}},
	}
	cp := orig.Clone()
	cp.Members[0].Restrictions = NewRestrictionSet(Reference)
	cp.Interfaces[0] = "p.J"
	assert.True(t, orig.Members[0].Restrictions.Empty())
	assert.Equal(t, "p.I", orig.Interfaces[0])
	assert.NotNil(t, orig.Method("m", "()V"))
	assert.Nil(t, orig.Field("m"))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "a.b.C$D", DottedName("a/b/C$D"))
	assert.Equal(t, "a/b/C", InternalName("a.b.C"))
	assert.Equal(t, "D", SimpleName("a.b.C$D"))
	assert.Equal(t, "C$", SimpleName("a.b.C$"))
	assert.Equal(t, "a.b", PackageOf("a.b.C"))
	assert.Equal(t, "", PackageOf("C"))
	assert.True(t, IsArrayName("[Lp/T;"))
}
