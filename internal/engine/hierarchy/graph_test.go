package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiguard/internal/engine/model"
)

func class(name, super string, ifaces ...string) *model.TypeDescriptor {
	return &model.TypeDescriptor{Name: name, Kind: model.KindClass, Super: super, Interfaces: ifaces}
}

func iface(name string, supers ...string) *model.TypeDescriptor {
	return &model.TypeDescriptor{Name: name, Kind: model.KindInterface, Interfaces: supers}
}

func names(as []Ancestor) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name
	}
	return out
}

// C extends B implements J; B extends A implements I; J extends I.
func sample() *Graph {
	return NewGraph(model.NewCorpus([]*model.TypeDescriptor{
		class("p.C", "p.B", "p.J"),
		class("p.B", "p.A", "p.I"),
		class("p.A", ""),
		iface("p.I"),
		iface("p.J", "p.I"),
	}))
}

func TestAncestorsOfOrder(t *testing.T) {
	g := sample()
	as := g.AncestorsOf("p.C")
	assert.Equal(t, []string{"p.B", "p.J", "p.A", "p.I"}, names(as))
	assert.Equal(t, []int{1, 1, 2, 2}, []int{as[0].Distance, as[1].Distance, as[2].Distance, as[3].Distance})
	assert.Nil(t, g.AncestorsOf("p.Unknown"))
	assert.Empty(t, g.AncestorsOf("p.A"))
}

func TestWalkExtendsOnly(t *testing.T) {
	g := sample()
	assert.Equal(t, []string{"p.C", "p.B", "p.A"}, names(g.Walk("p.C", EdgeExtends, true)))
	// Super-interfaces of an interface are extends edges.
	assert.Equal(t, []string{"p.I"}, names(g.Walk("p.J", EdgeExtends, false)))
}

func TestIsReachable(t *testing.T) {
	g := sample()
	assert.True(t, g.IsReachable("p.C", "p.I"))
	assert.True(t, g.IsReachable("p.C", "p.C"))
	assert.False(t, g.IsReachable("p.I", "p.C"))
	assert.False(t, g.IsReachable("p.C", "p.Missing"))
}

func TestDescendantsAndChain(t *testing.T) {
	g := sample()
	assert.Equal(t, []string{"p.B", "p.C", "p.J"}, g.DescendantsOf("p.I"))

	chain, ok := g.Chain("p.C", "p.I")
	require.True(t, ok)
	assert.Equal(t, []string{"p.C", "p.B", "p.I"}, chain)

	chain, ok = g.Chain("p.A", "p.A")
	require.True(t, ok)
	assert.Equal(t, []string{"p.A"}, chain)

	_, ok = g.Chain("p.I", "p.C")
	assert.False(t, ok)
}

func TestPhantomsAndMissing(t *testing.T) {
	g := NewGraph(model.NewCorpus([]*model.TypeDescriptor{
		class("p.A", "lib.Base", "lib.Api"),
		class("p.B", "lib.Base"),
	}))
	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())

	n, ok := g.Node("lib.Base")
	require.True(t, ok)
	assert.True(t, n.Phantom())

	assert.Equal(t, []Missing{
		{Name: "lib.Api", ReferencedBy: []string{"p.A"}},
		{Name: "lib.Base", ReferencedBy: []string{"p.A", "p.B"}},
	}, g.Missing())

	as := g.AncestorsOf("p.A")
	require.Len(t, as, 2)
	assert.Nil(t, as[0].Type)
}

func TestCyclesTerminate(t *testing.T) {
	g := NewGraph(model.NewCorpus([]*model.TypeDescriptor{
		class("p.X", "p.Y"),
		class("p.Y", "p.Z"),
		class("p.Z", "p.X"),
		iface("p.Self", "p.Self"),
		class("p.Ok", "p.X"),
	}))

	assert.Equal(t, []string{"p.Y", "p.Z"}, names(g.AncestorsOf("p.X")))
	assert.True(t, g.IsReachable("p.Ok", "p.Z"))
	assert.False(t, g.IsReachable("p.X", "p.Ok"))

	cycles := g.DetectCycles()
	assert.Equal(t, [][]string{
		{"p.Self"},
		{"p.X", "p.Y", "p.Z"},
	}, cycles)
}

func TestLocalTypesAreIndexed(t *testing.T) {
	local := class("p.Outer$1Local", "p.Base")
	local.LocalOrAnonymous = true
	sub := class("p.Outer$1Sub", "p.Outer$1Local")
	sub.LocalOrAnonymous = true
	g := NewGraph(model.NewCorpus([]*model.TypeDescriptor{class("p.Base", ""), local, sub}))

	assert.Equal(t, []string{"p.Outer$1Local", "p.Base"}, names(g.AncestorsOf("p.Outer$1Sub")))
	assert.Empty(t, g.Missing())
}

func TestNodesAndTargets(t *testing.T) {
	g := NewGraph(model.NewCorpus([]*model.TypeDescriptor{
		class("p.C", "p.B", "x.Missing"),
		class("p.B", ""),
	}))
	nodes := g.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, "p.C", nodes[0].Name)
	assert.Equal(t, "p.B", nodes[1].Name)
	assert.True(t, nodes[2].Phantom())

	c := nodes[0]
	require.Len(t, c.Edges, 2)
	assert.Equal(t, "p.B", g.Target(c.Edges[0]))
	assert.Equal(t, EdgeExtends, c.Edges[0].Kind)
	assert.Equal(t, "x.Missing", g.Target(c.Edges[1]))
	assert.Equal(t, EdgeImplements, c.Edges[1].Kind)
}
