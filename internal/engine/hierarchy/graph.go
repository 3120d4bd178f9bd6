// Package hierarchy indexes the supertype relation of a corpus. The graph
// is an arena of nodes addressed by index; it is built once per run and
// only read afterwards, so it needs no locking.
package hierarchy

import (
	"sort"

	"apiguard/internal/engine/model"
)

type EdgeKind uint8

const (
	// EdgeExtends links a class to its superclass and an interface to its
	// super-interfaces.
	EdgeExtends EdgeKind = 1 << iota
	// EdgeImplements links a class to a directly implemented interface.
	EdgeImplements

	AllEdges = EdgeExtends | EdgeImplements
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeExtends:
		return "extends"
	case EdgeImplements:
		return "implements"
	default:
		return "any"
	}
}

type Edge struct {
	To   int
	Kind EdgeKind
}

type Node struct {
	Name string
	// Type is nil for phantom nodes standing in for missing supertypes.
	Type *model.TypeDescriptor
	// Edges are ordered superclass first, then interfaces in declaration
	// order.
	Edges []Edge
}

func (n *Node) Phantom() bool { return n.Type == nil }

// Missing is a supertype name that no corpus type provides.
type Missing struct {
	Name         string
	ReferencedBy []string
}

type Graph struct {
	nodes    []Node
	index    map[string]int
	children [][]int
	edges    int
}

// NewGraph indexes every type of the corpus, local and anonymous ones
// included. Supertypes absent from the corpus become phantom nodes.
func NewGraph(c *model.Corpus) *Graph {
	types := c.Types()
	g := &Graph{
		nodes: make([]Node, 0, len(types)),
		index: make(map[string]int, len(types)),
	}
	for _, t := range types {
		g.add(t.Name, t)
	}
	for _, t := range types {
		from := g.index[t.Name]
		if t.Super != "" {
			g.link(from, t.Super, EdgeExtends)
		}
		kind := EdgeImplements
		if t.IsInterface() {
			kind = EdgeExtends
		}
		for _, iface := range t.Interfaces {
			g.link(from, iface, kind)
		}
	}
	return g
}

func (g *Graph) add(name string, t *model.TypeDescriptor) int {
	if id, ok := g.index[name]; ok {
		return id
	}
	id := len(g.nodes)
	g.nodes = append(g.nodes, Node{Name: name, Type: t})
	g.children = append(g.children, nil)
	g.index[name] = id
	return id
}

func (g *Graph) link(from int, to string, kind EdgeKind) {
	id := g.add(to, nil)
	for _, e := range g.nodes[from].Edges {
		if e.To == id {
			return
		}
	}
	g.nodes[from].Edges = append(g.nodes[from].Edges, Edge{To: id, Kind: kind})
	g.children[id] = append(g.children[id], from)
	g.edges++
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int { return g.edges }

// Node returns the node for a type name.
func (g *Graph) Node(name string) (*Node, bool) {
	id, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return &g.nodes[id], true
}

// Missing lists phantom nodes with the types that reference them, sorted
// by name.
func (g *Graph) Missing() []Missing {
	var out []Missing
	for id := range g.nodes {
		if !g.nodes[id].Phantom() {
			continue
		}
		m := Missing{Name: g.nodes[id].Name}
		for _, child := range g.children[id] {
			m.ReferencedBy = append(m.ReferencedBy, g.nodes[child].Name)
		}
		sort.Strings(m.ReferencedBy)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Nodes returns every node in insertion order: corpus types first, then
// phantoms as they were discovered.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	for i := range g.nodes {
		out[i] = &g.nodes[i]
	}
	return out
}

// Target returns the name of the node an edge points to.
func (g *Graph) Target(e Edge) string { return g.nodes[e.To].Name }
