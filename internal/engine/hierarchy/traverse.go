package hierarchy

import (
	"sort"

	"apiguard/internal/engine/model"
)

// Ancestor is a supertype reached by breadth-first traversal.
type Ancestor struct {
	Name string
	// Type is nil for phantom ancestors.
	Type     *model.TypeDescriptor
	Distance int
}

// AncestorsOf returns every supertype of name, nearest first: the direct
// superclass, then direct interfaces, then indirect ancestors level by
// level. Each ancestor appears once, at its shortest distance.
func (g *Graph) AncestorsOf(name string) []Ancestor {
	return g.Walk(name, AllEdges, false)
}

// Walk traverses breadth-first from name following only edges in kinds.
// With self set the start node is included at distance 0. Cycles are cut
// by the visited set.
func (g *Graph) Walk(name string, kinds EdgeKind, self bool) []Ancestor {
	start, ok := g.index[name]
	if !ok {
		return nil
	}
	var out []Ancestor
	if self {
		out = append(out, g.ancestor(start, 0))
	}
	visited := map[int]bool{start: true}
	level := []int{start}
	for dist := 1; len(level) > 0; dist++ {
		var next []int
		for _, id := range level {
			for _, e := range g.nodes[id].Edges {
				if e.Kind&kinds == 0 || visited[e.To] {
					continue
				}
				visited[e.To] = true
				out = append(out, g.ancestor(e.To, dist))
				next = append(next, e.To)
			}
		}
		level = next
	}
	return out
}

func (g *Graph) ancestor(id, dist int) Ancestor {
	return Ancestor{Name: g.nodes[id].Name, Type: g.nodes[id].Type, Distance: dist}
}

// IsReachable reports whether to is a supertype of from, or from itself.
func (g *Graph) IsReachable(from, to string) bool {
	if _, ok := g.index[to]; !ok {
		return false
	}
	if from == to {
		_, ok := g.index[from]
		return ok
	}
	for _, a := range g.AncestorsOf(from) {
		if a.Name == to {
			return true
		}
	}
	return false
}

// DescendantsOf returns every direct or indirect subtype of name, sorted.
func (g *Graph) DescendantsOf(name string) []string {
	start, ok := g.index[name]
	if !ok {
		return nil
	}
	visited := map[int]bool{start: true}
	queue := []int{start}
	var out []string
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, child := range g.children[curr] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, g.nodes[child].Name)
			queue = append(queue, child)
		}
	}
	sort.Strings(out)
	return out
}

// Chain returns the shortest supertype path from from to to, both
// included.
func (g *Graph) Chain(from, to string) ([]string, bool) {
	start, ok := g.index[from]
	if !ok {
		return nil, false
	}
	goal, ok := g.index[to]
	if !ok {
		return nil, false
	}
	if start == goal {
		return []string{from}, true
	}

	queue := []int{start}
	visited := map[int]bool{start: true}
	prev := make(map[int]int)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, e := range g.nodes[curr].Edges {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			prev[e.To] = curr
			if e.To == goal {
				return g.path(prev, start, goal), true
			}
			queue = append(queue, e.To)
		}
	}
	return nil, false
}

func (g *Graph) path(prev map[int]int, start, goal int) []string {
	var rev []string
	for at := goal; ; at = prev[at] {
		rev = append(rev, g.nodes[at].Name)
		if at == start {
			break
		}
	}
	out := make([]string, len(rev))
	for i, name := range rev {
		out[len(rev)-1-i] = name
	}
	return out
}
