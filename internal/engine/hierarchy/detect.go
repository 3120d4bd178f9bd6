package hierarchy

import (
	"sort"
	"strings"
)

// DetectCycles returns every supertype cycle found by depth-first search,
// each rotated to start at its smallest name. Well-formed class files
// never produce one; a cycle means the classpath mixes incompatible
// versions of the same types.
func (g *Graph) DetectCycles() [][]string {
	visited := make([]bool, len(g.nodes))
	onStack := make([]bool, len(g.nodes))
	var cycles [][]string
	seen := make(map[string]bool)

	var visit func(curr int, path []int)
	visit = func(curr int, path []int) {
		visited[curr] = true
		onStack[curr] = true
		path = append(path, curr)

		for _, e := range g.nodes[curr].Edges {
			next := e.To
			if onStack[next] {
				start := -1
				for i, id := range path {
					if id == next {
						start = i
						break
					}
				}
				if start != -1 {
					cycle := g.canonical(path[start:])
					key := strings.Join(cycle, "\x00")
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, cycle)
					}
				}
			} else if !visited[next] {
				visit(next, path)
			}
		}
		onStack[curr] = false
	}

	for id := range g.nodes {
		if !visited[id] {
			visit(id, nil)
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

func (g *Graph) canonical(ids []int) []string {
	names := make([]string, len(ids))
	first := 0
	for i, id := range ids {
		names[i] = g.nodes[id].Name
		if names[i] < names[first] {
			first = i
		}
	}
	out := make([]string, 0, len(names))
	out = append(out, names[first:]...)
	return append(out, names[:first]...)
}
