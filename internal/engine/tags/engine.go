package tags

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// nodeHandler processes one node. Returning true stops the walker from
// descending into the node's children.
type nodeHandler func(ctx *walkContext, node *sitter.Node) bool

type walkContext struct {
	source  []byte
	pkg     string
	imports imports
	// scope holds the binary names of the enclosing type declarations.
	scope   []string
	entries map[string]*entryBuilder
	order   []string
}

type walker struct {
	handlers map[string]nodeHandler
}

func (w *walker) walk(ctx *walkContext, node *sitter.Node) {
	if node == nil {
		return
	}
	if h, ok := w.handlers[node.Kind()]; ok && h(ctx, node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(ctx, node.Child(i))
	}
}

func (c *walkContext) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.source[node.StartByte():node.EndByte()])
}

func (c *walkContext) current() string {
	if len(c.scope) == 0 {
		return ""
	}
	return c.scope[len(c.scope)-1]
}

// entry returns the builder for a type, creating it in declaration order.
func (c *walkContext) entry(name string) *entryBuilder {
	if e, ok := c.entries[name]; ok {
		return e
	}
	e := &entryBuilder{name: name}
	c.entries[name] = e
	c.order = append(c.order, name)
	return e
}

// imports records single-type and on-demand imports of one compilation unit.
type imports struct {
	single   map[string]bool
	wildcard map[string]bool
}

func (i imports) has(qualified string) bool {
	if i.single[qualified] {
		return true
	}
	pkg := qualified
	if idx := lastDot(qualified); idx >= 0 {
		pkg = qualified[:idx]
	}
	return i.wildcard[pkg]
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}
