package model

import "sort"

// Corpus is the set of type descriptors for one analysis run. The first
// descriptor with a given name wins, mirroring classpath order.
type Corpus struct {
	types  []*TypeDescriptor
	byName map[string]*TypeDescriptor
	all    map[string]*TypeDescriptor
	// shadowed counts descriptors dropped because an earlier entry had the
	// same name.
	shadowed int
}

func NewCorpus(types []*TypeDescriptor) *Corpus {
	c := &Corpus{
		types:  make([]*TypeDescriptor, 0, len(types)),
		byName: make(map[string]*TypeDescriptor, len(types)),
		all:    make(map[string]*TypeDescriptor, len(types)),
	}
	for _, t := range types {
		if t == nil || t.Name == "" {
			continue
		}
		if _, dup := c.all[t.Name]; dup {
			c.shadowed++
			continue
		}
		c.types = append(c.types, t)
		c.all[t.Name] = t
		if !t.LocalOrAnonymous {
			c.byName[t.Name] = t
		}
	}
	return c
}

// Lookup resolves a type by name. Local, anonymous and synthetic types are
// never returned.
func (c *Corpus) Lookup(name string) (*TypeDescriptor, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// LookupAny resolves any type, including local and anonymous ones.
func (c *Corpus) LookupAny(name string) (*TypeDescriptor, bool) {
	t, ok := c.all[name]
	return t, ok
}

// Types returns descriptors in classpath order.
func (c *Corpus) Types() []*TypeDescriptor {
	return c.types
}

// Consumers returns the types to scan, sorted by name.
func (c *Corpus) Consumers() []*TypeDescriptor {
	out := make([]*TypeDescriptor, 0, len(c.types))
	for _, t := range c.types {
		if t.Consumer {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Corpus) Len() int { return len(c.types) }

func (c *Corpus) Shadowed() int { return c.shadowed }
