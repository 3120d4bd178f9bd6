// Package restriction computes effective restrictions: what a type or
// member is restricted by once declarations are propagated along the
// hierarchy. Results are memoized for the lifetime of one run.
package restriction

import (
	"sort"
	"sync"

	"apiguard/internal/engine/hierarchy"
	"apiguard/internal/engine/model"
	"apiguard/internal/shared/observability"
)

// Effective is the outcome of one (element, kind) query. Origins are the
// nearest declaring elements; several are kept when they tie.
type Effective struct {
	Restricted bool
	Origins    []model.ElementRef
	Distance   int
}

// Origin returns the first origin.
func (e Effective) Origin() model.ElementRef {
	if len(e.Origins) == 0 {
		return model.ElementRef{}
	}
	return e.Origins[0]
}

type Options struct {
	// IntraComponent also reports uses of restricted elements from within
	// their own component.
	IntraComponent bool
}

type memoKey struct {
	id   string
	kind model.Kind
}

// Resolver is the run-scoped analysis context shared by every scan worker.
type Resolver struct {
	corpus *model.Corpus
	graph  *hierarchy.Graph
	opts   Options

	mu   sync.RWMutex
	memo map[memoKey]Effective
}

func NewResolver(c *model.Corpus, g *hierarchy.Graph, opts Options) *Resolver {
	return &Resolver{
		corpus: c,
		graph:  g,
		opts:   opts,
		memo:   make(map[memoKey]Effective),
	}
}

func (r *Resolver) Corpus() *model.Corpus { return r.corpus }

func (r *Resolver) Graph() *hierarchy.Graph { return r.graph }

// CacheLen reports how many queries are memoized.
func (r *Resolver) CacheLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.memo)
}

func (r *Resolver) cached(key memoKey, compute func() Effective) Effective {
	r.mu.RLock()
	eff, ok := r.memo[key]
	r.mu.RUnlock()
	if ok {
		observability.ResolverCacheHits.Inc()
		return eff
	}
	observability.ResolverCacheMisses.Inc()

	// Computation is pure, so concurrent misses store identical values.
	eff = compute()
	r.mu.Lock()
	r.memo[key] = eff
	r.mu.Unlock()
	return eff
}

// Type returns the effective restriction of kind on the named type.
// Instantiate applies to the type itself, Extend to any depth along
// extends edges and Implement to any depth along every edge. Reference and
// Override never apply to types.
func (r *Resolver) Type(name string, kind model.Kind) Effective {
	switch kind {
	case model.Instantiate, model.Extend, model.Implement:
	default:
		return Effective{}
	}
	return r.cached(memoKey{id: name, kind: kind}, func() Effective {
		switch kind {
		case model.Instantiate:
			t, ok := r.corpus.Lookup(name)
			if ok && TypeDeclarations(t).Has(model.Instantiate) {
				return Effective{Restricted: true, Origins: []model.ElementRef{t.Ref()}}
			}
			return Effective{}
		case model.Extend:
			return r.nearestType(r.graph.Walk(name, hierarchy.EdgeExtends, true), kind)
		default:
			return r.nearestType(r.graph.Walk(name, hierarchy.AllEdges, true), kind)
		}
	})
}

func (r *Resolver) nearestType(ancestors []hierarchy.Ancestor, kind model.Kind) Effective {
	var eff Effective
	for _, a := range ancestors {
		if eff.Restricted && a.Distance > eff.Distance {
			break
		}
		if TypeDeclarations(a.Type).Has(kind) {
			eff.Restricted = true
			eff.Distance = a.Distance
			eff.Origins = append(eff.Origins, a.Type.Ref())
		}
	}
	sortRefs(eff.Origins)
	return eff
}

// Member returns the effective Reference or Override restriction of m.
// A member's own declaration wins; otherwise declarations on same-signature
// methods of interface ancestors propagate to it, nearest first. Class
// members never propagate to their overriders.
func (r *Resolver) Member(m *model.MemberDescriptor, kind model.Kind) Effective {
	if m == nil || (kind != model.Reference && kind != model.Override) {
		return Effective{}
	}
	return r.cached(memoKey{id: m.ID(), kind: kind}, func() Effective {
		owner, _ := r.corpus.LookupAny(m.Owner)
		if MemberDeclarations(owner, m).Has(kind) {
			return Effective{Restricted: true, Origins: []model.ElementRef{m.Ref()}}
		}
		if !m.CanOverride() {
			return Effective{}
		}
		var eff Effective
		for _, a := range r.graph.AncestorsOf(m.Owner) {
			if eff.Restricted && a.Distance > eff.Distance {
				break
			}
			if a.Type == nil || !a.Type.IsInterface() {
				continue
			}
			im := a.Type.Method(m.Name, m.Descriptor)
			if im != nil && im.CanOverride() && MemberDeclarations(a.Type, im).Has(kind) {
				eff.Restricted = true
				eff.Distance = a.Distance
				eff.Origins = append(eff.Origins, im.Ref())
			}
		}
		sortRefs(eff.Origins)
		return eff
	})
}

// Overridden returns the methods m directly overrides: the same-signature
// overridable methods at the nearest ancestor distance. Static, private,
// synthetic methods and constructors override nothing, except bridges: a
// generic or covariant override only matches its ancestor through the
// bridge carrying the erased descriptor.
func (r *Resolver) Overridden(m *model.MemberDescriptor) []*model.MemberDescriptor {
	if m == nil || !m.CanOverride() || (m.IsSynthetic() && !m.IsBridge()) {
		return nil
	}
	var out []*model.MemberDescriptor
	dist := -1
	for _, a := range r.graph.AncestorsOf(m.Owner) {
		if dist >= 0 && a.Distance > dist {
			break
		}
		if a.Type == nil {
			continue
		}
		if om := a.Type.Method(m.Name, m.Descriptor); om != nil && om.CanOverride() {
			dist = a.Distance
			out = append(out, om)
		}
	}
	return out
}

// Visible drops origins declared in the consumer's own component, unless
// intra-component checking is enabled. The result is unrestricted when no
// origin remains.
func (r *Resolver) Visible(eff Effective, component string) Effective {
	if !eff.Restricted || r.opts.IntraComponent {
		return eff
	}
	kept := make([]model.ElementRef, 0, len(eff.Origins))
	for _, o := range eff.Origins {
		if t, ok := r.corpus.LookupAny(o.Type); ok && t.Component == component && component != "" {
			continue
		}
		kept = append(kept, o)
	}
	if len(kept) == 0 {
		return Effective{}
	}
	eff.Origins = kept
	return eff
}

func sortRefs(refs []model.ElementRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID() < refs[j].ID() })
}
