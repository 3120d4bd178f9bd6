// Package scanner walks consumer types and checks every declaration and
// usage site against the effective restrictions of what it reaches.
package scanner

import (
	"strings"

	"github.com/gobwas/glob"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/model"
	"apiguard/internal/engine/report"
	"apiguard/internal/engine/restriction"
)

type Options struct {
	// IgnoreUnresolved holds dotted glob patterns ("java.**") for types
	// that are expected to be missing from the classpath.
	IgnoreUnresolved []string
}

type Scanner struct {
	resolver *restriction.Resolver
	corpus   *model.Corpus
	ignore   []glob.Glob
}

func New(r *restriction.Resolver, opts Options) (*Scanner, error) {
	s := &Scanner{resolver: r, corpus: r.Corpus()}
	for _, p := range opts.IgnoreUnresolved {
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeValidationError, "compile ignore pattern "+p)
		}
		s.ignore = append(s.ignore, g)
	}
	return s, nil
}

func (s *Scanner) ignored(name string) bool {
	for _, g := range s.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// scan is the private buffer of one consumer type.
type scan struct {
	s          *Scanner
	t          *model.TypeDescriptor
	loc        model.Location
	violations []report.ViolationRecord
	notices    []model.Notice
}

// Scan checks one consumer type and returns its records. It only reads
// shared state and may run concurrently with other scans.
func (s *Scanner) Scan(t *model.TypeDescriptor) ([]report.ViolationRecord, []model.Notice) {
	sc := &scan{s: s, t: t, loc: s.locate(t)}
	sc.declaration()
	for _, m := range t.Members {
		sc.override(m)
		for i := range m.Sites {
			sc.site(m, &m.Sites[i])
		}
	}
	return sc.violations, sc.notices
}

// declaration checks the declared supertypes, branch by branch.
func (sc *scan) declaration() {
	t := sc.t
	if t.IsInterface() {
		for _, iface := range t.Interfaces {
			if sc.known(iface, sc.loc) {
				sc.typeCheck(iface, model.Extend, sc.loc)
			}
		}
		return
	}
	if t.Super != "" && sc.known(t.Super, sc.loc) {
		sc.typeCheck(t.Super, model.Extend, sc.loc)
		sc.typeCheck(t.Super, model.Implement, sc.loc)
	}
	for _, iface := range t.Interfaces {
		if sc.known(iface, sc.loc) {
			sc.typeCheck(iface, model.Implement, sc.loc)
		}
	}
}

// override checks m against the methods it directly overrides. A bridge
// is reported at the source method it forwards to.
func (sc *scan) override(m *model.MemberDescriptor) {
	overridden := sc.s.resolver.Overridden(m)
	if len(overridden) == 0 {
		return
	}
	loc := at(sc.loc, m, m.Line)
	if m.IsBridge() {
		if target := bridgeTarget(sc.t, m); target != nil {
			loc = at(sc.loc, target, target.Line)
		}
	}
	for _, om := range overridden {
		eff := sc.s.resolver.Member(om, model.Override)
		sc.emit(model.Override, om.Ref(), eff, "", loc)
	}
}

func (sc *scan) site(m *model.MemberDescriptor, site *model.Site) {
	loc := at(sc.loc, m, site.Line)
	switch site.Kind {
	case model.SiteNew:
		sc.instantiate(site.Owner, loc)
	case model.SiteInvoke:
		sc.invoke(site.Owner, site.Name, site.Descriptor, loc)
	case model.SiteField:
		sc.field(site, loc)
	case model.SiteLambda:
		sc.lambda(site, loc)
	}
}

func (sc *scan) instantiate(owner string, loc model.Location) {
	if model.IsArrayName(owner) {
		return
	}
	t, ok := sc.s.corpus.LookupAny(owner)
	if !ok {
		sc.unresolved(owner, owner, loc)
		return
	}
	if t.LocalOrAnonymous {
		// new T() {...} instantiates T.
		if t.Anonymous && t.Super != "" && sc.known(t.Super, loc) {
			sc.typeCheck(t.Super, model.Instantiate, loc)
		}
		return
	}
	sc.typeCheck(owner, model.Instantiate, loc)
}

func (sc *scan) invoke(owner, name, desc string, loc model.Location) {
	if model.IsArrayName(owner) {
		return
	}
	t, ok := sc.s.corpus.LookupAny(owner)
	if !ok {
		sc.unresolved(owner, owner, loc)
		return
	}
	m := sc.s.resolveMethod(t, name, desc)
	if m == nil {
		if name == model.ConstructorName || !sc.s.explainedMethod(t, name, desc) {
			sc.unresolved(owner+"#"+name+desc, owner, loc)
		}
		return
	}
	sc.memberCheck(m, owner, loc)
}

func (sc *scan) field(site *model.Site, loc model.Location) {
	if model.IsArrayName(site.Owner) {
		return
	}
	t, ok := sc.s.corpus.LookupAny(site.Owner)
	if !ok {
		sc.unresolved(site.Owner, site.Owner, loc)
		return
	}
	f := sc.s.resolveField(t, site.Name)
	if f == nil {
		if !sc.s.explainedField(t) {
			sc.unresolved(site.Owner+"#"+site.Name, site.Owner, loc)
		}
		return
	}
	sc.memberCheck(f, site.Owner, loc)
}

// lambda binds a functional interface, which implements it, and references
// the implementation method unless that is the compiler-generated body.
func (sc *scan) lambda(site *model.Site, loc model.Location) {
	if site.Interface != "" && sc.known(site.Interface, loc) {
		sc.typeCheck(site.Interface, model.Implement, loc)
	}
	target := site.Target
	if target.IsZero() || isLambdaBody(target) {
		return
	}
	if site.TargetNew {
		sc.instantiate(target.Owner, loc)
	}
	sc.invoke(target.Owner, target.Name, target.Descriptor, loc)
}

func isLambdaBody(ref model.MethodRef) bool {
	return strings.HasPrefix(ref.Name, "lambda$")
}

// known reports whether a referenced type is in the corpus, recording an
// unresolved notice when it is not.
func (sc *scan) known(name string, loc model.Location) bool {
	if _, ok := sc.s.corpus.LookupAny(name); ok {
		return true
	}
	sc.unresolved(name, name, loc)
	return false
}

func (sc *scan) unresolved(subject, typeName string, loc model.Location) {
	if sc.s.ignored(typeName) {
		return
	}
	l := loc
	sc.notices = append(sc.notices, model.Notice{
		Kind:     model.NoticeUnresolved,
		Subject:  subject,
		Reason:   "not found on the classpath",
		Location: &l,
	})
}

// typeCheck records a type-level violation. The element is the declaring
// origin; via names the supertype the consumer declared when they differ.
func (sc *scan) typeCheck(name string, kind model.Kind, loc model.Location) {
	eff := sc.s.resolver.Visible(sc.s.resolver.Type(name, kind), sc.t.Component)
	if !eff.Restricted {
		return
	}
	origin := eff.Origin()
	via := ""
	if origin.Type != name {
		via = name
	}
	sc.emit(kind, origin, eff, via, loc)
}

func (sc *scan) memberCheck(m *model.MemberDescriptor, owner string, loc model.Location) {
	eff := sc.s.resolver.Member(m, model.Reference)
	via := ""
	if owner != m.Owner {
		via = owner
	}
	sc.emit(model.Reference, m.Ref(), eff, via, loc)
}

func (sc *scan) emit(kind model.Kind, element model.ElementRef, eff restriction.Effective, via string, loc model.Location) {
	eff = sc.s.resolver.Visible(eff, sc.t.Component)
	if !eff.Restricted {
		return
	}
	sc.violations = append(sc.violations, report.ViolationRecord{
		Kind:      kind,
		Element:   element,
		Origin:    eff.Origins[0],
		Tied:      eff.Origins[1:],
		Via:       via,
		Distance:  eff.Distance,
		Location:  loc,
		Component: sc.t.Component,
	})
}
