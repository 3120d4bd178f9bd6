package scanner

import (
	"apiguard/internal/engine/hierarchy"
	"apiguard/internal/engine/model"
)

// objectName is the implicit root of every class hierarchy. It is never
// part of the corpus because descriptors drop it as a superclass.
const objectName = "java.lang.Object"

// resolveMethod finds the member a method reference binds to, following
// JVM resolution: the owner's superclass chain first, then its
// super-interfaces nearest first. Interface owners search their
// super-interfaces only. Default methods therefore resolve to the
// interface that declares them.
func (s *Scanner) resolveMethod(owner *model.TypeDescriptor, name, desc string) *model.MemberDescriptor {
	if m := owner.Method(name, desc); m != nil {
		return m
	}
	if name == model.ConstructorName || name == model.InitializerName {
		return nil
	}
	graph := s.resolver.Graph()
	if !owner.IsInterface() {
		for _, a := range graph.Walk(owner.Name, hierarchy.EdgeExtends, false) {
			if a.Type == nil {
				continue
			}
			if m := a.Type.Method(name, desc); m != nil {
				return m
			}
		}
	}
	for _, a := range graph.Walk(owner.Name, hierarchy.AllEdges, false) {
		if a.Type == nil || !a.Type.IsInterface() {
			continue
		}
		if m := a.Type.Method(name, desc); m != nil && !m.IsPrivate() && !m.IsStatic() {
			return m
		}
	}
	return nil
}

// resolveField follows JVM field resolution: the owner, its
// super-interfaces, then its superclass, recursively.
func (s *Scanner) resolveField(owner *model.TypeDescriptor, name string) *model.MemberDescriptor {
	visited := make(map[string]bool)
	var find func(t *model.TypeDescriptor) *model.MemberDescriptor
	find = func(t *model.TypeDescriptor) *model.MemberDescriptor {
		if t == nil || visited[t.Name] {
			return nil
		}
		visited[t.Name] = true
		if f := t.Field(name); f != nil {
			return f
		}
		for _, iface := range t.Interfaces {
			if f := find(s.lookup(iface)); f != nil {
				return f
			}
		}
		if t.Super != "" {
			return find(s.lookup(t.Super))
		}
		return nil
	}
	return find(owner)
}

func (s *Scanner) lookup(name string) *model.TypeDescriptor {
	t, _ := s.corpus.LookupAny(name)
	return t
}

// objectMethods are the methods every type inherits from java.lang.Object,
// keyed by name plus descriptor. Object declares no fields.
var objectMethods = map[string]bool{
	"equals(Ljava/lang/Object;)Z":   true,
	"hashCode()I":                   true,
	"toString()Ljava/lang/String;":  true,
	"getClass()Ljava/lang/Class;":   true,
	"clone()Ljava/lang/Object;":     true,
	"finalize()V":                   true,
	"notify()V":                     true,
	"notifyAll()V":                  true,
	"wait()V":                       true,
	"wait(J)V":                      true,
	"wait(JI)V":                     true,
}

// explainedMethod reports whether a method missing from owner's hierarchy
// is inherited from java.lang.Object or could live in an ignored phantom
// ancestor.
func (s *Scanner) explainedMethod(owner *model.TypeDescriptor, name, desc string) bool {
	if objectMethods[name+desc] && s.ignored(objectName) {
		return true
	}
	return s.ignoredPhantomAncestor(owner)
}

// explainedField reports whether a field missing from owner's hierarchy
// could live in an ignored phantom ancestor.
func (s *Scanner) explainedField(owner *model.TypeDescriptor) bool {
	return s.ignoredPhantomAncestor(owner)
}

func (s *Scanner) ignoredPhantomAncestor(owner *model.TypeDescriptor) bool {
	for _, a := range s.resolver.Graph().AncestorsOf(owner.Name) {
		if a.Type == nil && s.ignored(a.Name) {
			return true
		}
	}
	return false
}

// bridgeTarget finds the source method a bridge forwards to: the method
// its body invokes on the same type, else the only non-synthetic method
// with the bridge's name and arity.
func bridgeTarget(t *model.TypeDescriptor, bridge *model.MemberDescriptor) *model.MemberDescriptor {
	for _, site := range bridge.Sites {
		if site.Kind != model.SiteInvoke || site.Owner != t.Name || site.Name != bridge.Name {
			continue
		}
		if m := t.Method(site.Name, site.Descriptor); m != nil && !m.IsSynthetic() {
			return m
		}
	}
	params, _, ok := model.ParseMethodDescriptor(bridge.Descriptor)
	if !ok {
		return nil
	}
	var found *model.MemberDescriptor
	for _, m := range t.Members {
		if !m.IsMethod() || m.Name != bridge.Name || m.IsSynthetic() {
			continue
		}
		if mp, _, ok := model.ParseMethodDescriptor(m.Descriptor); !ok || len(mp) != len(params) {
			continue
		}
		if found != nil {
			return nil
		}
		found = m
	}
	return found
}
