package scanner

import (
	"strings"

	"apiguard/internal/engine/model"
)

// locate builds the nesting path of t: the top-level type followed by one
// segment per nested, local or anonymous type with its enclosing method.
func (s *Scanner) locate(t *model.TypeDescriptor) model.Location {
	var chain []*model.TypeDescriptor
	visited := make(map[string]bool)
	top := t.Name
	for cur := t; cur != nil && !visited[cur.Name]; {
		visited[cur.Name] = true
		if cur.Outer == "" {
			top = cur.Name
			break
		}
		chain = append(chain, cur)
		outer, ok := s.corpus.LookupAny(cur.Outer)
		if !ok {
			top = cur.Outer
			break
		}
		top = outer.Name
		cur = outer
	}

	loc := model.Location{Type: top}
	for i := len(chain) - 1; i >= 0; i-- {
		loc.Path = append(loc.Path, segmentOf(chain[i]))
	}
	return loc
}

func segmentOf(t *model.TypeDescriptor) model.Segment {
	seg := model.Segment{Name: t.InnerName, Anonymous: t.Anonymous, Binary: binarySuffix(t)}
	if seg.Name == "" {
		seg.Name = seg.Binary
	}
	if t.Anonymous {
		switch {
		case t.Super != "":
			seg.Super = model.SimpleName(t.Super)
		case len(t.Interfaces) > 0:
			seg.Super = model.SimpleName(t.Interfaces[0])
		}
	}
	if em := t.EnclosingMethod; em.Name != "" {
		kind := model.MemberMethod
		if em.Name == model.ConstructorName {
			kind = model.MemberConstructor
		}
		seg.Method = model.MemberDisplay(em.Owner, kind, em.Name, em.Descriptor)
	}
	return seg
}

// binarySuffix returns the part of the binary name after the outer type,
// "1" for Outer$1.
func binarySuffix(t *model.TypeDescriptor) string {
	if t.Outer != "" && strings.HasPrefix(t.Name, t.Outer+"$") {
		return t.Name[len(t.Outer)+1:]
	}
	return model.SimpleName(t.Name)
}

// at returns loc narrowed to a member and line.
func at(loc model.Location, m *model.MemberDescriptor, line int) model.Location {
	loc.Member = m.Display()
	if line == 0 {
		line = m.Line
	}
	loc.Line = line
	return loc
}
