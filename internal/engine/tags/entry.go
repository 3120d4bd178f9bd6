package tags

import (
	"apiguard/internal/engine/description"
	"apiguard/internal/engine/model"
)

type entryBuilder struct {
	name         string
	restrictions model.RestrictionSet
	methods      []description.MemberEntry
	fields       []description.MemberEntry
}

// method records a declaration by name only. Source overloads cannot be
// mapped to JVM descriptors without resolving types, so the entry applies
// to every overload.
func (e *entryBuilder) method(name string, set model.RestrictionSet) {
	e.methods = mergeMember(e.methods, name, set)
}

func (e *entryBuilder) field(name string, set model.RestrictionSet) {
	e.fields = mergeMember(e.fields, name, set)
}

func mergeMember(list []description.MemberEntry, name string, set model.RestrictionSet) []description.MemberEntry {
	for i := range list {
		if list[i].Name == name {
			list[i].Restrictions = list[i].Restrictions.Union(set)
			return list
		}
	}
	return append(list, description.MemberEntry{Name: name, Restrictions: set})
}

func (e *entryBuilder) empty() bool {
	return e.restrictions.Empty() && len(e.methods) == 0 && len(e.fields) == 0
}

func (e *entryBuilder) build() description.TypeEntry {
	return description.TypeEntry{
		Name:         e.name,
		Restrictions: e.restrictions,
		Methods:      e.methods,
		Fields:       e.fields,
	}
}
