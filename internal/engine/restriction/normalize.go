package restriction

import "apiguard/internal/engine/model"

// TypeDeclarations returns the restrictions t contributes as a declaring
// type. Only restriction-bearing, non-local types contribute, and kinds
// that cannot apply to the carrier are dropped.
func TypeDeclarations(t *model.TypeDescriptor) model.RestrictionSet {
	if t == nil || !t.Provider || t.LocalOrAnonymous {
		return 0
	}
	s := t.Restrictions.Without(model.Reference).Without(model.Override)
	if t.IsInterface() || t.IsAbstract() || t.Kind == model.KindEnum {
		s = s.Without(model.Instantiate)
	}
	if t.Kind != model.KindInterface {
		s = s.Without(model.Implement)
	}
	if t.IsFinal() || t.Kind == model.KindEnum || t.Kind == model.KindAnnotation {
		s = s.Without(model.Extend)
	}
	return s
}

// MemberDeclarations returns the restrictions m contributes. Members only
// carry Reference and Override; Override needs a concrete method that can
// be overridden at all, so abstract methods never keep it.
func MemberDeclarations(owner *model.TypeDescriptor, m *model.MemberDescriptor) model.RestrictionSet {
	if owner == nil || m == nil || !owner.Provider || owner.LocalOrAnonymous {
		return 0
	}
	s := m.Restrictions & model.NewRestrictionSet(model.Reference, model.Override)
	if !m.CanOverride() || m.Modifiers.Has(model.AccFinal) || m.Modifiers.Has(model.AccAbstract) || owner.IsFinal() {
		s = s.Without(model.Override)
	}
	return s
}
