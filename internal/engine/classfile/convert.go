package classfile

import (
	"fmt"
	"strings"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/model"
)

const objectName = "java/lang/Object"

// Options controls how a parsed class becomes a descriptor.
type Options struct {
	// AnnotationPackage is the dotted package holding the NoExtend,
	// NoImplement, NoInstantiate, NoReference and NoOverride annotations.
	// Empty disables annotation restrictions.
	AnnotationPackage string
}

// Read parses a class file and converts it in one step.
func Read(data []byte, opts Options) (*model.TypeDescriptor, error) {
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return c.Descriptor(opts)
}

// Descriptor converts the class to a type descriptor. Component, artifact
// and role fields are left for the caller.
func (c *Class) Descriptor(opts Options) (*model.TypeDescriptor, error) {
	t := &model.TypeDescriptor{
		Name:       model.DottedName(c.Name),
		Modifiers:  model.Modifiers(c.Access),
		SourceFile: c.SourceFile,
	}

	switch {
	case t.Modifiers.Has(model.AccAnnotation):
		t.Kind = model.KindAnnotation
	case t.Modifiers.Has(model.AccInterface):
		t.Kind = model.KindInterface
	case t.Modifiers.Has(model.AccEnum):
		t.Kind = model.KindEnum
	default:
		t.Kind = model.KindClass
	}

	if !t.IsInterface() && c.Super != "" && c.Super != objectName {
		t.Super = model.DottedName(c.Super)
	}
	for _, iface := range c.Interfaces {
		t.Interfaces = append(t.Interfaces, model.DottedName(iface))
	}

	c.applyNesting(t)
	t.Restrictions = restrictionsFrom(c.Annotations, opts.AnnotationPackage)

	for i := range c.Fields {
		f := &c.Fields[i]
		t.Members = append(t.Members, &model.MemberDescriptor{
			Owner:        t.Name,
			Kind:         model.MemberField,
			Name:         f.Name,
			Descriptor:   f.Descriptor,
			Modifiers:    model.Modifiers(f.Access),
			Restrictions: restrictionsFrom(f.Annotations, opts.AnnotationPackage),
		})
	}
	for i := range c.Methods {
		m := &c.Methods[i]
		md := &model.MemberDescriptor{
			Owner:        t.Name,
			Kind:         model.MemberMethod,
			Name:         m.Name,
			Descriptor:   m.Descriptor,
			Modifiers:    model.Modifiers(m.Access),
			Restrictions: restrictionsFrom(m.Annotations, opts.AnnotationPackage),
			Line:         m.firstLine(),
		}
		if m.Name == model.ConstructorName {
			md.Kind = model.MemberConstructor
		}
		if t.IsInterface() && md.Kind == model.MemberMethod && m.Name != model.InitializerName {
			md.Default = !md.Modifiers.Has(model.AccAbstract) && !md.IsStatic() && !md.IsPrivate()
		}
		if len(m.code) > 0 {
			sites, err := c.sites(m)
			if err != nil {
				err = apperrors.Wrap(err, apperrors.CodeUnparseable, fmt.Sprintf("decode %s%s", m.Name, m.Descriptor))
				return nil, apperrors.AddContext(err, apperrors.CtxType, t.Name)
			}
			md.Sites = sites
		}
		t.Members = append(t.Members, md)
	}
	return t, nil
}

// applyNesting fills the outer type, inner name and local/anonymous flags
// from the InnerClasses and EnclosingMethod attributes.
func (c *Class) applyNesting(t *model.TypeDescriptor) {
	for _, ic := range c.InnerClasses {
		if ic.Inner != c.Name {
			continue
		}
		t.InnerName = ic.Name
		// Member classes report their real modifiers here; the class
		// header only has public or package access.
		t.Modifiers = model.Modifiers(ic.Access) | (t.Modifiers & (model.AccSynthetic | model.AccInterface | model.AccAnnotation | model.AccEnum))
		if ic.Outer != "" {
			t.Outer = model.DottedName(ic.Outer)
		} else {
			t.LocalOrAnonymous = true
		}
		t.Anonymous = ic.Name == ""
		break
	}
	if em := c.EnclosingMethod; em != nil {
		t.LocalOrAnonymous = true
		t.Outer = model.DottedName(em.Class)
		if em.Name != "" {
			t.EnclosingMethod = model.MethodRef{Owner: t.Outer, Name: em.Name, Descriptor: em.Descriptor}
		}
		t.Anonymous = t.InnerName == ""
	}
	if t.Modifiers.Has(model.AccSynthetic) {
		t.LocalOrAnonymous = true
	}
	if t.Outer == "" && t.LocalOrAnonymous {
		// Binary name fallback for classes missing both attributes.
		if i := strings.LastIndexByte(t.Name, '$'); i > 0 {
			t.Outer = t.Name[:i]
		}
	}
}

func restrictionsFrom(annotations []string, pkg string) model.RestrictionSet {
	if pkg == "" {
		return 0
	}
	var set model.RestrictionSet
	for _, desc := range annotations {
		name, ok := model.TypeNameOf(desc)
		if !ok || model.PackageOf(name) != pkg {
			continue
		}
		if k, ok := model.ParseKind(model.SimpleName(name)); ok {
			set = set.With(k)
		}
	}
	return set
}
