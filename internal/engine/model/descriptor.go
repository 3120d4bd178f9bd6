package model

type TypeKind uint8

const (
	KindClass TypeKind = iota
	KindInterface
	KindAnnotation
	KindEnum
)

func (k TypeKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindAnnotation:
		return "annotation"
	case KindEnum:
		return "enum"
	default:
		return "class"
	}
}

// Modifiers holds JVM access flags.
type Modifiers uint16

const (
	AccPublic       Modifiers = 0x0001
	AccPrivate      Modifiers = 0x0002
	AccProtected    Modifiers = 0x0004
	AccStatic       Modifiers = 0x0008
	AccFinal        Modifiers = 0x0010
	AccSynchronized Modifiers = 0x0020
	AccBridge       Modifiers = 0x0040
	AccVarargs      Modifiers = 0x0080
	AccNative       Modifiers = 0x0100
	AccInterface    Modifiers = 0x0200
	AccAbstract     Modifiers = 0x0400
	AccStrict       Modifiers = 0x0800
	AccSynthetic    Modifiers = 0x1000
	AccAnnotation   Modifiers = 0x2000
	AccEnum         Modifiers = 0x4000
)

func (m Modifiers) Has(flag Modifiers) bool { return m&flag != 0 }

type MemberKind uint8

const (
	MemberMethod MemberKind = iota
	MemberField
	MemberConstructor
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberConstructor:
		return "constructor"
	default:
		return "method"
	}
}

const (
	ConstructorName = "<init>"
	InitializerName = "<clinit>"
)

// MethodRef names a method without resolving it.
type MethodRef struct {
	Owner      string
	Name       string
	Descriptor string
}

func (r MethodRef) IsZero() bool { return r.Owner == "" && r.Name == "" }

// MemberDescriptor is one declared method, field or constructor.
type MemberDescriptor struct {
	Owner        string
	Kind         MemberKind
	Name         string
	Descriptor   string
	Modifiers    Modifiers
	Restrictions RestrictionSet
	// Default marks interface methods that carry a body.
	Default bool
	Line    int
	Sites   []Site
}

// Signature is the name plus JVM descriptor for methods and constructors and
// the plain name for fields.
func (m *MemberDescriptor) Signature() string {
	if m.Kind == MemberField {
		return m.Name
	}
	return m.Name + m.Descriptor
}

func (m *MemberDescriptor) ID() string {
	return m.Owner + "#" + m.Signature()
}

func (m *MemberDescriptor) IsMethod() bool { return m.Kind == MemberMethod }

func (m *MemberDescriptor) IsStatic() bool { return m.Modifiers.Has(AccStatic) }

func (m *MemberDescriptor) IsPrivate() bool { return m.Modifiers.Has(AccPrivate) }

func (m *MemberDescriptor) IsSynthetic() bool {
	return m.Modifiers.Has(AccSynthetic) || m.Modifiers.Has(AccBridge)
}

// IsBridge marks compiler-generated methods forwarding a generic or
// covariant override to its source method.
func (m *MemberDescriptor) IsBridge() bool {
	return m.Kind == MemberMethod && m.Modifiers.Has(AccBridge)
}

// CanOverride reports whether the member is a method that takes part in
// virtual dispatch.
func (m *MemberDescriptor) CanOverride() bool {
	if m.Kind != MemberMethod || m.Name == InitializerName {
		return false
	}
	return !m.IsStatic() && !m.IsPrivate()
}

// Display renders the member the way it reads in source: "m(int, String)",
// "Outer(int)" for constructors, "f" for fields.
func (m *MemberDescriptor) Display() string {
	return MemberDisplay(m.Owner, m.Kind, m.Name, m.Descriptor)
}

func (m *MemberDescriptor) Ref() ElementRef {
	kind := ElementMethod
	switch m.Kind {
	case MemberField:
		kind = ElementField
	case MemberConstructor:
		kind = ElementConstructor
	}
	return ElementRef{Kind: kind, Type: m.Owner, Name: m.Name, Descriptor: m.Descriptor}
}

// TypeDescriptor is one compiled type. Names are dotted with '$' separating
// nested types. Descriptors are not mutated after the corpus is built.
type TypeDescriptor struct {
	Name         string
	Kind         TypeKind
	Modifiers    Modifiers
	Super        string
	Interfaces   []string
	Members      []*MemberDescriptor
	Restrictions RestrictionSet

	// Outer is the lexically enclosing type for nested, local and
	// anonymous types.
	Outer           string
	EnclosingMethod MethodRef
	// InnerName is the simple source name; empty for anonymous types.
	InnerName        string
	LocalOrAnonymous bool
	Anonymous        bool

	Artifact   string
	Component  string
	Version    string
	SourceFile string
	// Provider marks types whose declarations are authoritative; Consumer
	// marks types that are scanned for usages.
	Provider bool
	Consumer bool
}

func (t *TypeDescriptor) IsInterface() bool {
	return t.Kind == KindInterface || t.Kind == KindAnnotation
}

func (t *TypeDescriptor) IsAbstract() bool { return t.Modifiers.Has(AccAbstract) }

func (t *TypeDescriptor) IsFinal() bool { return t.Modifiers.Has(AccFinal) }

func (t *TypeDescriptor) Ref() ElementRef {
	return ElementRef{Kind: ElementType, Type: t.Name}
}

func (t *TypeDescriptor) SimpleName() string {
	if t.InnerName != "" {
		return t.InnerName
	}
	return SimpleName(t.Name)
}

func (t *TypeDescriptor) Package() string {
	return PackageOf(t.Name)
}

// Field finds a declared field by name.
func (t *TypeDescriptor) Field(name string) *MemberDescriptor {
	for _, m := range t.Members {
		if m.Kind == MemberField && m.Name == name {
			return m
		}
	}
	return nil
}

// Method finds a declared method or constructor by name and descriptor.
func (t *TypeDescriptor) Method(name, descriptor string) *MemberDescriptor {
	for _, m := range t.Members {
		if m.Kind != MemberField && m.Name == name && m.Descriptor == descriptor {
			return m
		}
	}
	return nil
}

// Supertypes returns the superclass (when set) followed by the interfaces.
func (t *TypeDescriptor) Supertypes() []string {
	out := make([]string, 0, len(t.Interfaces)+1)
	if t.Super != "" {
		out = append(out, t.Super)
	}
	return append(out, t.Interfaces...)
}

// Clone returns a copy whose members can be modified independently.
func (t *TypeDescriptor) Clone() *TypeDescriptor {
	cp := *t
	cp.Interfaces = append([]string(nil), t.Interfaces...)
	cp.Members = make([]*MemberDescriptor, len(t.Members))
	for i, m := range t.Members {
		mc := *m
		cp.Members[i] = &mc
	}
	return &cp
}
