package model

import (
	"strconv"
	"strings"
)

type ElementKind uint8

const (
	ElementType ElementKind = iota
	ElementMethod
	ElementConstructor
	ElementField
)

func (k ElementKind) String() string {
	switch k {
	case ElementMethod:
		return "method"
	case ElementConstructor:
		return "constructor"
	case ElementField:
		return "field"
	default:
		return "type"
	}
}

// ElementRef identifies a type or member by name.
type ElementRef struct {
	Kind       ElementKind
	Type       string
	Name       string
	Descriptor string
}

func (r ElementRef) IsType() bool { return r.Kind == ElementType }

// ID is the exact identity used for memoization and deduplication.
func (r ElementRef) ID() string {
	switch r.Kind {
	case ElementType:
		return r.Type
	case ElementField:
		return r.Type + "#" + r.Name
	default:
		return r.Type + "#" + r.Name + r.Descriptor
	}
}

// String renders a qualified, source-like name: "p.T", "p.T.m(int)",
// "p.T.T()", "p.T.f".
func (r ElementRef) String() string {
	if r.Kind == ElementType {
		return r.Type
	}
	mk := MemberMethod
	switch r.Kind {
	case ElementField:
		mk = MemberField
	case ElementConstructor:
		mk = MemberConstructor
	}
	return r.Type + "." + MemberDisplay(r.Type, mk, r.Name, r.Descriptor)
}

// Segment is one step of a nesting path below the top-level type.
type Segment struct {
	// Name is the simple name, or the binary suffix ("1") for anonymous types.
	Name      string
	Anonymous bool
	// Super is the simple name an anonymous type instantiates.
	Super string
	// Method is the display of the enclosing method for local and anonymous
	// types declared in a method body.
	Method string
	// Binary is the binary name suffix below the outer type ("1Local",
	// "2Local"). Local types sharing a simple name differ only here.
	Binary string
}

func (s Segment) key() string {
	if s.Binary != "" {
		return s.Binary
	}
	return s.Name
}

func (s Segment) display() string {
	if s.Anonymous {
		if s.Super != "" {
			return "new " + s.Super + "() {...}"
		}
		return "{anonymous #" + s.Name + "}"
	}
	return s.Name
}

// Location is the consumer-side position of a usage.
type Location struct {
	Type   string
	Path   []Segment
	Member string
	Line   int
}

// String renders "p.Outer.m().Local" style paths, followed by the innermost
// member when present.
func (l Location) String() string {
	var b strings.Builder
	b.WriteString(l.Type)
	for _, seg := range l.Path {
		if seg.Method != "" {
			b.WriteByte('.')
			b.WriteString(seg.Method)
		}
		b.WriteByte('.')
		b.WriteString(seg.display())
	}
	if l.Member != "" {
		b.WriteByte('.')
		b.WriteString(l.Member)
	}
	return b.String()
}

// TypePath renders the location without the member.
func (l Location) TypePath() string {
	cp := l
	cp.Member = ""
	return cp.String()
}

// Key identifies the location exactly, distinguishing anonymous types that
// render identically.
func (l Location) Key() string {
	var b strings.Builder
	b.WriteString(l.Type)
	for _, seg := range l.Path {
		b.WriteByte('/')
		b.WriteString(seg.Method)
		b.WriteByte(':')
		b.WriteString(seg.key())
	}
	b.WriteByte('#')
	b.WriteString(l.Member)
	b.WriteByte('@')
	b.WriteString(strconv.Itoa(l.Line))
	return b.String()
}
