package model

type SiteKind uint8

const (
	SiteNew SiteKind = iota
	SiteInvoke
	SiteField
	SiteLambda
)

func (k SiteKind) String() string {
	switch k {
	case SiteInvoke:
		return "invoke"
	case SiteField:
		return "field"
	case SiteLambda:
		return "lambda"
	default:
		return "new"
	}
}

type InvokeKind uint8

const (
	InvokeVirtual InvokeKind = iota
	InvokeStatic
	InvokeSpecial
	InvokeInterface
)

// Site is one usage instruction in a member body.
type Site struct {
	Kind SiteKind
	// Owner is the type named by the instruction, which is not necessarily
	// the type declaring the member.
	Owner      string
	Name       string
	Descriptor string
	Invoke     InvokeKind
	Write      bool
	// Super marks invokespecial calls to a non-constructor method, i.e.
	// super.m().
	Super bool
	// Interface is the functional interface a lambda or method reference
	// binds to; Target is the implementation handle.
	Interface string
	Target    MethodRef
	// TargetNew marks constructor references (T::new).
	TargetNew bool
	Line      int
}
