package model

import (
	"strconv"
	"strings"
)

// Kind is one restriction kind. The numeric values match the bit layout of
// the restrictions attribute in .api_description files.
type Kind uint8

const (
	Extend      Kind = 1 << iota // subclassing or sub-interfacing
	Implement                    // implementing an interface
	Instantiate                  // new T()
	Reference                    // reading, writing or calling a member
	Override                     // overriding a method
)

// AllKinds lists the kinds in bit order.
var AllKinds = []Kind{Extend, Implement, Instantiate, Reference, Override}

func (k Kind) String() string {
	switch k {
	case Extend:
		return "extend"
	case Implement:
		return "implement"
	case Instantiate:
		return "instantiate"
	case Reference:
		return "reference"
	case Override:
		return "override"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Tag returns the javadoc tag that declares the kind, e.g. "@noextend".
func (k Kind) Tag() string {
	return "@no" + k.String()
}

// Annotation returns the simple name of the marker annotation for the kind.
func (k Kind) Annotation() string {
	s := k.String()
	return "No" + strings.ToUpper(s[:1]) + s[1:]
}

// ParseKind accepts "extend", "noextend", "@noextend" and "NoExtend".
func ParseKind(s string) (Kind, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "@")
	v = strings.TrimPrefix(v, "no")
	v = strings.TrimPrefix(v, "-")
	for _, k := range AllKinds {
		if k.String() == v {
			return k, true
		}
	}
	return 0, false
}

// RestrictionSet is a set of restriction kinds.
type RestrictionSet uint8

const allBits = RestrictionSet(Extend | Implement | Instantiate | Reference | Override)

func NewRestrictionSet(kinds ...Kind) RestrictionSet {
	var s RestrictionSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// SetFromBits converts a restrictions bitmask, dropping unknown bits.
func SetFromBits(bits int) RestrictionSet {
	if bits < 0 {
		return 0
	}
	return RestrictionSet(bits) & allBits
}

func (s RestrictionSet) Has(k Kind) bool { return s&RestrictionSet(k) != 0 }

func (s RestrictionSet) With(k Kind) RestrictionSet { return (s | RestrictionSet(k)) & allBits }

func (s RestrictionSet) Without(k Kind) RestrictionSet { return s &^ RestrictionSet(k) }

func (s RestrictionSet) Union(o RestrictionSet) RestrictionSet { return (s | o) & allBits }

func (s RestrictionSet) Empty() bool { return s&allBits == 0 }

func (s RestrictionSet) Bits() int { return int(s & allBits) }

func (s RestrictionSet) Kinds() []Kind {
	var out []Kind
	for _, k := range AllKinds {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s RestrictionSet) String() string {
	if s.Empty() {
		return "none"
	}
	parts := make([]string, 0, len(AllKinds))
	for _, k := range s.Kinds() {
		parts = append(parts, k.String())
	}
	return strings.Join(parts, "|")
}

// ParseRestrictionSet parses names accepted by ParseKind. Unknown names are
// returned separately.
func ParseRestrictionSet(names []string) (RestrictionSet, []string) {
	var s RestrictionSet
	var unknown []string
	for _, n := range names {
		if k, ok := ParseKind(n); ok {
			s = s.With(k)
			continue
		}
		unknown = append(unknown, n)
	}
	return s, unknown
}
