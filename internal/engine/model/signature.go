package model

import "strings"

// DottedName converts an internal JVM name (a/b/C$D) to the dotted form.
func DottedName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// InternalName converts a dotted name back to the internal JVM form.
func InternalName(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "/")
}

// SimpleName strips the package and any enclosing type names.
func SimpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '$'); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}
	return name
}

func PackageOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

// IsArrayName reports whether an instruction owner names an array type.
func IsArrayName(name string) bool {
	return strings.HasPrefix(name, "[")
}

var primitives = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// parseFieldType reads one field type from desc and returns its dotted
// name and the remaining input.
func parseFieldType(desc string) (string, string, bool) {
	dims := 0
	for len(desc) > 0 && desc[0] == '[' {
		dims++
		desc = desc[1:]
	}
	if desc == "" {
		return "", "", false
	}
	var name string
	switch desc[0] {
	case 'L':
		end := strings.IndexByte(desc, ';')
		if end < 0 {
			return "", "", false
		}
		name = DottedName(desc[1:end])
		desc = desc[end+1:]
	default:
		p, ok := primitives[desc[0]]
		if !ok {
			return "", "", false
		}
		name = p
		desc = desc[1:]
	}
	return name + strings.Repeat("[]", dims), desc, true
}

// TypeNameOf converts a field descriptor to a dotted type name.
func TypeNameOf(desc string) (string, bool) {
	name, rest, ok := parseFieldType(desc)
	if !ok || rest != "" {
		return "", false
	}
	return name, true
}

// ParseMethodDescriptor splits "(ILjava/lang/String;)V" into parameter and
// return type names.
func ParseMethodDescriptor(desc string) ([]string, string, bool) {
	if !strings.HasPrefix(desc, "(") {
		return nil, "", false
	}
	rest := desc[1:]
	var params []string
	for {
		if rest == "" {
			return nil, "", false
		}
		if rest[0] == ')' {
			rest = rest[1:]
			break
		}
		name, next, ok := parseFieldType(rest)
		if !ok {
			return nil, "", false
		}
		params = append(params, name)
		rest = next
	}
	ret, ok := TypeNameOf(rest)
	if !ok {
		return nil, "", false
	}
	return params, ret, true
}

// ParameterDisplay renders "(int, String[])" from a method descriptor. It
// falls back to the raw descriptor when it cannot be parsed.
func ParameterDisplay(desc string) string {
	params, _, ok := ParseMethodDescriptor(desc)
	if !ok {
		return desc
	}
	simple := make([]string, len(params))
	for i, p := range params {
		simple[i] = SimpleName(p)
	}
	return "(" + strings.Join(simple, ", ") + ")"
}

func MemberDisplay(owner string, kind MemberKind, name, desc string) string {
	switch {
	case kind == MemberField:
		return name
	case kind == MemberConstructor || name == ConstructorName:
		return SimpleName(owner) + ParameterDisplay(desc)
	case name == InitializerName:
		return "static {...}"
	default:
		return name + ParameterDisplay(desc)
	}
}
