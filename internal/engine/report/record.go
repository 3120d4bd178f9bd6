// Package report collects violation records and notices from concurrent
// scan workers and produces a deterministic result.
package report

import (
	"fmt"

	"apiguard/internal/engine/model"
)

// ViolationRecord is one use of a restricted element.
type ViolationRecord struct {
	Kind model.Kind
	// Element is the restricted element as the consumer reaches it: the
	// declaring member for references and overrides, the declaring type for
	// type-level kinds.
	Element model.ElementRef
	// Origin is the nearest declaration; Tied holds further origins at the
	// same distance.
	Origin model.ElementRef
	Tied   []model.ElementRef
	// Via names the type the consumer names directly when the element was
	// reached transitively.
	Via       string
	Distance  int
	Location  model.Location
	Component string
}

// Key identifies duplicates: the same element and kind at the same
// location.
func (v ViolationRecord) Key() string {
	return v.Location.Key() + "|" + v.Element.ID() + "|" + v.Kind.String()
}

// Origins returns the origin followed by tied origins.
func (v ViolationRecord) Origins() []model.ElementRef {
	return append([]model.ElementRef{v.Origin}, v.Tied...)
}

// Message renders a one-line description.
func (v ViolationRecord) Message() string {
	var msg string
	switch v.Kind {
	case model.Extend:
		msg = fmt.Sprintf("%s illegally extends %s", v.Location.TypePath(), v.Element)
	case model.Implement:
		msg = fmt.Sprintf("%s illegally implements %s", v.Location.TypePath(), v.Element)
	case model.Instantiate:
		msg = fmt.Sprintf("%s illegally instantiates %s", v.Location, v.Element)
	case model.Override:
		msg = fmt.Sprintf("%s illegally overrides %s", v.Location, v.Element)
	default:
		msg = fmt.Sprintf("%s illegally references %s", v.Location, v.Element)
	}
	if v.Via != "" {
		msg += " via " + v.Via
	}
	if v.Origin.ID() != v.Element.ID() {
		msg += " (declared on " + v.Origin.String() + ")"
	}
	return msg
}
