package model

import "fmt"

type NoticeKind uint8

const (
	NoticeUnparseable NoticeKind = iota
	NoticeUnresolved
	NoticeCycle
	NoticeDescription
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeUnresolved:
		return "unresolved-reference"
	case NoticeCycle:
		return "hierarchy-cycle"
	case NoticeDescription:
		return "description"
	default:
		return "unparseable-artifact"
	}
}

// Notice is a non-fatal diagnostic. It never counts as a violation.
type Notice struct {
	Kind NoticeKind
	// Subject is the artifact, element or cycle the notice is about.
	Subject  string
	Reason   string
	Location *Location
}

func (n Notice) String() string {
	if n.Location != nil {
		return fmt.Sprintf("%s: %s (%s) at %s", n.Kind, n.Subject, n.Reason, n.Location)
	}
	return fmt.Sprintf("%s: %s (%s)", n.Kind, n.Subject, n.Reason)
}

// Key identifies duplicate notices.
func (n Notice) Key() string {
	loc := ""
	if n.Location != nil {
		loc = n.Location.Key()
	}
	return n.Kind.String() + "|" + n.Subject + "|" + loc
}
