package description

import (
	"fmt"

	"apiguard/internal/engine/model"
)

// Apply merges descriptions into the matching descriptors. Declarations
// are combined by union with whatever the class files already carry. The
// input slice is not modified; changed descriptors are replaced by clones.
// Entries that match nothing are returned as notices.
func Apply(types []*model.TypeDescriptor, descs []*Description) ([]*model.TypeDescriptor, []model.Notice) {
	out := append([]*model.TypeDescriptor(nil), types...)
	byName := make(map[string][]int, len(out))
	for i, t := range out {
		byName[t.Name] = append(byName[t.Name], i)
	}
	cloned := make(map[int]bool)

	var notices []model.Notice
	for _, d := range descs {
		for _, entry := range d.Types {
			matched := false
			for _, i := range byName[entry.Name] {
				if d.Component != "" && out[i].Component != d.Component {
					continue
				}
				if !cloned[i] {
					out[i] = out[i].Clone()
					cloned[i] = true
				}
				matched = true
				notices = append(notices, applyEntry(out[i], entry, d)...)
			}
			if !matched {
				notices = append(notices, model.Notice{
					Kind:    model.NoticeDescription,
					Subject: entry.Name,
					Reason:  describeMiss(d, "no such type"),
				})
			}
		}
	}
	return out, notices
}

func applyEntry(t *model.TypeDescriptor, entry TypeEntry, d *Description) []model.Notice {
	var notices []model.Notice
	t.Restrictions = t.Restrictions.Union(entry.Restrictions)

	for _, me := range entry.Methods {
		found := false
		for _, m := range t.Members {
			if m.Kind == model.MemberField || m.Name != me.Name {
				continue
			}
			if me.Signature != "" && m.Descriptor != me.Signature {
				continue
			}
			m.Restrictions = m.Restrictions.Union(me.Restrictions)
			found = true
		}
		if !found {
			notices = append(notices, model.Notice{
				Kind:    model.NoticeDescription,
				Subject: t.Name + "#" + me.Name + me.Signature,
				Reason:  describeMiss(d, "no such method"),
			})
		}
	}
	for _, fe := range entry.Fields {
		f := t.Field(fe.Name)
		if f == nil {
			notices = append(notices, model.Notice{
				Kind:    model.NoticeDescription,
				Subject: t.Name + "#" + fe.Name,
				Reason:  describeMiss(d, "no such field"),
			})
			continue
		}
		f.Restrictions = f.Restrictions.Union(fe.Restrictions)
	}
	return notices
}

func describeMiss(d *Description, what string) string {
	src := d.Source
	if src == "" {
		src = "description"
	}
	if d.Component != "" {
		return fmt.Sprintf("%s in component %s (%s)", what, d.Component, src)
	}
	return fmt.Sprintf("%s (%s)", what, src)
}
