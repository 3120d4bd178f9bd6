// Package description loads restriction declarations kept outside class
// files: Eclipse .api_description XML, TOML files and source tag scans.
package description

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/model"
)

// Description holds the declarations for one component.
type Description struct {
	// Component restricts the entries to types of that component. Empty
	// applies them to any type with a matching name.
	Component string
	Version   string
	Source    string
	Types     []TypeEntry
}

type TypeEntry struct {
	Name         string
	Restrictions model.RestrictionSet
	Methods      []MemberEntry
	Fields       []MemberEntry
}

// MemberEntry declares restrictions on a member. An empty Signature on a
// method entry matches every overload with that name.
type MemberEntry struct {
	Name         string
	Signature    string
	Restrictions model.RestrictionSet
}

// Len counts the entries carrying at least one restriction.
func (d *Description) Len() int {
	n := 0
	for _, t := range d.Types {
		if !t.Restrictions.Empty() {
			n++
		}
		for _, m := range t.Methods {
			if !m.Restrictions.Empty() {
				n++
			}
		}
		for _, f := range t.Fields {
			if !f.Restrictions.Empty() {
				n++
			}
		}
	}
	return n
}

// Load reads a description file. Files ending in .toml are TOML; anything
// else is treated as .api_description XML.
func Load(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.AddContext(apperrors.Wrap(err, apperrors.CodeNotFound, "open description"), apperrors.CtxPath, path)
		}
		return nil, apperrors.AddContext(apperrors.Wrap(err, apperrors.CodeInternal, "open description"), apperrors.CtxPath, path)
	}
	defer f.Close()

	var d *Description
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		d, err = ParseTOML(f)
	} else {
		d, err = ParseXML(f)
	}
	if err != nil {
		return nil, apperrors.AddContext(err, apperrors.CtxPath, path)
	}
	d.Source = path
	return d, nil
}
