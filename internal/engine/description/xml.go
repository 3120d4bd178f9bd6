package description

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/model"
)

type xmlComponent struct {
	XMLName  xml.Name     `xml:"component"`
	Name     string       `xml:"name,attr"`
	Version  string       `xml:"version,attr,omitempty"`
	Packages []xmlPackage `xml:"package"`
}

type xmlPackage struct {
	Name  string    `xml:"name,attr"`
	Types []xmlType `xml:"type"`
}

type xmlType struct {
	Name         string      `xml:"name,attr"`
	Restrictions string      `xml:"restrictions,attr,omitempty"`
	Methods      []xmlMember `xml:"method"`
	Fields       []xmlMember `xml:"field"`
	Types        []xmlType   `xml:"type"`
}

type xmlMember struct {
	Name         string `xml:"name,attr"`
	Signature    string `xml:"signature,attr,omitempty"`
	Restrictions string `xml:"restrictions,attr,omitempty"`
}

// ParseXML reads an Eclipse .api_description document. Nested <type>
// elements name member types of their parent.
func ParseXML(r io.Reader) (*Description, error) {
	var doc xmlComponent
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidationError, "decode api description")
	}
	d := &Description{Component: doc.Name, Version: doc.Version}
	for _, pkg := range doc.Packages {
		for _, t := range pkg.Types {
			if err := d.addXMLType(qualify(pkg.Name, t.Name), t); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

func (d *Description) addXMLType(name string, t xmlType) error {
	set, err := parseBits(t.Restrictions)
	if err != nil {
		return fmt.Errorf("type %s: %w", name, err)
	}
	entry := TypeEntry{Name: name, Restrictions: set}
	for _, m := range t.Methods {
		ms, err := parseBits(m.Restrictions)
		if err != nil {
			return fmt.Errorf("method %s.%s: %w", name, m.Name, err)
		}
		entry.Methods = append(entry.Methods, MemberEntry{Name: m.Name, Signature: m.Signature, Restrictions: ms})
	}
	for _, f := range t.Fields {
		fs, err := parseBits(f.Restrictions)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", name, f.Name, err)
		}
		entry.Fields = append(entry.Fields, MemberEntry{Name: f.Name, Restrictions: fs})
	}
	d.Types = append(d.Types, entry)
	for _, nested := range t.Types {
		child := nested.Name
		if !strings.Contains(child, "$") {
			child = name + "$" + child
		} else if !strings.Contains(child, ".") {
			child = qualify(model.PackageOf(name), child)
		}
		if err := d.addXMLType(child, nested); err != nil {
			return err
		}
	}
	return nil
}

func qualify(pkg, name string) string {
	if pkg == "" || strings.Contains(name, ".") {
		return name
	}
	return pkg + "." + name
}

func parseBits(v string) (model.RestrictionSet, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.Newf(apperrors.CodeValidationError, "restrictions %q is not a number", v)
	}
	return model.SetFromBits(n), nil
}

// WriteXML renders d in the .api_description layout, grouping types by
// package.
func WriteXML(w io.Writer, d *Description) error {
	doc := xmlComponent{Name: d.Component, Version: d.Version}
	index := make(map[string]int)
	for _, t := range d.Types {
		pkg := model.PackageOf(t.Name)
		i, ok := index[pkg]
		if !ok {
			i = len(doc.Packages)
			index[pkg] = i
			doc.Packages = append(doc.Packages, xmlPackage{Name: pkg})
		}
		xt := xmlType{Name: strings.TrimPrefix(t.Name, pkg+"."), Restrictions: bits(t.Restrictions)}
		if pkg == "" {
			xt.Name = t.Name
		}
		for _, m := range t.Methods {
			xt.Methods = append(xt.Methods, xmlMember{Name: m.Name, Signature: m.Signature, Restrictions: bits(m.Restrictions)})
		}
		for _, f := range t.Fields {
			xt.Fields = append(xt.Fields, xmlMember{Name: f.Name, Restrictions: bits(f.Restrictions)})
		}
		doc.Packages[i].Types = append(doc.Packages[i].Types, xt)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func bits(s model.RestrictionSet) string {
	if s.Empty() {
		return ""
	}
	return strconv.Itoa(s.Bits())
}
