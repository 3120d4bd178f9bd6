package description

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/model"
)

type tomlFile struct {
	Component string     `toml:"component"`
	Version   string     `toml:"version"`
	Types     []tomlType `toml:"type"`
}

type tomlType struct {
	Name         string       `toml:"name"`
	Restrictions []string     `toml:"restrictions"`
	Methods      []tomlMember `toml:"method"`
	Fields       []tomlMember `toml:"field"`
}

type tomlMember struct {
	Name         string   `toml:"name"`
	Signature    string   `toml:"signature"`
	Restrictions []string `toml:"restrictions"`
}

// ParseTOML reads a TOML description:
//
//	component = "org.example.core"
//
//	[[type]]
//	name = "org.example.Api"
//	restrictions = ["implement"]
//
//	  [[type.method]]
//	  name = "run"
//	  signature = "()V"
//	  restrictions = ["reference"]
func ParseTOML(r io.Reader) (*Description, error) {
	var doc tomlFile
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidationError, "decode toml description")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, apperrors.Newf(apperrors.CodeValidationError, "unknown keys in description: %s", strings.Join(keys, ", "))
	}

	d := &Description{Component: doc.Component, Version: doc.Version}
	for i, t := range doc.Types {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, apperrors.Newf(apperrors.CodeValidationError, "type[%d] has no name", i)
		}
		set, err := kinds(t.Restrictions, name)
		if err != nil {
			return nil, err
		}
		entry := TypeEntry{Name: name, Restrictions: set}
		for _, m := range t.Methods {
			ms, err := kinds(m.Restrictions, name+"."+m.Name)
			if err != nil {
				return nil, err
			}
			entry.Methods = append(entry.Methods, MemberEntry{Name: m.Name, Signature: m.Signature, Restrictions: ms})
		}
		for _, f := range t.Fields {
			fs, err := kinds(f.Restrictions, name+"."+f.Name)
			if err != nil {
				return nil, err
			}
			entry.Fields = append(entry.Fields, MemberEntry{Name: f.Name, Restrictions: fs})
		}
		d.Types = append(d.Types, entry)
	}
	return d, nil
}

func kinds(names []string, subject string) (model.RestrictionSet, error) {
	set, unknown := model.ParseRestrictionSet(names)
	if len(unknown) > 0 {
		return 0, apperrors.Newf(apperrors.CodeValidationError, "%s: unknown restriction kinds %s", subject, fmt.Sprint(unknown))
	}
	return set, nil
}
