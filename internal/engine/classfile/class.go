// Package classfile reads compiled JVM class files into type descriptors.
package classfile

import (
	"fmt"
	"sort"

	apperrors "apiguard/internal/core/errors"
)

const magic = 0xCAFEBABE

// Class is the raw structure of one class file, with constant pool
// references already resolved to strings.
type Class struct {
	Major, Minor uint16
	Access       uint16
	Name         string
	Super        string
	Interfaces   []string
	Fields       []Member
	Methods      []Member
	SourceFile   string

	InnerClasses    []InnerClass
	EnclosingMethod *EnclosingMethod
	Annotations     []string

	bootstrap []bootstrapMethod
	pool      constantPool
}

type Member struct {
	Access      uint16
	Name        string
	Descriptor  string
	Annotations []string
	code        []byte
	lines       []lineEntry
}

type InnerClass struct {
	Inner  string
	Outer  string
	Name   string
	Access uint16
}

type EnclosingMethod struct {
	Class      string
	Name       string
	Descriptor string
}

type lineEntry struct {
	pc   int
	line int
}

type bootstrapMethod struct {
	handle uint16
	args   []uint16
}

// Parse decodes a class file. Errors carry CodeUnparseable.
func Parse(data []byte) (*Class, error) {
	c, err := parse(data)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnparseable, "parse class file")
	}
	return c, nil
}

func parse(data []byte) (*Class, error) {
	r := &reader{data: data}
	if m := r.u4(); r.err == nil && m != magic {
		return nil, fmt.Errorf("bad magic 0x%08X", m)
	}
	c := &Class{}
	c.Minor = r.u2()
	c.Major = r.u2()
	if r.err != nil {
		return nil, r.err
	}

	pool, err := readPool(r)
	if err != nil {
		return nil, err
	}
	c.pool = pool

	c.Access = r.u2()
	if c.Name, err = pool.className(r.u2()); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	if superIdx := r.u2(); superIdx != 0 {
		if c.Super, err = pool.className(superIdx); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		name, err := pool.className(r.u2())
		if err != nil {
			return nil, fmt.Errorf("interfaces[%d]: %w", i, err)
		}
		c.Interfaces = append(c.Interfaces, name)
	}

	if c.Fields, err = readMembers(r, pool, false); err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	if c.Methods, err = readMembers(r, pool, true); err != nil {
		return nil, fmt.Errorf("methods: %w", err)
	}
	if err := readClassAttributes(r, c); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}

func readMembers(r *reader, pool constantPool, methods bool) ([]Member, error) {
	count := int(r.u2())
	out := make([]Member, 0, count)
	for i := 0; i < count; i++ {
		var m Member
		var err error
		m.Access = r.u2()
		if m.Name, err = pool.utf8(r.u2()); err != nil {
			return nil, err
		}
		if m.Descriptor, err = pool.utf8(r.u2()); err != nil {
			return nil, err
		}
		attrs := int(r.u2())
		for j := 0; j < attrs && r.err == nil; j++ {
			name, body, err := readAttribute(r, pool)
			if err != nil {
				return nil, err
			}
			switch name {
			case "RuntimeInvisibleAnnotations", "RuntimeVisibleAnnotations":
				types, err := readAnnotations(body, pool)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", m.Name, name, err)
				}
				m.Annotations = append(m.Annotations, types...)
			case "Code":
				if !methods {
					continue
				}
				if err := readCode(body, pool, &m); err != nil {
					return nil, fmt.Errorf("%s%s: %w", m.Name, m.Descriptor, err)
				}
			}
		}
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, m)
	}
	return out, r.err
}

func readAttribute(r *reader, pool constantPool) (string, []byte, error) {
	name, err := pool.utf8(r.u2())
	if err != nil {
		return "", nil, err
	}
	length := int(r.u4())
	body := r.bytes(length)
	if r.err != nil {
		return "", nil, r.err
	}
	return name, body, nil
}

func readCode(body []byte, pool constantPool, m *Member) error {
	cr := &reader{data: body}
	cr.skip(4) // max_stack, max_locals
	length := int(cr.u4())
	m.code = cr.bytes(length)
	handlers := int(cr.u2())
	cr.skip(handlers * 8)
	attrs := int(cr.u2())
	for i := 0; i < attrs && cr.err == nil; i++ {
		name, ab, err := readAttribute(cr, pool)
		if err != nil {
			return err
		}
		if name != "LineNumberTable" {
			continue
		}
		lr := &reader{data: ab}
		n := int(lr.u2())
		for j := 0; j < n && lr.err == nil; j++ {
			pc := int(lr.u2())
			line := int(lr.u2())
			m.lines = append(m.lines, lineEntry{pc: pc, line: line})
		}
		if lr.err != nil {
			return lr.err
		}
	}
	sort.SliceStable(m.lines, func(i, j int) bool { return m.lines[i].pc < m.lines[j].pc })
	return cr.err
}

func readClassAttributes(r *reader, c *Class) error {
	pool := c.pool
	count := int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		name, body, err := readAttribute(r, pool)
		if err != nil {
			return err
		}
		ar := &reader{data: body}
		switch name {
		case "SourceFile":
			if c.SourceFile, err = pool.utf8(ar.u2()); err != nil {
				return err
			}
		case "InnerClasses":
			n := int(ar.u2())
			for j := 0; j < n && ar.err == nil; j++ {
				innerIdx, outerIdx, nameIdx := ar.u2(), ar.u2(), ar.u2()
				ic := InnerClass{Access: ar.u2()}
				if ic.Inner, err = pool.className(innerIdx); err != nil {
					return fmt.Errorf("InnerClasses: %w", err)
				}
				if outerIdx != 0 {
					if ic.Outer, err = pool.className(outerIdx); err != nil {
						return fmt.Errorf("InnerClasses: %w", err)
					}
				}
				if nameIdx != 0 {
					if ic.Name, err = pool.utf8(nameIdx); err != nil {
						return fmt.Errorf("InnerClasses: %w", err)
					}
				}
				c.InnerClasses = append(c.InnerClasses, ic)
			}
		case "EnclosingMethod":
			classIdx, methodIdx := ar.u2(), ar.u2()
			em := &EnclosingMethod{}
			if em.Class, err = pool.className(classIdx); err != nil {
				return fmt.Errorf("EnclosingMethod: %w", err)
			}
			if methodIdx != 0 {
				if em.Name, em.Descriptor, err = pool.nameAndType(methodIdx); err != nil {
					return fmt.Errorf("EnclosingMethod: %w", err)
				}
			}
			c.EnclosingMethod = em
		case "BootstrapMethods":
			n := int(ar.u2())
			for j := 0; j < n && ar.err == nil; j++ {
				bm := bootstrapMethod{handle: ar.u2()}
				args := int(ar.u2())
				for k := 0; k < args && ar.err == nil; k++ {
					bm.args = append(bm.args, ar.u2())
				}
				c.bootstrap = append(c.bootstrap, bm)
			}
		case "RuntimeInvisibleAnnotations", "RuntimeVisibleAnnotations":
			types, err := readAnnotations(body, pool)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			c.Annotations = append(c.Annotations, types...)
		}
		if ar.err != nil {
			return fmt.Errorf("%s: %w", name, ar.err)
		}
	}
	return r.err
}
