package classfile

import (
	"fmt"
	"unicode/utf16"
)

const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

type cpEntry struct {
	tag  uint8
	a, b uint16
	kind uint8 // method handle reference kind
	str  string
}

type constantPool []cpEntry

func readPool(r *reader) (constantPool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	if count == 0 {
		return nil, fmt.Errorf("empty constant pool")
	}
	pool := make(constantPool, count)
	for i := 1; i < count; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n := int(r.u2())
			e.str = decodeModifiedUTF8(r.bytes(n))
		case tagInteger, tagFloat:
			r.skip(4)
		case tagLong, tagDouble:
			r.skip(8)
			pool[i] = e
			i++ // eight-byte constants take two slots
			continue
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.a = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			e.a = r.u2()
			e.b = r.u2()
		case tagMethodHandle:
			e.kind = r.u1()
			e.a = r.u2()
		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at index %d", tag, i)
		}
		if r.err != nil {
			return nil, r.err
		}
		pool[i] = e
	}
	return pool, r.err
}

func (p constantPool) entry(idx uint16, tags ...uint8) (cpEntry, error) {
	if idx == 0 || int(idx) >= len(p) {
		return cpEntry{}, fmt.Errorf("constant pool index %d out of range", idx)
	}
	e := p[idx]
	for _, t := range tags {
		if e.tag == t {
			return e, nil
		}
	}
	return cpEntry{}, fmt.Errorf("constant pool index %d has tag %d, want %v", idx, e.tag, tags)
}

func (p constantPool) utf8(idx uint16) (string, error) {
	e, err := p.entry(idx, tagUtf8)
	if err != nil {
		return "", err
	}
	return e.str, nil
}

// className returns the internal name of a CONSTANT_Class entry.
func (p constantPool) className(idx uint16) (string, error) {
	e, err := p.entry(idx, tagClass)
	if err != nil {
		return "", err
	}
	return p.utf8(e.a)
}

func (p constantPool) nameAndType(idx uint16) (string, string, error) {
	e, err := p.entry(idx, tagNameAndType)
	if err != nil {
		return "", "", err
	}
	name, err := p.utf8(e.a)
	if err != nil {
		return "", "", err
	}
	desc, err := p.utf8(e.b)
	if err != nil {
		return "", "", err
	}
	return name, desc, nil
}

type memberRef struct {
	owner, name, desc string
	iface             bool
}

// ref resolves a Fieldref, Methodref or InterfaceMethodref.
func (p constantPool) ref(idx uint16) (memberRef, error) {
	e, err := p.entry(idx, tagFieldref, tagMethodref, tagInterfaceMethodref)
	if err != nil {
		return memberRef{}, err
	}
	owner, err := p.className(e.a)
	if err != nil {
		return memberRef{}, err
	}
	name, desc, err := p.nameAndType(e.b)
	if err != nil {
		return memberRef{}, err
	}
	return memberRef{owner: owner, name: name, desc: desc, iface: e.tag == tagInterfaceMethodref}, nil
}

// Method handle reference kinds.
const (
	refGetField         = 1
	refGetStatic        = 2
	refPutField         = 3
	refPutStatic        = 4
	refInvokeVirtual    = 5
	refInvokeStatic     = 6
	refInvokeSpecial    = 7
	refNewInvokeSpecial = 8
	refInvokeInterface  = 9
)

type methodHandle struct {
	kind uint8
	ref  memberRef
}

func (p constantPool) methodHandle(idx uint16) (methodHandle, error) {
	e, err := p.entry(idx, tagMethodHandle)
	if err != nil {
		return methodHandle{}, err
	}
	ref, err := p.ref(e.a)
	if err != nil {
		return methodHandle{}, err
	}
	return methodHandle{kind: e.kind, ref: ref}, nil
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8, which encodes NUL as
// two bytes and supplementary characters as surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= 0x80 || c == 0 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, 0xFFFD)
			i++
		}
	}
	return string(utf16.Decode(units))
}
