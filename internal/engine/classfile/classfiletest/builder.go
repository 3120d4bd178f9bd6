// Package classfiletest assembles small class files for tests. The output
// is structurally valid but is never run through a verifier: stack maps
// are omitted and max_stack/max_locals are fixed.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
)

// Method handle kinds used by Lambda.
const (
	HandleInvokeStatic     = 6
	HandleInvokeSpecial    = 7
	HandleNewInvokeSpecial = 8
	HandleInvokeVirtual    = 5
	HandleInvokeInterface  = 9
)

type Builder struct {
	pool      bytes.Buffer
	poolCount uint16
	index     map[string]uint16

	access     uint16
	name       string
	super      string
	interfaces []string
	sourceFile string
	annots     []string
	inner      [][4]uint16
	enclosing  []uint16
	bootstrap  [][]uint16
	fields     []*member
	methods    []*MethodBuilder
}

type member struct {
	access     uint16
	name, desc string
	annots     []string
}

// New starts a public class with the given internal name extending
// java/lang/Object.
func New(name string) *Builder {
	return &Builder{
		poolCount: 1,
		index:     make(map[string]uint16),
		access:    AccPublic | AccSuper,
		name:      name,
		super:     "java/lang/Object",
	}
}

// Interface starts a public interface.
func Interface(name string) *Builder {
	return New(name).Access(AccPublic | AccInterface | AccAbstract)
}

func (b *Builder) Access(acc uint16) *Builder { b.access = acc; return b }

func (b *Builder) Super(name string) *Builder { b.super = name; return b }

func (b *Builder) Implements(names ...string) *Builder {
	b.interfaces = append(b.interfaces, names...)
	return b
}

func (b *Builder) SourceFile(name string) *Builder { b.sourceFile = name; return b }

// Annotate adds invisible class annotations by descriptor, e.g.
// "Lorg/eclipse/pde/api/tools/annotations/NoExtend;".
func (b *Builder) Annotate(descs ...string) *Builder {
	b.annots = append(b.annots, descs...)
	return b
}

// Inner adds an InnerClasses entry. Empty outer and simple names are
// written as index 0, as javac does for local and anonymous classes.
func (b *Builder) Inner(inner, outer, simple string, access uint16) *Builder {
	e := [4]uint16{b.class(inner), 0, 0, access}
	if outer != "" {
		e[1] = b.class(outer)
	}
	if simple != "" {
		e[2] = b.utf8(simple)
	}
	b.inner = append(b.inner, e)
	return b
}

// Enclosing adds an EnclosingMethod attribute. An empty method name writes
// method_index 0.
func (b *Builder) Enclosing(class, method, desc string) *Builder {
	b.enclosing = []uint16{b.class(class), 0}
	if method != "" {
		b.enclosing[1] = b.nameAndType(method, desc)
	}
	return b
}

func (b *Builder) Field(access uint16, name, desc string, annots ...string) *Builder {
	b.fields = append(b.fields, &member{access: access, name: name, desc: desc, annots: annots})
	return b
}

// Method adds a method. Instructions appended to the returned builder form
// its Code attribute; a method without instructions gets no Code.
func (b *Builder) Method(access uint16, name, desc string) *MethodBuilder {
	m := &MethodBuilder{b: b, member: member{access: access, name: name, desc: desc}}
	b.methods = append(b.methods, m)
	return m
}

type MethodBuilder struct {
	b *Builder
	member
	code  bytes.Buffer
	lines [][2]uint16
}

func (m *MethodBuilder) Annotate(descs ...string) *MethodBuilder {
	m.annots = append(m.annots, descs...)
	return m
}

// Line marks the following instructions as belonging to a source line.
func (m *MethodBuilder) Line(n int) *MethodBuilder {
	m.lines = append(m.lines, [2]uint16{uint16(m.code.Len()), uint16(n)})
	return m
}

func (m *MethodBuilder) op(op byte, operands ...uint16) *MethodBuilder {
	m.code.WriteByte(op)
	for _, v := range operands {
		_ = binary.Write(&m.code, binary.BigEndian, v)
	}
	return m
}

func (m *MethodBuilder) New(class string) *MethodBuilder { return m.op(0xbb, m.b.class(class)) }
func (m *MethodBuilder) Dup() *MethodBuilder             { return m.op(0x59) }
func (m *MethodBuilder) Pop() *MethodBuilder             { return m.op(0x57) }
func (m *MethodBuilder) Return() *MethodBuilder          { return m.op(0xb1) }
func (m *MethodBuilder) AReturn() *MethodBuilder         { return m.op(0xb0) }
func (m *MethodBuilder) ALoad0() *MethodBuilder          { return m.op(0x2a) }

func (m *MethodBuilder) InvokeVirtual(owner, name, desc string) *MethodBuilder {
	return m.op(0xb6, m.b.methodref(owner, name, desc, false))
}

func (m *MethodBuilder) InvokeSpecial(owner, name, desc string) *MethodBuilder {
	return m.op(0xb7, m.b.methodref(owner, name, desc, false))
}

func (m *MethodBuilder) InvokeStatic(owner, name, desc string) *MethodBuilder {
	return m.op(0xb8, m.b.methodref(owner, name, desc, false))
}

func (m *MethodBuilder) InvokeInterface(owner, name, desc string) *MethodBuilder {
	m.op(0xb9, m.b.methodref(owner, name, desc, true))
	m.code.WriteByte(1)
	m.code.WriteByte(0)
	return m
}

func (m *MethodBuilder) GetField(owner, name, desc string) *MethodBuilder {
	return m.op(0xb4, m.b.fieldref(owner, name, desc))
}

func (m *MethodBuilder) PutField(owner, name, desc string) *MethodBuilder {
	return m.op(0xb5, m.b.fieldref(owner, name, desc))
}

func (m *MethodBuilder) GetStatic(owner, name, desc string) *MethodBuilder {
	return m.op(0xb2, m.b.fieldref(owner, name, desc))
}

func (m *MethodBuilder) PutStatic(owner, name, desc string) *MethodBuilder {
	return m.op(0xb3, m.b.fieldref(owner, name, desc))
}

// TableSwitch emits a tableswitch with every target pointing past the
// instruction, exercising alignment padding.
func (m *MethodBuilder) TableSwitch(low, high int32) *MethodBuilder {
	start := m.code.Len()
	m.code.WriteByte(0xaa)
	for m.code.Len()%4 != 0 {
		m.code.WriteByte(0)
	}
	size := int32(m.code.Len()-start) + 12 + (high-low+1)*4
	_ = binary.Write(&m.code, binary.BigEndian, size)
	_ = binary.Write(&m.code, binary.BigEndian, low)
	_ = binary.Write(&m.code, binary.BigEndian, high)
	for i := low; i <= high; i++ {
		_ = binary.Write(&m.code, binary.BigEndian, size)
	}
	return m
}

// Lambda emits an invokedynamic bound through LambdaMetafactory that
// produces iface (internal name) whose single abstract method has samDesc,
// implemented by the given method handle.
func (m *MethodBuilder) Lambda(iface, sam, samDesc string, implKind byte, implOwner, implName, implDesc string, implIface bool) *MethodBuilder {
	b := m.b
	bsm := b.methodHandle(HandleInvokeStatic, b.methodref(
		"java/lang/invoke/LambdaMetafactory",
		"metafactory",
		"(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodHandle;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/CallSite;",
		false,
	))
	impl := b.methodHandle(implKind, b.methodref(implOwner, implName, implDesc, implIface))
	mt := b.methodType(samDesc)
	idx := uint16(len(b.bootstrap))
	b.bootstrap = append(b.bootstrap, []uint16{bsm, mt, impl, mt})
	indy := b.entry(fmt.Sprintf("indy:%d:%s", idx, iface), 18, idx, b.nameAndType(sam, "()L"+iface+";"))
	m.op(0xba, indy)
	m.code.WriteByte(0)
	m.code.WriteByte(0)
	return m
}

// Raw appends bytes verbatim.
func (m *MethodBuilder) Raw(code ...byte) *MethodBuilder {
	m.code.Write(code)
	return m
}

// Bytes serializes the class file.
func (b *Builder) Bytes() []byte {
	var body bytes.Buffer
	w := func(v any) { _ = binary.Write(&body, binary.BigEndian, v) }

	w(b.access)
	w(b.class(b.name))
	if b.super == "" {
		w(uint16(0))
	} else {
		w(b.class(b.super))
	}
	w(uint16(len(b.interfaces)))
	for _, i := range b.interfaces {
		w(b.class(i))
	}

	w(uint16(len(b.fields)))
	for _, f := range b.fields {
		w(f.access)
		w(b.utf8(f.name))
		w(b.utf8(f.desc))
		if len(f.annots) > 0 {
			w(uint16(1))
			b.writeAnnotations(&body, f.annots)
		} else {
			w(uint16(0))
		}
	}

	w(uint16(len(b.methods)))
	for _, m := range b.methods {
		w(m.access)
		w(b.utf8(m.name))
		w(b.utf8(m.desc))
		attrs := 0
		if m.code.Len() > 0 {
			attrs++
		}
		if len(m.annots) > 0 {
			attrs++
		}
		w(uint16(attrs))
		if m.code.Len() > 0 {
			b.writeCode(&body, m)
		}
		if len(m.annots) > 0 {
			b.writeAnnotations(&body, m.annots)
		}
	}

	var attrs bytes.Buffer
	count := 0
	attr := func(name string, data []byte) {
		count++
		_ = binary.Write(&attrs, binary.BigEndian, b.utf8(name))
		_ = binary.Write(&attrs, binary.BigEndian, uint32(len(data)))
		attrs.Write(data)
	}
	if b.sourceFile != "" {
		attr("SourceFile", u2s(b.utf8(b.sourceFile)))
	}
	if len(b.inner) > 0 {
		vals := []uint16{uint16(len(b.inner))}
		for _, e := range b.inner {
			vals = append(vals, e[:]...)
		}
		attr("InnerClasses", u2s(vals...))
	}
	if b.enclosing != nil {
		attr("EnclosingMethod", u2s(b.enclosing...))
	}
	if len(b.annots) > 0 {
		attr("RuntimeInvisibleAnnotations", b.annotationBody(b.annots))
	}
	if len(b.bootstrap) > 0 {
		vals := []uint16{uint16(len(b.bootstrap))}
		for _, bm := range b.bootstrap {
			vals = append(vals, bm[0], uint16(len(bm)-1))
			vals = append(vals, bm[1:]...)
		}
		attr("BootstrapMethods", u2s(vals...))
	}
	w(uint16(count))
	body.Write(attrs.Bytes())

	var out bytes.Buffer
	_ = binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	_ = binary.Write(&out, binary.BigEndian, uint16(0))
	_ = binary.Write(&out, binary.BigEndian, uint16(52))
	_ = binary.Write(&out, binary.BigEndian, b.poolCount)
	out.Write(b.pool.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

func (b *Builder) writeCode(body *bytes.Buffer, m *MethodBuilder) {
	var code bytes.Buffer
	w := func(v any) { _ = binary.Write(&code, binary.BigEndian, v) }
	w(uint16(8)) // max_stack
	w(uint16(8)) // max_locals
	w(uint32(m.code.Len()))
	code.Write(m.code.Bytes())
	w(uint16(0)) // exception table
	if len(m.lines) > 0 {
		w(uint16(1))
		vals := []uint16{uint16(len(m.lines))}
		for _, l := range m.lines {
			vals = append(vals, l[0], l[1])
		}
		data := u2s(vals...)
		w(b.utf8("LineNumberTable"))
		w(uint32(len(data)))
		code.Write(data)
	} else {
		w(uint16(0))
	}
	_ = binary.Write(body, binary.BigEndian, b.utf8("Code"))
	_ = binary.Write(body, binary.BigEndian, uint32(code.Len()))
	body.Write(code.Bytes())
}

func (b *Builder) writeAnnotations(body *bytes.Buffer, descs []string) {
	data := b.annotationBody(descs)
	_ = binary.Write(body, binary.BigEndian, b.utf8("RuntimeInvisibleAnnotations"))
	_ = binary.Write(body, binary.BigEndian, uint32(len(data)))
	body.Write(data)
}

func (b *Builder) annotationBody(descs []string) []byte {
	vals := []uint16{uint16(len(descs))}
	for _, d := range descs {
		vals = append(vals, b.utf8(d), 0)
	}
	return u2s(vals...)
}

func u2s(vals ...uint16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint16(out[2*i:], v)
	}
	return out
}

func (b *Builder) entry(key string, tag byte, operands ...uint16) uint16 {
	if idx, ok := b.index[key]; ok {
		return idx
	}
	b.pool.WriteByte(tag)
	for _, v := range operands {
		_ = binary.Write(&b.pool, binary.BigEndian, v)
	}
	idx := b.poolCount
	b.poolCount++
	b.index[key] = idx
	return idx
}

func (b *Builder) utf8(s string) uint16 {
	key := "utf8:" + s
	if idx, ok := b.index[key]; ok {
		return idx
	}
	b.pool.WriteByte(1)
	_ = binary.Write(&b.pool, binary.BigEndian, uint16(len(s)))
	b.pool.WriteString(s)
	idx := b.poolCount
	b.poolCount++
	b.index[key] = idx
	return idx
}

func (b *Builder) class(name string) uint16 {
	return b.entry("class:"+name, 7, b.utf8(name))
}

func (b *Builder) nameAndType(name, desc string) uint16 {
	return b.entry("nat:"+name+":"+desc, 12, b.utf8(name), b.utf8(desc))
}

func (b *Builder) fieldref(owner, name, desc string) uint16 {
	return b.entry("field:"+owner+"."+name+":"+desc, 9, b.class(owner), b.nameAndType(name, desc))
}

func (b *Builder) methodref(owner, name, desc string, iface bool) uint16 {
	if iface {
		return b.entry("imethod:"+owner+"."+name+desc, 11, b.class(owner), b.nameAndType(name, desc))
	}
	return b.entry("method:"+owner+"."+name+desc, 10, b.class(owner), b.nameAndType(name, desc))
}

func (b *Builder) methodType(desc string) uint16 {
	return b.entry("mtype:"+desc, 16, b.utf8(desc))
}

func (b *Builder) methodHandle(kind byte, ref uint16) uint16 {
	key := fmt.Sprintf("mh:%d:%d", kind, ref)
	if idx, ok := b.index[key]; ok {
		return idx
	}
	b.pool.WriteByte(15)
	b.pool.WriteByte(kind)
	_ = binary.Write(&b.pool, binary.BigEndian, ref)
	idx := b.poolCount
	b.poolCount++
	b.index[key] = idx
	return idx
}
