package classfile

import (
	"fmt"
	"sort"

	"apiguard/internal/engine/model"
)

const (
	opGetStatic       = 0xb2
	opPutStatic       = 0xb3
	opGetField        = 0xb4
	opPutField        = 0xb5
	opInvokeVirtual   = 0xb6
	opInvokeSpecial   = 0xb7
	opInvokeStatic    = 0xb8
	opInvokeInterface = 0xb9
	opInvokeDynamic   = 0xba
	opNew             = 0xbb
	opTableSwitch     = 0xaa
	opLookupSwitch    = 0xab
	opWide            = 0xc4
	opIinc            = 0x84
)

const lambdaMetafactory = "java/lang/invoke/LambdaMetafactory"

// opLength is the fixed instruction length per opcode, 0 for variable
// length instructions and -1 for undefined opcodes.
var opLength = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	set := func(from, to int, n int8) {
		for op := from; op <= to; op++ {
			t[op] = n
		}
	}
	set(0x00, 0x0f, 1)
	t[0x10] = 2 // bipush
	t[0x11] = 3 // sipush
	t[0x12] = 2 // ldc
	set(0x13, 0x14, 3)
	set(0x15, 0x19, 2) // loads with index
	set(0x1a, 0x35, 1)
	set(0x36, 0x3a, 2) // stores with index
	set(0x3b, 0x83, 1)
	t[opIinc] = 3
	set(0x85, 0x98, 1)
	set(0x99, 0xa8, 3) // branches, goto, jsr
	t[0xa9] = 2        // ret
	t[opTableSwitch] = 0
	t[opLookupSwitch] = 0
	set(0xac, 0xb1, 1)
	set(0xb2, 0xb8, 3)
	t[opInvokeInterface] = 5
	t[opInvokeDynamic] = 5
	t[opNew] = 3
	t[0xbc] = 2 // newarray
	t[0xbd] = 3 // anewarray
	set(0xbe, 0xbf, 1)
	set(0xc0, 0xc1, 3) // checkcast, instanceof
	set(0xc2, 0xc3, 1)
	t[opWide] = 0
	t[0xc5] = 4 // multianewarray
	set(0xc6, 0xc7, 3)
	set(0xc8, 0xc9, 5)
	return t
}()

// sites decodes the usage instructions of a method body.
func (c *Class) sites(m *Member) ([]model.Site, error) {
	code := m.code
	var out []model.Site
	for pc := 0; pc < len(code); {
		op := code[pc]
		n, err := instructionLength(code, pc)
		if err != nil {
			return nil, err
		}
		if pc+n > len(code) {
			return nil, fmt.Errorf("instruction at pc %d overruns code", pc)
		}
		switch op {
		case opNew:
			owner, err := c.pool.className(u2At(code, pc+1))
			if err != nil {
				return nil, fmt.Errorf("new at pc %d: %w", pc, err)
			}
			out = append(out, model.Site{Kind: model.SiteNew, Owner: model.DottedName(owner), Line: m.lineAt(pc)})

		case opGetStatic, opPutStatic, opGetField, opPutField:
			ref, err := c.pool.ref(u2At(code, pc+1))
			if err != nil {
				return nil, fmt.Errorf("field access at pc %d: %w", pc, err)
			}
			out = append(out, model.Site{
				Kind:       model.SiteField,
				Owner:      model.DottedName(ref.owner),
				Name:       ref.name,
				Descriptor: ref.desc,
				Write:      op == opPutStatic || op == opPutField,
				Line:       m.lineAt(pc),
			})

		case opInvokeVirtual, opInvokeSpecial, opInvokeStatic, opInvokeInterface:
			ref, err := c.pool.ref(u2At(code, pc+1))
			if err != nil {
				return nil, fmt.Errorf("invoke at pc %d: %w", pc, err)
			}
			site := model.Site{
				Kind:       model.SiteInvoke,
				Owner:      model.DottedName(ref.owner),
				Name:       ref.name,
				Descriptor: ref.desc,
				Line:       m.lineAt(pc),
			}
			switch op {
			case opInvokeStatic:
				site.Invoke = model.InvokeStatic
			case opInvokeSpecial:
				site.Invoke = model.InvokeSpecial
				site.Super = ref.name != model.ConstructorName && ref.owner != c.Name
			case opInvokeInterface:
				site.Invoke = model.InvokeInterface
			}
			out = append(out, site)

		case opInvokeDynamic:
			site, ok, err := c.lambdaSite(u2At(code, pc+1))
			if err != nil {
				return nil, fmt.Errorf("invokedynamic at pc %d: %w", pc, err)
			}
			if ok {
				site.Line = m.lineAt(pc)
				out = append(out, site)
			}
		}
		pc += n
	}
	return out, nil
}

// lambdaSite decodes an invokedynamic bound through LambdaMetafactory.
// Other bootstrap methods (string concatenation, records) are ignored.
func (c *Class) lambdaSite(idx uint16) (model.Site, bool, error) {
	e, err := c.pool.entry(idx, tagInvokeDynamic)
	if err != nil {
		return model.Site{}, false, err
	}
	if int(e.a) >= len(c.bootstrap) {
		return model.Site{}, false, fmt.Errorf("bootstrap method %d missing", e.a)
	}
	bm := c.bootstrap[e.a]
	bsm, err := c.pool.methodHandle(bm.handle)
	if err != nil {
		return model.Site{}, false, err
	}
	if bsm.ref.owner != lambdaMetafactory || len(bm.args) < 2 {
		return model.Site{}, false, nil
	}
	_, desc, err := c.pool.nameAndType(e.b)
	if err != nil {
		return model.Site{}, false, err
	}
	_, ret, ok := model.ParseMethodDescriptor(desc)
	if !ok {
		return model.Site{}, false, fmt.Errorf("bad invokedynamic descriptor %q", desc)
	}
	impl, err := c.pool.methodHandle(bm.args[1])
	if err != nil {
		return model.Site{}, false, err
	}
	return model.Site{
		Kind:      model.SiteLambda,
		Interface: ret,
		Target: model.MethodRef{
			Owner:      model.DottedName(impl.ref.owner),
			Name:       impl.ref.name,
			Descriptor: impl.ref.desc,
		},
		TargetNew: impl.kind == refNewInvokeSpecial,
	}, true, nil
}

func instructionLength(code []byte, pc int) (int, error) {
	op := code[pc]
	switch n := opLength[op]; {
	case n > 0:
		return int(n), nil
	case n < 0:
		return 0, fmt.Errorf("undefined opcode 0x%02x at pc %d", op, pc)
	}
	switch op {
	case opWide:
		if pc+1 >= len(code) {
			return 0, fmt.Errorf("truncated wide at pc %d", pc)
		}
		if code[pc+1] == opIinc {
			return 6, nil
		}
		return 4, nil
	case opTableSwitch:
		base := (pc + 4) &^ 3
		if base+12 > len(code) {
			return 0, fmt.Errorf("truncated tableswitch at pc %d", pc)
		}
		low := int32(u4At(code, base+4))
		high := int32(u4At(code, base+8))
		if high < low {
			return 0, fmt.Errorf("tableswitch at pc %d has high < low", pc)
		}
		end := int64(base) + 12 + (int64(high)-int64(low)+1)*4
		if end > int64(len(code)) {
			return 0, fmt.Errorf("truncated tableswitch at pc %d", pc)
		}
		return int(end) - pc, nil
	case opLookupSwitch:
		base := (pc + 4) &^ 3
		if base+8 > len(code) {
			return 0, fmt.Errorf("truncated lookupswitch at pc %d", pc)
		}
		pairs := int32(u4At(code, base+4))
		if pairs < 0 {
			return 0, fmt.Errorf("lookupswitch at pc %d has negative pair count", pc)
		}
		end := int64(base) + 8 + int64(pairs)*8
		if end > int64(len(code)) {
			return 0, fmt.Errorf("truncated lookupswitch at pc %d", pc)
		}
		return int(end) - pc, nil
	}
	return 0, fmt.Errorf("unhandled opcode 0x%02x at pc %d", op, pc)
}

func u2At(b []byte, off int) uint16 {
	return uint16(b[off])<<8 | uint16(b[off+1])
}

func u4At(b []byte, off int) uint32 {
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3])
}

// lineAt maps a pc to its source line using the LineNumberTable (sorted by
// pc in readCode), or 0 when the method has no line information.
func (m *Member) lineAt(pc int) int {
	if len(m.lines) == 0 {
		return 0
	}
	i := sort.Search(len(m.lines), func(i int) bool { return m.lines[i].pc > pc })
	if i == 0 {
		return m.lines[0].line
	}
	return m.lines[i-1].line
}

// firstLine is the lowest line number of the body.
func (m *Member) firstLine() int {
	first := 0
	for _, e := range m.lines {
		if first == 0 || e.line < first {
			first = e.line
		}
	}
	return first
}
