package classfile

import "fmt"

// readAnnotations returns the type descriptors of the annotations in a
// Runtime{Visible,Invisible}Annotations attribute. Element values are
// skipped; marker annotations carry no values.
func readAnnotations(body []byte, pool constantPool) ([]string, error) {
	r := &reader{data: body}
	n := int(r.u2())
	out := make([]string, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		typ, err := readAnnotation(r, pool)
		if err != nil {
			return nil, err
		}
		out = append(out, typ)
	}
	return out, r.err
}

func readAnnotation(r *reader, pool constantPool) (string, error) {
	typ, err := pool.utf8(r.u2())
	if err != nil {
		return "", err
	}
	pairs := int(r.u2())
	for i := 0; i < pairs && r.err == nil; i++ {
		r.skip(2) // element_name_index
		if err := skipElementValue(r, pool, 0); err != nil {
			return "", err
		}
	}
	return typ, r.err
}

const maxAnnotationDepth = 64

func skipElementValue(r *reader, pool constantPool, depth int) error {
	if depth > maxAnnotationDepth {
		return fmt.Errorf("annotation values nested too deeply")
	}
	tag := r.u1()
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		r.skip(2)
	case 'e':
		r.skip(4)
	case '@':
		if _, err := readAnnotation(r, pool); err != nil {
			return err
		}
	case '[':
		n := int(r.u2())
		for i := 0; i < n && r.err == nil; i++ {
			if err := skipElementValue(r, pool, depth+1); err != nil {
				return err
			}
		}
	default:
		if r.err == nil {
			return fmt.Errorf("unknown element value tag %q", tag)
		}
	}
	return r.err
}
