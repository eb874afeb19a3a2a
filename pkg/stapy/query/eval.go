package query

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

// Eval implements Node.
func (c *Comparison) Eval(r record.Record) (bool, error) {
	v, ok := r[c.Field]
	if !ok || v == nil {
		return false, nil
	}
	switch c.Op {
	case OpEq:
		return equal(v, c.Value), nil
	case OpNe:
		return !equal(v, c.Value), nil
	}
	cmp, err := order(v, c.Value)
	if err != nil {
		return false, &EvalError{Cond: c.String(), Msg: err.Error()}
	}
	switch c.Op {
	case OpGt:
		return cmp > 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpGe:
		return cmp >= 0, nil
	case OpLe:
		return cmp <= 0, nil
	}
	return false, &EvalError{Cond: c.String(), Msg: "unknown operator " + string(c.Op)}
}

// Eval implements Node.
func (m *Membership) Eval(r record.Record) (bool, error) {
	v, ok := r[m.Field]
	if !ok || v == nil {
		return false, nil
	}
	found := false
	if list, isList := record.List(v); isList {
		for _, item := range list {
			if equal(item, m.Value) {
				found = true
				break
			}
		}
	} else {
		found = equal(v, m.Value)
	}
	if m.Negate {
		return !found, nil
	}
	return found, nil
}

// Eval implements Node. Evaluation short-circuits like the language's
// native and/or.
func (b *Binary) Eval(r record.Record) (bool, error) {
	left, err := b.Left.Eval(r)
	if err != nil {
		return false, err
	}
	switch b.Op {
	case And:
		if !left {
			return false, nil
		}
	case Or:
		if left {
			return true, nil
		}
	}
	return b.Right.Eval(r)
}

// equal compares values of the same native type. Values of different
// types are never equal.
func equal(a, b any) bool {
	if fa, ok := record.ToFloat64(a); ok {
		fb, ok := record.ToFloat64(b)
		return ok && fa == fb
	}
	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	}
	return false
}

// order returns -1, 0 or 1 comparing a to b, or an error when the two
// values have no common ordering.
func order(a, b any) (int, error) {
	if fa, ok := record.ToFloat64(a); ok {
		if fb, ok := record.ToFloat64(b); ok {
			switch {
			case fa < fb:
				return -1, nil
			case fa > fb:
				return 1, nil
			}
			return 0, nil
		}
	}
	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(va, vb), nil
		}
	case bool:
		if vb, ok := b.(bool); ok {
			return boolInt(va) - boolInt(vb), nil
		}
	}
	return 0, fmt.Errorf("cannot order %s against %s", typeName(a), typeName(b))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func typeName(v any) string {
	if _, ok := record.ToFloat64(v); ok {
		return "number"
	}
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	}
	if _, ok := record.List(v); ok {
		return "list"
	}
	return fmt.Sprintf("%T", v)
}
