package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

// Op is a comparison operator.
type Op string

// Comparison operators.
const (
	OpEq Op = "="
	OpNe Op = "!="
	OpGt Op = ">"
	OpLt Op = "<"
	OpGe Op = ">="
	OpLe Op = "<="
)

// BoolOp combines two conditions.
type BoolOp string

// Boolean combinators.
const (
	And BoolOp = "AND"
	Or  BoolOp = "OR"
)

// Node is a compiled WHERE condition.
type Node interface {
	// Eval reports whether r satisfies the condition.
	Eval(r record.Record) (bool, error)
	String() string
}

// Comparison is `field op value`.
type Comparison struct {
	Field string
	Op    Op
	Value any
}

// Membership is `value in field` or `value not in field`.
type Membership struct {
	Value  any
	Field  string
	Negate bool
}

// Binary combines two conditions with AND or OR.
type Binary struct {
	Op          BoolOp
	Left, Right Node
}

// Compile-time interface checks.
var (
	_ Node = (*Comparison)(nil)
	_ Node = (*Membership)(nil)
	_ Node = (*Binary)(nil)
)

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", strconv.Quote(c.Field), c.Op, literal(c.Value))
}

func (m *Membership) String() string {
	op := "in"
	if m.Negate {
		op = "not in"
	}
	return fmt.Sprintf("%s %s %s", literal(m.Value), op, strconv.Quote(m.Field))
}

func (b *Binary) String() string {
	return "(" + b.Left.String() + " " + string(b.Op) + " " + b.Right.String() + ")"
}

func literal(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return record.Stringify(val)
	}
}

// EvalError is returned when a condition cannot be evaluated, such as an
// ordering comparison between a string and a number.
type EvalError struct {
	Query string
	Cond  string
	Msg   string
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	var b strings.Builder
	b.WriteString("query evaluation: ")
	b.WriteString(e.Msg)
	if e.Cond != "" {
		b.WriteString(" in ")
		b.WriteString(e.Cond)
	}
	if e.Query != "" {
		b.WriteString(" (query: ")
		b.WriteString(e.Query)
		b.WriteString(")")
	}
	return b.String()
}
