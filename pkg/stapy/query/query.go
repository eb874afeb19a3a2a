package query

import (
	"errors"
	"fmt"
	"sort"

	"github.com/randalmurphal/stapy/pkg/stapy/escape"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

// Window is a 1-based inclusive range over query results.
type Window struct {
	From int
	To   int
}

const (
	defaultFrom = 1
	defaultTo   = 10000
)

// DefaultWindow is the window of a query without SELECT ITEMS bounds.
func DefaultWindow() Window {
	return Window{From: defaultFrom, To: defaultTo}
}

// bounds converts the window into slice indexes for n results.
func (w Window) bounds(n int) (start, end int) {
	start = max(w.From-1, 0)
	end = min(w.To, n)
	if start >= n || end <= start {
		return 0, 0
	}
	return start, end
}

// Result is a matched record and its position in the queried collection.
type Result struct {
	Index  int
	Record record.Record
}

// Query is a compiled query. It is immutable and safe for concurrent use.
type Query struct {
	src             string
	where           Node
	orderField      string
	orderDesc       bool
	window          Window
	includeDisabled bool
	encoder         *escape.Encoder
}

// Option configures a Query at compile time.
type Option func(*Query)

// WithDisabled includes records whose enabled field is falsy.
func WithDisabled() Option {
	return func(q *Query) {
		q.includeDisabled = true
	}
}

// WithEncoder sets the escaper used to protect quoted literals.
func WithEncoder(enc *escape.Encoder) Option {
	return func(q *Query) {
		if enc != nil {
			q.encoder = enc
		}
	}
}

// Compile parses src into a Query.
//
// Example:
//
//	q, err := query.Compile(`SELECT ITEMS 1-3 WHERE "news" in tags ORDER BY date desc`)
func Compile(src string, opts ...Option) (*Query, error) {
	q := &Query{
		src:     src,
		window:  DefaultWindow(),
		encoder: escape.NewEncoder(),
	}
	for _, opt := range opts {
		opt(q)
	}

	tokens, err := lex(src, q.encoder.EncodeExpression(src))
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, enc: q.encoder, tokens: tokens}
	if err := p.parse(q); err != nil {
		return nil, err
	}
	return q, nil
}

// MustCompile compiles src and panics on error.
func MustCompile(src string, opts ...Option) *Query {
	q, err := Compile(src, opts...)
	if err != nil {
		panic(fmt.Sprintf("query: %v", err))
	}
	return q
}

// String returns the source text.
func (q *Query) String() string { return q.src }

// Window returns the result window.
func (q *Query) Window() Window { return q.window }

// Order returns the ORDER BY field and direction. The field is empty when
// the query has no ORDER BY clause.
func (q *Query) Order() (field string, desc bool) { return q.orderField, q.orderDesc }

// Where returns the compiled condition, or nil when every record matches.
func (q *Query) Where() Node { return q.where }

// IncludeDisabled reports whether disabled records are considered.
func (q *Query) IncludeDisabled() bool { return q.includeDisabled }

// Match reports whether r satisfies the WHERE condition.
func (q *Query) Match(r record.Record) (bool, error) {
	if q.where == nil {
		return true, nil
	}
	ok, err := q.where.Eval(r)
	if err != nil {
		var evalErr *EvalError
		if errors.As(err, &evalErr) && evalErr.Query == "" {
			evalErr.Query = q.src
		}
		return false, err
	}
	return ok, nil
}

// Run filters, orders and windows records. Result records are clones.
func (q *Query) Run(records record.Collection) ([]Result, error) {
	matched := make([]Result, 0, len(records))
	for i, r := range records {
		if !q.includeDisabled && !r.IsEnabled() {
			continue
		}
		ok, err := q.Match(r)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, Result{Index: i, Record: r})
		}
	}

	if q.orderField != "" {
		q.sort(matched)
	}

	start, end := q.window.bounds(len(matched))
	results := make([]Result, 0, end-start)
	for _, m := range matched[start:end] {
		results = append(results, Result{Index: m.Index, Record: m.Record.Clone()})
	}
	return results, nil
}

// sort orders by the string form of the field. Records without the field
// stay at the end in collection order.
func (q *Query) sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		vi, iok := results[i].Record[q.orderField]
		vj, jok := results[j].Record[q.orderField]
		iok = iok && vi != nil
		jok = jok && vj != nil
		switch {
		case !iok || !jok:
			return iok && !jok
		case q.orderDesc:
			return record.Stringify(vi) > record.Stringify(vj)
		default:
			return record.Stringify(vi) < record.Stringify(vj)
		}
	})
}
