package query

import (
	"regexp"
	"strconv"
	"strings"

	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
	"github.com/randalmurphal/stapy/pkg/stapy/escape"
)

var (
	windowPattern = regexp.MustCompile(`^([0-9]+)(?:-([0-9]+))?$`)
	numberPattern = regexp.MustCompile(`^-?[0-9]+(?:\.[0-9]+)?$`)
)

// parser turns a token stream into clauses.
type parser struct {
	src    string
	enc    *escape.Encoder
	tokens []token
	pos    int
}

func (p *parser) peek(offset int) (token, bool) {
	i := p.pos + offset
	if i < 0 || i >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[i], true
}

func (p *parser) pairAt(i int, first, second string) bool {
	if i+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[i].is(first) && p.tokens[i+1].is(second)
}

// clauseStart reports whether a SELECT ITEMS or ORDER BY clause begins at i.
func (p *parser) clauseStart(i int) bool {
	return p.pairAt(i, "select", "items") || p.pairAt(i, "order", "by")
}

func (p *parser) syntaxError(snippet, msg string) error {
	return &sterrors.SyntaxError{Source: p.src, Snippet: p.enc.DecodeExpression(snippet), Msg: msg}
}

// parse fills q from the token stream. Words outside any clause are ignored.
func (p *parser) parse(q *Query) error {
	for p.pos < len(p.tokens) {
		switch {
		case p.pairAt(p.pos, "select", "items"):
			p.pos += 2
			q.window = DefaultWindow()
			if tok, ok := p.peek(0); ok && tok.kind == tokWord {
				if w, ok := parseWindow(tok.text); ok {
					q.window = w
					p.pos++
				}
			}
		case p.pairAt(p.pos, "order", "by"):
			p.pos += 2
			q.orderField, q.orderDesc = "", false
			tok, ok := p.peek(0)
			if !ok || (tok.kind != tokWord && tok.kind != tokString) || p.clauseStart(p.pos) {
				continue
			}
			q.orderField = p.fieldName(tok)
			p.pos++
			if dir, ok := p.peek(0); ok && (dir.is("asc") || dir.is("desc")) {
				q.orderDesc = dir.is("desc")
				p.pos++
			}
		case p.tokens[p.pos].is("where"):
			p.pos++
			end := p.pos
			for end < len(p.tokens) && !p.clauseStart(end) {
				end++
			}
			sub := &parser{src: p.src, enc: p.enc, tokens: p.tokens[p.pos:end]}
			where, err := sub.parseCondition()
			if err != nil {
				return err
			}
			q.where = where
			p.pos = end
		default:
			p.pos++
		}
	}
	return nil
}

// parseCondition parses a full WHERE condition and requires every token
// to be consumed.
func (p *parser) parseCondition() (Node, error) {
	if len(p.tokens) == 0 {
		return nil, p.syntaxError("WHERE", "empty condition")
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(0); ok {
		return nil, p.syntaxError(tok.text, "expected AND or OR")
	}
	return n, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek(0)
		if !ok || !tok.is("or") {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: Or, Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek(0)
		if !ok || !tok.is("and") {
			return left, nil
		}
		p.pos++
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: And, Left: left, Right: right}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok, ok := p.peek(0)
	if !ok {
		return nil, p.syntaxError("", "unexpected end of condition")
	}
	if tok.kind == tokLParen {
		p.pos++
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek(0)
		if !ok || closing.kind != tokRParen {
			return nil, p.syntaxError(closing.text, "expected )")
		}
		p.pos++
		return n, nil
	}
	return p.parseTerm()
}

// parseTerm parses `field op value`, `value in field` or `value not in field`.
func (p *parser) parseTerm() (Node, error) {
	first, _ := p.peek(0)
	if first.kind != tokWord && first.kind != tokString {
		return nil, p.syntaxError(first.text, "expected field or value")
	}

	next, ok := p.peek(1)
	if !ok {
		return nil, p.syntaxError(first.text, "incomplete condition")
	}

	negate := false
	switch {
	case next.is("in"):
		p.pos += 2
	case next.is("not"):
		if in, ok := p.peek(2); !ok || !in.is("in") {
			return nil, p.syntaxError(next.text, "expected not in")
		}
		negate = true
		p.pos += 3
	case next.kind == tokOp:
		p.pos += 2
		valueTok, ok := p.peek(0)
		if !ok {
			return nil, p.syntaxError(first.text+" "+next.text, "missing value")
		}
		value, err := p.value(valueTok)
		if err != nil {
			return nil, err
		}
		p.pos++
		return &Comparison{Field: p.fieldName(first), Op: Op(next.text), Value: value}, nil
	default:
		return nil, p.syntaxError(next.text, "expected operator, in or not in")
	}

	value, err := p.value(first)
	if err != nil {
		return nil, err
	}
	fieldTok, ok := p.peek(0)
	if !ok || (fieldTok.kind != tokWord && fieldTok.kind != tokString) {
		return nil, p.syntaxError(first.text, "missing field after in")
	}
	p.pos++
	return &Membership{Value: value, Field: p.fieldName(fieldTok), Negate: negate}, nil
}

// fieldName strips quotes and restores protected tokens.
func (p *parser) fieldName(tok token) string {
	name := tok.text
	if tok.kind == tokString {
		name = name[1 : len(name)-1]
	}
	return p.enc.DecodeExpression(name)
}

// value types a literal token.
func (p *parser) value(tok token) (any, error) {
	switch tok.kind {
	case tokString:
		return p.enc.DecodeExpression(tok.text[1 : len(tok.text)-1]), nil
	case tokWord:
		switch strings.ToLower(tok.text) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		if numberPattern.MatchString(tok.text) {
			f, err := strconv.ParseFloat(tok.text, 64)
			if err == nil {
				return f, nil
			}
		}
		return nil, p.syntaxError(tok.text, "unresolved identifier")
	}
	return nil, p.syntaxError(tok.text, "expected value")
}

// parseWindow parses "n" or "n-m".
func parseWindow(s string) (Window, bool) {
	m := windowPattern.FindStringSubmatch(s)
	if m == nil {
		return Window{}, false
	}
	from, err := strconv.Atoi(m[1])
	if err != nil {
		return Window{}, false
	}
	to := from
	if m[2] != "" {
		if to, err = strconv.Atoi(m[2]); err != nil {
			return Window{}, false
		}
	}
	return Window{From: from, To: to}, true
}
