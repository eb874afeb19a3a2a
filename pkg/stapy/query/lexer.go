package query

import (
	"strings"

	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func (t token) is(word string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, word)
}

// lex splits an encoded query into tokens. Quoted payloads have already
// been made opaque by the escaper, so a quoted token runs to the next
// quote of the same style.
func lex(src, encoded string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(encoded) {
		c := encoded[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(encoded[i+1:], c)
			if end < 0 {
				return nil, &sterrors.SyntaxError{Source: src, Snippet: encoded[i:], Msg: "unterminated string"}
			}
			end += i + 1
			tokens = append(tokens, token{tokString, encoded[i : end+1]})
			i = end + 1
		case c == '!':
			j := skipSpaces(encoded, i+1)
			if j >= len(encoded) || encoded[j] != '=' {
				return nil, &sterrors.SyntaxError{Source: src, Snippet: "!", Msg: "expected !="}
			}
			tokens = append(tokens, token{tokOp, "!="})
			i = j + 1
		case c == '>' || c == '<':
			j := skipSpaces(encoded, i+1)
			if j < len(encoded) && encoded[j] == '=' {
				tokens = append(tokens, token{tokOp, string(c) + "="})
				i = j + 1
			} else {
				tokens = append(tokens, token{tokOp, string(c)})
				i++
			}
		case c == '=':
			tokens = append(tokens, token{tokOp, "="})
			i++
		default:
			j := i
			for j < len(encoded) && !isDelimiter(encoded[j]) {
				j++
			}
			tokens = append(tokens, token{tokWord, encoded[i:j]})
			i = j
		}
	}
	return tokens, nil
}

func skipSpaces(s string, i int) int {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '"', '\'', '!', '=', '>', '<':
		return true
	}
	return false
}
