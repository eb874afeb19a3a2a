package escape

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultProtected lists the tokens hidden inside quoted substrings.
// Two-character operators come before their one-character prefixes.
var DefaultProtected = []string{
	" ", ":", "+", "~", `"`, "'",
	"!=", ">=", "<=", "=", ">", "<",
	")", "(", "where", "WHERE",
}

var spaceRun = regexp.MustCompile(` +`)

// Hash returns the placeholder for token.
func Hash(token string) string {
	return fmt.Sprintf("^%016x$", xxhash.Sum64String(token))
}

// Encoder hides and restores protected tokens in expressions.
// It is immutable and safe for concurrent use.
type Encoder struct {
	protected []string
	hide      *strings.Replacer
	restore   *strings.Replacer
}

// NewEncoder creates an Encoder. With no tokens, DefaultProtected is used.
func NewEncoder(protected ...string) *Encoder {
	if len(protected) == 0 {
		protected = DefaultProtected
	}
	hide := make([]string, 0, len(protected)*2)
	restore := make([]string, 0, len(protected)*2)
	for _, tok := range protected {
		hide = append(hide, tok, Hash(tok))
		restore = append(restore, Hash(tok), tok)
	}
	return &Encoder{
		protected: append([]string(nil), protected...),
		hide:      strings.NewReplacer(hide...),
		restore:   strings.NewReplacer(restore...),
	}
}

// Protected returns the protected tokens.
func (e *Encoder) Protected() []string {
	return append([]string(nil), e.protected...)
}

// EncodeExpression hides escaped quotes, cross-style quotes, and every
// protected token inside quoted substrings, then collapses runs of spaces
// and trims the result.
func (e *Encoder) EncodeExpression(value string) string {
	value = strings.ReplaceAll(value, `\"`, Hash(`"`))
	value = strings.ReplaceAll(value, `\'`, Hash(`'`))

	value = mapQuoted(value, '"', func(s string) string {
		return strings.ReplaceAll(s, "'", Hash("'"))
	})
	value = mapQuoted(value, '\'', func(s string) string {
		return strings.ReplaceAll(s, `"`, Hash(`"`))
	})

	value = mapQuoted(value, '"', e.hide.Replace)
	value = mapQuoted(value, '\'', e.hide.Replace)

	return strings.Trim(spaceRun.ReplaceAllString(value, " "), " ")
}

// DecodeExpression restores every protected token placeholder.
func (e *Encoder) DecodeExpression(value string) string {
	return e.restore.Replace(value)
}

// mapQuoted applies fn to the payload of every quote-delimited substring,
// pairing quotes left to right. An unterminated quote is left as is.
func mapQuoted(value string, quote byte, fn func(string) string) string {
	if strings.IndexByte(value, quote) < 0 {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	rest := value
	for {
		open := strings.IndexByte(rest, quote)
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open+1:], quote)
		if end < 0 {
			break
		}
		end += open + 1
		b.WriteString(rest[:open+1])
		b.WriteString(fn(rest[open+1 : end]))
		b.WriteByte(quote)
		rest = rest[end+1:]
	}
	b.WriteString(rest)
	return b.String()
}

var defaultEncoder = NewEncoder()

// EncodeExpression encodes value with the default protected tokens.
func EncodeExpression(value string) string {
	return defaultEncoder.EncodeExpression(value)
}

// DecodeExpression decodes value with the default protected tokens.
func DecodeExpression(value string) string {
	return defaultEncoder.DecodeExpression(value)
}
