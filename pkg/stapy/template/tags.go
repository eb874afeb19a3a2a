package template

import (
	"strings"

	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
	"github.com/randalmurphal/stapy/pkg/stapy/escape"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

// delims is an opening and closing marker pair.
type delims struct {
	open, close string
}

var (
	variableTag  = delims{"{{", "}}"}
	extensionTag = delims{"{:", ":}"}
	inclusionTag = delims{"{%", "%}"}
)

var (
	openBrace  = escape.Hash("{")
	closeBrace = escape.Hash("}")
)

// tag is one occurrence found in a document.
type tag struct {
	start, end int
	text       string // the full tag including delimiters
	expr       string // the inner expression, whitespace-normalized
}

// name is the first space-separated token of the expression.
func (t tag) name() string {
	name, _, _ := strings.Cut(t.expr, " ")
	return name
}

// findTags returns tags in document order. An opening marker immediately
// followed by another opening marker does not start a tag, and the inner
// text runs to the nearest closing marker. Tags whose inner text is blank
// are skipped.
func findTags(d delims, content string) []tag {
	var tags []tag
	i := 0
	for {
		idx := strings.Index(content[i:], d.open)
		if idx < 0 {
			return tags
		}
		start := i + idx
		inner := start + len(d.open)
		if strings.HasPrefix(content[inner:], d.open) {
			i = start + 1
			continue
		}
		closeIdx := strings.Index(content[inner:], d.close)
		if closeIdx < 0 {
			i = start + 1
			continue
		}
		end := inner + closeIdx + len(d.close)
		expr := strings.NewReplacer("\n", " ", "\t", " ").Replace(content[inner : inner+closeIdx])
		expr = strings.Trim(expr, " ")
		if expr != "" {
			tags = append(tags, tag{start: start, end: end, text: content[start:end], expr: expr})
		}
		i = end
	}
}

// distinct drops repeated tag texts, keeping the first occurrence.
func distinct(tags []tag) []tag {
	seen := make(map[string]bool, len(tags))
	out := tags[:0:0]
	for _, t := range tags {
		if seen[t.text] {
			continue
		}
		seen[t.text] = true
		out = append(out, t)
	}
	return out
}

// hideBraces replaces escaped braces with placeholders.
func hideBraces(content string) string {
	return strings.NewReplacer(`\{`, openBrace, `\}`, closeBrace).Replace(content)
}

// clean removes every remaining tag and restores escaped braces.
func clean(content string) string {
	var tags []tag
	for _, d := range []delims{variableTag, extensionTag, inclusionTag} {
		tags = append(tags, findTags(d, content)...)
	}
	for _, t := range tags {
		content = strings.ReplaceAll(content, t.text, "")
	}
	return strings.NewReplacer(openBrace, "{", closeBrace, "}").Replace(content)
}

var quoteEscaper = strings.NewReplacer(`"`, `\"`, `'`, `\'`)

// substituteVariables replaces every resolvable variable tag. With quote
// set, quotes in values are backslash-escaped so they survive inside a
// tag expression.
func substituteVariables(rec record.Record, env, content string, quote bool) string {
	for _, t := range distinct(findTags(variableTag, content)) {
		v, ok := rec.Lookup(t.expr, env)
		if !ok {
			continue
		}
		s := record.Stringify(v)
		if quote {
			s = quoteEscaper.Replace(s)
		}
		content = strings.ReplaceAll(content, t.text, s)
	}
	return content
}

// cleanExpr prepares a tag expression for splitting: variables are
// substituted, leftover tags dropped, and quoted payloads encoded.
func (e *Engine) cleanExpr(rec record.Record, env, expr string) string {
	return e.encoder.EncodeExpression(clean(substituteVariables(rec, env, expr, true)))
}

// parseArgs reads `key:value` pairs from an encoded expression, skipping
// the leading name token.
func (e *Engine) parseArgs(t tag, encoded string) (record.Record, error) {
	args := record.Record{}
	fields := strings.Split(strings.NewReplacer(`"`, "", `'`, "").Replace(encoded), " ")
	for _, field := range fields[1:] {
		if field == "" {
			continue
		}
		key, value, ok := strings.Cut(field, ":")
		if !ok || key == "" || strings.Contains(value, ":") {
			return nil, &sterrors.SyntaxError{
				Source:  t.text,
				Snippet: e.encoder.DecodeExpression(field),
				Msg:     "arguments must be key:value",
			}
		}
		args[e.encoder.DecodeExpression(key)] = e.encoder.DecodeExpression(value)
	}
	return args, nil
}
