/*
Package escape hides characters that would otherwise be read as syntax by
the tag scanner or the query lexer.

# Placeholders

Every hidden token is replaced by a placeholder derived from its content:

	escape.Hash("{")  // "^" + 16 hex digits + "$"

Hash is a pure function, so a token hidden in one call can be found and
restored in any other call without shared state.

# Expressions

EncodeExpression makes quoted payloads opaque:

	enc := escape.NewEncoder()
	s := enc.EncodeExpression(`title:"Hello World" WHERE a = 'x:y'`)
	// the space inside "Hello World" and the colon inside 'x:y' are hidden,
	// the unquoted WHERE and = are left alone

DecodeExpression puts protected tokens back:

	enc.DecodeExpression(s) // `title:"Hello World" WHERE a = 'x:y'`

Backslash-escaped quotes (\" and \') are hidden as well; since quotes are
protected tokens, decoding restores them as plain quotes.
*/
package escape
