/*
Package template expands page documents against page records.

# Tag syntaxes

Three tag forms are recognized, each delimited by a pair of two-character
markers:

	{{ name }}                   variable: the record value, env override applied
	{: name key:value ... :}     extension: dispatches the named capability
	{% key %}                    inclusion: renders the child template named by key
	{% key + pages/a.html %}     inclusion with another page's record
	{% key ~ WHERE "x" in tags %} inclusion once per query result

Expansion order is fixed: escaped braces, extension tags, inclusion tags,
variable tags, then cleanup. Cleanup removes every tag that did not resolve
and restores escaped braces, so `\{\{ x \}\}` renders as a literal `{{ x }}`.

# Child scopes

An inclusion renders its child template against the parent record merged
with the child's fields, each prefixed with "$". The inclusion key is
removed from that scope, so a template cannot include itself through the
same key.

# Usage

	eng := template.NewEngine(src,
	    template.WithDispatcher(registry),
	    template.WithLogger(logger),
	)
	html, err := eng.Expand(ctx, page, doc, "prod", "index.html")

An Engine holds no mutable state after construction and is safe for
concurrent use.
*/
package template
