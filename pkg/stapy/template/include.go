package template

import (
	"errors"
	"strings"
	"time"

	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
	"github.com/randalmurphal/stapy/pkg/stapy/observability"
	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
	"github.com/randalmurphal/stapy/pkg/stapy/query"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

// childPrefix namespaces child fields in an inclusion scope.
const childPrefix = "$"

// inclusionTags renders each distinct inclusion tag and substitutes it
// everywhere it occurs. Tags whose key does not name a template are left
// for cleanup.
func (p *pass) inclusionTags(scope record.Record, content string, depth int) (string, error) {
	for _, t := range distinct(findTags(inclusionTag, content)) {
		key := t.name()
		v, _ := scope.Lookup(key, p.env)
		tpl, ok := v.(string)
		if !ok || tpl == "" {
			continue
		}
		if err := p.nested(t, depth); err != nil {
			return "", err
		}

		rendered, err := p.inclusion(scope, t, key, tpl, depth)
		if err != nil {
			return "", err
		}
		content = strings.ReplaceAll(content, t.text, rendered)
	}
	return content, nil
}

func (p *pass) inclusion(scope record.Record, t tag, key, tpl string, depth int) (string, error) {
	expr := p.cleanExpr(scope, p.env, t.expr)

	if head, childPath, ok := cutLast(expr, " + "); ok {
		return p.includePage(scope, t, key, tpl, head, p.encoder.DecodeExpression(childPath), depth)
	}
	if head, q, ok := cutLast(expr, " ~ "); ok {
		return p.includeQuery(scope, t, key, tpl, head, q, depth)
	}

	args, err := p.parseArgs(t, expr)
	if err != nil {
		return "", err
	}
	return p.child(scope, args, key, tpl, depth)
}

// includePage renders tpl against another page's record.
func (p *pass) includePage(scope record.Record, t tag, key, tpl, head, childPath string, depth int) (string, error) {
	args, err := p.parseArgs(t, head)
	if err != nil {
		return "", err
	}

	child, err := p.source.LookupRecord(p.ctx, childPath)
	if err != nil {
		if !sterrors.IsNotFound(err) {
			return "", err
		}
		child = record.Record{}
	}

	out, err := p.dispatcher.Dispatch(p.ctx, plugin.HookChildContentData, child, true, p.childArgs(scope, key))
	if err != nil {
		return "", err
	}
	if child, err = as[record.Record](plugin.HookChildContentData, out); err != nil {
		return "", err
	}

	return p.child(scope, child.Merge(args), key, tpl, depth)
}

// includeQuery renders tpl once per query result. After each rendering
// except the last comes that record's delimiter and a newline.
func (p *pass) includeQuery(scope record.Record, t tag, key, tpl, head, src string, depth int) (string, error) {
	args, err := p.parseArgs(t, head)
	if err != nil {
		return "", err
	}

	results, err := p.runQuery(src)
	if err != nil {
		return "", err
	}

	out, err := p.dispatcher.Dispatch(p.ctx, plugin.HookChildContentQueryResult, results, true, p.childArgs(scope, key))
	if err != nil {
		return "", err
	}
	if results, err = as[[]query.Result](plugin.HookChildContentQueryResult, out); err != nil {
		return "", err
	}

	// Delimiters are per record, not one shared delimiter from the last result.
	var b strings.Builder
	for i, res := range results {
		child := res.Record.Merge(args)
		rendered, err := p.child(scope, child, key, tpl, depth)
		if err != nil {
			return "", err
		}
		b.WriteString(rendered)
		if i < len(results)-1 {
			b.WriteString(child.String(record.KeyDelimiter, ""))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func (p *pass) runQuery(src string) (results []query.Result, err error) {
	ctx, span := p.spans.StartQuerySpan(p.ctx, src)
	defer func() {
		p.metrics.RecordQuery(ctx, len(results), err)
		p.spans.EndSpanWithError(span, err)
	}()

	q, err := query.Compile(src, query.WithEncoder(p.encoder))
	if err != nil {
		return nil, err
	}
	records, err := p.source.AllRecords(ctx, q.IncludeDisabled())
	if err != nil {
		return nil, err
	}
	results, err = q.Run(records)
	if err != nil {
		return nil, err
	}
	observability.LogQuery(p.logger, q.String(), len(results))
	return results, nil
}

func (p *pass) childArgs(scope record.Record, key string) plugin.Args {
	return plugin.Args{
		"key":  key,
		"env":  p.env,
		"path": p.path,
		"data": scope,
	}
}

// child renders tpl against scope merged with the namespaced child fields.
// The inclusion key is dropped from the merged scope so the template
// cannot include itself again through it.
func (p *pass) child(scope, child record.Record, key, tpl string, depth int) (string, error) {
	if override, ok := child[record.KeyChildTemplate]; ok {
		tpl, _ = override.(string)
	}
	if tpl == "" {
		return "", nil
	}

	merged := scope.Merge(child.Namespaced(childPrefix)).Without(key, record.EnvKey(key, p.env))

	start := time.Now()
	content, err := p.source.FetchContent(p.ctx, tpl)
	if err != nil {
		var ioErr *sterrors.IOError
		if errors.As(err, &ioErr) {
			return "", err
		}
		return "", &sterrors.IOError{Path: tpl, Err: err}
	}
	ctx, span := p.spans.StartExpandSpan(p.ctx, tpl, p.env, depth+1)
	nested := &pass{Engine: p.Engine, ctx: ctx, env: p.env, path: p.path}
	out, err := nested.parse(merged, content, depth+1)
	p.spans.EndSpanWithError(span, err)
	if err == nil {
		observability.LogExpandComplete(p.logger, tpl, p.env, float64(time.Since(start).Microseconds())/1000, len(out))
	}
	return out, err
}

// cutLast splits s around the last occurrence of sep.
func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
