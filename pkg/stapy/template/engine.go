package template

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
	"github.com/randalmurphal/stapy/pkg/stapy/escape"
	"github.com/randalmurphal/stapy/pkg/stapy/observability"
	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

// Source supplies template files and page records.
type Source interface {
	// FetchContent returns the text of a template file.
	FetchContent(ctx context.Context, path string) (string, error)
	// LookupRecord returns the merged record of a page.
	LookupRecord(ctx context.Context, path string) (record.Record, error)
	// AllRecords returns every page record in a stable order.
	AllRecords(ctx context.Context, includeDisabled bool) (record.Collection, error)
}

// Dispatcher runs named capabilities. *plugin.Registry implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, value any, sameType bool, args plugin.Args) (any, error)
}

var _ Dispatcher = (*plugin.Registry)(nil)

type passthrough struct{}

func (passthrough) Dispatch(_ context.Context, _ string, value any, _ bool, _ plugin.Args) (any, error) {
	return value, nil
}

// Engine expands documents. Create with NewEngine.
type Engine struct {
	source     Source
	dispatcher Dispatcher
	maxDepth   int
	encoder    *escape.Encoder
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
}

// NewEngine creates an Engine reading templates and records from source.
//
// Default configuration:
//   - Dispatcher: none
//   - MaxDepth: DefaultMaxDepth
//   - Encoder: escape.DefaultProtected tokens
//   - Logger: nil (no logging)
//   - Metrics and spans: no-op
func NewEngine(source Source, opts ...Option) *Engine {
	e := &Engine{
		source:     source,
		dispatcher: passthrough{},
		maxDepth:   DefaultMaxDepth,
		encoder:    escape.NewEncoder(),
		metrics:    observability.NoopMetrics{},
		spans:      observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatcher == nil {
		e.dispatcher = passthrough{}
	}
	return e
}

// pass carries the per-call settings through nested expansion.
type pass struct {
	*Engine
	ctx  context.Context
	env  string
	path string
}

// Expand renders document against rec for env. path names the page being
// rendered and is handed to hooks and extension capabilities. rec is not
// modified; expansion works on a copy with "_env" set.
func (e *Engine) Expand(ctx context.Context, rec record.Record, document, env, path string) (string, error) {
	ctx, span := e.spans.StartExpandSpan(ctx, path, env, 0)
	start := time.Now()
	observability.LogExpandStart(e.logger, path, env, 0)

	out, err := e.expand(ctx, rec, document, env, path)

	e.metrics.RecordExpand(ctx, env, time.Since(start), err)
	e.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogExpandError(e.logger, path, env, err)
		return "", err
	}
	observability.LogExpandComplete(e.logger, path, env, float64(time.Since(start).Microseconds())/1000, len(out))
	return out, nil
}

func (e *Engine) expand(ctx context.Context, rec record.Record, document, env, path string) (string, error) {
	scope := rec.Clone()
	scope[record.KeyEnv] = env
	p := &pass{Engine: e, ctx: ctx, env: env, path: path}

	content, err := p.hook(plugin.HookBeforeContentParsed, scope, document)
	if err != nil {
		return "", err
	}
	content, err = p.parse(scope, content, 0)
	if err != nil {
		return "", err
	}
	return p.hook(plugin.HookAfterContentParsed, scope, clean(content))
}

func (p *pass) hook(name string, scope record.Record, content string) (string, error) {
	out, err := p.dispatcher.Dispatch(p.ctx, name, content, true, plugin.Args{
		"data": scope,
		"env":  p.env,
		"path": p.path,
	})
	if err != nil {
		return "", err
	}
	return as[string](name, out)
}

// as converts a hook result to the type the hook was dispatched with.
func as[T any](hook string, v any) (T, error) {
	out, ok := v.(T)
	if !ok {
		return out, &sterrors.TypeMismatchError{
			Capability: hook,
			Expected:   fmt.Sprintf("%T", out),
			Actual:     fmt.Sprintf("%T", v),
		}
	}
	return out, nil
}

// parse runs one full pass over content. Tags left unresolved stay in the
// text for the final cleanup.
func (p *pass) parse(scope record.Record, content string, depth int) (string, error) {
	if err := p.ctx.Err(); err != nil {
		return "", err
	}
	content = hideBraces(content)

	content, err := p.extensionTags(scope, content, depth)
	if err != nil {
		return "", err
	}
	content, err = p.inclusionTags(scope, content, depth)
	if err != nil {
		return "", err
	}
	return substituteVariables(scope, p.env, content, false), nil
}

// nested checks the depth guard before a recursive parse.
func (p *pass) nested(t tag, depth int) error {
	if depth+1 > p.maxDepth {
		return &sterrors.RecursionLimitError{Limit: p.maxDepth, Tag: t.text}
	}
	return nil
}

// extensionTags dispatches every extension tag in document order. A
// capability that returns nothing or the scope itself contributes no text;
// anything else is expanded and replaces that occurrence.
func (p *pass) extensionTags(scope record.Record, content string, depth int) (string, error) {
	tags := findTags(extensionTag, content)
	if len(tags) == 0 {
		return content, nil
	}

	var b strings.Builder
	last := 0
	for _, t := range tags {
		expanded, replace, err := p.extension(scope, t, depth)
		if err != nil {
			return "", err
		}
		b.WriteString(content[last:t.start])
		if replace {
			b.WriteString(expanded)
		} else {
			b.WriteString(t.text)
		}
		last = t.end
	}
	b.WriteString(content[last:])
	return b.String(), nil
}

func (p *pass) extension(scope record.Record, t tag, depth int) (string, bool, error) {
	args, err := p.parseArgs(t, p.cleanExpr(scope, p.env, t.expr))
	if err != nil {
		return "", false, err
	}
	dispatchArgs := plugin.Args(args)
	dispatchArgs["env"] = p.env
	dispatchArgs["path"] = p.path

	result, err := p.dispatcher.Dispatch(p.ctx, t.name(), scope, false, dispatchArgs)
	if err != nil {
		return "", false, err
	}
	if result == nil || sameRecord(result, scope) {
		return "", false, nil
	}

	if err := p.nested(t, depth); err != nil {
		return "", false, err
	}
	expanded, err := p.parse(scope, record.Stringify(result), depth+1)
	if err != nil {
		return "", false, err
	}
	return expanded, true, nil
}

// sameRecord reports whether v is the scope map itself rather than a copy.
func sameRecord(v any, scope record.Record) bool {
	var m map[string]any
	switch r := v.(type) {
	case record.Record:
		m = r
	case map[string]any:
		m = r
	default:
		return false
	}
	return reflect.ValueOf(m).UnsafePointer() == reflect.ValueOf(map[string]any(scope)).UnsafePointer()
}
