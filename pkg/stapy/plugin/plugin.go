// Package plugin provides the capability registry that extension tags and
// lifecycle hooks dispatch through.
//
// A plugin is a named set of capabilities. Every capability shares one
// signature: it receives the current value and arguments and returns the
// value to hand to the next plugin.
//
//	reg := plugin.NewRegistry()
//	reg.MustRegister("seo", plugin.HookAfterContentParsed, func(ctx context.Context, v any, args plugin.Args) (any, error) {
//	    return strings.TrimSpace(v.(string)), nil
//	})
//	out, err := reg.Dispatch(ctx, plugin.HookAfterContentParsed, html, true, plugin.Args{"env": "prod"})
package plugin

import (
	"context"
	"fmt"

	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

// Capability is a named operation a plugin offers. It must return value
// unchanged when it has nothing to contribute.
type Capability func(ctx context.Context, value any, args Args) (any, error)

// Hook names dispatched by the engine and the site source.
const (
	HookFileContentOpened       = "file_content_opened"
	HookPageDataMerged          = "page_data_merged"
	HookBeforeContentParsed     = "before_content_parsed"
	HookAfterContentParsed      = "after_content_parsed"
	HookChildContentData        = "child_content_data"
	HookChildContentQueryResult = "child_content_query_result"
)

// Args are the keyword arguments passed to a capability.
type Args map[string]any

// String returns args[key] in string form, or defaultVal when absent.
func (a Args) String(key, defaultVal string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return defaultVal
	}
	if s, ok := v.(string); ok {
		return s
	}
	return record.Stringify(v)
}

// Record returns args[key] as a record, or nil.
func (a Args) Record(key string) record.Record {
	switch v := a[key].(type) {
	case record.Record:
		return v
	case map[string]any:
		return record.Record(v)
	}
	return nil
}

// Env is shorthand for the "env" argument.
func (a Args) Env() string { return a.String("env", "") }

// Path is shorthand for the "path" argument.
func (a Args) Path() string { return a.String("path", "") }

// With returns a copy of a with key set to value.
func (a Args) With(key string, value any) Args {
	out := make(Args, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[key] = value
	return out
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
