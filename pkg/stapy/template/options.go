package template

import (
	"log/slog"

	"github.com/randalmurphal/stapy/pkg/stapy/escape"
	"github.com/randalmurphal/stapy/pkg/stapy/observability"
)

// DefaultMaxDepth bounds nested expansion.
const DefaultMaxDepth = 64

// Option configures an Engine.
type Option func(*Engine)

// WithDispatcher sets where extension tags and hooks are dispatched.
//
// Default: none (extension tags render nothing, hooks pass values through)
func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithMaxDepth sets how deeply expansions may nest before failing with a
// RecursionLimitError.
//
// Default: DefaultMaxDepth
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithEncoder sets the escaper used for tag expressions and queries.
func WithEncoder(enc *escape.Encoder) Option {
	return func(e *Engine) {
		if enc != nil {
			e.encoder = enc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithSpanManager sets the span manager.
func WithSpanManager(s observability.SpanManager) Option {
	return func(e *Engine) {
		if s != nil {
			e.spans = s
		}
	}
}
