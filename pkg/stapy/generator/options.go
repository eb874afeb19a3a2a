package generator

import (
	"log/slog"

	"github.com/randalmurphal/stapy/pkg/stapy/observability"
)

// Option configures a Generator.
type Option func(*Generator)

// WithBuildDir sets the directory that receives one subdirectory per
// environment.
//
// Default: "web"
func WithBuildDir(dir string) Option {
	return func(g *Generator) {
		g.buildDir = dir
	}
}

// WithEnvironments fixes the environments to build. Without it the
// environments are the directories found under the build directory.
func WithEnvironments(envs ...string) Option {
	return func(g *Generator) {
		g.environments = envs
	}
}

// WithLocalEnvironment names the environment that is never written.
//
// Default: "local"
func WithLocalEnvironment(env string) Option {
	return func(g *Generator) {
		g.localEnv = env
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(g *Generator) {
		if m != nil {
			g.metrics = m
		}
	}
}

// WithSpanManager sets the span manager.
func WithSpanManager(s observability.SpanManager) Option {
	return func(g *Generator) {
		if s != nil {
			g.spans = s
		}
	}
}
