// Package observability provides structured logging, metrics, and tracing
// for page expansion, queries, and site builds.
//
// Logging uses slog. Metrics and tracing use OpenTelemetry against the
// global providers. Every piece has a no-op variant for when it is off.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds build context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, buildID, "prod")
//	enriched.Info("writing pages") // includes build_id and env
func EnrichLogger(logger *slog.Logger, buildID, env string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("build_id", buildID),
		slog.String("env", env),
	)
}

// LogExpandStart logs the start of a page expansion.
func LogExpandStart(logger *slog.Logger, path, env string, depth int) {
	if logger == nil {
		return
	}
	logger.Debug("expand starting",
		slog.String("path", path),
		slog.String("env", env),
		slog.Int("depth", depth),
	)
}

// LogExpandComplete logs a finished page expansion.
func LogExpandComplete(logger *slog.Logger, path, env string, durationMs float64, size int) {
	if logger == nil {
		return
	}
	logger.Debug("expand completed",
		slog.String("path", path),
		slog.String("env", env),
		slog.Float64("duration_ms", durationMs),
		slog.Int("size_bytes", size),
	)
}

// LogExpandError logs a failed page expansion.
func LogExpandError(logger *slog.Logger, path, env string, err error) {
	if logger == nil {
		return
	}
	logger.Error("expand failed",
		slog.String("path", path),
		slog.String("env", env),
		slog.String("error", err.Error()),
	)
}

// LogQuery logs a query run from an inclusion tag.
func LogQuery(logger *slog.Logger, query string, matches int) {
	if logger == nil {
		return
	}
	logger.Debug("query executed",
		slog.String("query", query),
		slog.Int("matches", matches),
	)
}

// LogBuildPage logs a page written to the build directory.
func LogBuildPage(logger *slog.Logger, env, path string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Info("page built",
		slog.String("env", env),
		slog.String("path", path),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogBuildComplete logs a finished build.
func LogBuildComplete(logger *slog.Logger, buildID string, pages, skipped int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("build completed",
		slog.String("build_id", buildID),
		slog.Int("pages", pages),
		slog.Int("skipped", skipped),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogBuildError logs a failed build.
func LogBuildError(logger *slog.Logger, buildID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("build failed",
		slog.String("build_id", buildID),
		slog.String("error", err.Error()),
	)
}

// LogCacheError logs a cache failure. Cache failures are not fatal.
func LogCacheError(logger *slog.Logger, op, key string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("cache failed",
		slog.String("operation", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// The returned function reports elapsed milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
