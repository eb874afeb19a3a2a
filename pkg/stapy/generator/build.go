package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
	"github.com/randalmurphal/stapy/pkg/stapy/observability"
	"github.com/randalmurphal/stapy/pkg/stapy/site"
)

// keep lists build directory entries that a build never removes.
var keep = []string{".git", ".gitignore", ".gitkeep"}

// Stats summarizes one environment of a build.
type Stats struct {
	Pages    int
	Skipped  int
	Assets   int
	Duration time.Duration
}

// Report is the result of a build.
type Report struct {
	// ID identifies the build in logs.
	ID           string
	Environments map[string]Stats
}

// Environments returns the environments a build writes, sorted. The local
// environment is never included.
func (g *Generator) Environments() ([]string, error) {
	envs := slices.Clone(g.environments)
	if len(envs) == 0 {
		entries, err := os.ReadDir(g.buildDir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &sterrors.IOError{Path: g.buildDir, Err: err}
		}
		for _, e := range entries {
			if e.IsDir() && !slices.Contains(keep, e.Name()) {
				envs = append(envs, e.Name())
			}
		}
	}
	envs = slices.DeleteFunc(envs, func(env string) bool { return env == g.localEnv })
	sort.Strings(envs)
	return envs, nil
}

// Build renders every enabled page into each requested environment, or
// into every environment when none is named. The page snapshot is reset
// first so the build sees current data.
func (g *Generator) Build(ctx context.Context, envs ...string) (*Report, error) {
	report := &Report{ID: uuid.NewString(), Environments: map[string]Stats{}}
	elapsed := observability.TimedOperation()

	targets, err := g.targets(envs)
	if err != nil {
		observability.LogBuildError(g.logger, report.ID, err)
		return nil, err
	}
	if _, err := g.source.Reset(); err != nil {
		observability.LogCacheError(g.logger, "reset", "", err)
	}

	pages, err := g.Pages(ctx)
	if err != nil {
		observability.LogBuildError(g.logger, report.ID, err)
		return nil, err
	}

	total, skipped := 0, 0
	for _, env := range targets {
		stats, err := g.buildEnv(ctx, report.ID, env, pages)
		if err != nil {
			observability.LogBuildError(g.logger, report.ID, err)
			return nil, err
		}
		report.Environments[env] = stats
		total += stats.Pages
		skipped += stats.Skipped
	}

	observability.LogBuildComplete(g.logger, report.ID, total, skipped, elapsed())
	return report, nil
}

// targets filters the known environments by the requested ones.
func (g *Generator) targets(requested []string) ([]string, error) {
	known, err := g.Environments()
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return known, nil
	}
	for _, env := range requested {
		if env == g.localEnv {
			return nil, fmt.Errorf("environment %q is local and is never built", env)
		}
		if !slices.Contains(known, env) {
			return nil, fmt.Errorf("unknown environment %q", env)
		}
	}
	return requested, nil
}

func (g *Generator) buildEnv(ctx context.Context, buildID, env string, pages []Page) (Stats, error) {
	start := time.Now()
	dir := filepath.Join(g.buildDir, env)
	logger := observability.EnrichLogger(g.logger, buildID, env)

	if err := clearDir(dir); err != nil {
		return Stats{}, err
	}
	assets, err := g.copyAssets(ctx, dir)
	if err != nil {
		return Stats{}, err
	}
	if logger != nil {
		logger.Debug("assets copied", "dir", dir, "count", assets)
	}

	stats := Stats{Assets: assets}
	for _, page := range pages {
		if !page.Enabled {
			stats.Skipped++
			continue
		}
		if err := g.buildPage(ctx, env, dir, page.Path); err != nil {
			return Stats{}, err
		}
		stats.Pages++
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

func (g *Generator) buildPage(ctx context.Context, env, dir, pagePath string) (err error) {
	ctx, span := g.spans.StartBuildPageSpan(ctx, env, pagePath)
	defer func() {
		g.metrics.RecordBuildPage(ctx, env, err)
		g.spans.EndSpanWithError(span, err)
	}()

	out, err := g.GeneratePage(ctx, pagePath, env)
	if err != nil {
		return fmt.Errorf("page %s (%s): %w", pagePath, env, err)
	}
	if err := writeFile(filepath.Join(dir, filepath.FromSlash(pagePath)), out); err != nil {
		return err
	}
	observability.LogBuildPage(g.logger, env, pagePath, len(out))
	return nil
}

// copyAssets copies the source assets/ tree into dir. Files are read
// through the source so file_content_opened hooks apply.
func (g *Generator) copyAssets(ctx context.Context, dir string) (int, error) {
	n := 0
	err := fs.WalkDir(g.source.FS(), site.AssetsDir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			if name == site.AssetsDir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		content, err := g.source.FetchContent(ctx, name)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(name, site.AssetsDir+"/")
		if err := writeFile(filepath.Join(dir, filepath.FromSlash(rel)), content); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("copy assets: %w", err)
	}
	return n, nil
}

// clearDir empties dir, keeping version control files, and creates it when
// missing.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return &sterrors.IOError{Path: dir, Err: err}
	}
	for _, e := range entries {
		if slices.Contains(keep, e.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return &sterrors.IOError{Path: dir, Err: err}
		}
	}
	return nil
}

func writeFile(name, content string) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return &sterrors.IOError{Path: name, Err: err}
	}
	if err := atomic.WriteFile(name, strings.NewReader(content)); err != nil {
		return &sterrors.IOError{Path: name, Err: err}
	}
	// atomic creates its temporary file with mode 0600.
	if err := os.Chmod(name, 0o644); err != nil {
		return &sterrors.IOError{Path: name, Err: err}
	}
	return nil
}
