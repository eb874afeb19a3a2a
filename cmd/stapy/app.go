package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/randalmurphal/stapy/pkg/stapy/cache"
	"github.com/randalmurphal/stapy/pkg/stapy/config"
	"github.com/randalmurphal/stapy/pkg/stapy/generator"
	"github.com/randalmurphal/stapy/pkg/stapy/observability"
	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
	"github.com/randalmurphal/stapy/pkg/stapy/plugins"
	"github.com/randalmurphal/stapy/pkg/stapy/query"
	"github.com/randalmurphal/stapy/pkg/stapy/site"
	"github.com/randalmurphal/stapy/pkg/stapy/template"
)

// app wires a site from settings.
type app struct {
	settings config.Settings
	logger   *slog.Logger
	store    cache.Store
	registry *plugin.Registry
	source   *site.Source
	gen      *generator.Generator
}

func newApp(settings config.Settings, logger *slog.Logger) (*app, error) {
	store, err := openStore(settings.CachePath)
	if err != nil {
		return nil, err
	}

	reg := plugin.NewRegistry()
	var enabled []string
	for _, name := range plugins.Names() {
		if settings.PluginEnabled(name) {
			enabled = append(enabled, name)
		}
	}
	if len(enabled) > 0 {
		if err := plugins.RegisterBuiltins(reg, enabled...); err != nil {
			store.Close()
			return nil, err
		}
	}

	metrics := observability.NewMetricsRecorder()
	spans := observability.NewSpanManager()

	src := site.New(os.DirFS(settings.SourceDir),
		site.WithDispatcher(reg),
		site.WithStore(store),
		site.WithLogger(logger),
	)
	engine := template.NewEngine(src,
		template.WithDispatcher(reg),
		template.WithMaxDepth(settings.MaxDepth),
		template.WithLogger(logger),
		template.WithMetrics(metrics),
		template.WithSpanManager(spans),
	)
	gen := generator.New(src, engine,
		generator.WithBuildDir(settings.BuildDir),
		generator.WithEnvironments(settings.Environments...),
		generator.WithLocalEnvironment(settings.LocalEnvironment),
		generator.WithLogger(logger),
		generator.WithMetrics(metrics),
		generator.WithSpanManager(spans),
	)

	return &app{
		settings: settings,
		logger:   logger,
		store:    store,
		registry: reg,
		source:   src,
		gen:      gen,
	}, nil
}

func openStore(path string) (cache.Store, error) {
	if path == "" {
		return cache.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cache directory: %w", err)
	}
	return cache.NewSQLiteStore(path)
}

func (a *app) Close() error {
	return a.store.Close()
}

func subFlags(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("stapy "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parseSub(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return &ExitError{Code: exitUsage, Err: err}
	}
	return nil
}

func (a *app) build(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	fs := subFlags("build", stderr)
	watch := fs.Bool("watch", false, "Rebuild when the source directory changes.")
	if err := parseSub(fs, args); err != nil {
		return err
	}
	envs := fs.Args()

	if err := a.buildOnce(ctx, stdout, envs); err != nil {
		return err
	}
	if !*watch {
		return nil
	}
	return a.watch(ctx, stdout, envs)
}

func (a *app) buildOnce(ctx context.Context, stdout io.Writer, envs []string) error {
	report, err := a.gen.Build(ctx, envs...)
	if err != nil {
		return err
	}
	envNames, err := a.gen.Environments()
	if err != nil {
		return err
	}
	for _, env := range envNames {
		stats, ok := report.Environments[env]
		if !ok {
			continue
		}
		fmt.Fprintf(stdout, "%s: %d pages, %d assets in %s\n",
			env, stats.Pages, stats.Assets, stats.Duration.Round(time.Millisecond))
	}
	return nil
}

// watch rebuilds after each burst of changes until ctx is done. Build
// failures are logged and the watch continues.
func (a *app) watch(ctx context.Context, stdout io.Writer, envs []string) error {
	changed, err := a.source.Watch(ctx, a.settings.SourceDir)
	if err != nil {
		return err
	}
	a.logger.Info("watching for changes", "dir", a.settings.SourceDir)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-changed:
			if !ok {
				return nil
			}
			a.logger.Debug("source changed", "path", name)
			pending = time.After(a.settings.WatchDebounce)
		case <-pending:
			pending = nil
			if err := a.buildOnce(ctx, stdout, envs); err != nil {
				a.logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

func (a *app) render(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	fs := subFlags("render", stderr)
	env := fs.String("env", a.settings.LocalEnvironment, "Environment to render for.")
	if err := parseSub(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("render takes exactly one page path")
	}

	out, err := a.gen.GeneratePage(ctx, site.PagePath(fs.Arg(0)), *env)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, out)
	return err
}

func (a *app) query(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	fs := subFlags("query", stderr)
	disabled := fs.Bool("disabled", false, "Include disabled pages.")
	if err := parseSub(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("query takes exactly one quoted query")
	}

	var opts []query.Option
	if *disabled {
		opts = append(opts, query.WithDisabled())
	}
	q, err := query.Compile(fs.Arg(0), opts...)
	if err != nil {
		return err
	}
	records, err := a.source.AllRecords(ctx, q.IncludeDisabled())
	if err != nil {
		return err
	}
	results, err := q.Run(records)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	for _, r := range results {
		if err := enc.Encode(r.Record); err != nil {
			return err
		}
	}
	return nil
}
