package generator_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
	"github.com/randalmurphal/stapy/pkg/stapy/generator"
	"github.com/randalmurphal/stapy/pkg/stapy/observability"
	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
	"github.com/randalmurphal/stapy/pkg/stapy/plugins"
	"github.com/randalmurphal/stapy/pkg/stapy/site"
	"github.com/randalmurphal/stapy/pkg/stapy/template"
)

func file(s string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(s)}
}

func sourceFS() fstest.MapFS {
	return fstest.MapFS{
		"layout/html.json":          file(`{"template":"template/page.html"}`),
		"template/page.html":        file("<title>{{ title }}</title>\n{% content %}"),
		"content/home.html":         file(`<p>{{ title }} in {{ _env }}</p>`),
		"content/post.md":           file(`# {{ title }}`),
		"pages/index.html.json":     file(`{"title":"Home","title.staging":"Home (staging)","content":"content/home.html"}`),
		"pages/blog/post.html.json": file(`{"title":"Post","content":"content/post.md"}`),
		"pages/draft.html.json":     file(`{"title":"Draft","enabled":false,"content":"content/home.html"}`),
		"pages/menu.json":           file(`{"title":"Menu"}`),
		"assets/css/style.css":      file("a {\n  color: red;\n}"),
	}
}

type fixture struct {
	gen      *generator.Generator
	src      *site.Source
	buildDir string
}

func newFixture(t *testing.T, fsys fstest.MapFS, opts ...generator.Option) fixture {
	t.Helper()
	reg := plugin.NewRegistry()
	require.NoError(t, plugins.RegisterBuiltins(reg, plugins.Markdown, plugins.CSSMin))

	src := site.New(fsys, site.WithDispatcher(reg))
	engine := template.NewEngine(src, template.WithDispatcher(reg))
	buildDir := t.TempDir()
	opts = append([]generator.Option{generator.WithBuildDir(buildDir)}, opts...)
	return fixture{gen: generator.New(src, engine, opts...), src: src, buildDir: buildDir}
}

func (f fixture) read(t *testing.T, parts ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(append([]string{f.buildDir}, parts...)...))
	require.NoError(t, err)
	return string(data)
}

func (f fixture) exists(parts ...string) bool {
	_, err := os.Stat(filepath.Join(append([]string{f.buildDir}, parts...)...))
	return err == nil
}

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
}

func TestGeneratePage(t *testing.T) {
	f := newFixture(t, sourceFS())
	ctx := context.Background()

	tests := []struct {
		name string
		path string
		env  string
		want string
	}{
		{"template with included content", "/index.html", "prod", "<title>Home</title>\n<p>Home in prod</p>"},
		{"environment override", "/index.html", "staging", "<title>Home (staging)</title>\n<p>Home (staging) in staging</p>"},
		{"markdown content", "/blog/post.html", "local", "<title>Post</title>\n<h1>Post</h1>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.gen.GeneratePage(ctx, tt.path, tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeneratePage_DefaultDocument(t *testing.T) {
	fsys := sourceFS()
	delete(fsys, "layout/html.json")
	f := newFixture(t, fsys)

	got, err := f.gen.GeneratePage(context.Background(), "/index.html", "prod")
	require.NoError(t, err)
	assert.Equal(t, "<p>Home in prod</p>", got)
}

func TestGeneratePage_Errors(t *testing.T) {
	fsys := sourceFS()
	fsys["pages/broken.html.json"] = file(`{"template":"template/missing.html"}`)
	f := newFixture(t, fsys)
	ctx := context.Background()

	_, err := f.gen.GeneratePage(ctx, "/missing.html", "prod")
	require.Error(t, err)
	assert.True(t, sterrors.IsNotFound(err))

	_, err = f.gen.GeneratePage(ctx, "/broken.html", "prod")
	require.Error(t, err)
	assert.Equal(t, sterrors.CategoryIO, sterrors.Categorize(err))
	assert.Contains(t, err.Error(), "template/missing.html")
}

func TestPages(t *testing.T) {
	f := newFixture(t, sourceFS())

	pages, err := f.gen.Pages(context.Background())
	require.NoError(t, err)

	got := map[string]bool{}
	var order []string
	for _, p := range pages {
		got[p.Path] = p.Enabled
		order = append(order, p.Path)
		assert.NotNil(t, p.Record)
	}
	assert.Equal(t, []string{"/blog/post.html", "/draft.html", "/index.html"}, order)
	assert.Equal(t, map[string]bool{"/blog/post.html": true, "/draft.html": false, "/index.html": true}, got)
}

func TestEnvironments(t *testing.T) {
	t.Run("discovered from build directory", func(t *testing.T) {
		f := newFixture(t, sourceFS())
		mkdirs(t, f.buildDir, "staging", "prod", "local", ".git")

		envs, err := f.gen.Environments()
		require.NoError(t, err)
		assert.Equal(t, []string{"prod", "staging"}, envs)
	})

	t.Run("configured", func(t *testing.T) {
		f := newFixture(t, sourceFS(), generator.WithEnvironments("b", "a", "dev"), generator.WithLocalEnvironment("dev"))

		envs, err := f.gen.Environments()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, envs)
		assert.Equal(t, "dev", f.gen.LocalEnvironment())
	})

	t.Run("missing build directory", func(t *testing.T) {
		f := newFixture(t, sourceFS(), generator.WithBuildDir(filepath.Join(t.TempDir(), "none")))

		envs, err := f.gen.Environments()
		require.NoError(t, err)
		assert.Empty(t, envs)
	})
}

func TestBuild(t *testing.T) {
	f := newFixture(t, sourceFS())
	mkdirs(t, f.buildDir, "prod/old", "staging", "local")
	require.NoError(t, os.WriteFile(filepath.Join(f.buildDir, "prod", "stale.html"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.buildDir, "prod", ".gitkeep"), nil, 0o644))

	report, err := f.gen.Build(context.Background())
	require.NoError(t, err)

	_, err = uuid.Parse(report.ID)
	assert.NoError(t, err)
	require.Len(t, report.Environments, 2)
	for _, env := range []string{"prod", "staging"} {
		stats := report.Environments[env]
		assert.Equal(t, 2, stats.Pages, env)
		assert.Equal(t, 1, stats.Skipped, env)
		assert.Equal(t, 1, stats.Assets, env)
	}

	assert.Equal(t, "<title>Home</title>\n<p>Home in prod</p>", f.read(t, "prod", "index.html"))
	assert.Equal(t, "<title>Home (staging)</title>\n<p>Home (staging) in staging</p>", f.read(t, "staging", "index.html"))
	assert.Equal(t, "<title>Post</title>\n<h1>Post</h1>\n", f.read(t, "prod", "blog", "post.html"))
	assert.Equal(t, "a{color:red}", f.read(t, "prod", "css", "style.css"))

	assert.False(t, f.exists("prod", "stale.html"))
	assert.False(t, f.exists("prod", "old"))
	assert.True(t, f.exists("prod", ".gitkeep"))
	assert.False(t, f.exists("prod", "draft.html"))
	assert.False(t, f.exists("local", "index.html"), "local environment is never written")

	info, err := os.Stat(filepath.Join(f.buildDir, "prod", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestBuild_SelectedEnvironments(t *testing.T) {
	f := newFixture(t, sourceFS())
	mkdirs(t, f.buildDir, "prod", "staging")
	ctx := context.Background()

	report, err := f.gen.Build(ctx, "staging")
	require.NoError(t, err)
	assert.Len(t, report.Environments, 1)
	assert.True(t, f.exists("staging", "index.html"))
	assert.False(t, f.exists("prod", "index.html"))

	_, err = f.gen.Build(ctx, "qa")
	assert.ErrorContains(t, err, `unknown environment "qa"`)

	_, err = f.gen.Build(ctx, "local")
	assert.ErrorContains(t, err, "local")
}

func TestBuild_ConfiguredEnvironmentCreatesDirectory(t *testing.T) {
	f := newFixture(t, sourceFS(), generator.WithEnvironments("prod"))

	_, err := f.gen.Build(context.Background())
	require.NoError(t, err)
	assert.True(t, f.exists("prod", "index.html"))
}

func TestBuild_SeesCurrentData(t *testing.T) {
	fsys := sourceFS()
	f := newFixture(t, fsys, generator.WithEnvironments("prod"))
	ctx := context.Background()

	_, err := f.gen.Build(ctx)
	require.NoError(t, err)

	fsys["pages/new.html.json"] = file(`{"title":"New","content":"content/home.html"}`)
	report, err := f.gen.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Environments["prod"].Pages)
	assert.Equal(t, uint64(2), f.src.Generation())
}

func TestBuild_PageError(t *testing.T) {
	fsys := sourceFS()
	fsys["pages/broken.html.json"] = file(`{"template":"template/missing.html"}`)
	f := newFixture(t, fsys, generator.WithEnvironments("prod"))

	_, err := f.gen.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page /broken.html (prod)")
	assert.True(t, sterrors.IsNotFound(err))
}

type recordingMetrics struct {
	observability.NoopMetrics
	mu    sync.Mutex
	pages map[string]int
}

func (m *recordingMetrics) RecordBuildPage(_ context.Context, env string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.pages[env]++
	}
}

func TestBuild_Observability(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := &recordingMetrics{pages: map[string]int{}}

	f := newFixture(t, sourceFS(),
		generator.WithEnvironments("prod"),
		generator.WithLogger(logger),
		generator.WithMetrics(metrics),
	)
	report, err := f.gen.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"prod": 2}, metrics.pages)

	var complete map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "build completed" {
			complete = entry
		}
	}
	require.NotNil(t, complete, "build completion is logged")
	assert.Equal(t, report.ID, complete["build_id"])
}

func TestBuild_Cancelled(t *testing.T) {
	f := newFixture(t, sourceFS(), generator.WithEnvironments("prod"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.gen.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatsDuration(t *testing.T) {
	f := newFixture(t, sourceFS(), generator.WithEnvironments("prod"))

	report, err := f.gen.Build(context.Background())
	require.NoError(t, err)
	assert.Greater(t, report.Environments["prod"].Duration, time.Duration(0))
}
