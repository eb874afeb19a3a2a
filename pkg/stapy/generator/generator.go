package generator

import (
	"context"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/randalmurphal/stapy/pkg/stapy/observability"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
	"github.com/randalmurphal/stapy/pkg/stapy/template"
)

// DefaultDocument renders a page that names no template.
const DefaultDocument = "{% content %}"

// TemplateKey is the record field naming a page's template file.
const TemplateKey = "template"

// Source is what the generator needs from a site. *site.Source
// implements it.
type Source interface {
	template.Source
	// Page returns the record of a page with its own data file.
	Page(ctx context.Context, pagePath string) (record.Record, error)
	// Reset drops cached page records.
	Reset() (int, error)
	// FS returns the source file system.
	FS() fs.FS
}

// Page is one page known to the site.
type Page struct {
	// Path is the page path, e.g. "/blog/post.html".
	Path    string
	Enabled bool
	Record  record.Record
}

// Generator renders pages and builds environments.
type Generator struct {
	source       Source
	engine       *template.Engine
	buildDir     string
	environments []string
	localEnv     string
	logger       *slog.Logger
	metrics      observability.MetricsRecorder
	spans        observability.SpanManager
}

// New creates a Generator rendering src's pages with engine.
func New(src Source, engine *template.Engine, opts ...Option) *Generator {
	g := &Generator{
		source:   src,
		engine:   engine,
		buildDir: "web",
		localEnv: "local",
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LocalEnvironment returns the environment that is rendered but never
// written.
func (g *Generator) LocalEnvironment() string {
	return g.localEnv
}

// GeneratePage renders pagePath for env. The document is the file named by
// the record's template field, or DefaultDocument.
func (g *Generator) GeneratePage(ctx context.Context, pagePath, env string) (string, error) {
	rec, err := g.source.Page(ctx, pagePath)
	if err != nil {
		return "", err
	}

	document := DefaultDocument
	if tpl := rec.String(TemplateKey, ""); tpl != "" {
		document, err = g.source.FetchContent(ctx, tpl)
		if err != nil {
			return "", err
		}
	}
	return g.engine.Expand(ctx, rec, document, env, pagePath)
}

// Pages lists every page whose path has an extension, ordered by path.
// Data files for extensionless paths only feed queries.
func (g *Generator) Pages(ctx context.Context) ([]Page, error) {
	all, err := g.source.AllRecords(ctx, true)
	if err != nil {
		return nil, err
	}
	pages := make([]Page, 0, len(all))
	for _, rec := range all {
		full := rec.String(record.KeyFullPath, "")
		if path.Ext(full) == "" {
			continue
		}
		pages = append(pages, Page{
			Path:    "/" + strings.TrimLeft(full, "/"),
			Enabled: rec.IsEnabled(),
			Record:  rec,
		})
	}
	return pages, nil
}
