package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/stapy/pkg/stapy/cache"
	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
	"github.com/randalmurphal/stapy/pkg/stapy/template"
)

// Directories under the source root.
const (
	LayoutDir = "layout"
	PagesDir  = "pages"
	AssetsDir = "assets"

	dataExt = ".json"
)

// Source serves templates and page records from a file system.
type Source struct {
	fsys       fs.FS
	dispatcher template.Dispatcher
	store      cache.Store
	logger     *slog.Logger

	mu         sync.Mutex // serializes snapshot rebuilds
	generation atomic.Uint64
}

var _ template.Source = (*Source)(nil)

// New creates a Source over fsys, usually os.DirFS(sourceDir).
//
// Default configuration:
//   - Dispatcher: none (hooks pass values through)
//   - Store: cache.NewMemoryStore()
//   - Logger: nil (no logging)
func New(fsys fs.FS, opts ...Option) *Source {
	s := &Source{
		fsys:  fsys,
		store: cache.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FS returns the underlying file system.
func (s *Source) FS() fs.FS {
	return s.fsys
}

// FetchContent reads a file relative to the source root and runs it
// through the file_content_opened hook.
func (s *Source) FetchContent(ctx context.Context, name string) (string, error) {
	name = clean(name)
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &sterrors.IOError{Path: name, Err: sterrors.ErrNotFound}
		}
		return "", &sterrors.IOError{Path: name, Err: err}
	}

	out, err := s.dispatch(ctx, plugin.HookFileContentOpened, string(data), plugin.Args{"path": name})
	if err != nil {
		return "", err
	}
	content, _ := out.(string)
	return content, nil
}

// LookupRecord merges the layout and page data of pagePath. A page without
// its own data file still receives the layout layers.
func (s *Source) LookupRecord(ctx context.Context, pagePath string) (record.Record, error) {
	pagePath = clean(pagePath)

	merged := record.Record{}
	for _, file := range dataFiles(pagePath) {
		layer, err := s.readData(file)
		if err != nil {
			return nil, err
		}
		for k, v := range layer {
			merged[k] = v
		}
	}
	merged[record.KeyFullPath] = pagePath
	merged[record.KeyPath] = strings.Replace(pagePath, "index.html", "", 1)

	out, err := s.dispatch(ctx, plugin.HookPageDataMerged, merged, plugin.Args{"path": "/" + pagePath})
	if err != nil {
		return nil, err
	}
	rec, _ := out.(record.Record)
	return rec, nil
}

// Page returns the record of a page that has its own data file, or an
// IOError wrapping ErrNotFound.
func (s *Source) Page(ctx context.Context, pagePath string) (record.Record, error) {
	file := pageData(clean(pagePath))
	if _, err := fs.Stat(s.fsys, file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &sterrors.IOError{Path: file, Err: sterrors.ErrNotFound}
		}
		return nil, &sterrors.IOError{Path: file, Err: err}
	}
	return s.LookupRecord(ctx, pagePath)
}

// readData decodes one JSON layer. Missing files are empty layers.
func (s *Source) readData(file string) (record.Record, error) {
	data, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &sterrors.IOError{Path: file, Err: err}
	}
	rec, err := record.FromJSON(data)
	if err != nil {
		return nil, &sterrors.SyntaxError{Source: file, Msg: "invalid JSON: " + err.Error()}
	}
	return rec, nil
}

func (s *Source) dispatch(ctx context.Context, hook string, value any, args plugin.Args) (any, error) {
	if s.dispatcher == nil {
		return value, nil
	}
	out, err := s.dispatcher.Dispatch(ctx, hook, value, true, args)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", hook, args.Path(), err)
	}
	return out, nil
}

// dataFiles lists the JSON layers of pagePath, least specific first:
// layout/common, layout/<ext>, then for each directory from the top
// layout/<dir>/common and layout/<dir>/<ext>, then the page's own file.
func dataFiles(pagePath string) []string {
	ext := Extension(pagePath)
	files := []string{
		path.Join(LayoutDir, "common"+dataExt),
		path.Join(LayoutDir, ext+dataExt),
	}

	var dirs []string
	for dir := path.Dir(pagePath); dir != "." && dir != "/"; dir = path.Dir(dir) {
		dirs = append(dirs, dir)
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		files = append(files,
			path.Join(LayoutDir, dirs[i], "common"+dataExt),
			path.Join(LayoutDir, dirs[i], ext+dataExt),
		)
	}

	if pagePath != "" {
		files = append(files, pageData(pagePath))
	}
	return files
}

func pageData(pagePath string) string {
	return path.Join(PagesDir, pagePath) + dataExt
}

// clean turns a page or file path into an fs.FS name.
func clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return ""
	}
	return path.Clean(name)
}
