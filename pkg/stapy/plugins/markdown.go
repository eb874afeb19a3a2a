package plugins

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAttribute()),
	goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
)

func registerMarkdown(reg *plugin.Registry) error {
	return reg.Register(Markdown, plugin.HookFileContentOpened, markdownToHTML)
}

// markdownToHTML converts .md files outside assets/ to HTML.
func markdownToHTML(_ context.Context, value any, args plugin.Args) (any, error) {
	content, ok := value.(string)
	path := args.Path()
	if !ok || !strings.HasSuffix(path, ".md") || isAsset(path) {
		return value, nil
	}
	var out bytes.Buffer
	if err := markdown.Convert([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return out.String(), nil
}

func isAsset(path string) bool {
	path = strings.TrimLeft(path, "/")
	return strings.HasPrefix(path, "assets/") || strings.Contains(path, "/assets/")
}
