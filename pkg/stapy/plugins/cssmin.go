package plugins

import (
	"context"
	"regexp"
	"strings"

	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
)

var cssRules = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`(?s)/\*.*?\*/`), ""},
	{regexp.MustCompile(`\n`), ""},
	{regexp.MustCompile(`[\t ]+`), " "},
	{regexp.MustCompile(`\s?([;:{},+>])\s?`), "$1"},
	{regexp.MustCompile(`;}`), "}"},
}

func registerCSSMin(reg *plugin.Registry) error {
	return reg.Register(CSSMin, plugin.HookFileContentOpened, minifyCSS)
}

func minifyCSS(_ context.Context, value any, args plugin.Args) (any, error) {
	content, ok := value.(string)
	if !ok || !strings.HasSuffix(args.Path(), ".css") {
		return value, nil
	}
	return MinifyCSS(content), nil
}

// MinifyCSS strips comments, line breaks and the blanks around CSS
// punctuation.
func MinifyCSS(css string) string {
	css = strings.ReplaceAll(css, "\r\n", "\n")
	for _, rule := range cssRules {
		css = rule.pattern.ReplaceAllString(css, rule.repl)
	}
	return css
}
