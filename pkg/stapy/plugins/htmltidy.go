package plugins

import (
	"context"
	"regexp"
	"strings"

	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
)

var (
	preOpen      = regexp.MustCompile(`(?i)<(pre|textarea)(.*)>`)
	preClose     = regexp.MustCompile(`(?i)</(pre|textarea)>`)
	commentOpen  = regexp.MustCompile(`<!--`)
	commentClose = regexp.MustCompile(`-->`)
)

func registerHTMLTidy(reg *plugin.Registry) error {
	return reg.Register(HTMLTidy, plugin.HookAfterContentParsed, tidyHTML)
}

func tidyHTML(_ context.Context, value any, args plugin.Args) (any, error) {
	content, ok := value.(string)
	if !ok || !strings.HasSuffix(args.Path(), ".html") {
		return value, nil
	}
	return TidyHTML(content), nil
}

// TidyHTML trims every line and drops blank ones, leaving pre, textarea
// and comment blocks untouched.
func TidyHTML(content string) string {
	var b strings.Builder
	preformatted := false
	for _, line := range strings.Split(content, "\n") {
		if !preformatted && (preOpen.MatchString(line) || commentOpen.MatchString(line)) {
			preformatted = true
		}
		if preClose.MatchString(line) || commentClose.MatchString(line) {
			preformatted = false
		}
		if preformatted {
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
