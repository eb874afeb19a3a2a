package site

import (
	"path"
	"strings"
)

// PagePath maps a request URL path to a page path: "/" and
// extensionless paths resolve to their index.html.
func PagePath(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	if !strings.HasSuffix(url, "/") && !strings.Contains(path.Base(url), ".") {
		url += "/"
	}
	if strings.HasSuffix(url, "/") {
		url += "index.html"
	}
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return url
}

// Extension returns the file extension of name without its dot.
func Extension(name string) string {
	return strings.TrimPrefix(path.Ext(name), ".")
}
