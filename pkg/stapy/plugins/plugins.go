// Package plugins provides the built-in plugins: date formatting, Markdown
// conversion, CSS minification, HTML tidying, menu item classes and a build
// token.
//
//	reg := plugin.NewRegistry()
//	if err := plugins.RegisterBuiltins(reg, "date", "markdown"); err != nil {
//	    return err
//	}
package plugins

import (
	"fmt"
	"sort"

	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
)

// Built-in plugin names.
const (
	Date     = "date"
	Markdown = "markdown"
	CSSMin   = "cssmin"
	HTMLTidy = "htmltidy"
	Menu     = "menu"
	Token    = "token"
)

type registerFunc func(reg *plugin.Registry) error

var builtins = map[string]registerFunc{
	Date:     registerDate,
	Markdown: registerMarkdown,
	CSSMin:   registerCSSMin,
	HTMLTidy: registerHTMLTidy,
	Menu:     registerMenu,
	Token:    registerToken,
}

// Names returns the built-in plugin names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins registers the named built-in plugins, or all of them
// when no name is given. Plugins register in the order named.
func RegisterBuiltins(reg *plugin.Registry, names ...string) error {
	if len(names) == 0 {
		names = Names()
	}
	for _, name := range names {
		register, ok := builtins[name]
		if !ok {
			return fmt.Errorf("unknown plugin %q", name)
		}
		if err := register(reg); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return nil
}
