package plugins

import (
	"context"
	"strings"

	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
	"github.com/randalmurphal/stapy/pkg/stapy/query"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

// MenuKey is the inclusion key whose query results receive menu classes.
const MenuKey = "block.menu.link"

// MenuClassKey is the field set on each menu item.
const MenuClassKey = "menu_item.class"

func registerMenu(reg *plugin.Registry) error {
	return reg.Register(Menu, plugin.HookChildContentQueryResult, menuClasses)
}

// menuClasses sets "menu-item" plus first, last and active on every result
// of the menu query. An item is active when it is the page being rendered
// or the page named by the parent's menu.active field.
func menuClasses(_ context.Context, value any, args plugin.Args) (any, error) {
	items, ok := value.([]query.Result)
	if !ok || args.String("key", "") != MenuKey {
		return value, nil
	}
	current := strings.TrimLeft(args.Path(), "/")
	active := args.Record("data").String("menu.active", "")

	out := make([]query.Result, len(items))
	for i, item := range items {
		class := "menu-item"
		if i == 0 {
			class += " first"
		}
		if i == len(items)-1 {
			class += " last"
		}
		if full := item.Record.String(record.KeyFullPath, ""); full != "" && (full == current || full == active) {
			class += " active"
		}
		rec := item.Record.Clone()
		rec[MenuClassKey] = class
		out[i] = query.Result{Index: item.Index, Record: rec}
	}
	return out, nil
}
