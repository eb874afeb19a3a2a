package plugins

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
	"github.com/randalmurphal/stapy/pkg/stapy/query"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

func TestRegisterBuiltins(t *testing.T) {
	t.Run("all by default", func(t *testing.T) {
		reg := plugin.NewRegistry()
		require.NoError(t, RegisterBuiltins(reg))
		assert.Equal(t, []string{CSSMin, Date, HTMLTidy, Markdown, Menu, Token}, reg.Plugins())
	})

	t.Run("named subset in order", func(t *testing.T) {
		reg := plugin.NewRegistry()
		require.NoError(t, RegisterBuiltins(reg, Token, Date))
		assert.Equal(t, []string{Token, Date}, reg.Plugins())
		assert.True(t, reg.Has("date.now"))
		assert.False(t, reg.Has(plugin.HookFileContentOpened))
	})

	t.Run("unknown name", func(t *testing.T) {
		err := RegisterBuiltins(plugin.NewRegistry(), "nope")
		assert.ErrorContains(t, err, `unknown plugin "nope"`)
	})

	t.Run("twice fails", func(t *testing.T) {
		reg := plugin.NewRegistry()
		require.NoError(t, RegisterBuiltins(reg, Date))
		assert.Error(t, RegisterBuiltins(reg, Date))
	})
}

func TestAddDateFormats(t *testing.T) {
	tests := []struct {
		name string
		in   record.Record
		want record.Record
	}{
		{
			name: "valid date",
			in:   record.Record{"date": "2023-05-01"},
			want: record.Record{
				"date":          "2023-05-01",
				"date_full":     "May 01, 2023",
				"date_rfc_3339": "2023-05-01T00:00:00.00Z",
				"date_rfc_822":  "Mon, 01 May 2023 00:00:00 GMT",
			},
		},
		{
			name: "unparsable date",
			in:   record.Record{"date": "soon"},
			want: record.Record{"date": "soon", "date_full": "soon"},
		},
		{
			name: "no date",
			in:   record.Record{"title": "x"},
			want: record.Record{"title": "x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := addDateFormats(context.Background(), tt.in, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNow(t *testing.T) {
	fixed := time.Date(2024, time.March, 9, 14, 5, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	defer func() { now = time.Now }()

	reg := plugin.NewRegistry()
	require.NoError(t, RegisterBuiltins(reg, Date))

	got, err := reg.Dispatch(context.Background(), "now", nil, false, plugin.Args{})
	require.NoError(t, err)
	assert.Equal(t, "March 09, 2024 at 14:05", got)

	got, err = reg.Dispatch(context.Background(), "date.now", nil, false, plugin.Args{"format": "2006/01/02"})
	require.NoError(t, err)
	assert.Equal(t, "2024/03/09", got)
}

func TestMarkdown(t *testing.T) {
	ctx := context.Background()
	src := "# Hi\n\n*x*\n"

	got, err := markdownToHTML(ctx, src, plugin.Args{"path": "content/post.md"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>\n<p><em>x</em></p>\n", got)

	got, err = markdownToHTML(ctx, src, plugin.Args{"path": "assets/readme.md"})
	require.NoError(t, err)
	assert.Equal(t, src, got)

	got, err = markdownToHTML(ctx, src, plugin.Args{"path": "template/page.html"})
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestMinifyCSS(t *testing.T) {
	in := "a {\n  color: red;\n}\n/* note\n spanning */\nb > c { margin : 0 }\r\n"
	assert.Equal(t, "a{color:red}b>c{margin:0}", MinifyCSS(in))

	got, err := minifyCSS(context.Background(), in, plugin.Args{"path": "assets/page.html"})
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestTidyHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims and drops blank lines", "  <div>\n\n    <p>x</p>\n  </div>", "<div>\n<p>x</p>\n</div>\n"},
		{"keeps pre blocks", "<div>\n  <pre>\n  keep\n  </pre>\n</div>", "<div>\n  <pre>\n  keep\n</pre>\n</div>\n"},
		{"keeps comments", "<!--\n  note\n-->\n  <p>", "<!--\n  note\n-->\n<p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TidyHTML(tt.in))
		})
	}

	got, err := tidyHTML(context.Background(), "  x", plugin.Args{"path": "style.css"})
	require.NoError(t, err)
	assert.Equal(t, "  x", got)
}

func TestMenuClasses(t *testing.T) {
	items := []query.Result{
		{Index: 0, Record: record.Record{"_full_path": "index.html"}},
		{Index: 1, Record: record.Record{"_full_path": "blog/index.html"}},
		{Index: 2, Record: record.Record{"_full_path": "about.html"}},
	}
	args := plugin.Args{
		"key":  MenuKey,
		"path": "/blog/index.html",
		"data": record.Record{"menu.active": "about.html"},
	}

	got, err := menuClasses(context.Background(), items, args)
	require.NoError(t, err)
	results := got.([]query.Result)
	require.Len(t, results, 3)
	assert.Equal(t, "menu-item first", results[0].Record[MenuClassKey])
	assert.Equal(t, "menu-item active", results[1].Record[MenuClassKey])
	assert.Equal(t, "menu-item last active", results[2].Record[MenuClassKey])
	assert.NotContains(t, items[0].Record, MenuClassKey, "input records are not modified")

	other, err := menuClasses(context.Background(), items, args.With("key", "block.other"))
	require.NoError(t, err)
	assert.Equal(t, items, other)
}

func TestToken(t *testing.T) {
	reg := plugin.NewRegistry()
	require.NoError(t, RegisterBuiltins(reg, Token))

	first, err := reg.Dispatch(context.Background(), "get_token", nil, false, nil)
	require.NoError(t, err)
	second, err := reg.Dispatch(context.Background(), "token.get_token", nil, false, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second, "token is stable for the process")
	_, err = uuid.Parse(first.(string))
	assert.NoError(t, err)
}
