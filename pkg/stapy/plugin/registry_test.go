package plugin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

func suffix(s string) plugin.Capability {
	return func(_ context.Context, v any, _ plugin.Args) (any, error) {
		return v.(string) + s, nil
	}
}

func TestRegister(t *testing.T) {
	reg := plugin.NewRegistry()

	require.NoError(t, reg.Register("a", "upper", suffix("a")))
	require.NoError(t, reg.Register("b", "upper", suffix("b")))
	require.NoError(t, reg.Register("a", "lower", suffix("a")))

	assert.Equal(t, []string{"a", "b"}, reg.Plugins())
	assert.True(t, reg.Has("upper"))
	assert.True(t, reg.Has("a.lower"))
	assert.False(t, reg.Has("b.lower"))
	assert.False(t, reg.Has("missing"))

	t.Run("duplicate", func(t *testing.T) {
		assert.Error(t, reg.Register("a", "upper", suffix("x")))
	})
	t.Run("invalid", func(t *testing.T) {
		assert.Error(t, reg.Register("", "upper", suffix("x")))
		assert.Error(t, reg.Register("a.b", "upper", suffix("x")))
		assert.ErrorIs(t, reg.Register("a", "", suffix("x")), plugin.ErrInvalidCapability)
		assert.ErrorIs(t, reg.Register("a", "_hidden", suffix("x")), plugin.ErrInvalidCapability)
		assert.Error(t, reg.Register("a", "nil", nil))
	})
	t.Run("must register panics", func(t *testing.T) {
		assert.Panics(t, func() { reg.MustRegister("a", "upper", suffix("x")) })
	})
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	reg := plugin.NewRegistry()
	reg.MustRegister("first", "tag", suffix("1"))
	reg.MustRegister("second", "other", suffix("x"))
	reg.MustRegister("third", "tag", suffix("3"))

	tests := []struct {
		name string
		call string
		want any
	}{
		{"pipes in registration order", "tag", "v13"},
		{"targeted", "third.tag", "v3"},
		{"targeted plugin without capability", "second.tag", "v"},
		{"no plugin offers it", "nothing", "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Dispatch(ctx, tt.call, "v", true, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatch_InvalidNames(t *testing.T) {
	reg := plugin.NewRegistry()

	for _, name := range []string{"", "first.", "_private", "first._private"} {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Dispatch(context.Background(), name, "v", false, nil)
			assert.ErrorIs(t, err, plugin.ErrInvalidCapability)
		})
	}
}

func TestDispatch_ArgsReachCapability(t *testing.T) {
	reg := plugin.NewRegistry()
	var seen plugin.Args
	reg.MustRegister("spy", "date", func(_ context.Context, v any, args plugin.Args) (any, error) {
		seen = args
		return args.String("format", "default"), nil
	})

	got, err := reg.Dispatch(context.Background(), "date", nil, false, plugin.Args{"format": "%Y", "env": "prod", "path": "index.html"})
	require.NoError(t, err)
	assert.Equal(t, "%Y", got)
	assert.Equal(t, "prod", seen.Env())
	assert.Equal(t, "index.html", seen.Path())
}

func TestDispatch_CapabilityError(t *testing.T) {
	cause := errors.New("boom")
	reg := plugin.NewRegistry()
	reg.MustRegister("broken", "tag", func(context.Context, any, plugin.Args) (any, error) {
		return nil, cause
	})

	_, err := reg.Dispatch(context.Background(), "tag", "v", false, nil)
	require.Error(t, err)

	var capErr *sterrors.CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "broken", capErr.Plugin)
	assert.Equal(t, "tag", capErr.Capability)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, sterrors.ErrCapability)
}

func TestDispatch_SameType(t *testing.T) {
	ctx := context.Background()
	reg := plugin.NewRegistry()
	reg.MustRegister("bad", plugin.HookAfterContentParsed, func(context.Context, any, plugin.Args) (any, error) {
		return 42, nil
	})
	reg.MustRegister("data", plugin.HookPageDataMerged, func(_ context.Context, v any, _ plugin.Args) (any, error) {
		return v.(record.Record).Merge(record.Record{"added": true}), nil
	})

	_, err := reg.Dispatch(ctx, plugin.HookAfterContentParsed, "html", true, nil)
	var mismatch *sterrors.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "string", mismatch.Expected)
	assert.Equal(t, "int", mismatch.Actual)
	assert.Equal(t, "bad", mismatch.Plugin)

	out, err := reg.Dispatch(ctx, plugin.HookAfterContentParsed, "html", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	merged, err := reg.Dispatch(ctx, plugin.HookPageDataMerged, record.Record{"a": 1}, true, nil)
	require.NoError(t, err)
	assert.Equal(t, record.Record{"a": 1, "added": true}, merged)
}

func TestDispatch_CancelledContext(t *testing.T) {
	reg := plugin.NewRegistry()
	reg.MustRegister("a", "tag", suffix("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.Dispatch(ctx, "tag", "v", false, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArgs(t *testing.T) {
	args := plugin.Args{"n": float64(3), "s": "x", "rec": map[string]any{"a": 1}}

	assert.Equal(t, "3", args.String("n", ""))
	assert.Equal(t, "x", args.String("s", ""))
	assert.Equal(t, "def", args.String("missing", "def"))
	assert.Equal(t, record.Record{"a": 1}, args.Record("rec"))
	assert.Nil(t, args.Record("s"))

	with := args.With("s", "y")
	assert.Equal(t, "y", with.String("s", ""))
	assert.Equal(t, "x", args.String("s", ""), "With must not mutate the receiver")
}
