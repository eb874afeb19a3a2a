package plugin

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
)

// ErrInvalidCapability is returned when a dispatched name is empty or
// refers to a protected capability.
var ErrInvalidCapability = errors.New("invalid capability name")

// Registry holds plugins in registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	plugins map[string]map[string]Capability
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]map[string]Capability),
	}
}

// Register adds capability to the named plugin. The plugin is created on
// first use and keeps its position in dispatch order.
func (r *Registry) Register(pluginName, capability string, fn Capability) error {
	if pluginName == "" {
		return errors.New("plugin name is required")
	}
	if strings.Contains(pluginName, ".") {
		return fmt.Errorf("plugin name %q must not contain a dot", pluginName)
	}
	if err := validCapability(capability); err != nil {
		return err
	}
	if fn == nil {
		return errors.New("capability function is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	caps, exists := r.plugins[pluginName]
	if !exists {
		caps = make(map[string]Capability)
		r.plugins[pluginName] = caps
		r.order = append(r.order, pluginName)
	}
	if _, dup := caps[capability]; dup {
		return fmt.Errorf("capability %s.%s already registered", pluginName, capability)
	}
	caps[capability] = fn
	return nil
}

// MustRegister registers a capability, panicking on error.
func (r *Registry) MustRegister(pluginName, capability string, fn Capability) {
	if err := r.Register(pluginName, capability, fn); err != nil {
		panic(err)
	}
}

// Plugins returns plugin names in dispatch order.
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Has reports whether any plugin offers capability. A "plugin.capability"
// name checks that plugin only.
func (r *Registry) Has(name string) bool {
	pluginName, capability := splitName(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.order {
		if pluginName != "" && p != pluginName {
			continue
		}
		if _, ok := r.plugins[p][capability]; ok {
			return true
		}
	}
	return false
}

type step struct {
	plugin string
	fn     Capability
}

// Dispatch runs every plugin offering name, in registration order, feeding
// each result into the next. "plugin.capability" targets one plugin. When
// no plugin offers the capability, value is returned unchanged.
//
// With sameType set, a result whose dynamic type differs from value's is a
// *errors.TypeMismatchError.
func (r *Registry) Dispatch(ctx context.Context, name string, value any, sameType bool, args Args) (any, error) {
	pluginName, capability := splitName(name)
	if err := validCapability(capability); err != nil {
		return nil, fmt.Errorf("dispatch %q: %w", name, err)
	}
	if args == nil {
		args = Args{}
	}

	r.mu.RLock()
	var steps []step
	for _, p := range r.order {
		if pluginName != "" && p != pluginName {
			continue
		}
		if fn, ok := r.plugins[p][capability]; ok {
			steps = append(steps, step{plugin: p, fn: fn})
		}
	}
	r.mu.RUnlock()

	origin := reflect.TypeOf(value)
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := s.fn(ctx, value, args)
		if err != nil {
			return nil, &sterrors.CapabilityError{Capability: capability, Plugin: s.plugin, Err: err}
		}
		if sameType && origin != nil && reflect.TypeOf(out) != origin {
			return nil, &sterrors.TypeMismatchError{
				Capability: capability,
				Plugin:     s.plugin,
				Expected:   origin.String(),
				Actual:     typeName(out),
			}
		}
		value = out
	}
	return value, nil
}

func splitName(name string) (pluginName, capability string) {
	if p, c, ok := strings.Cut(name, "."); ok {
		return p, c
	}
	return "", name
}

func validCapability(capability string) error {
	if capability == "" {
		return fmt.Errorf("%w: capability name is missing", ErrInvalidCapability)
	}
	if strings.HasPrefix(capability, "_") {
		return fmt.Errorf("%w: %q is protected", ErrInvalidCapability, capability)
	}
	return nil
}
