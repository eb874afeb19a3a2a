// Package record defines the Record type: the merged key/value data of one
// page, as handed to the template engine and scanned by queries.
//
// A Record is a plain map. Engine and query code never mutate a Record they
// were given; every transformation (Clone, Without, Merge, Namespaced)
// returns a new one.
package record

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Reserved keys set by the surrounding system.
const (
	KeyFullPath = "_full_path"
	KeyPath     = "_path"
	KeyEnv      = "_env"

	// KeyEnabled marks a page as enabled or disabled.
	KeyEnabled = "enabled"

	// KeyChildTemplate overrides the template used for a child record.
	KeyChildTemplate = "_child_template"

	// KeyDelimiter is inserted after a child when joining query results.
	KeyDelimiter = "delimiter"
)

// Record is one page's merged configuration.
type Record map[string]any

// Collection is the ordered set of records available to queries.
type Collection []Record

// EnvKey returns the environment-scoped variant of key.
func EnvKey(key, env string) string {
	return key + "." + env
}

// Lookup resolves key for env. The environment-scoped variant key.<env>
// wins when present; otherwise key is used. Nil values count as absent.
func (r Record) Lookup(key, env string) (any, bool) {
	var (
		value any
		found bool
	)
	if v, ok := r[key]; ok && v != nil {
		value, found = v, true
	}
	if env != "" {
		if v, ok := r[EnvKey(key, env)]; ok && v != nil {
			value, found = v, true
		}
	}
	return value, found
}

// Has returns true if key is present.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Clone returns a shallow copy of r. A nil Record clones to an empty one.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Without returns a copy of r with keys removed.
func (r Record) Without(keys ...string) Record {
	out := r.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Merge returns a copy of r with every field of other set over it.
func (r Record) Merge(other Record) Record {
	out := make(Record, len(r)+len(other))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Namespaced returns a copy of r with every key prefixed.
func (r Record) Namespaced(prefix string) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[prefix+k] = v
	}
	return out
}

// IsEnabled reports whether the page is enabled: the enabled field is
// absent, or is true, 1 or "1".
func (r Record) IsEnabled() bool {
	v, ok := r[KeyEnabled]
	if !ok {
		return true
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "1"
	}
	if f, ok := ToFloat64(v); ok {
		return f == 1
	}
	return false
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (r Record) String(key, defaultVal string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (r Record) Bool(key string, defaultVal bool) bool {
	if b, ok := r[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or
// not an integral number.
func (r Record) Int(key string, defaultVal int) int {
	f, ok := ToFloat64(r[key])
	if !ok || f != math.Trunc(f) {
		return defaultVal
	}
	return int(f)
}

// Float64 returns the numeric value for key, or defaultVal.
func (r Record) Float64(key string, defaultVal float64) float64 {
	if f, ok := ToFloat64(r[key]); ok {
		return f
	}
	return defaultVal
}

// Strings returns the list value for key, or defaultVal if missing or
// any element is not a string.
func (r Record) Strings(key string, defaultVal []string) []string {
	switch val := r[key].(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// ToFloat64 converts any Go numeric type (and json.Number) to float64.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// List returns v's elements when v is a list value.
func List(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// Stringify renders a value the way variable tags and ORDER BY see it.
// Integral numbers have no fraction, lists are joined with ", ".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	}
	if f, ok := ToFloat64(v); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if l, ok := List(v); ok {
		parts := make([]string, len(l))
		for i, item := range l {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ", ")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// FromJSON decodes a JSON object into a Record.
func FromJSON(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}
