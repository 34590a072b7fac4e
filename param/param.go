// Package param defines the configuration map a display request resolves to.
//
// A Map is flat: string keys, values already coerced to bool, float64 or string.
// Effects read it through the typed accessors or Decode it into their own struct.
package param

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Map is a resolved, type-coerced display configuration.
type Map map[string]any

// leadingFloat matches the numeric prefix accepted by Float for string values.
var leadingFloat = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// Clone returns a shallow copy. Values are immutable scalars so this is a full snapshot.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a new Map holding m overridden by over. Neither input is modified.
func (m Map) Merge(over Map) Map {
	out := make(Map, len(m)+len(over))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Has reports whether key is present.
func (m Map) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Keys returns the keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Float returns key as a number. Strings are read like parseFloat: the leading
// numeric prefix counts and anything unparseable yields def. NaN and infinities
// also yield def so callers never have to guard against them.
func (m Map) Float(key string, def float64) float64 {
	v, ok := m[key]
	if !ok {
		return def
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		parsed, ok := parseLeadingFloat(t)
		if !ok {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// String returns key formatted as a string, or def when absent.
func (m Map) String(key string, def string) string {
	v, ok := m[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return def
}

// Bool returns key as a bool. Only real booleans and the literals "true"/"false"
// count; anything else yields def.
func (m Map) Bool(key string, def bool) bool {
	switch t := m[key].(type) {
	case bool:
		return t
	case string:
		switch t {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return def
}

// parseLeadingFloat reads the numeric prefix of s.
func parseLeadingFloat(s string) (float64, bool) {
	prefix := leadingFloat.FindString(s)
	if prefix == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(prefix), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
