package template

import (
	"fmt"
	"strings"
)

// Bindings maps variable names to values. Nested maps are addressed with
// dotted paths, e.g. "filters.mongooseModels".
type Bindings map[string]any

// Lookup resolves name by exact key, then by dotted path, then by the
// last path segment. The boolean reports whether the name is bound.
func (b Bindings) Lookup(name string) (any, bool) {
	if b == nil || name == "" {
		return nil, false
	}
	if v, ok := b[name]; ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return nil, false
	}
	parts := strings.Split(name, ".")
	if v, ok := walk(map[string]any(b), parts); ok {
		return v, true
	}
	v, ok := b[parts[len(parts)-1]]
	return v, ok
}

func walk(m map[string]any, parts []string) (any, bool) {
	var cur any = m
	for _, p := range parts {
		next, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = next[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Bindings:
		return map[string]any(m), true
	case map[string]bool:
		out := make(map[string]any, len(m))
		for k, b := range m {
			out[k] = b
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// render converts a bound value to the literal text substituted in the output.
func render(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ",")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = render(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

// truthy follows the loose truthiness of the templating language:
// nil, false, "", and numeric zero are false, everything else is true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
