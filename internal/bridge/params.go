package bridge

import "strings"

// SnakeKeys rewrites a parameter map's keys from camelCase to snake_case,
// recursing into nested map values but not into slice elements. Values are
// shared with the input map, not copied.
func SnakeKeys(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for key, value := range params {
		if nested, ok := value.(map[string]any); ok {
			value = SnakeKeys(nested)
		}
		out[toSnake(key)] = value
	}
	return out
}

// CamelKeys is the inverse of SnakeKeys: snake_case keys become camelCase,
// recursing into nested map values but not into slice elements.
func CamelKeys(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for key, value := range params {
		if nested, ok := value.(map[string]any); ok {
			value = CamelKeys(nested)
		}
		out[toCamel(key)] = value
	}
	return out
}

func toSnake(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimLeft(b.String(), "_")
}

func toCamel(key string) string {
	parts := strings.Split(key, "_")
	var b strings.Builder
	b.Grow(len(key))
	wrote := false
	for _, part := range parts {
		if part == "" {
			continue
		}
		if !wrote {
			b.WriteString(part)
			wrote = true
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
