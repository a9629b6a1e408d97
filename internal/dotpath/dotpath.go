// Package dotpath splits dot-separated keys and walks nested string-keyed maps.
package dotpath

import (
	"fmt"
	"strings"

	"github.com/bft-labs/appshell/internal/domain"
)

// Prefix is the reserved key prefix used by the durable stores. The settings
// document held by the UI process is rooted below it.
const Prefix = "app."

// Split returns the segments of p. Empty input or empty segments are rejected.
func Split(p string) ([]string, error) {
	if p == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidPath)
	}
	segs := strings.Split(p, ".")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", domain.ErrInvalidPath, p)
		}
	}
	return segs, nil
}

// StripPrefix removes the reserved prefix if present.
func StripPrefix(p string) string {
	return strings.TrimPrefix(p, Prefix)
}

// EnsurePrefix adds the reserved prefix if it is missing.
func EnsurePrefix(p string) string {
	if strings.HasPrefix(p, Prefix) {
		return p
	}
	return Prefix + p
}

// Lookup walks segs from root. It reports false when any node along the way
// is absent or is not a map.
func Lookup(root map[string]any, segs []string) (any, bool) {
	var cur any = root
	for _, s := range segs {
		m, ok := AsMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[s]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// SetCreate assigns value at segs, creating intermediate maps and replacing
// non-map intermediates. It is meant for durable stores, never for the cache.
func SetCreate(root map[string]any, segs []string, value any) {
	cur := root
	for _, s := range segs[:len(segs)-1] {
		next, ok := AsMap(cur[s])
		if !ok {
			next = map[string]any{}
			cur[s] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// AsMap reports whether v is a string-keyed map node.
func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

// Clone deep-copies maps and slices reachable from v. Scalars are shared.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// Flatten emits every leaf below v keyed by its full dot-path under prefix.
// Empty maps are emitted as leaves so that they survive a round trip.
func Flatten(prefix string, v any, emit func(key string, leaf any)) {
	m, ok := AsMap(v)
	if !ok || len(m) == 0 {
		emit(prefix, v)
		return
	}
	for k, e := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		Flatten(key, e, emit)
	}
}
