package expr

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// pathRe matches the fast-path grammar: an identifier followed by any mix of
// .identifier, .digits and [digits] segments.
var pathRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(?:\.(?:[A-Za-z_$][A-Za-z0-9_$]*|[0-9]+)|\[[0-9]+\])*$`)

// IsPath reports whether the expression is a plain dotted property path that
// can be resolved without the expression grammar.
func IsPath(expression string) bool {
	return pathRe.MatchString(expression)
}

// LookupPath resolves a dotted path against the context by stepwise lookup.
// Any nullish intermediate short-circuits to nil. Each access only follows
// the literal path depth, so cyclic contexts cannot cause non-termination.
func LookupPath(path string, context map[string]any) any {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}

	cur, ok := context[segments[0]]
	if !ok {
		return nil
	}
	for _, seg := range segments[1:] {
		cur = step(cur, seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func splitPath(path string) []string {
	var segments []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			segments = append(segments, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '.', '[', ']':
			flush()
		default:
			cur.WriteByte(path[i])
		}
	}
	flush()

	return segments
}

// step performs one property/index access on cur.
func step(cur any, key string) any {
	if cur == nil {
		return nil
	}

	if m, ok := cur.(map[string]any); ok {
		return m[key]
	}

	rv := reflect.ValueOf(cur)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		mv := rv.MapIndex(reflect.ValueOf(key))
		if !mv.IsValid() {
			return nil
		}
		return mv.Interface()

	case reflect.Slice, reflect.Array:
		if key == "length" {
			return rv.Len()
		}
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil
		}
		return rv.Index(idx).Interface()

	case reflect.String:
		if key == "length" {
			return len([]rune(rv.String()))
		}
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil
		}
		runes := []rune(rv.String())
		if idx < 0 || idx >= len(runes) {
			return nil
		}
		return string(runes[idx])

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return step(rv.Elem().Interface(), key)

	case reflect.Struct:
		f := rv.FieldByName(key)
		if !f.IsValid() || !f.CanInterface() {
			return nil
		}
		return f.Interface()
	}

	return nil
}
