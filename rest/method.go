package rest

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

// Method describes one declared API method. Generated code builds one Method per interface
// method and reuses it for every call.
type Method struct {
	// Name identifies the method in errors and logs, e.g. "GitHub.ListRepos".
	Name       string
	HTTPMethod string
	// Path is resolved against the base URL. {name} segments are replaced by Args.Path values.
	Path    string
	Headers []Pair
	// HasBody reports whether the method declares a body parameter.
	HasBody bool
	// Returns is the declared result type, or nil when the method only returns an error.
	Returns reflect.Type
}

// Pair is an ordered key/value entry.
type Pair struct {
	Key   string
	Value any
}

// Args carries the per-call parameter values.
type Args struct {
	Path  map[string]any
	Query []Pair
	Body  any
}

func (m *Method) resolveURL(base *url.URL, args Args) (*url.URL, error) {
	path, err := expandPath(m.Path, args.Path)
	if err != nil {
		return nil, err
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}

	u := base.ResolveReference(ref)

	// Pairs keep their declared order after any query carried by the path.
	var sb strings.Builder
	sb.WriteString(u.RawQuery)
	for _, p := range args.Query {
		for _, v := range queryValues(p.Value) {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(p.Key))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(v))
		}
	}
	u.RawQuery = sb.String()

	return u, nil
}

func expandPath(tmpl string, values map[string]any) (string, error) {
	var (
		sb       strings.Builder
		replaced bool
	)
	rest := tmpl
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			sb.WriteString(rest)
			break
		}

		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in path %q", tmpl)
		}
		end += start

		name := rest[start+1 : end]
		v, ok := values[name]
		if !ok || isNil(v) {
			return "", fmt.Errorf("%w %q in %q", ErrMissingPathParam, name, tmpl)
		}

		sb.WriteString(rest[:start])
		sb.WriteString(url.PathEscape(fmt.Sprint(deref(v))))
		rest = rest[end+1:]
		replaced = true
	}

	path := sb.String()
	if replaced && hasDotSegment(path) {
		return "", fmt.Errorf("%w: %q expands to %q", ErrInvalidPathParam, tmpl, path)
	}
	return path, nil
}

// hasDotSegment reports whether the path part of ref contains a "." or ".." segment.
func hasDotSegment(ref string) bool {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	for seg := range strings.SplitSeq(ref, "/") {
		switch strings.ToLower(seg) {
		case ".", "..", "%2e", "%2e%2e", ".%2e", "%2e.":
			return true
		}
	}
	return false
}

// queryValues flattens v into query values. Nil values are dropped and slices contribute one
// value per element.
func queryValues(v any) []string {
	if isNil(v) {
		return nil
	}

	rv := reflect.ValueOf(deref(v))
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]string, 0, rv.Len())
		for i := range rv.Len() {
			out = append(out, queryValues(rv.Index(i).Interface())...)
		}
		return out
	}

	return []string{fmt.Sprint(rv.Interface())}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.Interface()
}
