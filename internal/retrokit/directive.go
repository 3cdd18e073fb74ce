package retrokit

import (
	"errors"
	"fmt"
	"go/ast"
	"regexp"
	"strings"
)

// directive is one "//retrokit:<name> <args>" comment line.
type directive struct {
	name string
	args string
}

func parseDirectives(doc *ast.CommentGroup) []directive {
	if doc == nil {
		return nil
	}

	var directives []directive
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, directivePrefix)
		if !ok {
			continue
		}

		name, args, _ := strings.Cut(rest, " ")
		directives = append(directives, directive{
			name: strings.TrimSpace(name),
			args: strings.TrimSpace(args),
		})
	}

	return directives
}

// parseServiceArgs parses "[name=<name>]".
func parseServiceArgs(args string) (string, error) {
	var name string
	for _, field := range strings.Fields(args) {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key != "name" {
			return "", fmt.Errorf("unknown service option %q", field)
		}
		if value == "" {
			return "", errors.New("empty service name")
		}
		name = value
	}

	return name, nil
}

// parseRequestArgs parses "<path> [body=<param>]".
func parseRequestArgs(args string) (path string, body string, err error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", "", errors.New("missing path")
	}

	path = fields[0]
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key != "body" || value == "" {
			return "", "", fmt.Errorf("unknown request option %q", field)
		}
		body = value
	}

	return path, body, nil
}

// parseHeaderArgs parses "<Key>: <Value>".
func parseHeaderArgs(args string) (Header, error) {
	key, value, ok := strings.Cut(args, ":")
	key = strings.TrimSpace(key)
	if !ok || key == "" || strings.ContainsAny(key, " \t") {
		return Header{}, fmt.Errorf("invalid header %q", args)
	}

	return Header{Key: key, Value: strings.TrimSpace(value)}, nil
}

// parseQueryArgs parses "<param>=<key>".
func parseQueryArgs(args string) (param string, key string, err error) {
	param, key, ok := strings.Cut(strings.TrimSpace(args), "=")
	if !ok || param == "" || key == "" {
		return "", "", fmt.Errorf("invalid query mapping %q", args)
	}

	return param, key, nil
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// pathPlaceholders returns the placeholder names of path in order of appearance.
func pathPlaceholders(path string) ([]string, error) {
	if strings.Count(path, "{") != strings.Count(path, "}") {
		return nil, fmt.Errorf("unbalanced braces in path %q", path)
	}

	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(path, -1) {
		if m[1] == "" {
			return nil, fmt.Errorf("empty placeholder in path %q", path)
		}
		names = append(names, m[1])
	}

	return names, nil
}
