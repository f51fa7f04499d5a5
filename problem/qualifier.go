package problem

import (
	"strconv"
	"strings"

	"github.com/cottand/qinfer/dataflow"
	"github.com/cottand/qinfer/model"
	"github.com/pkg/errors"
)

// ParseQualifier reads a qualifier written as @Kind or
// @Kind(name={a, b}, other=c). An element with a single value may omit the
// braces. @DataFlow qualifiers are canonicalised.
func ParseQualifier(s string) (model.Annotation, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "@") {
		return model.Annotation{}, errors.Errorf("qualifier %q must start with @", s)
	}
	s = s[1:]

	kind, rest, hasElems := strings.Cut(s, "(")
	kind = strings.TrimSpace(kind)
	if kind == "" || strings.ContainsAny(kind, " ,={}") {
		return model.Annotation{}, errors.Errorf("invalid qualifier kind %q", kind)
	}
	if !hasElems {
		return model.NewAnnotation(kind, nil), nil
	}
	if !strings.HasSuffix(rest, ")") {
		return model.Annotation{}, errors.Errorf("qualifier @%s: missing closing parenthesis", kind)
	}

	elems := make(map[string][]string)
	for _, field := range splitTopLevel(strings.TrimSuffix(rest, ")")) {
		if strings.TrimSpace(field) == "" {
			continue
		}
		name, value, ok := strings.Cut(field, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return model.Annotation{}, errors.Errorf("qualifier @%s: expected name=value, found %q", kind, field)
		}
		if _, dup := elems[name]; dup {
			return model.Annotation{}, errors.Errorf("qualifier @%s: element %s given twice", kind, name)
		}
		values, err := parseValues(strings.TrimSpace(value))
		if err != nil {
			return model.Annotation{}, errors.Wrapf(err, "qualifier @%s: element %s", kind, name)
		}
		elems[name] = values
	}

	if kind == dataflow.Kind {
		return dataflow.NewWithRoots(elems[dataflow.TypeNames], elems[dataflow.TypeNameRoots]), nil
	}
	return model.NewAnnotation(kind, elems), nil
}

func parseValues(s string) ([]string, error) {
	if !strings.HasPrefix(s, "{") {
		if s == "" || strings.ContainsAny(s, "{}") && !strings.HasPrefix(s, `"`) {
			return nil, errors.Errorf("invalid value %q", s)
		}
		v, err := parseValue(s)
		if err != nil {
			return nil, err
		}
		return []string{v}, nil
	}
	if !strings.HasSuffix(s, "}") {
		return nil, errors.Errorf("missing closing brace in %q", s)
	}
	var values []string
	for _, v := range splitTopLevel(s[1 : len(s)-1]) {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		value, err := parseValue(v)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// parseValue unquotes v if it is a quoted string
func parseValue(v string) (string, error) {
	if !strings.HasPrefix(v, `"`) {
		return v, nil
	}
	unquoted, err := strconv.Unquote(v)
	if err != nil {
		return "", errors.Wrapf(err, "invalid quoted value %s", v)
	}
	return unquoted, nil
}

// splitTopLevel splits on commas that are not inside braces or quotes
func splitTopLevel(s string) []string {
	var fields []string
	depth, start := 0, 0
	quoted, escaped := false, false
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '{':
			depth++
		case r == '}':
			depth--
		case r == ',' && depth == 0:
			fields = append(fields, s[start:i])
			start = i + 1
		}
	}
	return append(fields, s[start:])
}
