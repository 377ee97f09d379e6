package route

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches a single {param} placeholder. The capture group
// holds the parameter name, which may include a constraint suffix such as
// ":maxversion(2020-01-01)".
var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ValidateTemplate checks that every brace in the template is balanced and
// non-nested. A malformed template disqualifies its descriptor from linking.
func ValidateTemplate(template string) error {
	depth := 0
	for i, r := range template {
		switch r {
		case '{':
			if depth != 0 {
				return fmt.Errorf("template %q: nested brace at offset %d", template, i)
			}
			depth++
		case '}':
			if depth == 0 {
				return fmt.Errorf("template %q: unmatched closing brace at offset %d", template, i)
			}
			depth--
		}
	}
	if depth != 0 {
		return fmt.Errorf("template %q: unclosed brace", template)
	}
	return nil
}

// TemplateParams returns the parameter names appearing in the template, in
// order, with constraint suffixes trimmed. "v1/{customer}/product/{id:maxversion(2020-01-01)}"
// yields ["customer", "id"].
func TemplateParams(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	params := make([]string, 0, len(matches))
	for _, m := range matches {
		params = append(params, trimConstraint(m[1]))
	}
	return params
}

// trimConstraint strips an inline routing constraint from a placeholder
// body: "id:maxversion(2020-01-01)" becomes "id".
func trimConstraint(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}

// FirstPlaceholder locates the leftmost {param} placeholder in href.
// It returns the parameter name (constraint trimmed) and the byte range of
// the whole placeholder, or ok=false when href has none left.
func FirstPlaceholder(href string) (name string, start, end int, ok bool) {
	loc := placeholderPattern.FindStringSubmatchIndex(href)
	if loc == nil {
		return "", 0, 0, false
	}
	return trimConstraint(href[loc[2]:loc[3]]), loc[0], loc[1], true
}

// LastSegmentParameterized reports whether the final path segment of href
// contains a placeholder. This drives the collection fan-out rule: a
// trailing parameter is assumed to belong to the collection's items rather
// than the collection itself. The assumption fails for a trailing parameter
// that refers to something other than the item (a second-level tenant
// parameter, say); that shape is a known approximation.
func LastSegmentParameterized(href string) bool {
	last := href
	if i := strings.LastIndexByte(href, '/'); i >= 0 {
		last = href[i+1:]
	}
	return placeholderPattern.MatchString(last)
}

// ParentTemplate returns the template with its final "/segment" removed.
// The second return is false when the template has no non-empty parent
// (no separator, or a separator only at position zero).
func ParentTemplate(template string) (string, bool) {
	i := strings.LastIndexByte(template, '/')
	if i <= 0 {
		return "", false
	}
	return template[:i], true
}
