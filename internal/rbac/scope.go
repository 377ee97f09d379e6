package rbac

import (
	"fmt"
	"regexp"
)

// scopePattern matches a single [param] placeholder in a scope template.
var scopePattern = regexp.MustCompile(`\[([^\]]+)\]`)

// maxExpandSteps bounds iterative substitution. A substituted value may
// itself contain placeholders; a template still holding placeholders after
// this many single substitutions cannot terminate and is treated as
// malformed.
const maxExpandSteps = 32

// ScopeParamsNeeded returns the distinct placeholder names used by the
// scope templates, in first-seen order.
func ScopeParamsNeeded(templates []string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, tmpl := range templates {
		for _, m := range scopePattern.FindAllStringSubmatch(tmpl, -1) {
			if _, dup := seen[m[1]]; dup {
				continue
			}
			seen[m[1]] = struct{}{}
			names = append(names, m[1])
		}
	}
	return names
}

// ExpandScope turns a scope template into a concrete scope string.
//
// Placeholders are resolved one at a time, left to right: the placeholder
// name is looked up in bindings to find the resolved-parameter key (falling
// back to the placeholder's own name when unbound), and that key's value
// from values replaces the placeholder. Substitution repeats until no
// placeholder remains.
//
// Expansion fails when a key has no resolved value or when substitution
// cannot terminate. Callers must treat a failed expansion as "link hidden":
// an unresolvable scope must never cause a link to be shown, and a scope
// with a literal placeholder must never reach the authorizer.
func ExpandScope(template string, bindings map[string]string, values map[string]string) (string, error) {
	scope := template
	for step := 0; step < maxExpandSteps; step++ {
		loc := scopePattern.FindStringSubmatchIndex(scope)
		if loc == nil {
			return scope, nil
		}

		param := scope[loc[2]:loc[3]]
		key := param
		if bound, ok := bindings[param]; ok {
			key = bound
		}
		value, ok := values[key]
		if !ok {
			return "", fmt.Errorf("scope template %q: no resolved value for parameter %q (key %q)", template, param, key)
		}
		scope = scope[:loc[0]] + value + scope[loc[1]:]
	}
	return "", fmt.Errorf("scope template %q: substitution did not terminate", template)
}

// ExpandScopes expands every template; any single failure fails the set.
func ExpandScopes(templates []string, bindings map[string]string, values map[string]string) ([]string, error) {
	if len(templates) == 0 {
		return nil, nil
	}
	scopes := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		scope, err := ExpandScope(tmpl, bindings, values)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}
