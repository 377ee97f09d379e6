package linker

import (
	"strings"

	"github.com/wayfind-io/wayfind/internal/route"
)

// maxSubstituteSteps bounds placeholder substitution per href. Route
// parameter values arrive from the caller's URL path, so a value that
// itself contains a placeholder (id="{id}") would otherwise rewrite the
// href forever. Past the cap the href counts as unresolvable and the link
// is dropped.
const maxSubstituteSteps = 32

// materializeHref substitutes every {param} placeholder in href.
//
// Each placeholder resolves from the request's route parameters first, then
// from the response object's fields. Substitution replaces one occurrence at
// a time, so repeated placeholders of the same name all receive the
// identical value. The second return collects the route parameters plus
// every value substituted from fields; the access evaluator uses it as the
// resolved resource-identifier map for scope expansion.
//
// An unresolvable placeholder fails the whole href: a partially substituted
// link must never be emitted.
func materializeHref(href string, params map[string]string, fields FieldResolver) (string, map[string]string, bool) {
	return materialize(href, params, func(name string) (string, bool) {
		value, ok := lookupParam(params, name)
		if !ok && fields != nil {
			value, ok = fields.ResolveField(name)
		}
		return value, ok
	})
}

// materializeItemHref is the fan-out variant of materializeHref: the item's
// own fields take precedence over the request's route parameters. A
// collection route that binds a parameter sharing a name with the trailing
// item placeholder must not shadow every item's value with the request's.
func materializeItemHref(href string, params map[string]string, fields FieldResolver) (string, map[string]string, bool) {
	return materialize(href, params, func(name string) (string, bool) {
		if fields != nil {
			if value, ok := fields.ResolveField(name); ok {
				return value, true
			}
		}
		return lookupParam(params, name)
	})
}

func materialize(href string, params map[string]string, lookup func(name string) (string, bool)) (string, map[string]string, bool) {
	resolved := make(map[string]string, len(params)+2)
	for k, v := range params {
		resolved[k] = v
	}

	for steps := 0; steps < maxSubstituteSteps; steps++ {
		name, start, end, ok := route.FirstPlaceholder(href)
		if !ok {
			return href, resolved, true
		}

		value, ok := lookup(name)
		if !ok {
			return "", nil, false
		}

		href = href[:start] + value + href[end:]
		resolved[name] = value
	}
	return "", nil, false
}

// lookupParam finds a route-parameter value by name, exact match first,
// case-insensitive second. Route values arrive from the router with the
// declared casing, but link templates are hand-written and may differ.
func lookupParam(params map[string]string, name string) (string, bool) {
	if v, ok := params[name]; ok {
		return v, true
	}
	for k, v := range params {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
