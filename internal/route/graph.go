package route

import (
	"log/slog"
	"sort"
)

// Graph is the route relationship index: path template to the ordered set
// of link entries related to that template. Related routes are the routes
// registered under the template itself (one entry per verb) and the routes
// one path segment below it.
//
// Build the Graph once, during startup, before the server accepts traffic.
// After BuildGraph returns the Graph is immutable and safe to share across
// all concurrent requests without locking.
type Graph struct {
	entries map[string][]LinkEntry
}

// BuildGraph compiles descriptors into a Graph.
//
// Each well-formed descriptor contributes one LinkEntry, indexed under its
// own template and under its parent template (the template with the final
// "/segment" removed) when the parent is non-empty. Indexing under the own
// template exposes sibling routes; indexing under the parent exposes the
// route to its parent as a child link.
//
// Descriptors with an empty or malformed template are skipped; each skip is
// logged and reported in the returned diagnostics. Diagnostics never abort
// the build.
//
// Entry order within a key follows descriptor declaration order, which makes
// downstream link emission deterministic.
func BuildGraph(descriptors []Descriptor) (*Graph, []error) {
	g := &Graph{entries: make(map[string][]LinkEntry)}
	var diags []error

	for _, d := range descriptors {
		if d.Template == "" {
			continue
		}
		if err := ValidateTemplate(d.Template); err != nil {
			cfgErr := &ConfigError{
				Code:     ErrCodeMalformedTemplate,
				Template: d.Template,
				Message:  err.Error(),
			}
			slog.Warn("skipping descriptor with malformed template",
				"template", d.Template, "verb", d.Verb, "error", err)
			diags = append(diags, cfgErr)
			continue
		}

		entry := entryFor(d)
		g.entries[d.Template] = append(g.entries[d.Template], entry)
		if parent, ok := ParentTemplate(d.Template); ok {
			g.entries[parent] = append(g.entries[parent], entry)
		}
	}

	return g, diags
}

// Related returns the link entries related to the given path template, in
// discovery order. The returned slice is owned by the Graph and must not be
// modified; duplicate an entry's Link before substituting parameters.
func (g *Graph) Related(template string) []LinkEntry {
	return g.entries[template]
}

// Lookup finds the entry registered under exactly this template and verb.
// Used to identify the current request's own route so its self link can be
// suppressed.
func (g *Graph) Lookup(template, verb string) (LinkEntry, bool) {
	method := linkMethod(verb)
	for _, e := range g.entries[template] {
		if e.Link.Href == template && e.Link.Method == method {
			return e, true
		}
	}
	return LinkEntry{}, false
}

// Templates returns every indexed template key, sorted. Intended for
// diagnostics and CLI output, not the per-request path.
func (g *Graph) Templates() []string {
	keys := make([]string, 0, len(g.entries))
	for k := range g.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
