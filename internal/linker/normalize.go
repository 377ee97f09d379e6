package linker

import "github.com/wayfind-io/wayfind/internal/route"

// Normalize removes links whose href never resolved and collapses links
// sharing an href to the first occurrence. First-wins favors explicit,
// handler-supplied links, which sit at the front of the list before
// inferred links are appended. Output preserves first-seen order.
func Normalize(links []route.Link) []route.Link {
	if len(links) == 0 {
		return links
	}
	seen := make(map[string]struct{}, len(links))
	out := make([]route.Link, 0, len(links))
	for _, l := range links {
		if l.Href == "" {
			continue
		}
		if _, dup := seen[l.Href]; dup {
			continue
		}
		seen[l.Href] = struct{}{}
		out = append(out, l)
	}
	return out
}
