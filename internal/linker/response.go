package linker

import (
	"strings"

	"github.com/wayfind-io/wayfind/internal/route"
)

// Linked is implemented by response payloads that carry a hypermedia link
// list, serialized under "_links" and omitted when empty.
type Linked interface {
	Links() []route.Link
	SetLinks([]route.Link)
}

// Collection is implemented by collection responses. Each item owns its own
// link list; items share no mutable state with the collection or each other.
type Collection interface {
	Linked
	Items() []Linked
}

// FieldResolver exposes a payload's named field values for path-parameter
// substitution. Implementations must match names case-insensitively and
// return ok=false for unknown fields. Payload types register their fields
// explicitly; the engine never reflects over response types.
type FieldResolver interface {
	ResolveField(name string) (string, bool)
}

// Fields is a ready-made FieldResolver for payloads whose linkable fields
// fit a string map. Embed it or use it via Resource.
type Fields map[string]string

// ResolveField implements FieldResolver with a case-insensitive fallback.
func (f Fields) ResolveField(name string) (string, bool) {
	if v, ok := f[name]; ok {
		return v, true
	}
	for k, v := range f {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Resource is a reference Linked payload backed by a field map. Handlers
// with richer payload types implement Linked and FieldResolver themselves;
// Resource serves the harness, the CLI and tests.
type Resource struct {
	fields Fields
	links  []route.Link
}

// NewResource creates a Resource with the given field values.
func NewResource(fields map[string]string) *Resource {
	return &Resource{fields: Fields(fields)}
}

// AddLink appends an explicit, handler-supplied link. Explicit links take
// precedence over inferred links of the same name and win href dedup.
func (r *Resource) AddLink(l route.Link) {
	r.links = append(r.links, l)
}

// Links implements Linked.
func (r *Resource) Links() []route.Link { return r.links }

// SetLinks implements Linked.
func (r *Resource) SetLinks(ls []route.Link) { r.links = ls }

// ResolveField implements FieldResolver.
func (r *Resource) ResolveField(name string) (string, bool) {
	return r.fields.ResolveField(name)
}

// ResourceList is a reference Collection payload: collection-level fields
// and links plus independent items.
type ResourceList struct {
	Resource
	items []*Resource
}

// NewResourceList creates a collection payload.
func NewResourceList(fields map[string]string, items ...*Resource) *ResourceList {
	return &ResourceList{
		Resource: Resource{fields: Fields(fields)},
		items:    items,
	}
}

// Items implements Collection.
func (l *ResourceList) Items() []Linked {
	items := make([]Linked, len(l.items))
	for i, item := range l.items {
		items[i] = item
	}
	return items
}
