package route

// TenantParam is the route parameter that scopes a route to a tenant.
// It is excluded from synthesized link names so that names stay stable
// across tenants.
const TenantParam = "customer"

// Descriptor describes one registered endpoint. Descriptors are produced
// once at startup by the route descriptor source (the manifest compiler in
// this repository) and are read-only afterwards.
type Descriptor struct {
	// Template is the parameterized path the endpoint is registered under,
	// e.g. "v1/{customer}/product/{id}".
	Template string `json:"template"`

	// Verb is the HTTP method, uppercase.
	Verb string `json:"verb"`

	// Name is the explicitly declared link name. When empty, a name is
	// synthesized from Controller, Action and Params.
	Name string `json:"name,omitempty"`

	// Controller and Action identify the handler; used for name synthesis.
	Controller string `json:"controller,omitempty"`
	Action     string `json:"action,omitempty"`

	// Params lists the route parameter names in declaration order.
	Params []string `json:"params,omitempty"`

	// Permissions are required permissions, AND-ed. Nil means the route
	// declares no permission requirement.
	Permissions []string `json:"permissions,omitempty"`

	// ScopeTemplates are required scope templates with [param] placeholders,
	// e.g. "CC:c_[customer]:Product:[instance]:ANY".
	ScopeTemplates []string `json:"scopes,omitempty"`

	// ScopeParams maps a scope-template placeholder name to the route or
	// resource parameter that supplies its value. Placeholders without a
	// mapping resolve against a parameter of the same name.
	ScopeParams map[string]string `json:"scope_params,omitempty"`

	// Predicate names an access predicate registered alongside the route.
	// Empty means the route has no predicate.
	Predicate string `json:"predicate,omitempty"`

	// Introduced is the date (YYYY-MM-DD) the route became part of the API.
	// Documentation metadata only; it never affects link visibility.
	Introduced string `json:"introduced,omitempty"`
}

// Link is a hypermedia reference attached to a response. Href holds a path
// template while the link lives in the Graph and a concrete URL once the
// materializer has substituted every parameter. Method is empty for GET,
// the implicit default, and is omitted from serialized output.
type Link struct {
	Name   string `json:"name,omitempty"`
	Href   string `json:"href,omitempty"`
	Method string `json:"method,omitempty"`
}

// LinkEntry is a Graph-owned candidate link together with the access
// metadata needed to decide its visibility per request. Entries are shared
// across requests and must not be mutated; Link is a value type, so copying
// the struct copies the link.
type LinkEntry struct {
	Link Link

	Permissions    []string
	ScopeTemplates []string
	ScopeParams    map[string]string
	Predicate      string

	// Introduced carries the descriptor's introduction date for diagnostic
	// listings. Never consulted on the request path.
	Introduced string
}

// entryFor derives the LinkEntry for a descriptor.
func entryFor(d Descriptor) LinkEntry {
	return LinkEntry{
		Link: Link{
			Name:   d.LinkName(),
			Href:   d.Template,
			Method: linkMethod(d.Verb),
		},
		Permissions:    d.Permissions,
		ScopeTemplates: d.ScopeTemplates,
		ScopeParams:    d.ScopeParams,
		Predicate:      d.Predicate,
		Introduced:     d.Introduced,
	}
}

// linkMethod maps an HTTP verb to the wire representation: GET is the
// implicit default and collapses to the empty string.
func linkMethod(verb string) string {
	if verb == "" || verb == "GET" {
		return ""
	}
	return verb
}
