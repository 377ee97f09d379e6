package linker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wayfind-io/wayfind/internal/apiversion"
	"github.com/wayfind-io/wayfind/internal/rbac"
	"github.com/wayfind-io/wayfind/internal/route"
)

// Resolver runs the link resolution pipeline. Build one per process during
// startup, after the route graph is built; it is immutable afterwards and
// safe for concurrent use across requests.
type Resolver struct {
	graph      *route.Graph
	authz      rbac.Authorizer
	predicates *PredicateRegistry
	services   map[string]any
	idGen      RequestIDGenerator
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPredicates installs the access predicate registry.
func WithPredicates(reg *PredicateRegistry) Option {
	return func(r *Resolver) { r.predicates = reg }
}

// WithService makes a value available to predicates by parameter name, for
// dependencies that live outside the request (a repository, a feature
// gate). Resolution order puts services last, after route parameters and
// ambient request values.
func WithService(name string, value any) Option {
	return func(r *Resolver) {
		if r.services == nil {
			r.services = make(map[string]any)
		}
		r.services[name] = value
	}
}

// WithRequestIDs overrides the request ID generator. Tests use
// FixedGenerator for deterministic logs.
func WithRequestIDs(gen RequestIDGenerator) Option {
	return func(r *Resolver) { r.idGen = gen }
}

// New creates a Resolver over an already-built route graph.
//
// A nil authorizer defaults to rbac.Allow: permission and scope metadata is
// then recorded but not enforced, which is the wiring for platforms that
// delegate the final check elsewhere. Pass a real Authorizer to enforce.
func New(graph *route.Graph, authz rbac.Authorizer, opts ...Option) *Resolver {
	r := &Resolver{
		graph: graph,
		authz: authz,
		idGen: UUIDv7Generator{},
	}
	if r.authz == nil {
		r.authz = rbac.Allow
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach resolves the links related to the current route and writes them
// onto the response (and, for collections, onto each item).
//
// Attach never fails from the caller's point of view: configuration errors
// are logged and the affected link is dropped, access ambiguity hides the
// link. If ctx is canceled mid-pass the response is left untouched; partial
// link lists are never attached.
func (r *Resolver) Attach(ctx context.Context, req Request, resp Linked) {
	r.run(ctx, req, resp, nil)
}

// Explain runs the same pipeline as Attach and additionally reports, per
// candidate link, which stage attached or hid it. Intended for operator
// diagnostics, not the per-request path.
func (r *Resolver) Explain(ctx context.Context, req Request, resp Linked) []Decision {
	var trace []Decision
	r.run(ctx, req, resp, &trace)
	return trace
}

func (r *Resolver) run(ctx context.Context, req Request, resp Linked, trace *[]Decision) {
	if req.ID == "" {
		req.ID = r.idGen.Generate()
	}

	currentName := ""
	if self, ok := r.graph.Lookup(req.Template, req.Verb); ok {
		currentName = self.Link.Name
	}

	coll, isColl := resp.(Collection)
	var items []Linked
	var itemLinks [][]route.Link
	if isColl {
		items = coll.Items()
		itemLinks = make([][]route.Link, len(items))
		for i, item := range items {
			itemLinks[i] = item.Links()
		}
	}

	// Explicit, handler-supplied links stay at the front of the list so
	// that first-wins dedup favors them.
	links := resp.Links()
	explicit := make(map[string]struct{}, len(links))
	for _, l := range links {
		explicit[l.Name] = struct{}{}
	}

	respFields, _ := resp.(FieldResolver)

	for _, entry := range r.graph.Related(req.Template) {
		if ctx.Err() != nil {
			slog.Debug("link resolution abandoned", "request_id", req.ID, "cause", ctx.Err())
			return
		}

		name := entry.Link.Name

		if currentName != "" && name == currentName {
			record(trace, name, entry.Link.Href, OutcomeSelf, "")
			continue
		}
		if _, ok := explicit[name]; ok {
			record(trace, name, entry.Link.Href, OutcomeExplicit, "")
			continue
		}

		href, visible, err := apiversion.FilterHref(entry.Link.Href, req.Version)
		if err != nil {
			slog.Warn("dropping link with malformed version marker",
				"request_id", req.ID, "link", name, "error", err)
			record(trace, name, entry.Link.Href, OutcomeConfigError, err.Error())
			continue
		}
		if !visible {
			record(trace, name, entry.Link.Href, OutcomeRetired, "")
			continue
		}

		// Collection fan-out: a trailing parameterized segment cannot
		// resolve at the collection level, there is no single item value.
		// Resolve once per item against the item's own fields instead.
		if isColl && route.LastSegmentParameterized(href) {
			for i, item := range items {
				fields, _ := item.(FieldResolver)
				concrete, resolved, ok := materializeItemHref(href, req.Params, fields)
				if !ok {
					record(trace, name, entry.Link.Href, OutcomeUnresolved, itemDetail(i, ""))
					continue
				}
				if ok, why := r.accessible(ctx, req, entry, resolved); !ok {
					record(trace, name, entry.Link.Href, OutcomeDenied, itemDetail(i, why))
					continue
				}
				itemLinks[i] = append(itemLinks[i], route.Link{Name: name, Href: concrete, Method: entry.Link.Method})
				record(trace, name, entry.Link.Href, OutcomeAttached, itemDetail(i, ""))
			}
			continue
		}

		concrete, resolved, ok := materializeHref(href, req.Params, respFields)
		if !ok {
			record(trace, name, entry.Link.Href, OutcomeUnresolved, "")
			continue
		}
		if ok, why := r.accessible(ctx, req, entry, resolved); !ok {
			record(trace, name, entry.Link.Href, OutcomeDenied, why)
			continue
		}

		links = append(links, route.Link{Name: name, Href: concrete, Method: entry.Link.Method})
		record(trace, name, entry.Link.Href, OutcomeAttached, "")
	}

	resp.SetLinks(Normalize(links))
	if isColl {
		for i, item := range items {
			item.SetLinks(Normalize(itemLinks[i]))
		}
	}
}

// accessible decides link visibility for the caller: the permission/scope
// check and the registered access predicate must both pass when declared.
// Every failure mode is fail-closed.
func (r *Resolver) accessible(ctx context.Context, req Request, entry route.LinkEntry, resolved map[string]string) (bool, string) {
	if len(entry.Permissions) > 0 || len(entry.ScopeTemplates) > 0 {
		scopes, err := rbac.ExpandScopes(entry.ScopeTemplates, entry.ScopeParams, resolved)
		if err != nil {
			slog.Debug("hiding link, scope expansion failed",
				"request_id", req.ID, "link", entry.Link.Name, "error", err)
			return false, "scope expansion failed"
		}
		ok, err := r.authz.Check(ctx, req.Identity, entry.Permissions, scopes)
		if err != nil {
			slog.Warn("hiding link, authorization check failed",
				"request_id", req.ID, "link", entry.Link.Name, "error", err)
			return false, "authorization check failed"
		}
		if !ok {
			return false, "not authorized"
		}
	}

	if entry.Predicate != "" {
		if ok, why := r.evalPredicate(ctx, req, entry, resolved); !ok {
			return false, why
		}
	}
	return true, ""
}

// evalPredicate resolves the predicate's declared parameters and invokes
// it. An unregistered predicate, an unresolvable parameter or a predicate
// error all hide the link.
func (r *Resolver) evalPredicate(ctx context.Context, req Request, entry route.LinkEntry, resolved map[string]string) (bool, string) {
	p, ok := r.predicates.lookup(entry.Predicate)
	if !ok {
		slog.Warn("hiding link, predicate not registered",
			"request_id", req.ID, "link", entry.Link.Name, "predicate", entry.Predicate)
		return false, fmt.Sprintf("predicate %q not registered", entry.Predicate)
	}

	args := make(map[string]any, len(p.Params))
	for _, param := range p.Params {
		if v, ok := resolved[param]; ok {
			args[param] = v
			continue
		}
		if v, ok := req.Ambient[param]; ok {
			args[param] = v
			continue
		}
		if v, ok := r.services[param]; ok {
			args[param] = v
			continue
		}
		return false, fmt.Sprintf("predicate parameter %q unresolvable", param)
	}

	allowed, err := p.Func(ctx, args)
	if err != nil {
		slog.Debug("hiding link, predicate returned error",
			"request_id", req.ID, "link", entry.Link.Name, "predicate", entry.Predicate, "error", err)
		return false, "predicate error"
	}
	if !allowed {
		return false, "predicate denied"
	}
	return true, ""
}

func itemDetail(i int, why string) string {
	if why == "" {
		return fmt.Sprintf("item %d", i)
	}
	return fmt.Sprintf("item %d: %s", i, why)
}
