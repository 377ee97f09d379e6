// Package linker implements the per-request link resolution pipeline.
//
// ARCHITECTURE:
//
// The Resolver is built once at startup from an immutable route.Graph and an
// rbac.Authorizer. Per request, Attach walks the entries related to the
// current route template and runs each through a fixed pipeline:
//
//  1. Self suppression: the current route's own link is useless to a caller
//     that already has the URL.
//  2. Explicit precedence: a link the handler supplied under the same name
//     always wins over an inferred one.
//  3. Version filter: retired routes are visible only to callers pinned
//     before the retirement date; the marker is stripped from visible hrefs.
//  4. Collection fan-out: when the response is a collection and the link's
//     trailing path segment is parameterized, the link is resolved once per
//     item against that item's fields and attached to the item, never to the
//     collection.
//  5. Materialization: {param} placeholders are substituted one occurrence
//     at a time from the request's route parameters, then from the response
//     object's fields.
//  6. Access evaluation: permission/scope check plus the registered access
//     predicate, both fail-closed.
//  7. Normalization: links with unresolved hrefs are dropped, duplicates by
//     href keep the first occurrence.
//
// Every ambiguity resolves to hiding the link. Hypermedia is advisory: a
// missing link costs the caller a lookup, a wrong link leaks an
// authorization hint. Resolution therefore never raises user-visible errors;
// its only observable effect is which links appear.
//
// Thread-safety model:
//   - Resolver: immutable after New, safe for concurrent use.
//   - Request, response payloads, link slices: request-local, never shared.
package linker
