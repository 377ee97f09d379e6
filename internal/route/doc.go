// Package route defines the data model for the link-resolution engine.
//
// ARCHITECTURE:
//
// Route descriptors are gathered once at startup, after every route-providing
// plugin has registered. BuildGraph compiles them into an immutable Graph that
// maps a path template to every link entry related to it: the routes sharing
// the template itself (siblings, one per verb) and the routes one path segment
// below it (children).
//
// The Graph is the only state shared across concurrent requests. It is built
// exactly once, before the server accepts traffic, and never mutated after
// construction. Per-request code reads it without locking and copies Link
// values before modifying them.
//
// INVARIANTS:
//   - Graph entry order follows descriptor declaration order and never changes
//     after BuildGraph returns.
//   - LinkEntry values owned by the Graph are never mutated; callers duplicate
//     the embedded Link before substitution.
//   - A descriptor with a malformed template never contributes an entry; it is
//     reported as a ConfigError and skipped.
package route
