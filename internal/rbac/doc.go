// Package rbac implements the permission/scope half of link visibility.
//
// A route declares required permissions (a flat AND-ed list) and required
// scope templates. Scope templates contain [param] placeholders, e.g.
//
//	CC:c_[customer]:Product:[instance]:ANY
//
// which are expanded against the request's resolved parameter values before
// the check. Expansion is fail-closed: a placeholder that cannot be resolved
// hides the link, it never produces a scope with a literal placeholder.
//
// The final yes/no comes from an Authorizer. Two implementations ship here:
// GrantSet, an in-memory grant table used by tests and the scenario harness,
// and Store, a SQLite-backed grant table for the CLI. Both match granted
// scopes against requested scopes segment-wise, with "ANY" in a granted
// segment matching anything.
package rbac
