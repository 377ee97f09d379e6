package rbac

import "context"

// GrantSet is an in-memory Authorizer: per-subject permission and scope
// grants. It backs the scenario harness and tests; the CLI uses the SQLite
// Store for the same contract.
//
// A GrantSet is populated up front and read-only afterwards, so it is safe
// for concurrent Check calls without locking.
type GrantSet struct {
	permissions map[string]map[string]struct{}
	scopes      map[string][]string
}

// NewGrantSet creates an empty GrantSet.
func NewGrantSet() *GrantSet {
	return &GrantSet{
		permissions: make(map[string]map[string]struct{}),
		scopes:      make(map[string][]string),
	}
}

// GrantPermission records that subject holds permission.
func (g *GrantSet) GrantPermission(subject, permission string) {
	perms, ok := g.permissions[subject]
	if !ok {
		perms = make(map[string]struct{})
		g.permissions[subject] = perms
	}
	perms[permission] = struct{}{}
}

// GrantScope records a scope grant for subject. The grant may contain "ANY"
// wildcard segments.
func (g *GrantSet) GrantScope(subject, scope string) {
	g.scopes[subject] = append(g.scopes[subject], scope)
}

// Check implements Authorizer: every required permission must be granted to
// the subject and every concrete scope must be covered by some scope grant.
func (g *GrantSet) Check(_ context.Context, id Identity, permissions []string, scopes []string) (bool, error) {
	held := g.permissions[id.Subject]
	for _, p := range permissions {
		if _, ok := held[p]; !ok {
			return false, nil
		}
	}
	granted := g.scopes[id.Subject]
	for _, requested := range scopes {
		if !anyScopeMatches(granted, requested) {
			return false, nil
		}
	}
	return true, nil
}

func anyScopeMatches(granted []string, requested string) bool {
	for _, gs := range granted {
		if scopeMatches(gs, requested) {
			return true
		}
	}
	return false
}
