package rbac

import (
	"context"
	"strings"
)

// Identity is the caller's identity and claims bag, produced by the
// authentication layer upstream of this engine.
type Identity struct {
	// Subject uniquely identifies the caller.
	Subject string

	// Name is a display name.
	Name string

	// Customers lists the tenants the caller may act in.
	Customers []string

	// Claims carries any further claims verbatim.
	Claims map[string]string
}

// Authorizer is the external authorization primitive. Given the caller's
// identity, the required permissions and the fully expanded concrete scopes,
// it answers whether the caller holds all of them.
//
// Check may block (a remote policy service, a database); implementations own
// their timeout policy. A returned error is treated as "not authorized" by
// the link pipeline.
type Authorizer interface {
	Check(ctx context.Context, id Identity, permissions []string, scopes []string) (bool, error)
}

// StaticDecision is an Authorizer with a fixed answer. Allow is useful for
// wiring the pipeline before grants exist; Deny for exercising denied paths
// in tests.
type StaticDecision bool

const (
	Allow StaticDecision = true
	Deny  StaticDecision = false
)

// Check implements Authorizer.
func (d StaticDecision) Check(context.Context, Identity, []string, []string) (bool, error) {
	return bool(d), nil
}

// scopeMatches reports whether a granted scope covers a requested concrete
// scope. Scopes are colon-separated segments; the segment counts must agree
// and each granted segment must equal the requested one or be the "ANY"
// wildcard.
func scopeMatches(granted, requested string) bool {
	g := strings.Split(granted, ":")
	r := strings.Split(requested, ":")
	if len(g) != len(r) {
		return false
	}
	for i := range g {
		if g[i] != "ANY" && g[i] != r[i] {
			return false
		}
	}
	return true
}
