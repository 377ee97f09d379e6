package linker

import (
	"time"

	"github.com/wayfind-io/wayfind/internal/rbac"
)

// Request carries the per-request inputs to link resolution. It is built by
// the response attachment hook from the current route match, the caller's
// identity and the parsed version header, and is never shared across
// requests.
type Request struct {
	// Template is the path template of the route answering this request.
	Template string

	// Verb is the HTTP method of the current request, uppercase.
	Verb string

	// Params holds the concrete route-parameter values bound for this
	// request, e.g. {"customer": "acme", "id": "42"}.
	Params map[string]string

	// Version is the API version the caller pinned via the x-api-version
	// header. Nil means current: retired routes stay hidden.
	Version *time.Time

	// Identity is the caller's identity and claims bag.
	Identity rbac.Identity

	// Ambient holds per-request values available to access predicates,
	// keyed by parameter name.
	Ambient map[string]any

	// ID correlates log lines for one resolution pass. Assigned from the
	// Resolver's generator when empty.
	ID string
}
