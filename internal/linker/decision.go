package linker

// Outcome classifies what the pipeline did with one candidate link.
type Outcome string

const (
	// OutcomeAttached: the link survived the pipeline and was attached.
	OutcomeAttached Outcome = "attached"

	// OutcomeSelf: the entry is the current route's own link.
	OutcomeSelf Outcome = "self"

	// OutcomeExplicit: the handler already supplied a link of this name.
	OutcomeExplicit Outcome = "explicit"

	// OutcomeRetired: the version filter hid the link.
	OutcomeRetired Outcome = "retired"

	// OutcomeUnresolved: a path parameter had no value.
	OutcomeUnresolved Outcome = "unresolved"

	// OutcomeDenied: the access evaluator hid the link.
	OutcomeDenied Outcome = "denied"

	// OutcomeConfigError: the entry itself is misconfigured (bad marker
	// date); logged and skipped.
	OutcomeConfigError Outcome = "config_error"
)

// Decision records why one candidate link was attached or hidden. Produced
// by Resolver.Explain for diagnostics; the hot path records nothing.
type Decision struct {
	Name    string  `json:"name"`
	Href    string  `json:"href"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}

func record(trace *[]Decision, name, href string, outcome Outcome, detail string) {
	if trace == nil {
		return
	}
	*trace = append(*trace, Decision{Name: name, Href: href, Outcome: outcome, Detail: detail})
}
