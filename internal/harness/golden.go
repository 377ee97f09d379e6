package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/wayfind-io/wayfind/internal/linker"
	"github.com/wayfind-io/wayfind/internal/route"
)

// Snapshot captures the complete output of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	RequestID    string
	Links        []route.Link
	Items        [][]route.Link
	Decisions    []linker.Decision
	Diagnostics  []string
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. MarshalCanonical only handles maps, slices and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"request_id":    s.RequestID,
		"links":         linksToList(s.Links),
	}
	if s.Items != nil {
		itemList := make([]any, len(s.Items))
		for i, links := range s.Items {
			itemList[i] = linksToList(links)
		}
		result["items"] = itemList
	}
	if len(s.Decisions) > 0 {
		decisionList := make([]any, len(s.Decisions))
		for i, d := range s.Decisions {
			dm := map[string]any{
				"name":    d.Name,
				"href":    d.Href,
				"outcome": string(d.Outcome),
			}
			if d.Detail != "" {
				dm["detail"] = d.Detail
			}
			decisionList[i] = dm
		}
		result["decisions"] = decisionList
	}
	if len(s.Diagnostics) > 0 {
		diagList := make([]any, len(s.Diagnostics))
		for i, d := range s.Diagnostics {
			diagList[i] = d
		}
		result["diagnostics"] = diagList
	}
	return result
}

func linksToList(links []route.Link) []any {
	out := make([]any, len(links))
	for i, l := range links {
		lm := map[string]any{
			"name": l.Name,
			"href": l.Href,
		}
		if l.Method != "" {
			lm["method"] = l.Method
		}
		out[i] = lm
	}
	return out
}

// RunWithGolden executes a scenario and compares the result against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the result doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot := Snapshot{
		ScenarioName: scenario.Name,
		RequestID:    result.RequestID,
		Links:        result.Links,
		Items:        result.Items,
		Decisions:    result.Decisions,
		Diagnostics:  result.Diagnostics,
	}

	resultJSON, err := MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, resultJSON)

	return nil
}
