package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-io/wayfind/internal/linker"
	"github.com/wayfind-io/wayfind/internal/route"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenarioWithBasePath(
		filepath.Join("testdata", "scenarios", name+".yaml"),
		filepath.Join("testdata", "scenarios"),
	)
	require.NoError(t, err)
	return scenario
}

func TestRunCollectionWithoutVersionHidesRetiredRoute(t *testing.T) {
	scenario := loadTestScenario(t, "collection-current")

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, "req-collection-current", result.RequestID)
	assert.Empty(t, result.Diagnostics)

	assert.Equal(t, []route.Link{
		{Name: "Product_Create", Href: "v1/acme/product", Method: "POST"},
	}, result.Links)

	require.Len(t, result.Items, 1)
	assert.Equal(t, []route.Link{
		{Name: "Product_Get_id", Href: "v1/acme/product/1"},
		{Name: "Product_Delete_id", Href: "v1/acme/product/1", Method: "DELETE"},
	}, result.Items[0])

	outcomes := make(map[string]linker.Outcome)
	for _, d := range result.Decisions {
		outcomes[d.Name] = d.Outcome
	}
	assert.Equal(t, linker.OutcomeSelf, outcomes["Product_List"])
	assert.Equal(t, linker.OutcomeRetired, outcomes["Product_GetLegacy_legacyId"])
}

func TestRunItemMissingPermissionHidesLink(t *testing.T) {
	scenario := loadTestScenario(t, "item-denied")

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.Empty(t, result.Links)
	assert.Nil(t, result.Items)

	require.Len(t, result.Decisions, 2)
	assert.Equal(t, "Product_Get_id", result.Decisions[0].Name)
	assert.Equal(t, linker.OutcomeSelf, result.Decisions[0].Outcome)
	assert.Equal(t, "Product_Delete_id", result.Decisions[1].Name)
	assert.Equal(t, linker.OutcomeDenied, result.Decisions[1].Outcome)
	assert.Equal(t, "not authorized", result.Decisions[1].Detail)
}

func TestRunMissingManifestFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken",
		Description: "manifest path does not exist",
		Manifests:   []string{filepath.Join(t.TempDir(), "nope.cue")},
		Request:     RequestStep{Template: "v1/{customer}/product", Subject: "alice"},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading manifest")
}
