package linker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-io/wayfind/internal/apiversion"
	"github.com/wayfind-io/wayfind/internal/rbac"
	"github.com/wayfind-io/wayfind/internal/route"
)

func buildGraph(t *testing.T, descs ...route.Descriptor) *route.Graph {
	t.Helper()
	g, diags := route.BuildGraph(descs)
	require.Empty(t, diags)
	return g
}

func version(t *testing.T, date string) *time.Time {
	t.Helper()
	d, err := time.Parse(apiversion.DateFormat, date)
	require.NoError(t, err)
	return &d
}

// capturingAuthz records what reaches the authorization primitive.
type capturingAuthz struct {
	allow       bool
	err         error
	permissions []string
	scopes      []string
}

func (a *capturingAuthz) Check(_ context.Context, _ rbac.Identity, permissions, scopes []string) (bool, error) {
	a.permissions = permissions
	a.scopes = scopes
	return a.allow, a.err
}

func linkNames(links []route.Link) []string {
	names := make([]string, 0, len(links))
	for _, l := range links {
		names = append(names, l.Name)
	}
	return names
}

func itemRequest() Request {
	return Request{
		Template: "v1/{customer}/product/{id}",
		Verb:     "GET",
		Params:   map[string]string{"customer": "acme", "id": "42"},
		Identity: rbac.Identity{Subject: "alice"},
		ID:       "req-1",
	}
}

func TestAttach_SelfLinkSuppressed(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "DELETE", Controller: "Product", Action: "Delete", Params: []string{"customer", "id"}},
	)
	r := New(g, rbac.Allow)

	resp := NewResource(map[string]string{"id": "42"})
	r.Attach(context.Background(), itemRequest(), resp)

	names := linkNames(resp.Links())
	assert.NotContains(t, names, "Product_Get_id", "the current route's own link is suppressed")
	assert.Contains(t, names, "Product_Delete_id")
}

func TestAttach_MaterializesFromRouteParams(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}/parts", Verb: "GET", Controller: "Part", Action: "List", Params: []string{"customer", "id"}},
	)
	r := New(g, rbac.Allow)

	resp := NewResource(nil)
	r.Attach(context.Background(), itemRequest(), resp)

	require.Len(t, resp.Links(), 1)
	link := resp.Links()[0]
	assert.Equal(t, "Part_List_id", link.Name)
	assert.Equal(t, "v1/acme/product/42/parts", link.Href)
	assert.Empty(t, link.Method, "GET carries no method on the wire")
}

func TestAttach_MaterializesFromResponseFields(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}/parts/{partId}", Verb: "GET", Controller: "Part", Action: "Get", Params: []string{"customer", "id", "partId"}},
	)
	r := New(g, rbac.Allow)

	// partId is not a route parameter of the current request; it resolves
	// from the response object, case-insensitively.
	req := itemRequest()
	req.Template = "v1/{customer}/product/{id}/parts"
	resp := NewResource(map[string]string{"PartID": "7"})
	r.Attach(context.Background(), req, resp)

	require.Len(t, resp.Links(), 1)
	assert.Equal(t, "v1/acme/product/42/parts/7", resp.Links()[0].Href)
}

func TestAttach_UnresolvableParameterDropsLink(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}/parts/{partId}", Verb: "GET", Controller: "Part", Action: "Get", Params: []string{"customer", "id", "partId"}},
	)
	r := New(g, rbac.Allow)

	req := itemRequest()
	req.Template = "v1/{customer}/product/{id}/parts"
	resp := NewResource(nil) // nothing resolves partId
	r.Attach(context.Background(), req, resp)

	assert.Empty(t, resp.Links(), "a link with an unresolved placeholder is dropped, never emitted broken")
}

func TestAttach_ExplicitLinkWins(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}/parts", Verb: "GET", Controller: "Part", Action: "List", Params: []string{"customer", "id"}},
	)
	r := New(g, rbac.Allow)

	resp := NewResource(nil)
	resp.AddLink(route.Link{Name: "Part_List_id", Href: "v1/acme/product/42/parts?view=compact"})
	r.Attach(context.Background(), itemRequest(), resp)

	require.Len(t, resp.Links(), 1)
	assert.Equal(t, "v1/acme/product/42/parts?view=compact", resp.Links()[0].Href,
		"handler-supplied links take precedence over inferred ones")
}

func TestAttach_DedupeByHrefFirstWins(t *testing.T) {
	// Two routes on the same path, different verbs: identical hrefs after
	// materialization. Only the first-declared survives.
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}/parts", Verb: "GET", Controller: "Part", Action: "List", Params: []string{"customer", "id"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}/parts", Verb: "POST", Controller: "Part", Action: "Create", Params: []string{"customer", "id"}},
	)
	r := New(g, rbac.Allow)

	resp := NewResource(nil)
	r.Attach(context.Background(), itemRequest(), resp)

	require.Len(t, resp.Links(), 1)
	assert.Equal(t, "Part_List_id", resp.Links()[0].Name)
}

func TestAttach_VersionWindow(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product", Verb: "GET", Controller: "Product", Action: "List", Params: []string{"customer"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{Template: "v1/{customer}/product/{legacyId:maxversion(2020-01-01)}", Verb: "GET", Controller: "Product", Action: "GetLegacy", Params: []string{"customer", "legacyId"}},
	)
	r := New(g, rbac.Allow)

	req := Request{
		Template: "v1/{customer}/product",
		Verb:     "GET",
		Params:   map[string]string{"customer": "acme"},
		Identity: rbac.Identity{Subject: "alice"},
		ID:       "req-1",
	}

	t.Run("current version never sees the retired route", func(t *testing.T) {
		resp := NewResource(map[string]string{"id": "42", "legacyId": "42-legacy"})
		r.Attach(context.Background(), req, resp)
		assert.NotContains(t, linkNames(resp.Links()), "Product_GetLegacy_legacyId")
	})

	t.Run("pinned before the marker sees it with the marker stripped", func(t *testing.T) {
		pinned := req
		pinned.Version = version(t, "2019-06-01")
		resp := NewResource(map[string]string{"id": "42", "legacyId": "42-legacy"})
		r.Attach(context.Background(), pinned, resp)

		var legacy *route.Link
		for i := range resp.Links() {
			if resp.Links()[i].Name == "Product_GetLegacy_legacyId" {
				legacy = &resp.Links()[i]
			}
		}
		require.NotNil(t, legacy)
		assert.Equal(t, "v1/acme/product/42-legacy", legacy.Href)
	})

	t.Run("pinned after the marker never sees it", func(t *testing.T) {
		pinned := req
		pinned.Version = version(t, "2020-06-01")
		resp := NewResource(map[string]string{"id": "42", "legacyId": "42-legacy"})
		r.Attach(context.Background(), pinned, resp)
		assert.NotContains(t, linkNames(resp.Links()), "Product_GetLegacy_legacyId")
	})
}

func TestAttach_CollectionFanOut(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product", Verb: "GET", Controller: "Product", Action: "List", Params: []string{"customer"}},
		route.Descriptor{Template: "v1/{customer}/product", Verb: "POST", Controller: "Product", Action: "Create", Params: []string{"customer"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
	)
	r := New(g, rbac.Allow)

	req := Request{
		Template: "v1/{customer}/product",
		Verb:     "GET",
		Params:   map[string]string{"customer": "acme"},
		Identity: rbac.Identity{Subject: "alice"},
		ID:       "req-1",
	}

	first := NewResource(map[string]string{"id": "1"})
	second := NewResource(map[string]string{"id": "2"})
	resp := NewResourceList(nil, first, second)
	r.Attach(context.Background(), req, resp)

	// The item-parameterized link lands on each item with that item's id,
	// never at the collection level.
	assert.Equal(t, []string{"Product_Create"}, linkNames(resp.Links()))
	require.Len(t, first.Links(), 1)
	assert.Equal(t, "v1/acme/product/1", first.Links()[0].Href)
	require.Len(t, second.Links(), 1)
	assert.Equal(t, "v1/acme/product/2", second.Links()[0].Href)
}

func TestAttach_FanOutPrefersItemFields(t *testing.T) {
	// A request-level binding named like the trailing item placeholder must
	// not shadow each item's own value in the fanned-out links.
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product", Verb: "GET", Controller: "Product", Action: "List", Params: []string{"customer"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
	)
	r := New(g, rbac.Allow)

	req := Request{
		Template: "v1/{customer}/product",
		Verb:     "GET",
		Params:   map[string]string{"customer": "acme", "id": "42"},
		Identity: rbac.Identity{Subject: "alice"},
		ID:       "req-1",
	}

	first := NewResource(map[string]string{"id": "1"})
	second := NewResource(map[string]string{"id": "2"})
	resp := NewResourceList(nil, first, second)
	r.Attach(context.Background(), req, resp)

	require.Len(t, first.Links(), 1)
	assert.Equal(t, "v1/acme/product/1", first.Links()[0].Href)
	require.Len(t, second.Links(), 1)
	assert.Equal(t, "v1/acme/product/2", second.Links()[0].Href)
}

func TestAttach_ScopeSubstitutionReachesAuthorizer(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/widget/{id}", Verb: "GET", Controller: "Widget", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{
			Template: "v1/{customer}/widget/{id}/history", Verb: "GET",
			Controller: "Widget", Action: "History", Params: []string{"customer", "id"},
			Permissions:    []string{"widget.read"},
			ScopeTemplates: []string{"CC:c_[customer]:Widget:[instance]:ANY"},
			ScopeParams:    map[string]string{"customer": "customer", "instance": "id"},
		},
	)
	authz := &capturingAuthz{allow: true}
	r := New(g, authz)

	req := itemRequest()
	req.Template = "v1/{customer}/widget/{id}"
	resp := NewResource(nil)
	r.Attach(context.Background(), req, resp)

	require.Len(t, resp.Links(), 1)
	assert.Equal(t, []string{"widget.read"}, authz.permissions)
	assert.Equal(t, []string{"CC:c_acme:Widget:42:ANY"}, authz.scopes)
}

func TestAttach_UnresolvableScopeParamFailsClosed(t *testing.T) {
	// "instance" binds to a parameter that exists nowhere; even an
	// allow-everything authorizer never gets asked.
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/widget/{id}", Verb: "GET", Controller: "Widget", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{
			Template: "v1/{customer}/widget/{id}/history", Verb: "GET",
			Controller: "Widget", Action: "History", Params: []string{"customer", "id"},
			Permissions:    []string{"widget.read"},
			ScopeTemplates: []string{"CC:c_[customer]:Widget:[instance]:ANY"},
			ScopeParams:    map[string]string{"instance": "widgetSerial"},
		},
	)
	authz := &capturingAuthz{allow: true}
	r := New(g, authz)

	req := itemRequest()
	req.Template = "v1/{customer}/widget/{id}"
	resp := NewResource(nil)
	r.Attach(context.Background(), req, resp)

	assert.Empty(t, resp.Links())
	assert.Nil(t, authz.scopes, "the authorizer must never see a half-expanded scope")
}

func TestAttach_AuthorizerDenialHidesLink(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/widget/{id}", Verb: "GET", Controller: "Widget", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{
			Template: "v1/{customer}/widget/{id}/history", Verb: "GET",
			Controller: "Widget", Action: "History", Params: []string{"customer", "id"},
			Permissions: []string{"widget.read"},
		},
	)
	r := New(g, rbac.Deny)

	req := itemRequest()
	req.Template = "v1/{customer}/widget/{id}"
	resp := NewResource(nil)
	r.Attach(context.Background(), req, resp)
	assert.Empty(t, resp.Links())
}

func TestAttach_AuthorizerErrorFailsClosed(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/widget/{id}", Verb: "GET", Controller: "Widget", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{
			Template: "v1/{customer}/widget/{id}/history", Verb: "GET",
			Controller: "Widget", Action: "History", Params: []string{"customer", "id"},
			Permissions: []string{"widget.read"},
		},
	)
	r := New(g, &capturingAuthz{allow: true, err: errors.New("policy service down")})

	req := itemRequest()
	req.Template = "v1/{customer}/widget/{id}"
	resp := NewResource(nil)
	r.Attach(context.Background(), req, resp)
	assert.Empty(t, resp.Links())
}

func TestAttach_CanceledContextLeavesResponseUntouched(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}/parts", Verb: "GET", Controller: "Part", Action: "List", Params: []string{"customer", "id"}},
	)
	r := New(g, rbac.Allow)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := NewResource(nil)
	r.Attach(ctx, itemRequest(), resp)
	assert.Empty(t, resp.Links(), "partial results are never attached")
}

func TestExplain_ReportsPipelineStage(t *testing.T) {
	g := buildGraph(t,
		route.Descriptor{Template: "v1/{customer}/product/{id}", Verb: "GET", Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
		route.Descriptor{Template: "v1/{customer}/product/{id}/parts", Verb: "GET", Controller: "Part", Action: "List", Params: []string{"customer", "id"}},
		route.Descriptor{
			Template: "v1/{customer}/product/{id}/audit", Verb: "GET",
			Controller: "Product", Action: "Audit", Params: []string{"customer", "id"},
			Permissions: []string{"product.audit"},
		},
	)
	r := New(g, rbac.Deny)

	resp := NewResource(nil)
	decisions := r.Explain(context.Background(), itemRequest(), resp)

	byName := make(map[string]Outcome, len(decisions))
	for _, d := range decisions {
		byName[d.Name] = d.Outcome
	}
	assert.Equal(t, OutcomeSelf, byName["Product_Get_id"])
	assert.Equal(t, OutcomeAttached, byName["Part_List_id"])
	assert.Equal(t, OutcomeDenied, byName["Product_Audit_id"])
}
