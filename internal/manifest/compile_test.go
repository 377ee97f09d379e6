package manifest

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRoutesBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		routes: [
			{
				template:   "v1/{customer}/product"
				verb:       "GET"
				controller: "Product"
				action:     "List"
				permissions: ["product.read"]
			},
			{
				template:   "v1/{customer}/product/{id}"
				verb:       "DELETE"
				controller: "Product"
				action:     "Delete"
				params: ["customer", "id"]
				permissions: ["product.write"]
				scopes: ["CC:c_[customer]:Product:[instance]:ANY"]
				scope_params: {instance: "id"}
				predicate:  "Product.CanDelete"
				introduced: "2019-03-01"
			},
		]
	`)

	require.NoError(t, v.Err())
	descriptors, err := CompileRoutes(v)
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	list := descriptors[0]
	assert.Equal(t, "v1/{customer}/product", list.Template)
	assert.Equal(t, "GET", list.Verb)
	assert.Equal(t, "Product", list.Controller)
	assert.Equal(t, "List", list.Action)
	// params default to the template's own placeholders
	assert.Equal(t, []string{"customer"}, list.Params)
	assert.Equal(t, []string{"product.read"}, list.Permissions)

	del := descriptors[1]
	assert.Equal(t, "DELETE", del.Verb)
	assert.Equal(t, []string{"customer", "id"}, del.Params)
	assert.Equal(t, []string{"CC:c_[customer]:Product:[instance]:ANY"}, del.ScopeTemplates)
	assert.Equal(t, map[string]string{"instance": "id"}, del.ScopeParams)
	assert.Equal(t, "Product.CanDelete", del.Predicate)
	assert.Equal(t, "2019-03-01", del.Introduced)
}

func TestCompileRouteExplicitName(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		routes: [{
			template: "v1/{customer}/search"
			verb:     "get"
			name:     "search"
		}]
	`)

	require.NoError(t, v.Err())
	descriptors, err := CompileRoutes(v)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "search", descriptors[0].Name)
	// verb is normalized to uppercase
	assert.Equal(t, "GET", descriptors[0].Verb)
}

func TestCompileRouteMissingTemplate(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		routes: [{
			verb:       "GET"
			controller: "Product"
			action:     "List"
		}]
	`)

	require.NoError(t, v.Err())
	_, err := CompileRoutes(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template")
	assert.Contains(t, err.Error(), "required")
}

func TestCompileRouteMalformedTemplate(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		routes: [{
			template:   "v1/{customer}/product/{id"
			verb:       "GET"
			controller: "Product"
			action:     "Get"
		}]
	`)

	require.NoError(t, v.Err())
	_, err := CompileRoutes(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unclosed brace")
}

func TestCompileRouteMalformedMaxversion(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		routes: [{
			template:   "v1/{customer}/product/{legacyId:maxversion(2020-13-99)}"
			verb:       "GET"
			controller: "Product"
			action:     "GetLegacy"
		}]
	`)

	require.NoError(t, v.Err())
	_, err := CompileRoutes(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxversion")
}

func TestCompileRouteMissingIdentity(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		routes: [{
			template: "v1/{customer}/product"
			verb:     "GET"
		}]
	`)

	require.NoError(t, v.Err())
	_, err := CompileRoutes(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "controller")
}

func TestCompileRouteBadIntroducedDate(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		routes: [{
			template:   "v1/{customer}/product"
			verb:       "GET"
			controller: "Product"
			action:     "List"
			introduced: "March 2019"
		}]
	`)

	require.NoError(t, v.Err())
	_, err := CompileRoutes(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestCompileRoutesMissingList(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`other: 1`)

	require.NoError(t, v.Err())
	_, err := CompileRoutes(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routes list is required")
}
