package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDirMergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "product.cue", `
routes: [
	{
		template:   "v1/{customer}/product"
		verb:       "GET"
		controller: "Product"
		action:     "List"
	},
	{
		template:   "v1/{customer}/product/{id}"
		verb:       "GET"
		controller: "Product"
		action:     "Get"
	},
]
`)
	writeManifest(t, dir, "order.cue", `
routes: [
	{
		template:   "v1/{customer}/order"
		verb:       "POST"
		controller: "Order"
		action:     "Create"
	},
]
`)

	result, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FileCount)
	require.Len(t, result.Descriptors, 3)

	templates := make([]string, 0, len(result.Descriptors))
	for _, d := range result.Descriptors {
		templates = append(templates, d.Template)
	}
	assert.Contains(t, templates, "v1/{customer}/product")
	assert.Contains(t, templates, "v1/{customer}/product/{id}")
	assert.Contains(t, templates, "v1/{customer}/order")
}

func TestLoadDirMissingDirectory(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadDirNoCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "notes.txt", "not a manifest")

	_, err := LoadDir(dir)
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadDirCompileErrorCode(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "bad.cue", `
routes: [{
	template:   "v1/{customer}/product/{id"
	verb:       "GET"
	controller: "Product"
	action:     "Get"
}]
`)

	_, err := LoadDir(dir)
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeRouteTemplate, loadErr.Code)
}

func TestLoadDirEmptyRoutes(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "empty.cue", `routes: []`)

	_, err := LoadDir(dir)
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeGeneric, loadErr.Code)
}
