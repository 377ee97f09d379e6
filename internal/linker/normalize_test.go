package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wayfind-io/wayfind/internal/route"
)

func TestNormalize_DropsEmptyHrefs(t *testing.T) {
	out := Normalize([]route.Link{
		{Name: "a", Href: "v1/a"},
		{Name: "broken"},
		{Name: "b", Href: "v1/b"},
	})
	assert.Equal(t, []route.Link{
		{Name: "a", Href: "v1/a"},
		{Name: "b", Href: "v1/b"},
	}, out)
}

func TestNormalize_DedupeKeepsFirst(t *testing.T) {
	out := Normalize([]route.Link{
		{Name: "first", Href: "v1/x"},
		{Name: "second", Href: "v1/x", Method: "POST"},
		{Name: "third", Href: "v1/y"},
	})
	assert.Equal(t, []route.Link{
		{Name: "first", Href: "v1/x"},
		{Name: "third", Href: "v1/y"},
	}, out)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.Empty(t, Normalize([]route.Link{}))
}
