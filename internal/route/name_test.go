package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkName_ExplicitNameWins(t *testing.T) {
	d := Descriptor{
		Name:       "Product_Fetch",
		Controller: "Product",
		Action:     "Get",
		Params:     []string{"customer", "id"},
	}
	assert.Equal(t, "Product_Fetch", d.LinkName())
}

func TestLinkName_Synthesized(t *testing.T) {
	testCases := []struct {
		name string
		desc Descriptor
		want string
	}{
		{
			name: "no params",
			desc: Descriptor{Controller: "Product", Action: "List"},
			want: "Product_List",
		},
		{
			name: "tenant param excluded",
			desc: Descriptor{Controller: "Product", Action: "Get", Params: []string{"customer", "id"}},
			want: "Product_Get_id",
		},
		{
			name: "tenant param excluded case-insensitively",
			desc: Descriptor{Controller: "Product", Action: "Get", Params: []string{"Customer", "id"}},
			want: "Product_Get_id",
		},
		{
			name: "params appended in declaration order",
			desc: Descriptor{Controller: "Part", Action: "Get", Params: []string{"customer", "id", "partId"}},
			want: "Part_Get_id_partId",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.desc.LinkName())
		})
	}
}
