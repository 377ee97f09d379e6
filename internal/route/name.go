package route

import "strings"

// LinkName returns the link name for the descriptor.
//
// An explicitly declared name wins. Otherwise the name is synthesized as
// "{Controller}_{Action}" with "_{param}" appended for every route parameter
// except the tenant parameter, in declaration order. Excluding the tenant
// parameter keeps names stable and collision-free across tenant-scoped
// routes.
func (d Descriptor) LinkName() string {
	if d.Name != "" {
		return d.Name
	}

	var b strings.Builder
	b.WriteString(d.Controller)
	b.WriteByte('_')
	b.WriteString(d.Action)
	for _, p := range d.Params {
		if strings.EqualFold(p, TenantParam) {
			continue
		}
		b.WriteByte('_')
		b.WriteString(p)
	}
	return b.String()
}
