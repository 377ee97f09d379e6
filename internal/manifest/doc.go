// Package manifest loads route descriptor manifests.
//
// Plugins declare their endpoints in CUE files:
//
//	routes: [
//		{
//			template:   "v1/{customer}/product/{id}"
//			verb:       "GET"
//			controller: "Product"
//			action:     "Get"
//			params: ["customer", "id"]
//			permissions: ["product.read"]
//			scopes: ["CC:c_[customer]:Product:[instance]:ANY"]
//			scope_params: {instance: "id"}
//			predicate:  "Product.CanGet"
//			introduced: "2019-03-01"
//		},
//	]
//
// LoadDir gathers every .cue file in a directory into one CUE value and
// compiles the "routes" list into route.Descriptor values. Compilation uses
// the CUE SDK's Go API directly (not a CLI subprocess) and reports errors
// with file/line/column positions where CUE provides them.
package manifest
