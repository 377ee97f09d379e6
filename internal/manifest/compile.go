package manifest

import (
	"fmt"
	"strings"
	"time"

	"cuelang.org/go/cue"

	"github.com/wayfind-io/wayfind/internal/apiversion"
	"github.com/wayfind-io/wayfind/internal/route"
)

// CompileRoutes parses the "routes" list of a CUE manifest value into
// descriptors. The value is typically the unified result of every .cue file
// in a manifest directory:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`routes: [{template: "v1/{customer}/product", verb: "GET", ...}]`)
//	descriptors, err := CompileRoutes(v)
func CompileRoutes(v cue.Value) ([]route.Descriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	routesVal := v.LookupPath(cue.ParsePath("routes"))
	if !routesVal.Exists() {
		return nil, &CompileError{
			Field:   "routes",
			Message: "routes list is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := routesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var descriptors []route.Descriptor
	for iter.Next() {
		d, compileErr := CompileRoute(iter.Value())
		if compileErr != nil {
			return nil, compileErr
		}
		descriptors = append(descriptors, *d)
	}
	return descriptors, nil
}

// CompileRoute parses a single route struct into a descriptor.
func CompileRoute(v cue.Value) (*route.Descriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	d := &route.Descriptor{}

	// Parse template (required)
	template, err := requiredString(v, "template")
	if err != nil {
		return nil, err
	}
	if err := route.ValidateTemplate(template); err != nil {
		return nil, &CompileError{
			Field:   "template",
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("template")).Pos(),
		}
	}
	if err := apiversion.ValidateMarkers(template); err != nil {
		return nil, &CompileError{
			Field:   "template",
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("template")).Pos(),
		}
	}
	d.Template = template

	// Parse verb (required, normalized to uppercase)
	verb, err := requiredString(v, "verb")
	if err != nil {
		return nil, err
	}
	d.Verb = strings.ToUpper(verb)

	// Optional identity fields
	if d.Name, err = optionalString(v, "name"); err != nil {
		return nil, err
	}
	if d.Controller, err = optionalString(v, "controller"); err != nil {
		return nil, err
	}
	if d.Action, err = optionalString(v, "action"); err != nil {
		return nil, err
	}
	if d.Name == "" && (d.Controller == "" || d.Action == "") {
		return nil, &CompileError{
			Field:   "name",
			Message: "either name or both controller and action are required",
			Pos:     v.Pos(),
		}
	}

	// Parse params (optional). When absent, the template's own placeholders
	// stand in, in appearance order.
	if d.Params, err = optionalStringList(v, "params"); err != nil {
		return nil, err
	}
	if d.Params == nil {
		d.Params = route.TemplateParams(template)
	}

	// Access metadata (all optional)
	if d.Permissions, err = optionalStringList(v, "permissions"); err != nil {
		return nil, err
	}
	if d.ScopeTemplates, err = optionalStringList(v, "scopes"); err != nil {
		return nil, err
	}
	if d.ScopeParams, err = optionalStringMap(v, "scope_params"); err != nil {
		return nil, err
	}
	if d.Predicate, err = optionalString(v, "predicate"); err != nil {
		return nil, err
	}

	// Parse introduced (optional, YYYY-MM-DD)
	introduced, err := optionalString(v, "introduced")
	if err != nil {
		return nil, err
	}
	if introduced != "" {
		if _, parseErr := time.Parse(apiversion.DateFormat, introduced); parseErr != nil {
			return nil, &CompileError{
				Field:   "introduced",
				Message: fmt.Sprintf("not a YYYY-MM-DD date: %q", introduced),
				Pos:     v.LookupPath(cue.ParsePath("introduced")).Pos(),
			}
		}
	}
	d.Introduced = introduced

	return d, nil
}

// requiredString reads a string field that must be present and non-empty.
func requiredString(v cue.Value, field string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return "", &CompileError{
			Field:   field,
			Message: field + " must not be empty",
			Pos:     fieldVal.Pos(),
		}
	}
	return s, nil
}

// optionalString reads a string field, returning "" when absent.
func optionalString(v cue.Value, field string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return "", nil
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// optionalStringList reads a list of strings, returning nil when absent.
func optionalStringList(v cue.Value, field string) ([]string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return nil, nil
	}
	iter, err := fieldVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// optionalStringMap reads a struct of string fields, returning nil when absent.
func optionalStringMap(v cue.Value, field string) (map[string]string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return nil, nil
	}
	iter, err := fieldVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make(map[string]string)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out[iter.Label()] = s
	}
	return out, nil
}
