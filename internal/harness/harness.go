package harness

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/wayfind-io/wayfind/internal/apiversion"
	"github.com/wayfind-io/wayfind/internal/linker"
	"github.com/wayfind-io/wayfind/internal/manifest"
	"github.com/wayfind-io/wayfind/internal/rbac"
	"github.com/wayfind-io/wayfind/internal/route"
)

// Result captures one scenario execution.
type Result struct {
	// RequestID is the fixed correlation ID the run used.
	RequestID string

	// Links are the links attached to the response after resolution.
	Links []route.Link

	// Items holds, per collection element, the links attached to it.
	// Nil when the response is not a collection.
	Items [][]route.Link

	// Decisions is the per-candidate trace from the Explain pass,
	// collection-level candidates and fan-out candidates alike.
	Decisions []linker.Decision

	// Diagnostics lists descriptor configuration problems the graph
	// builder skipped over (malformed templates and the like).
	Diagnostics []string
}

// Run executes a scenario and returns the resolved links and decision trace.
//
// Runs are hermetic: each run compiles the scenario's manifests into a fresh
// graph, loads a fresh grant set, and uses a request ID derived from the
// scenario name.
func Run(scenario *Scenario) (*Result, error) {
	descriptors, err := compileManifests(scenario.Manifests)
	if err != nil {
		return nil, err
	}

	graph, diags := route.BuildGraph(descriptors)
	result := &Result{RequestID: "req-" + scenario.Name}
	for _, d := range diags {
		result.Diagnostics = append(result.Diagnostics, d.Error())
	}

	grants := rbac.NewGrantSet()
	for _, g := range scenario.Grants {
		for _, p := range g.Permissions {
			grants.GrantPermission(g.Subject, p)
		}
		for _, s := range g.Scopes {
			grants.GrantScope(g.Subject, s)
		}
	}

	predicates := linker.NewPredicateRegistry()
	for name, outcome := range scenario.Predicates {
		verdict := outcome
		err := predicates.Register(name, linker.Predicate{
			Func: func(context.Context, map[string]any) (bool, error) {
				return verdict, nil
			},
		})
		if err != nil {
			return nil, fmt.Errorf("registering predicate %q: %w", name, err)
		}
	}

	req, err := buildRequest(scenario, result.RequestID)
	if err != nil {
		return nil, err
	}

	resolver := linker.New(graph, grants, linker.WithPredicates(predicates))

	resp, items := buildResponse(scenario.Response)
	result.Decisions = resolver.Explain(context.Background(), req, resp)
	result.Links = resp.Links()
	if items != nil {
		result.Items = make([][]route.Link, len(items))
		for i, item := range items {
			result.Items[i] = item.Links()
		}
	}

	return result, nil
}

// compileManifests compiles each CUE manifest file independently and
// concatenates the descriptors. Files are independent so two plugins may
// both declare a "routes" list.
func compileManifests(paths []string) ([]route.Descriptor, error) {
	ctx := cuecontext.New()
	var descriptors []route.Descriptor
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading manifest %s: %w", path, err)
		}
		value := ctx.CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			return nil, fmt.Errorf("compiling manifest %s: %w", path, err)
		}
		ds, err := manifest.CompileRoutes(value)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		descriptors = append(descriptors, ds...)
	}
	return descriptors, nil
}

func buildRequest(scenario *Scenario, id string) (linker.Request, error) {
	version, err := apiversion.ParseRequested(scenario.Request.Version)
	if err != nil {
		return linker.Request{}, fmt.Errorf("request.version: %w", err)
	}

	verb := scenario.Request.Verb
	if verb == "" {
		verb = "GET"
	}

	return linker.Request{
		Template: scenario.Request.Template,
		Verb:     strings.ToUpper(verb),
		Params:   scenario.Request.Params,
		Version:  version,
		Identity: rbac.Identity{Subject: scenario.Request.Subject},
		Ambient:  scenario.Request.Ambient,
		ID:       id,
	}, nil
}

// buildResponse constructs the payload the handler is simulated to have
// produced. The returned items slice is nil for a plain resource.
func buildResponse(step ResponseStep) (linker.Linked, []linker.Linked) {
	if step.Items == nil {
		resource := linker.NewResource(step.Fields)
		for _, l := range step.Links {
			resource.AddLink(route.Link{Name: l.Name, Href: l.Href, Method: l.Method})
		}
		return resource, nil
	}

	items := make([]*linker.Resource, len(step.Items))
	for i, item := range step.Items {
		items[i] = linker.NewResource(item.Fields)
	}
	list := linker.NewResourceList(step.Fields, items...)
	for _, l := range step.Links {
		list.AddLink(route.Link{Name: l.Name, Href: l.Href, Method: l.Method})
	}
	return list, list.Items()
}
