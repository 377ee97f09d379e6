package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a link-resolution test scenario.
// Scenarios compile route manifests, replay one request against a handler
// response, and capture the attached links plus the decision trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It also seeds the fixed
	// request ID, so runs are deterministic.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Manifests lists paths to CUE route manifest files to compile.
	// Paths are relative to the scenario file location.
	Manifests []string `yaml:"manifests"`

	// Grants lists the permission and scope grants to load into the
	// in-memory grant set before the request runs.
	Grants []GrantStep `yaml:"grants,omitempty"`

	// Predicates maps predicate names to fixed outcomes. Every predicate a
	// manifest references must appear here; an unlisted predicate fails
	// closed, same as production.
	Predicates map[string]bool `yaml:"predicates,omitempty"`

	// Request describes the incoming request.
	Request RequestStep `yaml:"request"`

	// Response describes the payload the handler produced.
	Response ResponseStep `yaml:"response"`
}

// GrantStep loads grants for one subject.
type GrantStep struct {
	// Subject is the identity the grants attach to.
	Subject string `yaml:"subject"`

	// Permissions are permission names to grant.
	Permissions []string `yaml:"permissions,omitempty"`

	// Scopes are concrete scope strings to grant, e.g.
	// "CC:c_acme:Product:ANY:ANY".
	Scopes []string `yaml:"scopes,omitempty"`
}

// RequestStep describes the request under test.
type RequestStep struct {
	// Template is the path template of the matched route.
	Template string `yaml:"template"`

	// Verb is the HTTP method. Defaults to GET.
	Verb string `yaml:"verb,omitempty"`

	// Params are the bound route parameter values.
	Params map[string]string `yaml:"params,omitempty"`

	// Version is the x-api-version header value. Empty means current.
	Version string `yaml:"version,omitempty"`

	// Subject identifies the caller; grants are matched by subject.
	Subject string `yaml:"subject"`

	// Ambient holds per-request values visible to predicates.
	Ambient map[string]any `yaml:"ambient,omitempty"`
}

// ResponseStep describes the handler's payload.
type ResponseStep struct {
	// Fields are the resource's own field values, available to href
	// materialization.
	Fields map[string]string `yaml:"fields,omitempty"`

	// Links are handler-supplied explicit links, attached before the
	// pipeline runs. Method is empty for GET.
	Links []LinkStep `yaml:"links,omitempty"`

	// Items, when present, makes the response a collection of resources
	// with the given fields. Item links fan out per element.
	Items []ItemStep `yaml:"items,omitempty"`
}

// LinkStep is an explicit link in scenario form.
type LinkStep struct {
	Name   string `yaml:"name"`
	Href   string `yaml:"href"`
	Method string `yaml:"method,omitempty"`
}

// ItemStep is one collection element.
type ItemStep struct {
	Fields map[string]string `yaml:"fields,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving manifest paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like
	// "grant:" vs "grants:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve manifest paths relative to base path BEFORE validation
	for i, manifestPath := range scenario.Manifests {
		if !filepath.IsAbs(manifestPath) && basePath != "" {
			scenario.Manifests[i] = filepath.Join(basePath, manifestPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Manifests) == 0 {
		return fmt.Errorf("manifests list is required and must be non-empty")
	}

	// Validate manifest paths exist
	for _, manifestPath := range s.Manifests {
		if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
			return fmt.Errorf("manifest file not found: %s", manifestPath)
		}
	}

	if s.Request.Template == "" {
		return fmt.Errorf("request.template is required")
	}
	if s.Request.Subject == "" {
		return fmt.Errorf("request.subject is required")
	}

	for i, grant := range s.Grants {
		if grant.Subject == "" {
			return fmt.Errorf("grants[%d]: subject is required", i)
		}
		if len(grant.Permissions) == 0 && len(grant.Scopes) == 0 {
			return fmt.Errorf("grants[%d]: at least one permission or scope is required", i)
		}
	}

	for i, link := range s.Response.Links {
		if link.Name == "" {
			return fmt.Errorf("response.links[%d]: name is required", i)
		}
		if link.Href == "" {
			return fmt.Errorf("response.links[%d]: href is required", i)
		}
	}

	return nil
}
