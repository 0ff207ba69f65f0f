package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vaultq/internal/querydoc"
	"github.com/roach88/vaultq/internal/schema"
	"github.com/roach88/vaultq/internal/vaulterr"
)

// Scenario is a vault conformance scenario: a seeded vault and the
// queries to run against it with their expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Schemas lists the custom mapped schemas to register, e.g. "cash.v2".
	Schemas []string `yaml:"schemas,omitempty"`

	// Fixture seeds the vault before any query runs.
	Fixture `yaml:",inline"`

	// Queries run in order against the seeded vault.
	Queries []QueryStep `yaml:"queries"`
}

// QueryStep is one query with its expectation.
type QueryStep struct {
	Name   string            `yaml:"name"`
	Query  querydoc.Document `yaml:"query"`
	Expect Expectation       `yaml:"expect"`
}

// Expectation describes the outcome a query must have. Unset fields are
// not checked.
type Expectation struct {
	// Refs are the expected page refs ("txhash:index"), in page order
	// unless AnyOrder is set. An empty list expects an empty page.
	Refs     []string `yaml:"refs,omitempty"`
	AnyOrder bool     `yaml:"any_order,omitempty"`

	// Total is the expected number of matching states.
	Total *int `yaml:"total,omitempty"`

	// Error is the expected failure kind, e.g. PAGINATION_BOUNDS. When
	// empty the query must succeed.
	Error string `yaml:"error,omitempty"`

	// ErrorContains must appear in the failure message.
	ErrorContains string `yaml:"error_contains,omitempty"`
}

var errorKinds = map[string]bool{
	string(vaulterr.KindMalformedCriteria):     true,
	string(vaulterr.KindUnresolvableReference): true,
	string(vaulterr.KindPaginationBounds):      true,
	string(vaulterr.KindUnsupportedFeature):    true,
	string(vaulterr.KindStorage):               true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict fields catch typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
// Query documents are not validated here: a malformed query may be the
// very thing a step expects.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	known := schema.KnownSchemaNames()
	for _, name := range s.Schemas {
		if !slices.Contains(known, name) {
			return fmt.Errorf("unknown schema %q", name)
		}
	}

	if err := validateStates(s.States); err != nil {
		return err
	}

	names := make(map[string]bool)
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if names[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		names[q.Name] = true

		if err := validateExpectation(q.Expect); err != nil {
			return fmt.Errorf("queries[%d].expect: %w", i, err)
		}
	}
	return nil
}

func validateExpectation(e Expectation) error {
	if e.Error != "" && !errorKinds[e.Error] {
		return fmt.Errorf("unknown error kind %q", e.Error)
	}
	if e.Error != "" && (e.Refs != nil || e.Total != nil) {
		return fmt.Errorf("refs and total cannot be expected from a failing query")
	}
	if e.ErrorContains != "" && e.Error == "" {
		return fmt.Errorf("error_contains requires error")
	}
	for i, ref := range e.Refs {
		if _, err := ParseRef(ref); err != nil {
			return fmt.Errorf("refs[%d]: %w", i, err)
		}
	}
	return nil
}
