package harness

import "github.com/roach88/vaultq/internal/vault"

// QueryOutcome is what one query step produced.
type QueryOutcome struct {
	Name      string                `json:"name"`
	Refs      []string              `json:"refs"`
	Total     int                   `json:"total"`
	ErrorKind string                `json:"error_kind,omitempty"`
	Error     string                `json:"error,omitempty"`
	Metadata  []vault.StateMetadata `json:"-"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every query met its expectation.
	Pass bool `json:"pass"`

	// Seeded is the number of states the fixture recorded.
	Seeded int `json:"seeded"`

	// Queries holds one outcome per query step, in order.
	Queries []QueryOutcome `json:"queries"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Queries: []QueryOutcome{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Outcome returns the outcome of the named query step.
func (r *Result) Outcome(name string) (QueryOutcome, bool) {
	for _, q := range r.Queries {
		if q.Name == name {
			return q, true
		}
	}
	return QueryOutcome{}, false
}
