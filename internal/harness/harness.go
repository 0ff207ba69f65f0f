package harness

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/vaultq/internal/schema"
	"github.com/roach88/vaultq/internal/store"
	"github.com/roach88/vaultq/internal/testutil"
	"github.com/roach88/vaultq/internal/vault"
	"github.com/roach88/vaultq/internal/vaulterr"
)

// Harness runs the query steps of one scenario against a seeded vault.
type Harness struct {
	store   *store.Store
	service *vault.Service
	clock   *testutil.DeterministicClock
	log     zerolog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger used for the harness, its store and its
// vault service. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Harness) { h.log = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database seeded from its
// fixture with a deterministic clock, so repeated runs store identical
// timestamps and return identical pages.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}

	st, err := store.Open(":memory:", store.WithLogger(h.log))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	schemas, err := schema.NewRegistry(scenario.Schemas...)
	if err != nil {
		return nil, fmt.Errorf("failed to register schemas: %w", err)
	}

	h.store = st
	h.clock = scenario.Clock()
	h.service = vault.NewService(st, schemas, schema.DefaultTypes(), vault.WithLogger(h.log))

	result := NewResult()
	seeded, err := scenario.Apply(ctx, st, h.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to seed vault: %w", err)
	}
	result.Seeded = seeded
	h.log.Debug().Str("scenario", scenario.Name).Int("states", seeded).Msg("vault seeded")

	for _, step := range scenario.Queries {
		out := h.runQuery(ctx, step)
		result.Queries = append(result.Queries, out)
		for _, failure := range EvaluateExpectation(step, out) {
			result.AddError(failure.Error())
		}
		h.log.Debug().
			Str("query", step.Name).
			Int("states", len(out.Refs)).
			Int("total", out.Total).
			Str("error_kind", out.ErrorKind).
			Msg("query step done")
	}
	return result, nil
}

// runQuery builds and runs one query document. Build and query failures
// become part of the outcome rather than aborting the scenario.
func (h *Harness) runQuery(ctx context.Context, step QueryStep) QueryOutcome {
	out := QueryOutcome{Name: step.Name, Refs: []string{}}

	q, err := step.Query.Build()
	if err == nil {
		var page *vault.Page
		page, err = h.service.QueryBy(ctx, q.Criteria, q.Paging, q.Sorting, q.ContractType)
		if err == nil {
			for _, ref := range page.Refs() {
				out.Refs = append(out.Refs, FormatRef(ref))
			}
			out.Total = page.TotalStatesAvailable
			out.Metadata = page.StatesMetadata
			return out
		}
	}

	out.ErrorKind = string(vaulterr.KindOf(err))
	if out.ErrorKind == "" {
		out.ErrorKind = "UNCLASSIFIED"
	}
	out.Error = err.Error()
	return out
}
