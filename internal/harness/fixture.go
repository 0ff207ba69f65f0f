package harness

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/vaultq/internal/criteria"
	"github.com/roach88/vaultq/internal/store"
	"github.com/roach88/vaultq/internal/testutil"
)

// DefaultEpoch is the clock start for fixtures that do not set one.
var DefaultEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultAmountScale is the number of minor units digits assumed for
// fungible amounts: "12.50" is stored as quantity 1250.
const DefaultAmountScale int32 = 2

// Fixture is a set of states to seed a vault with.
type Fixture struct {
	// Epoch starts the deterministic clock. States without a recorded
	// time, consumptions and locks each take the next tick.
	Epoch *time.Time `yaml:"epoch,omitempty"`

	// Step is the clock interval. Zero means one minute.
	Step time.Duration `yaml:"step,omitempty"`

	States []StateFixture `yaml:"states"`
}

// StateFixture is one recorded state.
type StateFixture struct {
	// Ref is "txhash:index".
	Ref      string           `yaml:"ref"`
	Type     string           `yaml:"type"`
	Notary   string           `yaml:"notary,omitempty"`
	Recorded *time.Time       `yaml:"recorded,omitempty"`
	Consumed bool             `yaml:"consumed,omitempty"`
	Lock     string           `yaml:"lock,omitempty"`
	Payload  map[string]any   `yaml:"payload,omitempty"`
	Fungible *FungibleFixture `yaml:"fungible,omitempty"`
	Linear   *LinearFixture   `yaml:"linear,omitempty"`
	Custom   []CustomFixture  `yaml:"custom,omitempty"`
}

// FungibleFixture describes fungible facts. Amount is a decimal string
// converted to integer minor units using Scale.
type FungibleFixture struct {
	Owner        string   `yaml:"owner"`
	Amount       string   `yaml:"amount"`
	Scale        *int32   `yaml:"scale,omitempty"`
	Issuer       string   `yaml:"issuer,omitempty"`
	IssuerRef    string   `yaml:"issuer_ref,omitempty"`
	Participants []string `yaml:"participants,omitempty"`
}

// LinearFixture describes linear facts.
type LinearFixture struct {
	ExternalID   string   `yaml:"external_id,omitempty"`
	UUID         string   `yaml:"uuid"`
	DealRef      string   `yaml:"deal_ref,omitempty"`
	Participants []string `yaml:"participants,omitempty"`
}

// CustomFixture is a row of a custom mapped schema table.
type CustomFixture struct {
	Table  string         `yaml:"table"`
	Values map[string]any `yaml:"values"`
}

// LoadFixture reads a fixture YAML file. Unknown fields are rejected.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateStates(f.States); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &f, nil
}

// Clock returns a fresh clock at the fixture epoch.
func (f *Fixture) Clock() *testutil.DeterministicClock {
	epoch := DefaultEpoch
	if f.Epoch != nil {
		epoch = *f.Epoch
	}
	return testutil.NewDeterministicClock(epoch, f.Step)
}

// Apply records every state in order, then consumes and locks the ones
// marked so. It returns the number of states recorded.
func (f *Fixture) Apply(ctx context.Context, st *store.Store, clock *testutil.DeterministicClock) (int, error) {
	recorded := make([]store.RecordedState, len(f.States))
	for i, sf := range f.States {
		rs, err := sf.toRecordedState(clock)
		if err != nil {
			return 0, fmt.Errorf("states[%d] %s: %w", i, sf.Ref, err)
		}
		recorded[i] = rs
	}

	for i, rs := range recorded {
		if err := st.RecordState(ctx, rs); err != nil {
			return i, fmt.Errorf("states[%d]: %w", i, err)
		}
	}

	locks := make(map[string][]criteria.StateRef)
	var lockOrder []string
	for i, sf := range f.States {
		ref := recorded[i].Ref
		if sf.Consumed {
			if err := st.Consume(ctx, ref, clock.Next()); err != nil {
				return len(recorded), fmt.Errorf("consume %s: %w", sf.Ref, err)
			}
		}
		if sf.Lock != "" {
			if _, ok := locks[sf.Lock]; !ok {
				lockOrder = append(lockOrder, sf.Lock)
			}
			locks[sf.Lock] = append(locks[sf.Lock], ref)
		}
	}
	for _, id := range lockOrder {
		if err := st.SoftLock(ctx, id, locks[id], clock.Next()); err != nil {
			return len(recorded), fmt.Errorf("lock %s: %w", id, err)
		}
	}
	return len(recorded), nil
}

func (sf StateFixture) toRecordedState(clock *testutil.DeterministicClock) (store.RecordedState, error) {
	ref, err := ParseRef(sf.Ref)
	if err != nil {
		return store.RecordedState{}, err
	}

	rs := store.RecordedState{
		Ref:                    ref,
		ContractStateClassName: sf.Type,
		Notary:                 criteria.Party{Name: sf.Notary},
	}
	if sf.Recorded != nil {
		rs.RecordedAt = sf.Recorded.UTC()
	} else {
		rs.RecordedAt = clock.Next()
	}
	if sf.Payload != nil {
		rs.Payload, err = json.Marshal(sf.Payload)
		if err != nil {
			return store.RecordedState{}, fmt.Errorf("payload: %w", err)
		}
	}

	if f := sf.Fungible; f != nil {
		scale := DefaultAmountScale
		if f.Scale != nil {
			scale = *f.Scale
		}
		qty, err := MinorUnits(f.Amount, scale)
		if err != nil {
			return store.RecordedState{}, fmt.Errorf("fungible amount: %w", err)
		}
		var issuerRef []byte
		if f.IssuerRef != "" {
			issuerRef, err = hex.DecodeString(f.IssuerRef)
			if err != nil {
				return store.RecordedState{}, fmt.Errorf("fungible issuer_ref: %w", err)
			}
		}
		rs.Fungible = &store.FungibleFact{
			Owner:        criteria.Party{Name: f.Owner},
			Quantity:     qty,
			Issuer:       criteria.Party{Name: f.Issuer},
			IssuerRef:    issuerRef,
			Participants: parties(f.Participants),
		}
	}

	if l := sf.Linear; l != nil {
		id, err := uuid.Parse(l.UUID)
		if err != nil {
			return store.RecordedState{}, fmt.Errorf("linear uuid: %w", err)
		}
		rs.Linear = &store.LinearFact{
			LinearID:      criteria.UniqueIdentifier{ExternalID: l.ExternalID, ID: id},
			DealReference: l.DealRef,
			Participants:  parties(l.Participants),
		}
	}

	for _, c := range sf.Custom {
		rs.Custom = append(rs.Custom, store.CustomFact{Table: c.Table, Values: c.Values})
	}
	return rs, nil
}

// MinorUnits converts a decimal amount to an integer count of minor
// units. Amounts with more fractional digits than scale are rejected.
func MinorUnits(amount string, scale int32) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", amount, err)
	}
	shifted := d.Shift(scale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%s has more than %d decimal places", amount, scale)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("%s overflows a 64-bit quantity", amount)
	}
	return shifted.IntPart(), nil
}

// ParseRef parses "txhash:index".
func ParseRef(s string) (criteria.StateRef, error) {
	tx, idx, ok := strings.Cut(s, ":")
	if !ok || tx == "" {
		return criteria.StateRef{}, fmt.Errorf("state ref %q: want txhash:index", s)
	}
	index, err := strconv.Atoi(idx)
	if err != nil || index < 0 {
		return criteria.StateRef{}, fmt.Errorf("state ref %q: bad output index", s)
	}
	return criteria.StateRef{TxHash: tx, Index: index}, nil
}

// FormatRef renders a ref in the form ParseRef accepts.
func FormatRef(ref criteria.StateRef) string {
	return ref.TxHash + ":" + strconv.Itoa(ref.Index)
}

func parties(names []string) []criteria.Party {
	if names == nil {
		return nil
	}
	out := make([]criteria.Party, len(names))
	for i, name := range names {
		out[i] = criteria.Party{Name: name}
	}
	return out
}

// validateStates checks the fields Apply relies on before anything is
// written.
func validateStates(states []StateFixture) error {
	seen := make(map[string]bool)
	for i, sf := range states {
		if _, err := ParseRef(sf.Ref); err != nil {
			return fmt.Errorf("states[%d]: %w", i, err)
		}
		if seen[sf.Ref] {
			return fmt.Errorf("states[%d]: duplicate ref %s", i, sf.Ref)
		}
		seen[sf.Ref] = true
		if sf.Type == "" {
			return fmt.Errorf("states[%d]: type is required", i)
		}
		if sf.Fungible != nil && sf.Fungible.Amount == "" {
			return fmt.Errorf("states[%d]: fungible amount is required", i)
		}
		if sf.Linear != nil && sf.Linear.UUID == "" {
			return fmt.Errorf("states[%d]: linear uuid is required", i)
		}
		for j, c := range sf.Custom {
			if c.Table == "" {
				return fmt.Errorf("states[%d].custom[%d]: table is required", i, j)
			}
		}
	}
	return nil
}
