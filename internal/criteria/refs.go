package criteria

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// StateStatus selects states by consumption status.
type StateStatus int

const (
	// StatusUnconsumed is the zero value: only unconsumed states.
	StatusUnconsumed StateStatus = iota
	// StatusConsumed selects consumed states only.
	StatusConsumed
	// StatusAll selects both unconsumed and consumed states.
	StatusAll
)

// String returns the stored/wire name of the status.
func (s StateStatus) String() string {
	switch s {
	case StatusUnconsumed:
		return "UNCONSUMED"
	case StatusConsumed:
		return "CONSUMED"
	case StatusAll:
		return "ALL"
	default:
		return fmt.Sprintf("StateStatus(%d)", int(s))
	}
}

// MarshalText renders the status name.
func (s StateStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseStateStatus parses "UNCONSUMED", "CONSUMED" or "ALL" (case-insensitive).
// An empty string yields StatusUnconsumed.
func ParseStateStatus(s string) (StateStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "UNCONSUMED":
		return StatusUnconsumed, nil
	case "CONSUMED":
		return StatusConsumed, nil
	case "ALL":
		return StatusAll, nil
	default:
		return 0, fmt.Errorf("unknown state status %q", s)
	}
}

// TimeInstantType selects which vault timestamp a time condition applies to.
type TimeInstantType int

const (
	// TimeRecorded is the time the state was recorded in the vault.
	TimeRecorded TimeInstantType = iota
	// TimeConsumed is the time the state was consumed.
	TimeConsumed
)

// String returns "RECORDED" or "CONSUMED".
func (t TimeInstantType) String() string {
	if t == TimeConsumed {
		return "CONSUMED"
	}
	return "RECORDED"
}

// StateRef is the composite key of a state: (transaction hash, output index).
type StateRef struct {
	TxHash string `json:"txhash"`
	Index  int    `json:"index"`
}

// String returns "txhash(index)".
func (r StateRef) String() string { return fmt.Sprintf("%s(%d)", r.TxHash, r.Index) }

// Party is an identity referenced by owner, issuer, notary and participant
// filters. Name is the well-known name; Key is the raw textual key form used
// when no name is known (anonymous parties).
type Party struct {
	Name string
	Key  string
}

// Identity returns the NFC-normalized text the vault stores for the party:
// the name when present, otherwise the raw key text.
func (p Party) Identity() string {
	if p.Name != "" {
		return norm.NFC.String(p.Name)
	}
	return norm.NFC.String(p.Key)
}

// String returns the party identity.
func (p Party) String() string { return p.Identity() }

// Identities maps parties to their identity text, preserving order.
func Identities(parties []Party) []string {
	out := make([]string, len(parties))
	for i, p := range parties {
		out[i] = p.Identity()
	}
	return out
}

// UniqueIdentifier identifies a linear state across its evolutions.
// ExternalID is optional.
type UniqueIdentifier struct {
	ExternalID string
	ID         uuid.UUID
}

// NewUniqueIdentifier returns an identifier with a fresh random UUID.
func NewUniqueIdentifier(externalID string) UniqueIdentifier {
	return UniqueIdentifier{ExternalID: externalID, ID: uuid.New()}
}

// ParseUniqueIdentifier parses "external_uuid" or a bare uuid.
func ParseUniqueIdentifier(s string) (UniqueIdentifier, error) {
	ext, raw := "", s
	if i := strings.LastIndex(s, "_"); i >= 0 {
		ext, raw = s[:i], s[i+1:]
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return UniqueIdentifier{}, fmt.Errorf("parse linear id %q: %w", s, err)
	}
	return UniqueIdentifier{ExternalID: ext, ID: id}, nil
}

// String returns "external_uuid", or the uuid when there is no external id.
func (u UniqueIdentifier) String() string {
	if u.ExternalID == "" {
		return u.ID.String()
	}
	return u.ExternalID + "_" + u.ID.String()
}
