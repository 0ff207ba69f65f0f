package criteria

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/vaultq/internal/vaulterr"
)

const (
	// DefaultPageNumber is the first page. Page numbers are zero-based.
	DefaultPageNumber = 0
	// DefaultPageSize is the page size used when the caller does not choose one.
	DefaultPageSize = 200
	// MaxPageSize is the hard upper bound on a page size.
	MaxPageSize = 512
)

// PageSpecification selects a page of a result set.
// The caller owns page-window bookkeeping across repeated calls.
type PageSpecification struct {
	PageNumber int `json:"page_number" validate:"gte=0"`
	PageSize   int `json:"page_size" validate:"gte=0,lte=512"`
}

// DefaultPage returns page 0 of DefaultPageSize.
func DefaultPage() PageSpecification {
	return PageSpecification{PageNumber: DefaultPageNumber, PageSize: DefaultPageSize}
}

// Offset returns the index of the first row of the page.
func (p PageSpecification) Offset() int { return p.PageNumber * p.PageSize }

// String renders the page for logs.
func (p PageSpecification) String() string {
	return fmt.Sprintf("page %d (size %d)", p.PageNumber, p.PageSize)
}

var pageValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the page number and size bounds.
func (p PageSpecification) Validate() error {
	err := pageValidator.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return vaulterr.Boundsf("page specification: %v", err)
	}
	switch fieldErrs[0].Field() {
	case "PageNumber":
		return vaulterr.Boundsf("page specification: invalid page number %d [page numbers start from 0]", p.PageNumber)
	default:
		return vaulterr.Boundsf("page specification: invalid page size %d [maximum page size is %d]", p.PageSize, MaxPageSize)
	}
}

// Direction is a sort direction.
type Direction int

const (
	// Asc sorts ascending (default).
	Asc Direction = iota
	// Desc sorts descending.
	Desc
)

// String returns "ASC" or "DESC".
func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// MarshalText renders the direction name.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// ParseDirection parses "asc" or "desc" (case-insensitive). Empty means Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	default:
		return Asc, fmt.Errorf("unknown sort direction %q", s)
	}
}

// NullHandling controls where NULLs sort. Only NullsNone is supported by the
// engine; the other modes are accepted by the model and rejected at query time.
type NullHandling int

const (
	// NullsNone applies no special null handling (default).
	NullsNone NullHandling = iota
	// NullsFirst sorts NULLs before other values.
	NullsFirst
	// NullsLast sorts NULLs after other values.
	NullsLast
)

// String returns the null handling mode name.
func (n NullHandling) String() string {
	switch n {
	case NullsFirst:
		return "NULLS_FIRST"
	case NullsLast:
		return "NULLS_LAST"
	default:
		return "NULLS_NONE"
	}
}

// MarshalText renders the mode name.
func (n NullHandling) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// ParseNullHandling parses a null handling mode name. Empty means NullsNone.
func ParseNullHandling(s string) (NullHandling, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NULLS_NONE":
		return NullsNone, nil
	case "NULLS_FIRST":
		return NullsFirst, nil
	case "NULLS_LAST":
		return NullsLast, nil
	default:
		return NullsNone, fmt.Errorf("unknown null handling %q", s)
	}
}

// SortColumn orders by one attribute of a joined entity.
type SortColumn struct {
	Entity       string       `json:"entity"`
	Column       string       `json:"column"`
	Direction    Direction    `json:"direction"`
	NullHandling NullHandling `json:"null_handling"`
}

// Sort is an ordered list of sort columns, applied in sequence.
type Sort struct {
	Columns []SortColumn `json:"columns"`
}

// NoSort is the empty sort.
func NoSort() Sort { return Sort{} }
