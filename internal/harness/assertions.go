package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Assertion type names used in AssertionError.
const (
	AssertRefs    = "refs"
	AssertTotal   = "total"
	AssertError   = "error"
	AssertSuccess = "success"
)

// AssertionError is returned when a query outcome does not meet its
// expectation. It carries the page refs for debugging context.
type AssertionError struct {
	Query    string
	Type     string
	Expected string
	Actual   string
	Refs     []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s (query %s)\n", e.Type, e.Query)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Refs) > 0 {
		fmt.Fprintf(&buf, "\nPage refs:\n")
		for i, ref := range e.Refs {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, ref)
		}
	}
	return buf.String()
}

// EvaluateExpectation checks an outcome against its step's expectation
// and returns every failed assertion.
func EvaluateExpectation(step QueryStep, out QueryOutcome) []error {
	exp := step.Expect
	fail := func(typ, expected, actual string) error {
		return &AssertionError{Query: step.Name, Type: typ, Expected: expected, Actual: actual, Refs: out.Refs}
	}

	if exp.Error != "" {
		if out.ErrorKind == "" {
			return []error{fail(AssertError, exp.Error, fmt.Sprintf("success with %d states", len(out.Refs)))}
		}
		var errs []error
		if out.ErrorKind != exp.Error {
			errs = append(errs, fail(AssertError, exp.Error, out.ErrorKind+": "+out.Error))
		}
		if exp.ErrorContains != "" && !strings.Contains(out.Error, exp.ErrorContains) {
			errs = append(errs, fail(AssertError, fmt.Sprintf("message containing %q", exp.ErrorContains), out.Error))
		}
		return errs
	}

	if out.ErrorKind != "" {
		return []error{fail(AssertSuccess, "query to succeed", out.ErrorKind+": "+out.Error)}
	}

	var errs []error
	if exp.Refs != nil {
		if err := assertRefs(exp.Refs, out.Refs, exp.AnyOrder); err != "" {
			errs = append(errs, fail(AssertRefs, fmt.Sprintf("%v", exp.Refs), err))
		}
	}
	if exp.Total != nil && *exp.Total != out.Total {
		errs = append(errs, fail(AssertTotal, fmt.Sprintf("%d", *exp.Total), fmt.Sprintf("%d", out.Total)))
	}
	return errs
}

// assertRefs returns a description of the mismatch, or "" when the refs
// match.
func assertRefs(expected, actual []string, anyOrder bool) string {
	if anyOrder {
		expected = sortedCopy(expected)
		actual = sortedCopy(actual)
	}
	if slices.Equal(expected, actual) {
		return ""
	}

	var missing, extra []string
	for _, ref := range expected {
		if !slices.Contains(actual, ref) {
			missing = append(missing, ref)
		}
	}
	for _, ref := range actual {
		if !slices.Contains(expected, ref) {
			extra = append(extra, ref)
		}
	}
	switch {
	case len(missing) == 0 && len(extra) == 0:
		return fmt.Sprintf("%v (same refs, different order)", actual)
	default:
		return fmt.Sprintf("%v (missing %v, unexpected %v)", actual, missing, extra)
	}
}

func sortedCopy(refs []string) []string {
	out := slices.Clone(refs)
	sort.Strings(out)
	return out
}
