package harness

import (
	"fmt"
	"slices"

	"github.com/link-foundation/link-cli/internal/store"
)

// EvaluateAssertions checks every assertion against st and returns one
// message per failure.
func EvaluateAssertions(st *store.Store, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(st, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s failed: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

func evaluate(st *store.Store, a Assertion) error {
	switch a.Type {
	case AssertLinksEqual:
		return assertLinksEqual(st, a)
	case AssertLinkExists:
		return assertLinkExists(st, a)
	case AssertNameIs:
		return assertNameIs(st, a)
	case AssertCount:
		return assertCount(st, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func formattedLinks(st *store.Store) []string {
	all := st.All()
	out := make([]string, 0, len(all))
	for _, d := range all {
		out = append(out, st.FormatDoublet(d))
	}
	return out
}

func assertLinksEqual(st *store.Store, a Assertion) error {
	got := formattedLinks(st)
	want := a.Links
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(want, got) {
		return &AssertionError{
			Type:     AssertLinksEqual,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertLinkExists(st *store.Store, a Assertion) error {
	got := formattedLinks(st)
	if !slices.Contains(got, a.Link) {
		return &AssertionError{
			Type:     AssertLinkExists,
			Expected: a.Link,
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertNameIs(st *store.Store, a Assertion) error {
	index, ok := st.Lookup(a.Name)
	if !ok {
		return &AssertionError{
			Type:     AssertNameIs,
			Expected: fmt.Sprintf("%q at %d", a.Name, a.Index),
			Actual:   "no such name",
		}
	}
	if index != a.Index {
		return &AssertionError{
			Type:     AssertNameIs,
			Expected: fmt.Sprintf("%q at %d", a.Name, a.Index),
			Actual:   fmt.Sprintf("%q at %d", a.Name, index),
		}
	}
	return nil
}

func assertCount(st *store.Store, a Assertion) error {
	if got := st.Count(); got != *a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d doublets", *a.Count),
			Actual:   fmt.Sprintf("%d doublets", got),
		}
	}
	return nil
}
