package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when a step does not match its expectations.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Expectation that failed, or "replay"
	Step     int    // 1-indexed; 0 for scenario-level checks
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	if e.Step > 0 {
		fmt.Fprintf(&buf, "Assertion failed: step %d: %s\n", e.Step, e.Type)
	} else {
		fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// checkStep compares a step's outcome with its expectations.
//
// A step without expect_error must not fail. The remaining expectations
// are only checked when set.
func checkStep(step Step, event TraceEvent) []*AssertionError {
	var errs []*AssertionError
	fail := func(kind, expected, actual string) {
		errs = append(errs, &AssertionError{
			Type:     kind,
			Step:     event.Step,
			Expected: expected,
			Actual:   actual,
		})
	}

	if event.Error != step.ExpectError {
		fail("expect_error", orNone(step.ExpectError), orNone(event.Error))
		return errs
	}

	if step.ExpectAccepted != nil && (event.Accepted == nil || *event.Accepted != *step.ExpectAccepted) {
		fail("expect_accepted", fmt.Sprint(*step.ExpectAccepted), intOrNone(event.Accepted))
	}

	if step.ExpectToken != nil && (event.Token == nil || *event.Token != *step.ExpectToken) {
		fail("expect_token", fmt.Sprint(*step.ExpectToken), intOrNone(event.Token))
	}

	if step.ExpectCommits != nil && !slices.Equal(step.ExpectCommits, event.Commits) {
		fail("expect_commits", fmt.Sprint(step.ExpectCommits), fmt.Sprint(event.Commits))
	}

	if step.ExpectBase != nil && *step.ExpectBase != event.Base {
		fail("expect_base", *step.ExpectBase, orNone(event.Base))
	}

	if step.ExpectChanges != nil {
		want := make([]string, len(step.ExpectChanges))
		for i, ch := range step.ExpectChanges {
			want[i] = changeKey(ch.entry())
		}
		slices.Sort(want)
		if !slices.Equal(want, event.Changes) {
			fail("expect_changes", fmt.Sprint(want), fmt.Sprint(event.Changes))
		}
	}

	if step.ExpectFound != nil && (event.Found == nil || *event.Found != *step.ExpectFound) {
		actual := "none"
		if event.Found != nil {
			actual = fmt.Sprint(*event.Found)
		}
		fail("expect_found", fmt.Sprint(*step.ExpectFound), actual)
	}

	if step.Op == OpGetObject && step.Data != "" && event.Data != step.Data {
		fail("data", step.Data, orNone(event.Data))
	}

	return errs
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func intOrNone(n *int) string {
	if n == nil {
		return "none"
	}
	return fmt.Sprint(*n)
}
