package backtest

import (
	"fmt"
	"io"
	"strings"

	"github.com/synthmerge/synthbench/internal/logparse"
)

const separatorWidth = 60

// Reporter writes line-oriented progress and the final summary. A nil
// Reporter discards everything, so callers never need to guard.
type Reporter struct {
	W io.Writer
}

func (r *Reporter) printf(format string, args ...any) {
	if r == nil || r.W == nil {
		return
	}
	fmt.Fprintf(r.W, format, args...)
}

// Found announces how many scenarios the log yielded.
func (r *Reporter) Found(n int) {
	r.printf("Found %d conflict commits to test\n", n)
	r.printf("%s\n", strings.Repeat("=", separatorWidth))
}

// Scenario announces the scenario about to be tested.
func (r *Reporter) Scenario(sc logparse.Scenario) {
	r.printf("\nTesting commit %s with upstream %s\n", sc.Commit, sc.Upstream)
}

// Outcome reports one finished scenario.
func (r *Reporter) Outcome(out Outcome) {
	commit := out.Scenario.Commit
	switch {
	case out.Verdict == VerdictNoConflict:
		r.printf("✗ No conflicts found for %s - skipping\n", commit)
	case out.Verdict == VerdictResolved:
		r.printf("✓ Successfully resolved conflict for %s\n", commit)
	case out.Err != nil:
		r.printf("✗ Error testing commit %s: %v\n", commit, out.Err)
	default:
		r.printf("✗ Failed to resolve conflict for %s\n", commit)
		r.printf("Difference from original commit:\n%s\n", out.Diagnostic)
	}
}

// Summary prints the final result block.
func (r *Reporter) Summary(s Summary) {
	r.printf("\n%s\n", strings.Repeat("=", separatorWidth))
	r.printf("Test Results:\n")
	r.printf("Total tests: %d\n", s.Total)
	r.printf("No conflicts found: %d\n", s.NoConflict)
	r.printf("Successful resolutions: %d\n", s.Resolved)
	r.printf("Failed resolutions: %d\n", s.Failed)
	if rate, ok := s.SuccessRate(); ok {
		r.printf("Success rate: %.1f%%\n", rate)
	} else {
		r.printf("Success rate: N/A\n")
	}
}
