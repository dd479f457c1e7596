// Package backtest replays historical conflict scenarios against the
// external resolver and classifies the outcomes.
package backtest

import (
	"context"
	"fmt"
	"strings"

	"github.com/synthmerge/synthbench/internal/gitx"
	"github.com/synthmerge/synthbench/internal/logparse"
)

// Verdict classifies one tested scenario.
type Verdict int

const (
	// VerdictNoConflict means the replay applied cleanly, so the
	// scenario exercises nothing and is excluded from the success rate.
	VerdictNoConflict Verdict = iota

	// VerdictResolved means the resolver reproduced the original
	// resolution exactly.
	VerdictResolved

	// VerdictFailed means the resolver's result differed from the
	// original commit, or a required command failed.
	VerdictFailed
)

// String returns the verdict name as used in reports and the state DB.
func (v Verdict) String() string {
	switch v {
	case VerdictNoConflict:
		return "no_conflict"
	case VerdictResolved:
		return "resolved"
	case VerdictFailed:
		return "failed"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// ParseVerdict is the inverse of Verdict.String.
func ParseVerdict(s string) (Verdict, error) {
	switch s {
	case "no_conflict":
		return VerdictNoConflict, nil
	case "resolved":
		return VerdictResolved, nil
	case "failed":
		return VerdictFailed, nil
	default:
		return 0, fmt.Errorf("unknown verdict %q", s)
	}
}

// Outcome is the result of testing one scenario.
type Outcome struct {
	Scenario logparse.Scenario
	Verdict  Verdict

	// Diagnostic holds the diff against the original commit when the
	// resolution did not match, or the error text when a required
	// command failed.
	Diagnostic string

	// Err is set when the failure came from a command rather than a
	// mismatched resolution.
	Err error
}

// Repo is the working tree the scenarios are replayed in. Replaying
// mutates the tree, so scenarios must run one at a time.
type Repo interface {
	CheckoutParentOf(ctx context.Context, commit string) error
	AbortReplay(ctx context.Context) error
	Replay(ctx context.Context, upstream string) (clean bool, err error)
	Status(ctx context.Context) ([]gitx.StatusEntry, error)
	DiffAgainst(ctx context.Context, commit string) (string, error)
}

// Resolver attempts to resolve the conflicts left in the working tree.
type Resolver interface {
	Resolve(ctx context.Context) error
}

// Inspector optionally opens a resolved file for manual review.
type Inspector interface {
	Open(ctx context.Context, path string) error
}

// Runner replays scenarios serially against a single working tree.
type Runner struct {
	Repo     Repo
	Resolver Resolver

	// Editor may be nil; inspection failures never fail a scenario.
	Editor Inspector

	// Report receives progress output. May be nil.
	Report *Reporter
}

// Test replays one scenario and classifies the result.
//
// Failures of required commands are caught here and downgraded to a
// Failed outcome with the error text as diagnostic; they never abort
// the overall run.
func (r *Runner) Test(ctx context.Context, sc logparse.Scenario) Outcome {
	out, err := r.test(ctx, sc)
	if err != nil {
		return Outcome{
			Scenario:   sc,
			Verdict:    VerdictFailed,
			Diagnostic: err.Error(),
			Err:        err,
		}
	}
	return out
}

func (r *Runner) test(ctx context.Context, sc logparse.Scenario) (Outcome, error) {
	out := Outcome{Scenario: sc}

	// A previous scenario may have left a cherry-pick in progress.
	if err := r.Repo.AbortReplay(ctx); err != nil {
		return out, err
	}

	if err := r.Repo.CheckoutParentOf(ctx, sc.Commit); err != nil {
		return out, err
	}

	// Conflicts are the desired trigger condition, so the replay result
	// itself is not checked; the working tree status decides.
	if _, err := r.Repo.Replay(ctx, sc.Upstream); err != nil {
		return out, err
	}

	entries, err := r.Repo.Status(ctx)
	if err != nil {
		return out, err
	}
	unmerged := gitx.UnmergedPaths(entries)
	if len(unmerged) == 0 {
		out.Verdict = VerdictNoConflict
		return out, nil
	}

	if err := r.Resolver.Resolve(ctx); err != nil {
		return out, err
	}

	if r.Editor != nil {
		// Best effort; the run continues whatever the editor does.
		_ = r.Editor.Open(ctx, unmerged[0])
	}

	diff, err := r.Repo.DiffAgainst(ctx, sc.Commit)
	if err != nil {
		return out, err
	}
	if strings.TrimSpace(diff) == "" {
		out.Verdict = VerdictResolved
		return out, nil
	}

	out.Verdict = VerdictFailed
	out.Diagnostic = diff
	return out, nil
}

// RunAll tests every scenario in order and returns the outcomes with
// their summary. Progress is written to the Reporter as the run goes.
func (r *Runner) RunAll(ctx context.Context, scenarios []logparse.Scenario) ([]Outcome, Summary) {
	outcomes := make([]Outcome, 0, len(scenarios))
	for _, sc := range scenarios {
		r.Report.Scenario(sc)
		out := r.Test(ctx, sc)
		r.Report.Outcome(out)
		outcomes = append(outcomes, out)
	}
	return outcomes, Summarize(outcomes)
}

// Summary aggregates outcome counts for one run.
type Summary struct {
	Total      int
	NoConflict int
	Resolved   int
	Failed     int
}

// Summarize folds outcomes into counts. Total always equals
// NoConflict + Resolved + Failed.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, out := range outcomes {
		s.Total++
		switch out.Verdict {
		case VerdictNoConflict:
			s.NoConflict++
		case VerdictResolved:
			s.Resolved++
		case VerdictFailed:
			s.Failed++
		}
	}
	return s
}

// SuccessRate returns the percentage of conflicting scenarios the
// resolver reproduced exactly. ok is false when no scenario actually
// conflicted, leaving the rate undefined.
func (s Summary) SuccessRate() (rate float64, ok bool) {
	denom := s.Total - s.NoConflict
	if denom <= 0 {
		return 0, false
	}
	return float64(s.Resolved) / float64(denom) * 100, true
}
