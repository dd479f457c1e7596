// Package gitx drives a git working tree for conflict replay.
// It calls the git CLI via execx rather than using git libraries.
package gitx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/synthmerge/synthbench/internal/execx"
)

var (
	// ErrNotGitRepo is returned when the directory is not inside a git work tree.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrConflictStyle is returned when merge.conflictStyle is not diff3.
	ErrConflictStyle = errors.New("merge.conflictStyle is not set to diff3")
)

// StatusEntry is one line of porcelain status output: the two-character
// XY state code and the path it applies to.
type StatusEntry struct {
	State string
	Path  string
}

// Unmerged reports whether the entry is unresolved by both sides.
func (e StatusEntry) Unmerged() bool {
	return e.State == "UU"
}

// Repo is a handle on a git working tree. Replaying a scenario mutates
// the tree and index, so a Repo must never be shared between
// concurrently running scenarios.
type Repo struct {
	dir string
	run execx.Runner
	env []string
}

// cleanGitEnv returns the process environment without GIT_* variables,
// which could redirect git at a different work tree (e.g. when the
// backtest itself runs from inside a git hook).
func cleanGitEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "GIT_") {
			env = append(env, e)
		}
	}
	return env
}

// Open returns a Repo for dir after verifying it is inside a git work
// tree. If dir is empty, the current working directory is used.
func Open(ctx context.Context, dir string, runner execx.Runner) (*Repo, error) {
	r := &Repo{dir: dir, run: runner, env: cleanGitEnv()}

	res, err := runner.Run(ctx, execx.Cmd{
		Program: "git",
		Args:    []string{"rev-parse", "--is-inside-work-tree"},
		Dir:     dir,
		Env:     r.env,
		Policy:  execx.AllowFailure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check work tree: %w", err)
	}
	if res.ExitCode != 0 || strings.TrimSpace(res.Stdout) != "true" {
		return nil, ErrNotGitRepo
	}

	return r, nil
}

// Dir returns the directory the repo was opened at.
func (r *Repo) Dir() string {
	return r.dir
}

func (r *Repo) git(ctx context.Context, policy execx.Policy, args ...string) (execx.Result, error) {
	return r.run.Run(ctx, execx.Cmd{
		Program: "git",
		Args:    args,
		Dir:     r.dir,
		Env:     r.env,
		Policy:  policy,
	})
}

// CheckoutParentOf force-checks-out the first parent of commit,
// discarding any local modifications.
func (r *Repo) CheckoutParentOf(ctx context.Context, commit string) error {
	if _, err := r.git(ctx, execx.MustSucceed, "checkout", "-f", commit+"~"); err != nil {
		return fmt.Errorf("failed to checkout parent of %s: %w", commit, err)
	}
	return nil
}

// AbortReplay abandons any in-progress cherry-pick. Replaying a
// scenario can leave CHERRY_PICK_HEAD behind, which would make the next
// replay refuse to start; aborting when nothing is in progress is fine.
func (r *Repo) AbortReplay(ctx context.Context) error {
	_, err := r.git(ctx, execx.AllowFailure, "cherry-pick", "--abort")
	return err
}

// Replay cherry-picks the upstream commit onto the current checkout and
// reports whether it applied cleanly. A conflicted cherry-pick is a
// normal outcome, not an error; the error is non-nil only when git
// could not run at all.
func (r *Repo) Replay(ctx context.Context, upstream string) (clean bool, err error) {
	res, err := r.git(ctx, execx.AllowFailure, "cherry-pick", "-x", upstream)
	if err != nil {
		return false, fmt.Errorf("failed to cherry-pick %s: %w", upstream, err)
	}
	return res.ExitCode == 0, nil
}

// Status returns the porcelain status of the working tree.
func (r *Repo) Status(ctx context.Context) ([]StatusEntry, error) {
	res, err := r.git(ctx, execx.MustSucceed, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return parseStatus(res.Stdout), nil
}

// parseStatus parses porcelain v1 output: a two-character XY code, a
// space, then the path.
func parseStatus(out string) []StatusEntry {
	var entries []StatusEntry
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		entries = append(entries, StatusEntry{
			State: line[:2],
			Path:  strings.TrimSpace(line[3:]),
		})
	}
	return entries
}

// UnmergedPaths returns the paths of all UU entries, in status order.
func UnmergedPaths(entries []StatusEntry) []string {
	var paths []string
	for _, e := range entries {
		if e.Unmerged() {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// DiffAgainst returns the diff between the working tree and commit.
// An empty result means the trees are identical.
func (r *Repo) DiffAgainst(ctx context.Context, commit string) (string, error) {
	res, err := r.git(ctx, execx.MustSucceed, "diff", commit)
	if err != nil {
		return "", fmt.Errorf("failed to diff against %s: %w", commit, err)
	}
	return res.Stdout, nil
}

// CheckConflictStyle verifies that merge.conflictStyle is diff3, which
// the resolver needs to see the base version inside conflict markers.
func (r *Repo) CheckConflictStyle(ctx context.Context) error {
	res, err := r.git(ctx, execx.AllowFailure, "config", "--get", "merge.conflictStyle")
	if err != nil {
		return fmt.Errorf("failed to get merge.conflictStyle: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: not configured", ErrConflictStyle)
	}
	if style := strings.TrimSpace(res.Stdout); style != "diff3" {
		return fmt.Errorf("%w: set to %q", ErrConflictStyle, style)
	}
	return nil
}
