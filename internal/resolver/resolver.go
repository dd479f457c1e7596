// Package resolver invokes the external synthmerge binary and the
// optional editor used for manual inspection of resolutions.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/synthmerge/synthbench/internal/execx"
)

// DefaultCommand is the resolver binary looked up on PATH when the
// config does not name one.
const DefaultCommand = "synthmerge"

// Synthmerge runs the resolver under test against a working tree that
// has unresolved conflicts.
type Synthmerge struct {
	Command    string
	ConfigPath string
	Dir        string

	// Timeout bounds one resolver invocation. Zero means no limit.
	Timeout time.Duration

	Runner execx.Runner
}

// Resolve invokes the resolver as `<command> -c <config>`. Its output
// goes straight to the terminal rather than being captured; the
// backtest judges the result by diffing the tree, not by parsing
// resolver output. A non-zero exit is fatal for the current scenario.
func (s *Synthmerge) Resolve(ctx context.Context) error {
	command := s.Command
	if command == "" {
		command = DefaultCommand
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	_, err := s.Runner.Run(ctx, execx.Cmd{
		Program: command,
		Args:    []string{"-c", s.ConfigPath},
		Dir:     s.Dir,
		Policy:  execx.MustSucceed,
		Stream:  true,
	})
	if err != nil {
		return fmt.Errorf("resolver failed: %w", err)
	}
	return nil
}

// Editor opens files for manual inspection after the resolver has run.
// An empty command disables it.
type Editor struct {
	Command string
	Dir     string
	Runner  execx.Runner
}

// Open invokes the editor with a single file path. Editor failures
// never fail a scenario; the first error is returned for logging only.
func (e *Editor) Open(ctx context.Context, path string) error {
	if e.Command == "" {
		return nil
	}
	_, err := e.Runner.Run(ctx, execx.Cmd{
		Program: e.Command,
		Args:    []string{path},
		Dir:     e.Dir,
		Policy:  execx.AllowFailure,
		Stream:  true,
	})
	return err
}
