// Package execx runs external commands with explicit success policies.
//
// The backtest drives two kinds of commands: ones that must succeed
// (checkout, status, diff, the resolver) and ones that are allowed to
// fail (cherry-pick producing conflicts, the editor). The policy is part
// of the command description so call sites never inspect exec.ExitError
// themselves.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Policy controls how a non-zero exit status is reported.
type Policy int

const (
	// MustSucceed treats a non-zero exit as an error (*CommandError).
	MustSucceed Policy = iota

	// AllowFailure treats a non-zero exit as a normal result; the exit
	// code is returned in Result and the error is nil.
	AllowFailure
)

// Cmd describes one external command invocation.
type Cmd struct {
	Program string
	Args    []string
	Dir     string   // working directory; empty means inherit
	Env     []string // environment; nil means inherit
	Policy  Policy

	// Stream sends the command's output to the current process's
	// stdout/stderr instead of capturing it into Result.
	Stream bool
}

// Result holds the observable outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandError reports a command that was required to succeed but did not.
type CommandError struct {
	Program string
	Args    []string
	Result  Result
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed: %s %s (exit %d)",
		e.Program, strings.Join(e.Args, " "), e.Result.ExitCode)
	if stderr := strings.TrimSpace(e.Result.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Runner executes commands. The single production implementation is
// Local; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, c Cmd) (Result, error)
}

// Local runs commands on the host via os/exec.
type Local struct {
	// Verbose echoes each command and its exit status to Log.
	Verbose bool

	// Log receives verbose output. Defaults to os.Stderr.
	Log io.Writer
}

// Run executes c and applies its policy.
//
// Errors other than a non-zero exit (program not found, context
// cancelled) are always returned, regardless of policy.
func (l *Local) Run(ctx context.Context, c Cmd) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env

	var stdout, stderr bytes.Buffer
	if c.Stream {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		// The command never ran (missing binary, cancelled context).
		l.logf("exec: %s %s: %v", c.Program, strings.Join(c.Args, " "), err)
		return res, fmt.Errorf("failed to run %s: %w", c.Program, err)
	}

	l.logf("exec: %s %s (exit %d)", c.Program, strings.Join(c.Args, " "), res.ExitCode)

	if res.ExitCode != 0 && c.Policy == MustSucceed {
		return res, &CommandError{Program: c.Program, Args: c.Args, Result: res}
	}
	return res, nil
}

func (l *Local) logf(format string, args ...any) {
	if !l.Verbose {
		return
	}
	w := l.Log
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format+"\n", args...)
}
