package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/synthmerge/synthbench/internal/execx"
)

// recordingRunner captures the commands it is asked to run.
type recordingRunner struct {
	cmds []execx.Cmd
	err  error
}

func (r *recordingRunner) Run(_ context.Context, c execx.Cmd) (execx.Result, error) {
	r.cmds = append(r.cmds, c)
	return execx.Result{}, r.err
}

func TestSynthmergeResolve(t *testing.T) {
	runner := &recordingRunner{}
	s := &Synthmerge{
		ConfigPath: "all.yaml",
		Dir:        "/work/tree",
		Runner:     runner,
	}

	if err := s.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if len(runner.cmds) != 1 {
		t.Fatalf("ran %d commands, want 1", len(runner.cmds))
	}
	cmd := runner.cmds[0]
	if cmd.Program != DefaultCommand {
		t.Errorf("Program = %q, want %q", cmd.Program, DefaultCommand)
	}
	if len(cmd.Args) != 2 || cmd.Args[0] != "-c" || cmd.Args[1] != "all.yaml" {
		t.Errorf("Args = %v, want [-c all.yaml]", cmd.Args)
	}
	if cmd.Dir != "/work/tree" {
		t.Errorf("Dir = %q, want %q", cmd.Dir, "/work/tree")
	}
	if !cmd.Stream {
		t.Error("resolver output should be streamed, not captured")
	}
	if cmd.Policy != execx.MustSucceed {
		t.Error("resolver exit must be treated as fatal")
	}
}

func TestSynthmergeTimeout(t *testing.T) {
	// sh -c "sleep 5" stands in for a hung resolver.
	s := &Synthmerge{
		Command:    "sh",
		ConfigPath: "sleep 5",
		Timeout:    50 * time.Millisecond,
		Runner:     &execx.Local{},
	}

	start := time.Now()
	if err := s.Resolve(context.Background()); err == nil {
		t.Fatal("Resolve() succeeded, want timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Resolve() took %v, timeout did not kick in", elapsed)
	}
}

func TestEditorDisabled(t *testing.T) {
	runner := &recordingRunner{}
	e := &Editor{Runner: runner}

	if err := e.Open(context.Background(), "fs/io.c"); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if len(runner.cmds) != 0 {
		t.Errorf("disabled editor ran %d commands, want 0", len(runner.cmds))
	}
}

func TestEditorOpen(t *testing.T) {
	runner := &recordingRunner{}
	e := &Editor{Command: "emacsclient", Runner: runner}

	if err := e.Open(context.Background(), "fs/io.c"); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if len(runner.cmds) != 1 {
		t.Fatalf("ran %d commands, want 1", len(runner.cmds))
	}
	cmd := runner.cmds[0]
	if cmd.Program != "emacsclient" {
		t.Errorf("Program = %q, want emacsclient", cmd.Program)
	}
	if len(cmd.Args) != 1 || cmd.Args[0] != "fs/io.c" {
		t.Errorf("Args = %v, want [fs/io.c]", cmd.Args)
	}
	if cmd.Policy != execx.AllowFailure {
		t.Error("editor failures must be allowed")
	}
}
