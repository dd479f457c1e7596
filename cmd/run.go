package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/synthmerge/synthbench/internal/backtest"
	"github.com/synthmerge/synthbench/internal/config"
	"github.com/synthmerge/synthbench/internal/execx"
	"github.com/synthmerge/synthbench/internal/gitx"
	"github.com/synthmerge/synthbench/internal/logparse"
	"github.com/synthmerge/synthbench/internal/resolver"
	"github.com/synthmerge/synthbench/internal/state"
)

var runCmd = &cobra.Command{
	Use:   "run CONFIG_FILE",
	Short: "Replay conflict scenarios and test the resolver",
	Long: `Run the backtest. The git log is read from stdin (or --log-file),
scenarios are replayed one at a time in the working tree, and the
resolver named in the project config (synthmerge by default) is invoked
with the given CONFIG_FILE for every scenario that actually conflicts.

Replaying checks out and cherry-picks in the working tree, so point
--repo at a tree you do not mind being rewound. The command exits zero
after printing the summary even when resolutions failed; failures are
reported, not signaled.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("repo", "", "git working tree to replay in (default: current directory)")
	runCmd.Flags().String("log-file", "", "read the git log from a file instead of stdin")
	runCmd.Flags().String("resolver", "", "resolver command (default: synthmerge)")
	runCmd.Flags().String("editor", "", "open the first unmerged file of each scenario with this command")
	runCmd.Flags().Duration("timeout", 0, "time limit per resolver invocation (0 = none)")
	runCmd.Flags().Bool("record", false, "record the run in the state database")
	runCmd.Flags().Bool("skip-checks", false, "skip the merge.conflictStyle preflight check")
}

// readLog reads the entire git log text from the file or from stdin.
func readLog(cmd *cobra.Command, logFile string) (string, error) {
	if logFile != "" {
		data, err := os.ReadFile(logFile)
		if err != nil {
			return "", fmt.Errorf("failed to read log file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read git log from stdin: %w", err)
	}
	return string(data), nil
}

func runRun(cmd *cobra.Command, args []string) error {
	resolverConfig := args[0]
	ctx := cmd.Context()

	repoDir, _ := cmd.Flags().GetString("repo")
	if repoDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		repoDir = cwd
	}
	logFile, _ := cmd.Flags().GetString("log-file")
	record, _ := cmd.Flags().GetBool("record")
	skipChecks, _ := cmd.Flags().GetBool("skip-checks")

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	// Flags win over the project config.
	resolverCmd := cfg.Resolver.Command
	if cmd.Flags().Changed("resolver") {
		resolverCmd, _ = cmd.Flags().GetString("resolver")
	}
	editorCmd := cfg.Editor
	if cmd.Flags().Changed("editor") {
		editorCmd, _ = cmd.Flags().GetString("editor")
	}
	timeout := time.Duration(cfg.Resolver.Timeout)
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if !cmd.Flags().Changed("record") {
		record = cfg.Record
	}

	logText, err := readLog(cmd, logFile)
	if err != nil {
		return err
	}

	scenarios := logparse.Parse(logText)
	if len(scenarios) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conflict commits found in git log output")
		return nil
	}

	local := &execx.Local{Verbose: verbose, Log: cmd.ErrOrStderr()}

	repo, err := gitx.Open(ctx, repoDir, local)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	if !skipChecks {
		if err := repo.CheckConflictStyle(ctx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}

	report := &backtest.Reporter{W: cmd.OutOrStdout()}
	runner := &backtest.Runner{
		Repo: repo,
		Resolver: &resolver.Synthmerge{
			Command:    resolverCmd,
			ConfigPath: resolverConfig,
			Dir:        repoDir,
			Timeout:    timeout,
			Runner:     local,
		},
		Report: report,
	}
	if editorCmd != "" {
		runner.Editor = &resolver.Editor{Command: editorCmd, Dir: repoDir, Runner: local}
	}

	report.Found(len(scenarios))
	started := time.Now()
	outcomes, summary := runner.RunAll(ctx, scenarios)
	finished := time.Now()

	report.Summary(summary)

	if record {
		db, err := state.Open(cfg.StateDB)
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		defer db.Close()

		run := &state.Run{
			StartedAt:  started,
			FinishedAt: finished,
			RepoPath:   repo.Dir(),
			ConfigPath: resolverConfig,
			Summary:    summary,
		}
		if _, err := db.RecordRun(run, outcomes); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded as run %d\n", run.ID)
	}

	// Scenario failures are reported in the summary, not via exit code.
	return nil
}
