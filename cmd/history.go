package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/synthmerge/synthbench/internal/config"
	"github.com/synthmerge/synthbench/internal/state"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded backtest runs",
	Long: `List runs recorded with 'run --record', newest first. Use --run to
show the per-scenario verdicts of a single run.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int64("run", 0, "show the scenario results of one run")
	historyCmd.Flags().Bool("json", false, "output as JSON")
}

// runJSON is the JSON shape for one recorded run.
type runJSON struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	RepoPath   string    `json:"repo_path"`
	ConfigPath string    `json:"config_path"`
	Total      int       `json:"total"`
	NoConflict int       `json:"no_conflict"`
	Resolved   int       `json:"resolved"`
	Failed     int       `json:"failed"`
}

// resultJSON is the JSON shape for one stored scenario outcome.
type resultJSON struct {
	Commit   string `json:"commit"`
	Upstream string `json:"upstream"`
	Verdict  string `json:"verdict"`
}

// runDetailJSON is the JSON shape for a run with its results.
type runDetailJSON struct {
	Run     runJSON      `json:"run"`
	Results []resultJSON `json:"results"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetInt64("run")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	db, err := state.Open(cfg.StateDB)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer db.Close()

	if runID != 0 {
		return showRun(cmd, db, runID, asJSON)
	}

	runs, err := db.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if asJSON {
		out := make([]runJSON, 0, len(runs))
		for _, run := range runs {
			out = append(out, toRunJSON(run))
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tTOTAL\tNO CONFLICT\tRESOLVED\tFAILED\tRATE")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Summary.Total,
			run.Summary.NoConflict,
			run.Summary.Resolved,
			run.Summary.Failed,
			formatRate(run),
		)
	}
	return w.Flush()
}

func formatRate(run *state.Run) string {
	rate, ok := run.SuccessRate()
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", rate)
}

func toRunJSON(run *state.Run) runJSON {
	return runJSON{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		RepoPath:   run.RepoPath,
		ConfigPath: run.ConfigPath,
		Total:      run.Summary.Total,
		NoConflict: run.Summary.NoConflict,
		Resolved:   run.Summary.Resolved,
		Failed:     run.Summary.Failed,
	}
}

// showRun prints the per-scenario verdicts of one recorded run.
func showRun(cmd *cobra.Command, db *state.DB, runID int64, asJSON bool) error {
	run, err := db.GetRun(runID)
	if err != nil {
		return err
	}
	results, err := db.ListResults(runID)
	if err != nil {
		return err
	}

	if asJSON {
		out := runDetailJSON{Run: toRunJSON(run)}
		for _, res := range results {
			out.Results = append(out.Results, resultJSON{
				Commit:   res.Scenario.Commit,
				Upstream: res.Scenario.Upstream,
				Verdict:  res.Verdict.String(),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMMIT\tUPSTREAM\tVERDICT")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.Scenario.Commit, res.Scenario.Upstream, res.Verdict)
	}
	return w.Flush()
}
