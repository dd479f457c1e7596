package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/synthmerge/synthbench/internal/logparse"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Show the scenarios a git log would produce",
	Long: `Parse git log output from stdin (or --log-file) and print the
conflict scenarios without touching the working tree. Useful for
checking a log slice before committing to a full backtest run.`,
	Args: cobra.NoArgs,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().String("log-file", "", "read the git log from a file instead of stdin")
	parseCmd.Flags().Bool("json", false, "output as JSON")
}

func runParse(cmd *cobra.Command, args []string) error {
	logFile, _ := cmd.Flags().GetString("log-file")
	asJSON, _ := cmd.Flags().GetBool("json")

	logText, err := readLog(cmd, logFile)
	if err != nil {
		return err
	}

	scenarios := logparse.Parse(logText)

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(scenarios)
	}

	if len(scenarios) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conflict commits found in git log output")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMMIT\tUPSTREAM")
	for _, sc := range scenarios {
		fmt.Fprintf(w, "%s\t%s\n", sc.Commit, sc.Upstream)
	}
	return w.Flush()
}
