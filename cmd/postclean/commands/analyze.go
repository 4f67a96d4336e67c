package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/postclean/internal/analyze"
	"github.com/jmylchreest/postclean/internal/output"
	"github.com/jmylchreest/postclean/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report the problems found in stored posts",
	Long: `Analyze scans every row of the configured table without changing it and
reports how many rows need cleaning, which issues were found and which
rows still carry residue such as inline CSS or unexpanded shortcodes.

Examples:
  # Summarize a SQLite export
  postclean analyze --dsn blog.db

  # List the first 20 problem rows as JSON
  postclean analyze --dsn blog.db --limit 20 --output json`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Int("limit", 10, "problem rows to list (0 lists all)")
	analyzeCmd.Flags().String("output", "", "print the full report in this format: json, jsonl, yaml")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	outFormat, _ := cmd.Flags().GetString("output")

	ctx, cancel := signalContext()
	defer cancel()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	rows, err := st.FetchRows(ctx)
	if err != nil {
		return err
	}
	summary := analyze.Rows(rows, limit)

	if outFormat != "" {
		return writeStructured(cmd, outFormat, summary)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, summary.String())
	if len(summary.Rows) > 0 {
		fmt.Fprintln(out, "Rows:")
		for _, r := range summary.Rows {
			fmt.Fprintln(out, "  "+r.String())
		}
	}
	return nil
}

// writeStructured writes v to the command output in the named format.
func writeStructured(cmd *cobra.Command, name string, v any) error {
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	w, err := output.NewWriter(cmd.OutOrStdout(), format, output.WithPretty(true))
	if err != nil {
		return err
	}
	if err := w.Write(v); err != nil {
		return err
	}
	return w.Close()
}
