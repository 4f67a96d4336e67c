package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/postclean/internal/analyze"
	"github.com/jmylchreest/postclean/internal/store"
)

var errResidue = errors.New("rows still carry residue")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that cleaned posts carry no residue",
	Long: `Verify scans every row for markup the cleaner should have removed
(inline styles, CSS rules, keyframes, caption and gallery shortcodes) and
exits non-zero when any row still carries it. Run it after bulk.

Examples:
  postclean bulk --dsn blog.db && postclean verify --dsn blog.db`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Int("limit", 10, "rows with residue to list (0 lists all)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")

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

	summary := analyze.Rows(rows, 0)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checked %d rows, %d with residue\n", summary.Total, summary.WithResidue)
	if summary.WithResidue == 0 {
		return nil
	}

	listed := 0
	for _, r := range summary.Rows {
		if len(r.Residue) == 0 {
			continue
		}
		if limit > 0 && listed == limit {
			fmt.Fprintf(out, "  ... and %d more\n", summary.WithResidue-listed)
			break
		}
		fmt.Fprintln(out, "  "+r.String())
		listed++
	}
	return fmt.Errorf("%w: %d of %d", errResidue, summary.WithResidue, summary.Total)
}
