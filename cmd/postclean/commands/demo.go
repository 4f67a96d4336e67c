package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/postclean/internal/analyze"
	"github.com/jmylchreest/postclean/internal/samples"
	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

var demoCmd = &cobra.Command{
	Use:   "demo [sample]",
	Short: "Clean the built-in sample posts",
	Long: `Demo runs the built-in problem posts through the cleaner and shows each
one before and after, with the issues that were fixed.

Examples:
  postclean demo
  postclean demo "broken markup" --preset minimal`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	var list []samples.Sample
	if len(args) == 1 {
		s, ok := samples.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown sample %q", args[0])
		}
		list = []samples.Sample{s}
	} else {
		list, err = samples.All()
		if err != nil {
			return err
		}
	}

	c := scrub.New(cfg.Scrub.Cleaner())
	out := cmd.OutOrStdout()
	rule := strings.Repeat("=", 60)

	for _, s := range list {
		result := c.CleanWithStats(s.Content)

		fmt.Fprintf(out, "%s\n%s (preset %s)\n%s\n", rule, s.Name, cfg.Scrub.Preset, rule)
		fmt.Fprintf(out, "Before:\n%s\n\n", strings.TrimSpace(s.Content))
		if result.Error != nil {
			fmt.Fprintf(out, "After: needs review (%v)\n\n", result.Error)
			continue
		}
		fmt.Fprintf(out, "After:\n%s\n\n", result.Content)
		fmt.Fprintln(out, result.Stats.String())
		if residue := analyze.Residue(result.Content); len(residue) > 0 {
			fmt.Fprintf(out, "Residue: %s\n", strings.Join(residue, ", "))
		}
		fmt.Fprintln(out)
	}
	return nil
}
