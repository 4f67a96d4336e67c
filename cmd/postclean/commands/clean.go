package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/postclean/pkg/cleaner"
	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

// Output formats for the clean command.
const (
	formatHTML     = "html"
	formatText     = "text"
	formatMarkdown = "markdown"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file|-]",
	Short: "Clean a single post body",
	Long: `Clean reads one post body from a file, or from stdin when the file is
"-" or omitted, runs it through the cleaner and prints the result.

Examples:
  # Clean a file
  postclean clean post.html

  # Clean stdin and report what was fixed
  cat post.html | postclean clean --stats

  # Print a plain text excerpt
  postclean clean post.html --format text --excerpt 160

  # Clean, then re-sanitize with bluemonday and convert to markdown
  postclean clean post.html --policy ugc --format markdown`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().String("format", formatHTML, "output format: html, text, markdown")
	cleanCmd.Flags().Bool("stats", false, "print cleaning statistics to stderr")
	cleanCmd.Flags().Int("excerpt", 0, "limit text output to this many characters (text format only)")
	cleanCmd.Flags().String("policy", "", "re-sanitize the result with a bluemonday policy: ugc, strict")
	cleanCmd.Flags().Bool("strip-images", false, "drop images from markdown output")
	cleanCmd.Flags().Bool("strip-links", false, "keep only link text in markdown output")
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	showStats, _ := cmd.Flags().GetBool("stats")
	excerpt, _ := cmd.Flags().GetInt("excerpt")
	policy, _ := cmd.Flags().GetString("policy")
	stripImages, _ := cmd.Flags().GetBool("strip-images")
	stripLinks, _ := cmd.Flags().GetBool("strip-links")

	switch format {
	case formatHTML, formatText, formatMarkdown:
	default:
		return fmt.Errorf("unsupported format %q (want html, text or markdown)", format)
	}

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	input, err := readInput(path)
	if err != nil {
		return err
	}

	c := scrub.New(cfg.Scrub.Cleaner())
	result := c.CleanWithStats(input)
	if showStats {
		fmt.Fprintln(os.Stderr, result.Stats.String())
		for _, w := range result.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w.String())
		}
	}
	if result.Error != nil {
		return fmt.Errorf("content needs review: %w", result.Error)
	}

	var post []cleaner.Cleaner
	if policy != "" {
		post = append(post, cleaner.NewPolicy(policy))
	}
	if format == formatMarkdown {
		post = append(post, cleaner.NewMarkdown(
			cleaner.WithStripImages(stripImages),
			cleaner.WithStripLinks(stripLinks),
		))
	}

	out := result.Content
	if len(post) > 0 {
		out, err = cleaner.NewChain(post...).Clean(out)
		if err != nil {
			return err
		}
	}

	if format == formatText {
		if excerpt > 0 {
			out = scrub.Excerpt(out, excerpt)
		} else {
			out = scrub.Text(out)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}
