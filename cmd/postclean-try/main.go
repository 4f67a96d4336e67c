// postclean-try is a standalone CLI tool for trying the cleaner on a single
// post, a saved page or a live URL.
//
// Usage:
//
//	postclean-try [options] <url-or-file>
//
// Examples:
//
//	# Clean a published post and show stats
//	postclean-try https://example.com/2019/05/reading-tips/
//
//	# Clean a post from the WordPress REST API
//	postclean-try https://example.com/wp-json/wp/v2/posts/42
//
//	# Clean from file with the legacy preset
//	postclean-try -preset legacy -f post.html
//
//	# Render a JavaScript-built page first
//	postclean-try -dynamic -selector .post-body https://example.com/post
//
//	# Compare every preset
//	postclean-try -compare -f post.html
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jmylchreest/postclean/internal/analyze"
	"github.com/jmylchreest/postclean/pkg/cleaner"
	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
	"github.com/jmylchreest/postclean/pkg/fetcher"
)

var (
	// Input options
	fileInput = flag.String("f", "", "Read HTML from file instead of URL")
	selector  = flag.String("selector", "", "CSS selector of the post body on fetched pages")
	timeout   = flag.Duration("timeout", 30*time.Second, "Fetch timeout")
	dynamic   = flag.Bool("dynamic", false, "Render URLs in headless Chrome before extracting the post")

	// Config options
	preset       = flag.String("preset", "", "Use preset: default, minimal, legacy")
	placeholder  = flag.String("placeholder", "", "Text returned when nothing survives cleaning")
	policy       = flag.String("policy", "", "Re-sanitize with a bluemonday policy: ugc, strict")
	outputFormat = flag.String("format", "html", "Output format: html, text, markdown")

	// Output options
	outputFile = flag.String("o", "", "Write cleaned output to file")
	statsOnly  = flag.Bool("stats-only", false, "Only show stats, don't output content")
	jsonStats  = flag.Bool("json", false, "Output stats as JSON")
	verbose    = flag.Bool("v", false, "Verbose output (show warnings)")
	quiet      = flag.Bool("q", false, "Quiet mode (no stats, only content)")

	// Compare mode
	compare = flag.Bool("compare", false, "Compare different presets")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "postclean-try - Try the postclean cleaner on one post\n\n")
		fmt.Fprintf(os.Stderr, "Usage: postclean-try [options] <url-or-file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  postclean-try https://example.com/2019/05/reading-tips/\n")
		fmt.Fprintf(os.Stderr, "  postclean-try https://example.com/wp-json/wp/v2/posts/42\n")
		fmt.Fprintf(os.Stderr, "  postclean-try -preset legacy -f post.html\n")
		fmt.Fprintf(os.Stderr, "  postclean-try -compare -f post.html\n")
	}

	flag.Parse()

	html, source, err := readSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if strings.TrimSpace(html) == "" {
		fmt.Fprintf(os.Stderr, "Error: empty input\n")
		os.Exit(1)
	}

	if *compare {
		runComparison(html, source)
		return
	}

	cfg := buildConfig()
	result := scrub.New(cfg).CleanWithStats(html)

	if !*quiet {
		if *jsonStats {
			outputJSONStats(result, source)
		} else {
			outputTextStats(result, source)
		}
	}

	if *verbose && result.HasWarnings() {
		fmt.Fprintf(os.Stderr, "\nWarnings:\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "  %s\n", w.String())
		}
	}

	if result.Error != nil {
		fmt.Fprintf(os.Stderr, "Error: content needs review: %v\n", result.Error)
		os.Exit(2)
	}

	content, err := render(result.Content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *statsOnly {
		return
	}
	switch {
	case *outputFile != "":
		if err := os.WriteFile(*outputFile, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "\nWritten to %s\n", *outputFile)
		}
	case !*quiet:
		fmt.Println("\n--- Cleaned Content ---")
		fmt.Println(content)
	default:
		fmt.Println(content)
	}
}

// readSource reads the -f file, the positional URL or file, or stdin.
func readSource() (html, source string, err error) {
	switch {
	case *fileInput != "":
		html, err = readFile(*fileInput)
		return html, *fileInput, err
	case flag.NArg() > 0:
		target := flag.Arg(0)
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			html, err = fetchURL(target)
			return html, target, err
		}
		html, err = readFile(target)
		return html, target, err
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
}

func buildConfig() *scrub.Config {
	cfg := scrub.Preset(*preset)
	if cfg == nil {
		cfg = scrub.DefaultConfig()
	}
	if *placeholder != "" {
		cfg.EmptyPlaceholder = *placeholder
	}
	return cfg
}

// render applies the optional policy pass and output format.
func render(content string) (string, error) {
	var post []cleaner.Cleaner
	if *policy != "" {
		post = append(post, cleaner.NewPolicy(*policy))
	}
	if *outputFormat == "markdown" {
		post = append(post, cleaner.NewMarkdown())
	}
	if len(post) > 0 {
		var err error
		if content, err = cleaner.NewChain(post...).Clean(content); err != nil {
			return "", err
		}
	}
	if *outputFormat == "text" {
		content = scrub.Text(content)
	}
	return content, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file %s: %w", path, err)
	}
	return string(data), nil
}

func fetchURL(url string) (string, error) {
	var f fetcher.Fetcher = fetcher.NewStatic(fetcher.StaticConfig{Timeout: *timeout})
	if *dynamic {
		d, err := fetcher.NewDynamic(fetcher.DynamicConfig{Timeout: *timeout, WaitFor: *selector})
		if err != nil {
			return "", err
		}
		f = d
	}
	defer func() { _ = f.Close() }()

	content, err := f.Fetch(context.Background(), url, fetcher.Options{
		Selector: *selector,
		Headers:  map[string]string{"Accept": "text/html,application/xhtml+xml,application/json"},
	})
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	if !*quiet && content.Title != "" {
		fmt.Fprintf(os.Stderr, "Fetched %q (%s)\n", content.Title, content.Source)
	}
	return content.Body, nil
}

func outputTextStats(result *scrub.Result, source string) {
	fmt.Fprintf(os.Stderr, "\n=== Postclean Stats ===\n")
	fmt.Fprintf(os.Stderr, "Source: %s\n", source)
	fmt.Fprintf(os.Stderr, "%s\n", result.Stats.String())
	if residue := analyze.Residue(result.Content); len(residue) > 0 {
		fmt.Fprintf(os.Stderr, "Residue: %s\n", strings.Join(residue, ", "))
	}
}

func outputJSONStats(result *scrub.Result, source string) {
	stats := struct {
		Source  string       `json:"source"`
		Stats   *scrub.Stats `json:"stats"`
		Reduced float64      `json:"reduction_percent"`
		Residue []string     `json:"residue,omitempty"`
		Error   string       `json:"error,omitempty"`
	}{
		Source:  source,
		Stats:   result.Stats,
		Reduced: result.Stats.ReductionPercent(),
		Residue: analyze.Residue(result.Content),
	}
	if result.Error != nil {
		stats.Error = result.Error.Error()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(stats)
}

func runComparison(html string, source string) {
	fmt.Printf("\n=== Preset Comparison for %s ===\n", source)
	fmt.Printf("Input size: %d bytes\n\n", len(html))
	fmt.Printf("%-10s %10s %8s %8s %8s %10s\n", "Preset", "Output", "Issues", "Reduce%", "Passes", "Time")
	fmt.Printf("%-10s %10s %8s %8s %8s %10s\n", "------", "------", "------", "-------", "------", "----")

	// unmodified input as the baseline
	baseline, _ := cleaner.NewNoop().Clean(html)
	fmt.Printf("%-10s %10d %8d %7.1f%% %8d %10v\n", "none", len(baseline), 0, 0.0, 0, time.Duration(0))

	for _, name := range scrub.PresetNames() {
		result := scrub.New(scrub.Preset(name)).CleanWithStats(html)
		status := ""
		if result.Error != nil {
			status = "  needs review"
		}
		fmt.Printf("%-10s %10d %8d %7.1f%% %8d %10v%s\n",
			name,
			result.Stats.OutputBytes,
			result.Stats.TotalIssues(),
			result.Stats.ReductionPercent(),
			result.Stats.Passes,
			result.Stats.Duration.Round(time.Microsecond),
			status)
	}

	fmt.Println()
}
