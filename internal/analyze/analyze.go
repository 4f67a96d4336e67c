// Package analyze inspects stored post bodies for legacy markup before and
// after a bulk clean.
package analyze

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

// Issue categories reported by Scan.
const (
	IssueEntities     = "entities"
	IssueShortcodes   = "shortcodes"
	IssueBlockMarkers = "block_markers"
	IssueUnsafeTags   = "unsafe_tags"
	IssueInlineStyles = "inline_styles"
	IssueCSSResidue   = "css_residue"
	IssueComments     = "comments"
	IssueUnwrapped    = "unwrapped"
	IssueWhitespace   = "whitespace"
)

var (
	entityPattern    = regexp.MustCompile(`&(?:#[0-9]{1,8}|#[xX][0-9a-fA-F]{1,8}|[A-Za-z][A-Za-z0-9]{1,31});`)
	shortcodePattern = regexp.MustCompile(`\[/?[A-Za-z_][A-Za-z0-9_-]*(?:\s[^\]\[]*)?/?\]`)
	blockPattern     = regexp.MustCompile(`<!--\s*/?wp:`)
	commentPattern   = regexp.MustCompile(`<!--`)
	cssPattern       = regexp.MustCompile(`@keyframes|\{[^{}<]*:[^{}<]*\}`)

	unsafeSelector = strings.Join(scrub.UnsafeTagNames, ", ")
)

// needsCleaningMarkers flag content the bulk driver should run through the
// pipeline. A bare "<" is not a marker: every wrapped post contains one.
var needsCleaningMarkers = []string{"&", "{", "}", "[", "style", "@keyframes"}

// residueMarkers are the fragments that must not survive a bulk clean.
var residueMarkers = []string{"@keyframes", "style=", "{", "}", "[caption", "[gallery"}

// ResidueUnsafeMarkup is reported by Residue when a blocked tag survived.
const ResidueUnsafeMarkup = "unsafe markup"

// Scan counts legacy constructs in content. Categories with no findings
// are absent.
func Scan(content string) scrub.Counts {
	counts := make(scrub.Counts)
	if strings.TrimSpace(content) == "" {
		return counts
	}

	counts.Add(IssueEntities, len(entityPattern.FindAllStringIndex(content, -1)))
	counts.Add(IssueShortcodes, len(shortcodePattern.FindAllStringIndex(content, -1)))
	counts.Add(IssueBlockMarkers, len(blockPattern.FindAllStringIndex(content, -1)))
	counts.Add(IssueComments, len(commentPattern.FindAllStringIndex(content, -1)))
	counts.Add(IssueCSSResidue, len(cssPattern.FindAllStringIndex(content, -1)))

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		counts.Add(IssueUnsafeTags, doc.Find(unsafeSelector).Length())
		counts.Add(IssueInlineStyles, doc.Find("[style]").Length())
	}

	if !isWrapped(content) {
		counts.Add(IssueUnwrapped, 1)
	}
	if isWhitespaceHeavy(content) {
		counts.Add(IssueWhitespace, 1)
	}
	return counts
}

// NeedsCleaning reports whether content carries any issue marker, is not
// already wrapped in a paragraph, or would be changed by the default
// pipeline. Blank content never needs cleaning.
func NeedsCleaning(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	for _, marker := range needsCleaningMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	if !isWrapped(content) || isWhitespaceHeavy(content) {
		return true
	}
	// Wrapped markup without markers can still hold tags, comments or
	// attributes the pipeline rewrites.
	return scrub.CleanContent(content) != content
}

// Residue returns the residue markers still present in content, in a
// fixed order.
func Residue(content string) []string {
	var found []string
	for _, marker := range residueMarkers {
		if strings.Contains(content, marker) {
			found = append(found, marker)
		}
	}
	if scrub.ContainsUnsafeTag(content) {
		found = append(found, ResidueUnsafeMarkup)
	}
	return found
}

// HasResidue reports whether any residue marker is present.
func HasResidue(content string) bool {
	return len(Residue(content)) > 0
}

func isWrapped(content string) bool {
	content = strings.TrimSpace(content)
	return strings.HasPrefix(content, "<p>") && strings.HasSuffix(content, "</p>")
}

// isWhitespaceHeavy matches content where spaces make up more than half of
// the characters.
func isWhitespaceHeavy(content string) bool {
	if content == "" {
		return false
	}
	return strings.Count(content, " ")*2 > len(content)
}

// sortedKeys returns the categories of counts in name order.
func sortedKeys(counts scrub.Counts) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
