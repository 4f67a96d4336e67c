package scrub

import (
	"regexp"
	"strings"
)

// emptyCandidates are removed when they hold nothing but whitespace or <br>.
var emptyCandidates = []string{
	"p", "div", "span", "h1", "h2", "h3", "h4", "h5", "h6",
	"li", "ul", "ol", "blockquote", "strong", "em", "b", "i", "u", "font",
}

var (
	whitespacePattern   = regexp.MustCompile(`\s+`)
	truncatedTagPattern = regexp.MustCompile(`<[A-Za-z/!][^<>]*$`)
	betweenTagsPattern  = regexp.MustCompile(`>\s+<`)

	brRunPattern       = regexp.MustCompile(`(?i)(?:<br\s*/?>\s*){3,}`)
	duplicatePPattern  = regexp.MustCompile(`(?i)(?:<p>\s*){2,}`)
	brAfterOpenPattern = regexp.MustCompile(`(?i)<p>\s*<br\s*/?>`)
	brBeforeEndPattern = regexp.MustCompile(`(?i)<br\s*/?>\s*</p\s*>`)
	leadingBrPattern   = regexp.MustCompile(`(?i)^\s*(?:<br\s*/?>\s*)+`)
	trailingBrPattern  = regexp.MustCompile(`(?i)(?:\s*<br\s*/?>)+\s*$`)

	emptyElementPatterns = func() []*regexp.Regexp {
		patterns := make([]*regexp.Regexp, len(emptyCandidates))
		for i, name := range emptyCandidates {
			patterns[i] = regexp.MustCompile(`(?i)<` + name + `\b[^<>]*>(?:\s|\x{00a0}|&nbsp;|<br\s*/?>)*</` + name + `\s*>`)
		}
		return patterns
	}()
)

// RepairStructure collapses whitespace, then repeatedly removes a truncated
// trailing tag, collapses <br> runs and duplicated <p> and drops empty
// elements until nothing changes. Every rule shortens the text, so the loop
// ends however deeply empty elements are nested. Whitespace between tags is
// removed last.
func RepairStructure(text string) StageResult {
	counts := make(Counts)

	text = whitespacePattern.ReplaceAllString(text, " ")

	for {
		before := text
		text = replaceCounting(truncatedTagPattern, text, "", IssueMalformedHTML, counts)
		text = replaceCounting(brRunPattern, text, "<br><br>", IssueMalformedHTML, counts)
		text = replaceCounting(duplicatePPattern, text, "<p>", IssueMalformedHTML, counts)
		text = replaceCounting(brAfterOpenPattern, text, "<p>", IssueMalformedHTML, counts)
		text = replaceCounting(brBeforeEndPattern, text, "</p>", IssueMalformedHTML, counts)
		text = replaceCounting(leadingBrPattern, text, "", IssueMalformedHTML, counts)
		text = replaceCounting(trailingBrPattern, text, "", IssueMalformedHTML, counts)
		for _, re := range emptyElementPatterns {
			text = replaceCounting(re, text, "", IssueMalformedHTML, counts)
		}
		if text == before {
			break
		}
	}

	// Removals above can leave two spaces side by side.
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = betweenTagsPattern.ReplaceAllString(text, "><")
	text = strings.TrimSpace(text)

	return StageResult{Text: text, Counts: counts}
}
