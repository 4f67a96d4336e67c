package scrub

import (
	"regexp"
	"strings"
)

// presentational maps tags without semantic meaning to their replacements.
// Underline has no semantic equivalent and is treated as emphasis.
var presentational = []struct {
	open, close *regexp.Regexp
	with        string
}{
	{regexp.MustCompile(`(?i)<b(?:\s` + tagAttrs + `)?>`), regexp.MustCompile(`(?i)</b\s*>`), "strong"},
	{regexp.MustCompile(`(?i)<i(?:\s` + tagAttrs + `)?>`), regexp.MustCompile(`(?i)</i\s*>`), "em"},
	{regexp.MustCompile(`(?i)<u(?:\s` + tagAttrs + `)?>`), regexp.MustCompile(`(?i)</u\s*>`), "em"},
}

// tagAttrs matches the attribute text of a single tag. Quoted values may
// hold '>' but nothing may cross a '<', so "a &lt;b then" text decoded to
// "a <b then" is never taken for a tag.
const tagAttrs = `(?:[^<>"']|"[^"<]*"|'[^'<]*')*`

var (
	tagNamePattern = regexp.MustCompile(`<(/?)([A-Za-z][A-Za-z0-9]*)`)
	headingPattern = regexp.MustCompile(`(?i)<(/?)h([1-6])(?:\s` + tagAttrs + `)?>`)
	anchorPattern  = regexp.MustCompile(`(?i)<a(?:\s` + tagAttrs + `)?>`)
	imagePattern   = regexp.MustCompile(`(?i)<img\b` + tagAttrs + `>`)

	hrefAttrPattern = regexp.MustCompile(`(?i)\shref\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>"']+))`)
	srcAttrPattern  = regexp.MustCompile(`(?i)\ssrc\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>"']+))`)
	altAttrPattern  = regexp.MustCompile(`(?i)\salt\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>"']+))`)

	blockStartPattern = regexp.MustCompile(`(?i)^<(?:p|h[1-6]|div|ul|ol|blockquote)\b`)
)

// altReplacer keeps rebuilt alt text inside its quotes and free of
// brackets that later tag patterns would split on.
var altReplacer = strings.NewReplacer(`"`, "'", "<", "", ">", "")

// unsafeSchemes are URL schemes dropped from href and src.
var unsafeSchemes = []string{"javascript:", "vbscript:", "data:"}

// NormalizeSemantics lower-cases tag names, maps b to strong and i/u to em,
// strips every attribute from headings and every attribute but href from
// anchors, and rebuilds images with only src and alt.
func NormalizeSemantics(text string) StageResult {
	counts := make(Counts)
	if !strings.Contains(text, "<") {
		return StageResult{Text: text, Counts: counts}
	}

	text = tagNamePattern.ReplaceAllStringFunc(text, strings.ToLower)

	for _, p := range presentational {
		text = replaceCounting(p.open, text, "<"+p.with+">", IssueSemanticTags, counts)
		text = replaceCounting(p.close, text, "</"+p.with+">", IssueSemanticTags, counts)
	}

	text = replaceChanged(headingPattern, text, counts, func(tag string) string {
		m := headingPattern.FindStringSubmatch(tag)
		return "<" + m[1] + "h" + m[2] + ">"
	})

	text = replaceChanged(anchorPattern, text, counts, func(tag string) string {
		href := safeURL(attrValue(hrefAttrPattern, tag))
		if href == "" {
			return "<a>"
		}
		return `<a href="` + href + `">`
	})

	text = replaceChanged(imagePattern, text, counts, func(tag string) string {
		var sb strings.Builder
		sb.WriteString("<img")
		if src := safeURL(attrValue(srcAttrPattern, tag)); src != "" {
			sb.WriteString(` src="` + src + `"`)
		}
		if alt := strings.TrimSpace(attrValue(altAttrPattern, tag)); alt != "" {
			sb.WriteString(` alt="` + altReplacer.Replace(alt) + `"`)
		}
		sb.WriteString(" />")
		return sb.String()
	})

	return StageResult{Text: text, Counts: counts}
}

// EnsureWrapped wraps non-empty text that does not start with a block
// element in a single paragraph.
func EnsureWrapped(text string) StageResult {
	counts := make(Counts)
	text = strings.TrimSpace(text)
	if text == "" || blockStartPattern.MatchString(text) {
		return StageResult{Text: text, Counts: counts}
	}
	counts.Add(IssueWrapped, 1)
	return StageResult{Text: "<p>" + text + "</p>", Counts: counts}
}

// replaceChanged applies fn to every match and counts only the matches it
// actually rewrote.
func replaceChanged(re *regexp.Regexp, text string, counts Counts, fn func(string) string) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		out := fn(m)
		if out != m {
			counts.Add(IssueSemanticTags, 1)
		}
		return out
	})
}

// safeURL trims a URL and returns "" for scripting and data schemes. Double
// quotes are percent-encoded so the value can be written back quoted.
func safeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}

	compact := strings.ToLower(strings.Join(strings.Fields(u), ""))
	for _, scheme := range unsafeSchemes {
		if strings.HasPrefix(compact, scheme) {
			return ""
		}
	}
	return strings.ReplaceAll(u, `"`, "%22")
}
