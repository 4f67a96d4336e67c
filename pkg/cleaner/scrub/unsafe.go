package scrub

import (
	"regexp"
	"strings"
)

// unsafeBlock is an element removed together with its contents.
type unsafeBlock struct {
	name     string
	category string
	block    *regexp.Regexp
	open     *regexp.Regexp
	close    *regexp.Regexp
}

func newUnsafeBlock(name, category string) unsafeBlock {
	return unsafeBlock{
		name:     name,
		category: category,
		block:    regexp.MustCompile(`(?is)<` + name + `\b[^>]*>.*?</` + name + `\s*>`),
		open:     regexp.MustCompile(`(?i)<` + name + `\b[^>]*>`),
		close:    regexp.MustCompile(`(?i)</` + name + `\s*>`),
	}
}

// unsafeBlocks is ordered so that containers whose contents are raw text
// (script, style) go first.
var unsafeBlocks = []unsafeBlock{
	newUnsafeBlock("script", IssueScriptTags),
	newUnsafeBlock("style", IssueStyleTags),
	newUnsafeBlock("iframe", IssueIframes),
	newUnsafeBlock("object", IssueObjects),
	newUnsafeBlock("form", IssueForms),
	newUnsafeBlock("button", IssueFormControls),
	newUnsafeBlock("select", IssueFormControls),
	newUnsafeBlock("textarea", IssueFormControls),
}

// unsafeVoid is an element removed as a single tag.
type unsafeVoid struct {
	category string
	pattern  *regexp.Regexp
}

var unsafeVoids = []unsafeVoid{
	{IssueFormControls, regexp.MustCompile(`(?i)</?input\b[^>]*>`)},
	{IssueEmbeds, regexp.MustCompile(`(?i)</?embed\b[^>]*>`)},
	{IssueMetaTags, regexp.MustCompile(`(?i)</?meta\b[^>]*>`)},
	{IssueMetaTags, regexp.MustCompile(`(?i)</?link\b[^>]*>`)},
}

// UnsafeTagNames lists the elements that never survive cleaning.
var UnsafeTagNames = []string{
	"script", "style", "iframe", "object", "form", "button", "select", "textarea",
	"input", "embed", "meta", "link",
}

var (
	commentPattern         = regexp.MustCompile(`(?s)<!--.*?-->`)
	danglingCommentPattern = regexp.MustCompile(`<!--`)

	// unsafeResiduePattern finds an unsafe tag name directly after '<' when
	// no complete tag could be matched ("<script" with no closing '>').
	unsafeResiduePattern = regexp.MustCompile(`(?i)</?(` + strings.Join(UnsafeTagNames, "|") + `)`)

	tagPattern     = regexp.MustCompile(`<[A-Za-z][^<>]*>`)
	tagHeadPattern = regexp.MustCompile(`^<[A-Za-z][A-Za-z0-9-]*`)

	// attributePattern matches one attribute with its leading separator.
	// Browsers accept '/' as well as whitespace between attributes.
	attributePattern = regexp.MustCompile(`[\s/]+([^\s/>"'=]+)(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>"']*))?`)

	// keyframesPattern allows one level of nested braces: @keyframes x { 0% { } }.
	keyframesPattern = regexp.MustCompile(`(?i)@(?:-webkit-|-moz-)?keyframes[^{<]*\{(?:[^{}]*\{[^{}]*\})*[^{}]*\}`)
	cssRulePattern   = regexp.MustCompile(`\.[A-Za-z_-][A-Za-z0-9_-]*(?:[\s,.:>#A-Za-z0-9_-]*)\{[^{}<:]*:[^{}<]*\}`)
)

// maxUnsafePasses bounds the fixpoint loop in RemoveUnsafeMarkup.
const maxUnsafePasses = 8

// unsafeOptions selects the optional rules of the unsafe stage.
type unsafeOptions struct {
	eventHandlers bool
	inlineStyles  bool
	cssResidue    bool
}

var defaultUnsafeOptions = unsafeOptions{eventHandlers: true, inlineStyles: true, cssResidue: true}

// RemoveUnsafeMarkup strips executable and styling markup, form controls,
// meta tags and comments, then removes event handler and style attributes
// and CSS text left behind by broken exports.
//
// Rules repeat until the text stops changing so that a tag split around
// removed markup ("<scr<script></script>ipt>") cannot reassemble.
func RemoveUnsafeMarkup(text string) StageResult {
	return defaultUnsafeOptions.apply(text)
}

func (o unsafeOptions) apply(text string) StageResult {
	counts := make(Counts)

	for pass := 0; pass < maxUnsafePasses; pass++ {
		before := text
		text = removeUnsafeElements(text, counts)
		if o.cssResidue {
			text = replaceCounting(keyframesPattern, text, "", IssueCSSResidue, counts)
			text = replaceCounting(cssRulePattern, text, "", IssueCSSResidue, counts)
		}
		if o.eventHandlers || o.inlineStyles {
			text = o.stripAttributes(text, counts)
		}
		if text == before {
			break
		}
	}

	// Each replacement drops one '<', so "<<script" needs two rounds.
	for unsafeResiduePattern.MatchString(text) {
		text = replaceCounting(unsafeResiduePattern, text, "$1", IssueMalformedHTML, counts)
	}

	return StageResult{Text: text, Counts: counts}
}

// stripAttributes removes event handler and style attributes from every tag.
func (o unsafeOptions) stripAttributes(text string, counts Counts) string {
	return tagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		head := tagHeadPattern.FindString(tag)
		body := tag[len(head) : len(tag)-1]

		var sb strings.Builder
		sb.WriteString(head)
		last := 0
		for _, m := range attributePattern.FindAllStringSubmatchIndex(body, -1) {
			category := o.dropCategory(strings.ToLower(body[m[2]:m[3]]))
			if category == "" {
				continue
			}
			sb.WriteString(body[last:m[0]])
			last = m[1]
			counts.Add(category, 1)
		}
		if last == 0 {
			return tag
		}
		sb.WriteString(body[last:])
		sb.WriteByte('>')
		return sb.String()
	})
}

// dropCategory returns the issue category for an attribute that must be
// removed, or "" to keep it.
func (o unsafeOptions) dropCategory(name string) string {
	switch {
	case o.eventHandlers && len(name) > 2 && strings.HasPrefix(name, "on"):
		return IssueEventHandlers
	case o.inlineStyles && name == "style":
		return IssueInlineStyles
	}
	return ""
}

// removeUnsafeElements runs one pass of the element and comment rules.
func removeUnsafeElements(text string, counts Counts) string {
	if strings.Contains(text, "<!--") {
		text = replaceCounting(commentPattern, text, "", IssueComments, counts)
		text = replaceCounting(danglingCommentPattern, text, "", IssueComments, counts)
	}
	if !strings.Contains(text, "<") {
		return text
	}

	for _, b := range unsafeBlocks {
		text = replaceCounting(b.block, text, "", b.category, counts)
		text = replaceCounting(b.open, text, "", b.category, counts)
		text = replaceCounting(b.close, text, "", b.category, counts)
	}
	for _, v := range unsafeVoids {
		text = replaceCounting(v.pattern, text, "", v.category, counts)
	}
	return text
}

// ContainsUnsafeTag reports whether text contains the start of any element
// in UnsafeTagNames, in any casing.
func ContainsUnsafeTag(text string) bool {
	if !strings.Contains(text, "<") {
		return false
	}
	lower := strings.ToLower(text)
	for _, name := range UnsafeTagNames {
		if strings.Contains(lower, "<"+name) {
			return true
		}
	}
	return false
}
