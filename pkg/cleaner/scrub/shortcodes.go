package scrub

import (
	"regexp"
	"strings"
)

// pairedShortcodes carry a payload that is removed with the block.
var pairedShortcodes = []string{"caption", "embed", "video", "audio", "playlist"}

// knownShortcodes is the vocabulary removed token by token before the
// generic fallback runs.
var knownShortcodes = []string{
	"gallery", "caption", "embed", "video", "audio", "playlist",
	"contact-form-7", "elementor-template",
}

var (
	pairedOpenPattern = regexp.MustCompile(`(?i)\[(` + strings.Join(pairedShortcodes, "|") + `)\b[^\]]*\]`)

	pairedClosePatterns = func() map[string]*regexp.Regexp {
		m := make(map[string]*regexp.Regexp, len(pairedShortcodes))
		for _, name := range pairedShortcodes {
			m[name] = regexp.MustCompile(`(?i)\[/` + name + `\s*\]`)
		}
		return m
	}()

	knownTokenPattern = regexp.MustCompile(`(?i)\[/?(?:` + quoteAll(knownShortcodes) +
		`|(?:wp|vc|et_pb)_[a-z0-9_-]*)\b[^\]]*\]`)

	// genericTokenPattern matches [name ...] and [/name] for any identifier.
	// Attribute text may not contain brackets, so nested tokens are removed
	// from the inside out.
	genericTokenPattern = regexp.MustCompile(`\[/?[A-Za-z_][A-Za-z0-9_-]*(?:\s[^\]\[]*)?/?\]`)
)

// shortcodeStripper removes bracket shortcodes. The zero value is not usable;
// build one with newShortcodeStripper.
type shortcodeStripper struct {
	maxSpan int
	extra   *regexp.Regexp
}

func newShortcodeStripper(maxSpan int, extra []string) *shortcodeStripper {
	s := &shortcodeStripper{maxSpan: maxSpan}
	if s.maxSpan <= 0 {
		s.maxSpan = DefaultMaxShortcodeSpan
	}

	names := make([]string, 0, len(extra))
	for _, name := range extra {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		s.extra = regexp.MustCompile(`(?i)\[/?(?:` + quoteAll(names) + `)(?:\s[^\]]*)?\]`)
	}
	return s
}

var defaultShortcodeStripper = newShortcodeStripper(DefaultMaxShortcodeSpan, nil)

// RemoveShortcodes removes shortcodes using the default vocabulary and span.
//
// Paired blocks such as [caption]...[/caption] lose their payload. The closing
// token must appear within DefaultMaxShortcodeSpan bytes; an unterminated
// block keeps the text that follows it and only its tokens are removed.
// Nested blocks of the same name are not matched recursively.
func RemoveShortcodes(text string) StageResult {
	return defaultShortcodeStripper.apply(text)
}

func (s *shortcodeStripper) apply(text string) StageResult {
	counts := make(Counts)
	if !strings.Contains(text, "[") {
		return StageResult{Text: text, Counts: counts}
	}

	text = s.removePaired(text, counts)
	text = replaceCounting(knownTokenPattern, text, "", IssueShortcodes, counts)
	if s.extra != nil {
		text = replaceCounting(s.extra, text, "", IssueShortcodes, counts)
	}

	for genericTokenPattern.MatchString(text) {
		text = replaceCounting(genericTokenPattern, text, "", IssueShortcodes, counts)
	}

	return StageResult{Text: text, Counts: counts}
}

// removePaired removes [name]...[/name] blocks whose closing token lies
// within the configured span.
func (s *shortcodeStripper) removePaired(text string, counts Counts) string {
	var sb strings.Builder
	pos := 0
	for pos < len(text) {
		loc := pairedOpenPattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		name := strings.ToLower(text[pos+loc[2] : pos+loc[3]])

		// [embed src="..." /] has no payload
		if strings.HasSuffix(text[start:end], "/]") {
			sb.WriteString(text[pos:end])
			pos = end
			continue
		}

		limit := end + s.maxSpan
		if limit > len(text) {
			limit = len(text)
		}
		closer := pairedClosePatterns[name].FindStringIndex(text[end:limit])
		if closer == nil {
			sb.WriteString(text[pos:end])
			pos = end
			continue
		}

		sb.WriteString(text[pos:start])
		counts.Add(IssueShortcodes, 1)
		pos = end + closer[1]
	}
	if pos == 0 {
		return text
	}
	sb.WriteString(text[pos:])
	return sb.String()
}

// replaceCounting replaces every match of re with repl and counts the
// replacements under category.
func replaceCounting(re *regexp.Regexp, text, repl, category string, counts Counts) string {
	n := 0
	out := re.ReplaceAllStringFunc(text, func(m string) string {
		n++
		if repl == "" {
			return ""
		}
		return re.ReplaceAllString(m, repl)
	})
	counts.Add(category, n)
	return out
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	return strings.Join(quoted, "|")
}
