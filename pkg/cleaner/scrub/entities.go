package scrub

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// entityPattern matches a single named, decimal or hex character reference.
// The trailing semicolon is required; bare ampersands are text.
var entityPattern = regexp.MustCompile(`&(?:#[0-9]{1,8}|#[xX][0-9a-fA-F]{1,8}|[A-Za-z][A-Za-z0-9]{1,31});`)

// DecodeEntities replaces character references with their literal text.
//
// Decoding is a single left-to-right pass: "&amp;lt;" becomes "&lt;" and is
// not decoded again. Unknown names and invalid code points are left as they
// are. Non-breaking spaces decode to a plain space so that whitespace-only
// blocks can be recognised by later stages.
func DecodeEntities(text string) StageResult {
	counts := make(Counts)
	if !strings.Contains(text, "&") {
		return StageResult{Text: text, Counts: counts}
	}

	decoded := entityPattern.ReplaceAllStringFunc(text, func(ref string) string {
		out, ok := decodeEntity(ref)
		if !ok {
			return ref
		}
		counts.Add(IssueEntities, 1)
		return out
	})

	return StageResult{Text: decoded, Counts: counts}
}

// decodeEntity decodes one reference. The bool is false when ref is left as is.
func decodeEntity(ref string) (string, bool) {
	if ref[1] == '#' {
		return decodeNumeric(ref[2 : len(ref)-1])
	}

	// UnescapeString falls back to the longest known prefix ("&notx;" gives
	// "¬x;"). Only whole-name matches, which are at most two runes, count.
	out := html.UnescapeString(ref)
	if out == ref || utf8.RuneCountInString(out) > 2 {
		return "", false
	}
	if out == "\u00a0" {
		return " ", true
	}
	return out, true
}

// decodeNumeric decodes the digits of a &#NNN; or &#xHHH; reference.
func decodeNumeric(digits string) (string, bool) {
	base := 10
	if digits[0] == 'x' || digits[0] == 'X' {
		base = 16
		digits = digits[1:]
	}

	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return "", false
	}
	r := rune(n)
	if r == 0 || !utf8.ValidRune(r) {
		return "", false
	}
	if r == 0xa0 {
		return " ", true
	}
	return string(r), true
}
