package scrub

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultExcerptLength is the length of a generated meta description.
const DefaultExcerptLength = 155

var anyTagPattern = regexp.MustCompile(`<[^>]*>`)

// Text extracts the visible text of cleaned HTML with whitespace collapsed.
// Block boundaries become spaces so adjacent paragraphs do not run together.
func Text(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ReplaceAll(html, "><", "> <")))
	if err != nil {
		// Fallback: strip tags via regex
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(anyTagPattern.ReplaceAllString(html, " "), " "))
	}

	var sb strings.Builder
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(s.Text())
	})

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(sb.String(), " "))
}

// Excerpt returns at most n runes of the text of html, cut at a word
// boundary and followed by "..." when shortened.
func Excerpt(html string, n int) string {
	if n <= 0 {
		n = DefaultExcerptLength
	}

	text := Text(html)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:-") + "..."
}
