package scrub

import (
	"regexp"
	"strings"
)

var (
	classAttrPattern      = regexp.MustCompile(`(?i)\s+class\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>"']+))`)
	idAttrPattern         = regexp.MustCompile(`(?i)\s+id\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>"']+))`)
	responsiveAttrPattern = regexp.MustCompile(`(?i)\s+(?:srcset|sizes)\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>"']+)`)

	artifactClassPattern = regexp.MustCompile(`(?i)^(?:align(?:left|right|center|none)|wp-image-\d+|size-[a-z0-9_-]+|attachment-[a-z0-9_-]+|wp-caption(?:-text)?|post-\d+|page-id-\d+|postid-\d+)$`)
	artifactIDPattern    = regexp.MustCompile(`(?i)^(?:attachment_\d+|post-\d+|more-\d+)$`)
)

// RemoveArtifacts strips WordPress generated classes, ids and responsive
// image attributes from every tag. Class attributes keep their other tokens;
// attributes left empty are removed entirely.
func RemoveArtifacts(text string) StageResult {
	counts := make(Counts)
	if !strings.Contains(text, "<") {
		return StageResult{Text: text, Counts: counts}
	}

	text = tagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		tag = classAttrPattern.ReplaceAllStringFunc(tag, func(attr string) string {
			return cleanClassAttr(attr, counts)
		})
		tag = idAttrPattern.ReplaceAllStringFunc(tag, func(attr string) string {
			value := strings.TrimSpace(attrValue(idAttrPattern, attr))
			if value == "" || artifactIDPattern.MatchString(value) {
				counts.Add(IssueArtifacts, 1)
				return ""
			}
			return attr
		})
		return replaceCounting(responsiveAttrPattern, tag, "", IssueArtifacts, counts)
	})

	return StageResult{Text: text, Counts: counts}
}

// cleanClassAttr drops artifact tokens from a class attribute and returns the
// rebuilt attribute, or "" when no token is left.
func cleanClassAttr(attr string, counts Counts) string {
	tokens := strings.Fields(attrValue(classAttrPattern, attr))

	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if artifactClassPattern.MatchString(token) {
			counts.Add(IssueArtifacts, 1)
			continue
		}
		kept = append(kept, token)
	}

	if len(kept) == 0 {
		if len(tokens) == 0 {
			counts.Add(IssueArtifacts, 1)
		}
		return ""
	}
	if len(kept) == len(tokens) {
		return attr
	}
	return ` class="` + strings.Join(kept, " ") + `"`
}

// attrValue returns the value captured by one of the three quoting
// alternatives of an attribute pattern.
func attrValue(re *regexp.Regexp, attr string) string {
	m := re.FindStringSubmatch(attr)
	if m == nil {
		return ""
	}
	for _, v := range m[1:] {
		if v != "" {
			return v
		}
	}
	return ""
}
