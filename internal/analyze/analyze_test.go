package analyze

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/jmylchreest/postclean/internal/store"
	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains []string
		excludes []string
	}{
		{
			name:     "clean paragraph",
			content:  "<p>Nothing to see here.</p>",
			excludes: []string{IssueEntities, IssueUnwrapped, IssueShortcodes, IssueUnsafeTags},
		},
		{
			name:     "entities and shortcodes",
			content:  `[caption id="x"]Tom &amp; Jerry&nbsp;[/caption]`,
			contains: []string{IssueEntities, IssueShortcodes, IssueUnwrapped},
		},
		{
			name:     "unsafe markup",
			content:  `<p style="color:red">x</p><script>alert(1)</script><iframe src="a"></iframe>`,
			contains: []string{IssueUnsafeTags, IssueInlineStyles},
		},
		{
			name:     "block editor markers",
			content:  `<!-- wp:paragraph --><p>x</p><!-- /wp:paragraph -->`,
			contains: []string{IssueBlockMarkers, IssueComments},
		},
		{
			name:     "css residue",
			content:  `<p>@keyframes spin { from { opacity: 0 } } .a { color: red }</p>`,
			contains: []string{IssueCSSResidue},
		},
		{
			name:     "whitespace heavy",
			content:  "a          b          c",
			contains: []string{IssueWhitespace},
		},
		{
			name:     "empty",
			content:  "   ",
			excludes: []string{IssueUnwrapped, IssueWhitespace},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := Scan(tt.content)
			for _, want := range tt.contains {
				if counts[want] == 0 {
					t.Errorf("expected %s in %v", want, counts)
				}
			}
			for _, notWant := range tt.excludes {
				if counts[notWant] != 0 {
					t.Errorf("did not expect %s in %v", notWant, counts)
				}
			}
		})
	}
}

func TestScan_Counts(t *testing.T) {
	counts := Scan(`<p>&amp; &lt; &#8217;</p><script></script><script></script>`)
	if counts[IssueEntities] != 3 {
		t.Errorf("expected 3 entities, got %d", counts[IssueEntities])
	}
	if counts[IssueUnsafeTags] != 2 {
		t.Errorf("expected 2 unsafe tags, got %d", counts[IssueUnsafeTags])
	}
}

func TestNeedsCleaning(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"<p>A clean paragraph of text.</p>", false},
		{"<p>One</p><p>Two</p>", false},
		{"plain text", true},
		{"<p>Tom &amp; Jerry</p>", true},
		{"<p>[gallery]</p>", true},
		{`<p style="x">a</p>`, true},
		{"<div>unwrapped</div>", true},
		{"<p>Welcome to the post.</p><script>alert(document.cookie)</script><p>More text.</p>", true},
		{`<p>Watch this.</p><iframe src="https://example.com/embed"></iframe><p>Done.</p>`, true},
		{`<p><img class="wp-image-5 alignleft" src="a.jpg" srcset="a-300.jpg 300w"></p>`, true},
		{"<p>One</p><!-- note --><p>Two</p>", true},
		{"<p><b>bold</b> text</p>", true},
		{"   ", false},
	}

	for _, tt := range tests {
		if got := NeedsCleaning(tt.content); got != tt.want {
			t.Errorf("NeedsCleaning(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestResidue(t *testing.T) {
	got := Residue(`<p style="a">[caption]x{y}</p>`)
	want := []string{"style=", "{", "}", "[caption"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Residue() = %v, want %v", got, want)
	}

	got = Residue(`<p>Hi</p><script>alert(1)</script>`)
	if len(got) != 1 || got[0] != ResidueUnsafeMarkup {
		t.Errorf("Residue() = %v, want [%s]", got, ResidueUnsafeMarkup)
	}

	if HasResidue("<p>clean</p>") {
		t.Error("expected no residue in clean content")
	}

	cleaned := scrub.CleanContent(`<style>@keyframes a{0%{opacity:0}}</style>[gallery ids="1"][caption]<p style="x">Hi</p>[/caption]`)
	if HasResidue(cleaned) {
		t.Errorf("cleaned content still has residue %v: %q", Residue(cleaned), cleaned)
	}
}

func TestRows(t *testing.T) {
	rows := []store.Row{
		{ID: 1, Title: "clean", Content: sql.NullString{String: "<p>Already fine.</p>", Valid: true}},
		{ID: 2, Title: "dirty", Content: sql.NullString{String: "Tom &amp; Jerry [gallery]", Valid: true}},
		{ID: 3, Title: "styled", Content: sql.NullString{String: `<p style="a">x</p>`, Valid: true}},
		{ID: 4, Title: "null"},
	}

	summary := Rows(rows, 1)
	if summary.Total != 4 {
		t.Errorf("expected 4 rows, got %d", summary.Total)
	}
	if summary.NeedsCleaning != 2 {
		t.Errorf("expected 2 rows needing cleaning, got %d", summary.NeedsCleaning)
	}
	if summary.WithResidue != 2 {
		t.Errorf("expected 2 rows with residue, got %d", summary.WithResidue)
	}
	if len(summary.Rows) != 1 || summary.Rows[0].ID != 2 {
		t.Fatalf("expected only row 2 kept, got %+v", summary.Rows)
	}

	out := summary.String()
	for _, want := range []string{"Rows: 4", "Need cleaning: 2", "entities"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
	if line := summary.Rows[0].String(); !strings.Contains(line, `#2 "dirty"`) {
		t.Errorf("unexpected row line %q", line)
	}
}
