package scrub

import (
	"strings"
	"testing"
)

func TestRemoveShortcodes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		count int
	}{
		{
			name:  "gallery token",
			input: `[gallery ids="1,2,3"]`,
			want:  "",
			count: 1,
		},
		{
			name:  "paired caption drops payload",
			input: `before[caption id="attachment_5" align="alignleft"]<img src="x.jpg"> text[/caption]after`,
			want:  "beforeafter",
			count: 1,
		},
		{
			name:  "case insensitive pair",
			input: `[CAPTION]x[/Caption]rest`,
			want:  "rest",
			count: 1,
		},
		{
			name:  "unterminated pair keeps trailing text",
			input: `[caption]trailing prose`,
			want:  "trailing prose",
			count: 1,
		},
		{
			name:  "self-closing embed",
			input: `[embed src="x.mp4" /]after`,
			want:  "after",
			count: 1,
		},
		{
			name:  "vendor layout keeps content",
			input: `[vc_row][vc_column width="1/2"]Hello[/vc_column][/vc_row]`,
			want:  "Hello",
			count: 4,
		},
		{
			name:  "generic fallback",
			input: `[foo bar="baz"]x[/foo]`,
			want:  "x",
			count: 2,
		},
		{
			name:  "nested generic tokens",
			input: `[outer a="[inner]"]`,
			want:  "",
			count: 2,
		},
		{
			name:  "numeric footnote kept",
			input: `see [1] and [2]`,
			want:  "see [1] and [2]",
			count: 0,
		},
		{
			name:  "no brackets",
			input: "plain text",
			want:  "plain text",
			count: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := RemoveShortcodes(tt.input)
			if res.Text != tt.want {
				t.Errorf("RemoveShortcodes(%q) = %q, want %q", tt.input, res.Text, tt.want)
			}
			if got := res.Counts[IssueShortcodes]; got != tt.count {
				t.Errorf("shortcodes count = %d, want %d", got, tt.count)
			}
		})
	}
}

func TestRemoveShortcodes_SpanBound(t *testing.T) {
	s := newShortcodeStripper(10, nil)
	res := s.apply("[caption]0123456789abcdefghij[/caption]")

	if res.Text != "0123456789abcdefghij" {
		t.Errorf("expected payload beyond span to survive, got %q", res.Text)
	}
	if res.Counts[IssueShortcodes] != 2 {
		t.Errorf("expected 2 tokens removed, got %d", res.Counts[IssueShortcodes])
	}
}

func TestRemoveShortcodes_ExtraNames(t *testing.T) {
	s := newShortcodeStripper(0, []string{"my.widget", " "})
	res := s.apply("a[my.widget id=2]b")

	if res.Text != "ab" {
		t.Errorf("expected extra shortcode removed, got %q", res.Text)
	}
	if s.maxSpan != DefaultMaxShortcodeSpan {
		t.Errorf("expected default span, got %d", s.maxSpan)
	}
}

func TestRemoveShortcodes_NoBracketTokenSurvives(t *testing.T) {
	inputs := []string{
		`[gallery link="file" columns="3" ids="10,11,12"]`,
		`[contact-form-7 id="42" title="Contact form 1"]`,
		`[et_pb_section fb_built="1"][et_pb_text]Body[/et_pb_text][/et_pb_section]`,
		`[audio mp3="a.mp3"][/audio][playlist ids="1"]`,
		`[elementor-template id="9"]`,
	}

	for _, input := range inputs {
		out := RemoveShortcodes(input).Text
		for _, name := range []string{"[gallery", "[contact", "[et_pb", "[audio", "[playlist", "[elementor", "[/"} {
			if strings.Contains(out, name) {
				t.Errorf("RemoveShortcodes(%q) = %q, still contains %q", input, out, name)
			}
		}
	}
}
