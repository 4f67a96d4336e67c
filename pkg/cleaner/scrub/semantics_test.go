package scrub

import (
	"strings"
	"testing"
)

func TestNormalizeSemantics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bold", "<b>x</b>", "<strong>x</strong>"},
		{"italic and underline", "<i>x</i><u>y</u>", "<em>x</em><em>y</em>"},
		{"uppercase with attributes", `<B class="k">x</B>`, "<strong>x</strong>"},
		{"line breaks and blockquotes untouched", "<blockquote>a<br>b</blockquote>", "<blockquote>a<br>b</blockquote>"},
		{"heading attributes", `<h2 class="post-title-123" id="t">Title</h2>`, "<h2>Title</h2>"},
		{"heading case", "<H3>T</H3>", "<h3>T</h3>"},
		{
			"anchor keeps href",
			`<a href="https://example.com" target="_blank" rel="nofollow" class="x">l</a>`,
			`<a href="https://example.com">l</a>`,
		},
		{"anchor single quoted href", `<a title="t" href='/post/1'>l</a>`, `<a href="/post/1">l</a>`},
		{"javascript href dropped", `<a href="javascript:alert(1)">x</a>`, "<a>x</a>"},
		{"obfuscated scheme dropped", `<a href=' JaVa Script:x'>x</a>`, "<a>x</a>"},
		{"image keeps src and alt", `<img class="a" src="x.jpg" width="300" alt="A cat">`, `<img src="x.jpg" alt="A cat" />`},
		{"image without alt", `<IMG SRC="x.jpg">`, `<img src="x.jpg" />`},
		{"data image dropped", `<img src="data:image/png;base64,xx">`, "<img />"},
		{"image alt holding a bracket", `<img src=x alt="a>b">`, `<img src="x" alt="ab" />`},
		{"anchor title holding a bracket", `<a title="x>y" href="/p">l</a>`, `<a href="/p">l</a>`},
		{"decoded less-than before a letter", "<p>if a <b then more text here</p>", "<p>if a <b then more text here</p>"},
		{"decoded less-than before i", "<p>when x <i and more</p><p>next</p>", "<p>when x <i and more</p><p>next</p>"},
		{"plain text", "no markup", "no markup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NormalizeSemantics(tt.input)
			if res.Text != tt.want {
				t.Errorf("NormalizeSemantics(%q) = %q, want %q", tt.input, res.Text, tt.want)
			}
			again := NormalizeSemantics(res.Text)
			if again.Text != res.Text || again.Counts.Total() != 0 {
				t.Errorf("second pass changed %q to %q (%v)", res.Text, again.Text, again.Counts)
			}
		})
	}
}

func TestCleanContent_LessThanBeforeLetter(t *testing.T) {
	got := CleanContent("<p>if a &lt;b then more text here</p>")
	if !strings.Contains(got, "then more text here") {
		t.Errorf("text after the bracket was lost: %q", got)
	}
	if strings.Contains(got, "<strong>") {
		t.Errorf("comparison was taken for a bold tag: %q", got)
	}
	if again := CleanContent(got); again != got {
		t.Errorf("second clean changed %q to %q", got, again)
	}
}

func TestNormalizeSemantics_Counts(t *testing.T) {
	res := NormalizeSemantics(`<b>a</b><h1 class="x">t</h1>`)
	// two tags for <b>, one heading rewrite
	if res.Counts[IssueSemanticTags] != 3 {
		t.Errorf("expected 3 semantic fixes, got %d", res.Counts[IssueSemanticTags])
	}
}

func TestEnsureWrapped(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wrapped bool
	}{
		{"hello", "<p>hello</p>", true},
		{"<p>x</p>", "<p>x</p>", false},
		{"<div>x</div>", "<div>x</div>", false},
		{"<h1>x</h1>y", "<h1>x</h1>y", false},
		{"<ul><li>x</li></ul>", "<ul><li>x</li></ul>", false},
		{"<blockquote>q</blockquote>", "<blockquote>q</blockquote>", false},
		{"<span>x</span>", "<p><span>x</span></p>", true},
		{"<pre>x</pre>", "<p><pre>x</pre></p>", true},
		{"<divider>x", "<p><divider>x</p>", true},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		res := EnsureWrapped(tt.input)
		if res.Text != tt.want {
			t.Errorf("EnsureWrapped(%q) = %q, want %q", tt.input, res.Text, tt.want)
		}
		if got := res.Counts[IssueWrapped] == 1; got != tt.wrapped {
			t.Errorf("EnsureWrapped(%q) wrapped = %v, want %v", tt.input, got, tt.wrapped)
		}
	}
}
