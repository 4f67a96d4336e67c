package cleaner

import (
	"errors"
	"strings"
	"testing"

	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

const wordpressPost = `<div class="aligncenter wp-image-7" style="color:red">` +
	`<H2 id="post-12">Reading tips</H2>[caption id="attachment_3"]<img src="a.jpg">Photo[/caption]` +
	`<script>track()</script><b>Skim first</b> &amp; then <a href="https://example.com/more" onclick="x()">read on</a></div>`

// errorCleaner is a test cleaner that always returns an error
type errorCleaner struct{}

func (c *errorCleaner) Clean(html string) (string, error) {
	return "", errors.New("test error")
}

func (c *errorCleaner) Name() string {
	return "error"
}

func TestChain_ScrubThenMarkdown(t *testing.T) {
	c := NewChain(scrub.New(nil), NewMarkdown())

	got, err := c.Clean(wordpressPost)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	contains := []string{"## Reading tips", "**Skim first**", "[read on](https://example.com/more)"}
	excludes := []string{"track()", "caption", "Photo", "style", "onclick", "<"}

	for _, s := range contains {
		if !strings.Contains(got, s) {
			t.Errorf("expected %q in %q", s, got)
		}
	}
	for _, s := range excludes {
		if strings.Contains(got, s) {
			t.Errorf("did not expect %q in %q", s, got)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestChain_ScrubThenPolicy(t *testing.T) {
	c := NewChain(scrub.New(nil), NewPolicy(PolicyUGC))

	got, err := c.Clean(wordpressPost)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	contains := []string{"<h2>Reading tips</h2>", "<strong>Skim first</strong>", "&amp; then", `<a href="https://example.com/more">read on</a>`}
	for _, s := range contains {
		if !strings.Contains(got, s) {
			t.Errorf("expected %q in %q", s, got)
		}
	}
	if strings.Contains(got, "nofollow") {
		t.Errorf("links should be left without rel, got %q", got)
	}
}

func TestChain_Empty(t *testing.T) {
	got, err := NewChain().Clean("<p>unchanged</p>")
	if err != nil {
		t.Fatal(err)
	}
	if got != "<p>unchanged</p>" {
		t.Errorf("Clean() = %q", got)
	}
}

func TestChain_ErrorStopsChain(t *testing.T) {
	c := NewChain(scrub.New(nil), &errorCleaner{}, NewMarkdown())

	got, err := c.Clean(wordpressPost)
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if got != "" {
		t.Errorf("expected no content on error, got %q", got)
	}
	if !strings.HasPrefix(err.Error(), "error: ") || !strings.Contains(err.Error(), "test error") {
		t.Errorf("expected failing cleaner name in error, got %v", err)
	}
}

func TestChain_Name(t *testing.T) {
	tests := []struct {
		name     string
		cleaners []Cleaner
		want     string
	}{
		{"empty", []Cleaner{}, "chain()"},
		{"baseline", []Cleaner{NewNoop()}, "chain(noop)"},
		{"scrub and policy", []Cleaner{scrub.New(nil), NewPolicy(PolicyUGC)}, "chain(scrub->policy-ugc)"},
		{"export", []Cleaner{scrub.New(nil), NewPolicy(PolicyStrict), NewMarkdown()}, "chain(scrub->policy-strict->markdown)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewChain(tt.cleaners...).Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNoop_IsBaseline(t *testing.T) {
	got, err := NewNoop().Clean(wordpressPost)
	if err != nil || got != wordpressPost {
		t.Errorf("noop changed input: %q, %v", got, err)
	}
}
