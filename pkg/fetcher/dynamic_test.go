package fetcher

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestNewDynamic_MissingBrowser(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if path := FindChromePath(); path != "" {
		t.Skipf("browser installed at %s", path)
	}

	_, err := NewDynamic(DynamicConfig{})
	if !errors.Is(err, ErrNoBrowser) {
		t.Errorf("expected ErrNoBrowser, got %v", err)
	}
}

func TestDynamicFetcher_Fetch(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a browser")
	}
	if FindChromePath() == "" {
		t.Skip("no Chrome binary available")
	}

	srv := newTestSite(t)
	f, err := NewDynamic(DynamicConfig{Timeout: 30 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	content, err := f.Fetch(context.Background(), srv.URL+"/post", Options{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if content.Source != "rendered" || content.Title != "My Post" {
		t.Errorf("unexpected source/title %q/%q", content.Source, content.Title)
	}
	if content.Body != "<p>Hello [gallery]</p>" {
		t.Errorf("unexpected body %q", content.Body)
	}
	if content.StatusCode != http.StatusOK || f.Type() != "dynamic" {
		t.Errorf("unexpected status/type %d/%s", content.StatusCode, f.Type())
	}
}
