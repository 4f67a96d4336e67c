package batch

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jmylchreest/postclean/internal/config"
	"github.com/jmylchreest/postclean/internal/store"
)

const (
	shortBody     = "<p>hi</p>"
	cleanBody     = "<p>This paragraph is already perfectly clean and long enough.</p>"
	dirtyBody     = `[caption id="a"]<img src="a.jpg">[/caption]<p>Tom &amp; Jerry went to the market together today</p><script>x()</script>`
	unchangedBody = "<p>Price is 5 & rising steadily across the whole market this quarter</p>"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu       sync.Mutex
	rows     []store.Row
	updates  map[int64]string
	failIDs  map[int64]bool
	fetchErr error
}

func newFakeStore(bodies ...string) *fakeStore {
	s := &fakeStore{updates: make(map[int64]string), failIDs: make(map[int64]bool)}
	for i, body := range bodies {
		s.rows = append(s.rows, store.Row{
			ID:      int64(i + 1),
			Title:   "post",
			Content: sql.NullString{String: body, Valid: true},
		})
	}
	return s
}

func (s *fakeStore) FetchRows(ctx context.Context) ([]store.Row, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.rows, nil
}

func (s *fakeStore) UpdateContent(ctx context.Context, id int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[id] {
		return errors.New("disk full")
	}
	s.updates[id] = content
	return nil
}

func TestRunner_Outcomes(t *testing.T) {
	fs := newFakeStore(shortBody, cleanBody, dirtyBody, dirtyBody, unchangedBody)
	fs.failIDs[4] = true

	var mu sync.Mutex
	statuses := make(map[int64]Status)
	r := New(fs, Options{
		BatchSize:        2,
		Concurrency:      2,
		MinContentLength: 50,
		OnOutcome: func(o Outcome) {
			mu.Lock()
			statuses[o.ID] = o.Status
			mu.Unlock()
		},
	})

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := map[int64]Status{
		1: StatusSkipped,
		2: StatusSkipped,
		3: StatusCleaned,
		4: StatusPersistFailed,
		5: StatusUnchanged,
	}
	for id, status := range want {
		if statuses[id] != status {
			t.Errorf("row %d: expected %s, got %s", id, status, statuses[id])
		}
	}

	if summary.Total != 5 || summary.Processed != 5 {
		t.Errorf("expected 5 processed, got %d/%d", summary.Processed, summary.Total)
	}
	if summary.Cleaned != 1 || summary.Skipped != 2 || summary.Unchanged != 1 || summary.PersistFailed != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.OK() {
		t.Error("expected OK() to be false with a persist failure")
	}
	if len(summary.FailedIDs) != 1 || summary.FailedIDs[0] != 4 {
		t.Errorf("unexpected failed ids %v", summary.FailedIDs)
	}

	got, ok := fs.updates[3]
	if !ok {
		t.Fatal("expected row 3 to be persisted")
	}
	if got != "<p>Tom & Jerry went to the market together today</p>" {
		t.Errorf("unexpected cleaned content %q", got)
	}
	if _, ok := fs.updates[5]; ok {
		t.Error("unchanged row must not be written")
	}
	if summary.Stats.Issues["script_tags"] != 2 {
		t.Errorf("expected script counts from both dirty rows, got %v", summary.Stats.Issues)
	}
}

func TestRunner_WrappedMarkupIsCleaned(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		excludes []string
	}{
		{
			name:     "script between paragraphs",
			body:     "<p>Welcome to the post.</p><script>alert(document.cookie)</script><p>More text.</p>",
			excludes: []string{"<script", "alert"},
		},
		{
			name:     "iframe between paragraphs",
			body:     `<p>Watch this.</p><iframe src="https://example.com/embed"></iframe><p>Done.</p>`,
			excludes: []string{"<iframe", "example.com/embed"},
		},
		{
			name:     "wordpress image classes",
			body:     `<p>Our photo <img class="wp-image-5 alignleft" src="a.jpg" srcset="a-300.jpg 300w"> from the trip.</p>`,
			excludes: []string{"wp-image", "alignleft", "srcset"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeStore(tt.body)
			summary, err := New(fs, Options{}).Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if summary.Cleaned != 1 || summary.Skipped != 0 {
				t.Fatalf("expected row to be cleaned, got %+v", summary)
			}

			got, ok := fs.updates[1]
			if !ok {
				t.Fatal("expected cleaned row to be persisted")
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("expected %q to be removed from %q", bad, got)
				}
			}
		})
	}
}

func TestRunner_DryRun(t *testing.T) {
	fs := newFakeStore(dirtyBody, dirtyBody)
	r := New(fs, Options{DryRun: true})

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Cleaned != 2 {
		t.Errorf("expected 2 cleaned in dry run, got %d", summary.Cleaned)
	}
	if len(fs.updates) != 0 {
		t.Errorf("dry run wrote %d rows", len(fs.updates))
	}
	if !strings.Contains(summary.String(), "Dry run") {
		t.Error("expected dry run notice in summary")
	}
}

func TestRunner_MaxContentBytes(t *testing.T) {
	fs := newFakeStore(dirtyBody)
	r := New(fs, Options{MaxContentBytes: 10})

	summary, _ := r.Run(context.Background())
	if summary.Skipped != 1 {
		t.Errorf("expected oversized row to be skipped, got %+v", summary)
	}
}

func TestRunner_FetchError(t *testing.T) {
	fs := newFakeStore()
	fs.fetchErr = errors.New("connection refused")

	if _, err := New(fs, Options{}).Run(context.Background()); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected fetch error, got %v", err)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	fs := newFakeStore(dirtyBody, dirtyBody, dirtyBody)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := New(fs, Options{BatchSize: 1}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if summary == nil || summary.Processed != 0 {
		t.Errorf("expected no rows processed, got %+v", summary)
	}
}

func TestRunner_ConcurrencyBound(t *testing.T) {
	bodies := make([]string, 40)
	for i := range bodies {
		bodies[i] = dirtyBody
	}
	fs := newFakeStore(bodies...)

	var calls atomic.Int64
	r := New(fs, Options{
		BatchSize:   7,
		Concurrency: 3,
		OnOutcome:   func(Outcome) { calls.Add(1) },
	})

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 40 || summary.Cleaned != 40 {
		t.Errorf("expected 40 outcomes, got %d (cleaned %d)", calls.Load(), summary.Cleaned)
	}
}

func TestSummary_AddFailed(t *testing.T) {
	s := newSummary(1, false)
	s.add(Outcome{ID: 9, Status: StatusFailed, Error: "boom"})

	if s.Failed != 1 || s.OK() {
		t.Errorf("expected one failure, got %+v", s)
	}
	if !strings.Contains(s.String(), "Failed:          1") {
		t.Errorf("unexpected summary text %q", s.String())
	}
}

func TestRunner_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, config.StoreConfig{
		Driver:  store.DriverSQLite,
		DSN:     filepath.Join(t.TempDir(), "batch.db"),
		Table:   config.DefaultTable,
		Migrate: true,
	})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer st.Close()

	dirtyID, err := st.InsertRow(ctx, "dirty", dirtyBody)
	if err != nil {
		t.Fatal(err)
	}
	cleanID, err := st.InsertRow(ctx, "clean", cleanBody)
	if err != nil {
		t.Fatal(err)
	}

	summary, err := New(st, Options{MinContentLength: 50}).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Cleaned != 1 || summary.Skipped != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}

	row, err := st.GetRow(ctx, dirtyID)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(row.Body(), "script") || strings.Contains(row.Body(), "[caption") {
		t.Errorf("row not cleaned: %q", row.Body())
	}

	row, err = st.GetRow(ctx, cleanID)
	if err != nil {
		t.Fatal(err)
	}
	if row.Body() != cleanBody {
		t.Errorf("clean row was modified: %q", row.Body())
	}

	// a second run finds nothing left to change
	again, err := New(st, Options{MinContentLength: 50}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.Cleaned != 0 {
		t.Errorf("expected second run to clean nothing, got %+v", again)
	}
}
