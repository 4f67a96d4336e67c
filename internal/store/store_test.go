package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmylchreest/postclean/internal/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := config.StoreConfig{
		Driver:  DriverSQLite,
		DSN:     filepath.Join(t.TempDir(), "test.db"),
		Table:   config.DefaultTable,
		Migrate: true,
	}
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr error
	}{
		{
			name:    "injection in table name",
			cfg:     config.StoreConfig{Driver: DriverSQLite, DSN: ":memory:", Table: "blogs; DROP TABLE users"},
			wantErr: ErrInvalidTable,
		},
		{
			name:    "empty table",
			cfg:     config.StoreConfig{Driver: DriverSQLite, DSN: ":memory:"},
			wantErr: ErrInvalidTable,
		},
		{
			name:    "unknown driver",
			cfg:     config.StoreConfig{Driver: "postgres", DSN: "x", Table: "blogs"},
			wantErr: ErrUnsupportedDriver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if s.Driver() != DriverSQLite || s.Table() != "blogs" {
		t.Errorf("unexpected driver/table %s/%s", s.Driver(), s.Table())
	}

	first, err := s.InsertRow(ctx, "First", "<p>one</p>")
	if err != nil {
		t.Fatalf("InsertRow() error = %v", err)
	}
	if _, err := s.InsertRow(ctx, "Second", "two &amp; three"); err != nil {
		t.Fatalf("InsertRow() error = %v", err)
	}

	n, err := s.CountRows(ctx)
	if err != nil || n != 2 {
		t.Fatalf("CountRows() = %d, %v", n, err)
	}

	rows, err := s.FetchRows(ctx)
	if err != nil {
		t.Fatalf("FetchRows() error = %v", err)
	}
	if len(rows) != 2 || rows[0].ID != first || rows[0].Body() != "<p>one</p>" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	if err := s.UpdateContent(ctx, first, "<p>cleaned</p>"); err != nil {
		t.Fatalf("UpdateContent() error = %v", err)
	}
	row, err := s.GetRow(ctx, first)
	if err != nil {
		t.Fatalf("GetRow() error = %v", err)
	}
	if row.Body() != "<p>cleaned</p>" || row.Title != "First" {
		t.Errorf("unexpected row after update %+v", row)
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.UpdateContent(ctx, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateContent() expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetRow(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRow() expected ErrNotFound, got %v", err)
	}
}

func TestStore_NullContent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.db.ExecContext(ctx, "INSERT INTO blogs (title, content) VALUES ('empty', NULL)"); err != nil {
		t.Fatal(err)
	}
	rows, err := s.FetchRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Content.Valid || rows[0].Body() != "" {
		t.Errorf("expected NULL content, got %+v", rows)
	}
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	s := openTestStore(t)

	if err := ApplyMigrations(s.db.DB); err != nil {
		t.Errorf("second ApplyMigrations() error = %v", err)
	}
	if err := ApplyMigrations(nil); err == nil {
		t.Error("expected error for nil db")
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{
		Driver:  DriverSQLite,
		DSN:     filepath.Join(t.TempDir(), "reopen.db"),
		Table:   config.DefaultTable,
		Migrate: true,
	}

	s, err := Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertRow(ctx, "t", "c"); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = Open(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if n, _ := s.CountRows(ctx); n != 1 {
		t.Errorf("expected 1 row after reopen, got %d", n)
	}
}
