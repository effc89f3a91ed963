package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/flemzord/chatdigest/modules/store"
	"github.com/flemzord/chatdigest/modules/store/sqlite"
	"github.com/flemzord/chatdigest/modules/store/storetest"
)

func openTemp(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, openTemp)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	s, err := sqlite.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Insert(ctx, storetest.Msg(1, 1, 5, 0, "kept")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()

	got, err := s.Get(ctx, 1, 1)
	if err != nil || got.Text != "kept" {
		t.Fatalf("Get after reopen = %+v, %v", got, err)
	}
}

func TestOpenThroughFactory(t *testing.T) {
	s, err := store.Open(context.Background(), store.Config{
		Driver: store.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "factory.db"),
	}, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, ok := s.(*sqlite.Store); !ok {
		t.Errorf("store.Open returned %T, want *sqlite.Store", s)
	}

	if _, err := store.Open(context.Background(), store.Config{Driver: "mysql"}, nil); err == nil {
		t.Error("unknown driver should fail")
	}
}
