package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/link-foundation/link-cli/internal/doublet"
)

// createTestStore opens a store of the given kind in a temp directory.
func createTestStore(t *testing.T, name string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// reopen closes s and opens the same path again.
func reopen(t *testing.T, s *Store) *Store {
	t.Helper()
	path := s.Path()
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	again, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	t.Cleanup(func() { again.Close() })
	return again
}

func d(index, source, target uint32) doublet.Doublet {
	return doublet.New(index, source, target)
}
