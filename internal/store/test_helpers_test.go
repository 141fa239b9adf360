package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/pagecloud/internal/ir"
	"github.com/roach88/pagecloud/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedChain journals C1 <- C2 <- C3 on page "doc", where C1 is based on the
// empty page.
func seedChain(t *testing.T, s *Store) []ir.CommitUpload {
	t.Helper()
	uploads := []ir.CommitUpload{
		testutil.Upload("C1", testutil.DiffFrom(ir.EmptyPage, testutil.Insert("a", "1"), testutil.Insert("b", "2"))),
		testutil.Upload("C2", testutil.DiffFrom(ir.At("C1"), testutil.Delete("a", "1"))),
		testutil.Upload("C3", testutil.DiffFrom(ir.At("C2"))),
	}
	if err := s.AppendCommits(context.Background(), "doc", uploads); err != nil {
		t.Fatalf("AppendCommits() failed: %v", err)
	}
	return uploads
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
