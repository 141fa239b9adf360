// Package testutil provides fixtures shared by pagecloud tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pagecloud/internal/ir"
)

// Insert builds an insertion entry.
func Insert(id, data string) ir.DiffEntry {
	return ir.DiffEntry{EntryID: []byte(id), Data: []byte(data), Operation: ir.Insertion}
}

// Delete builds a deletion entry.
func Delete(id, data string) ir.DiffEntry {
	return ir.DiffEntry{EntryID: []byte(id), Data: []byte(data), Operation: ir.Deletion}
}

// DiffFrom builds a diff based on base.
func DiffFrom(base ir.PageState, changes ...ir.DiffEntry) *ir.Diff {
	if changes == nil {
		changes = []ir.DiffEntry{}
	}
	return &ir.Diff{BaseState: base, Changes: changes}
}

// Commit builds a commit whose data is "data-<id>".
func Commit(id string) ir.Commit {
	return ir.Commit{ID: ir.CommitID(id), Data: []byte("data-" + id)}
}

// Upload pairs Commit(id) with diff (which may be nil).
func Upload(id string, diff *ir.Diff) ir.CommitUpload {
	return ir.CommitUpload{Commit: Commit(id), Diff: diff}
}

// EntryKeys renders entries as comparable strings ("insert k=v"), so that
// change sets can be compared with assert.ElementsMatch regardless of nil
// versus empty byte slices.
func EntryKeys(entries []ir.DiffEntry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = fmt.Sprintf("%s %s=%s", e.Operation, e.EntryID, e.Data)
	}
	return keys
}

// AssertSameEntries asserts that two change sets are equal as sets.
func AssertSameEntries(t *testing.T, expected, actual []ir.DiffEntry, msgAndArgs ...any) bool {
	t.Helper()
	return assert.ElementsMatch(t, EntryKeys(expected), EntryKeys(actual), msgAndArgs...)
}
