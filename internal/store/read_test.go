package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagecloud/internal/cloud"
	"github.com/roach88/pagecloud/internal/ir"
	"github.com/roach88/pagecloud/internal/testutil"
)

func TestReadCommits_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	want := seedChain(t, s)
	if err := s.AppendCommits(context.Background(), "doc", []ir.CommitUpload{testutil.Upload("legacy", nil)}); err != nil {
		t.Fatalf("AppendCommits() failed: %v", err)
	}

	got, err := s.ReadCommits(context.Background(), "doc")
	require.NoError(t, err)
	require.Len(t, got, 4)

	for i, u := range want {
		assert.Equal(t, u.Commit, got[i].Commit)
		require.NotNil(t, got[i].Diff)
		assert.Equal(t, u.Diff.BaseState, got[i].Diff.BaseState)
		testutil.AssertSameEntries(t, u.Diff.Changes, got[i].Diff.Changes)
	}
	assert.Equal(t, ir.CommitID("legacy"), got[3].Commit.ID)
	assert.Nil(t, got[3].Diff, "commits uploaded without a diff read back without one")
	assert.NotNil(t, got[2].Diff.Changes, "an empty diff reads back with an empty change set")
}

func TestReadCommits_UnknownPage(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadCommits(context.Background(), "nope")
	if err != nil {
		t.Fatalf("ReadCommits() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ReadCommits() = %v, want empty slice", got)
	}
}

func TestReadCommits_DetectsTamperedDiff(t *testing.T) {
	s := createTestStore(t)
	seedChain(t, s)

	if _, err := s.db.Exec(`UPDATE diff_entries SET data = X'00' WHERE commit_id = 'C2'`); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	_, err := s.ReadCommits(context.Background(), "doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit C2")
	assert.Contains(t, err.Error(), "digest mismatch")
}

func TestPageIDs_IncludesObjectOnlyPages(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedChain(t, s)
	require.NoError(t, s.PutObject(ctx, "attachments", "o1", ir.Object{Data: []byte("x")}))
	require.NoError(t, s.PutObject(ctx, "doc", "o2", ir.Object{Data: []byte("y")}))

	ids, err := s.PageIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.PageID{"attachments", "doc"}, ids)
}

func TestChildren(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedChain(t, s)
	require.NoError(t, s.AppendCommits(ctx, "doc", []ir.CommitUpload{
		testutil.Upload("C2b", testutil.DiffFrom(ir.At("C1"), testutil.Insert("c", "3"))),
	}))

	children, err := s.Children(ctx, "doc", "C1")
	require.NoError(t, err)
	assert.Equal(t, []ir.CommitID{"C2", "C2b"}, children)

	children, err = s.Children(ctx, "doc", "C3")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestStats(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedChain(t, s)
	require.NoError(t, s.PutObject(ctx, "doc", "o1", ir.Object{Data: []byte("x")}))
	require.NoError(t, s.PutFingerprint(ctx, "fp1"))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		SchemaVersion:  1,
		JournalVersion: ir.JournalVersion,
		Pages:          1,
		Commits:        3,
		Diffs:          3,
		DiffEntries:    3,
		Objects:        1,
		Fingerprints:   1,
	}, st)
}

// =============================================================================
// Cloud integration
// =============================================================================

func TestStore_JournalsAndRestoresCloud(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c1 := cloud.New(cloud.WithLogger(logger), cloud.WithJournal(s))
	p := c1.Page("doc")
	_, err := p.AddCommits(ctx, []ir.CommitUpload{
		testutil.Upload("C1", testutil.DiffFrom(ir.EmptyPage, testutil.Insert("a", "1"))),
		testutil.Upload("C2", testutil.DiffFrom(ir.At("C1"), testutil.Insert("b", "2"))),
	})
	require.NoError(t, err)
	_, err = p.AddCommits(ctx, []ir.CommitUpload{
		testutil.Upload("C2", nil),
		testutil.Upload("C3", testutil.DiffFrom(ir.At("C1"), testutil.Delete("a", "1"))),
	})
	require.NoError(t, err)
	require.NoError(t, p.AddObject(ctx, "o1", ir.Object{Data: []byte("blob")}))
	require.NoError(t, c1.DeviceSet().SetFingerprint(ctx, "fp1"))

	// Rejected uploads never reach the journal
	_, err = p.AddCommits(ctx, []ir.CommitUpload{testutil.Upload("X", testutil.DiffFrom(ir.At("missing")))})
	require.Error(t, err)

	c2 := cloud.New(cloud.WithLogger(logger), cloud.WithJournal(s))
	require.NoError(t, c2.Restore(ctx, s))

	wantNext, wantCommits, _ := c1.Page("doc").GetCommits(0)
	gotNext, gotCommits, ok := c2.Page("doc").GetCommits(0)
	require.True(t, ok)
	assert.Equal(t, wantNext, gotNext)
	assert.Equal(t, wantCommits, gotCommits)

	for _, id := range []ir.CommitID{"C1", "C2", "C3"} {
		want, err := c1.Page("doc").GetDiff(id, []ir.CommitID{"C2"})
		require.NoError(t, err)
		got, err := c2.Page("doc").GetDiff(id, []ir.CommitID{"C2"})
		require.NoError(t, err)
		assert.Equal(t, want.BaseState, got.BaseState, "commit %s", id)
		testutil.AssertSameEntries(t, want.Changes, got.Changes, "commit %s", id)
	}

	obj, err := c2.Page("doc").GetObject("o1")
	require.NoError(t, err)
	assert.Equal(t, "blob", string(obj.Data))
	assert.True(t, c2.DeviceSet().CheckFingerprint("fp1"))

	// Erasure is journaled too
	require.NoError(t, c2.DeviceSet().Erase(ctx))
	fps, err := s.ReadFingerprints(ctx)
	require.NoError(t, err)
	assert.Empty(t, fps)
}
