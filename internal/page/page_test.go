package page

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagecloud/internal/ir"
	"github.com/roach88/pagecloud/internal/testutil"
)

// fakeJournal records appended batches and can be told to fail.
type fakeJournal struct {
	batches [][]ir.CommitUpload
	objects map[ir.ObjectID]ir.Object
	err     error
}

func (j *fakeJournal) AppendCommits(_ context.Context, uploads []ir.CommitUpload) error {
	if j.err != nil {
		return j.err
	}
	j.batches = append(j.batches, uploads)
	return nil
}

func (j *fakeJournal) PutObject(_ context.Context, id ir.ObjectID, obj ir.Object) error {
	if j.err != nil {
		return j.err
	}
	if j.objects == nil {
		j.objects = make(map[ir.ObjectID]ir.Object)
	}
	j.objects[id] = obj
	return nil
}

func newTestPage(opts ...Option) *PageCloud {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New("page", opts...)
}

func mustAdd(t *testing.T, p *PageCloud, uploads ...ir.CommitUpload) int {
	t.Helper()
	n, err := p.AddCommits(context.Background(), uploads)
	require.NoError(t, err)
	return n
}

// =============================================================================
// Ingestion and pagination
// =============================================================================

func TestPageCloud_EndToEnd(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p, testutil.Upload("1", nil))

	next, commits, ok := p.GetCommits(0)
	require.True(t, ok)
	assert.Equal(t, ir.Token(1), next)
	assert.Equal(t, []ir.Commit{testutil.Commit("1")}, commits)

	_, _, ok = p.GetCommits(1)
	assert.False(t, ok)
}

func TestPageCloud_GetCommitsFromMiddle(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p, testutil.Upload("1", nil), testutil.Upload("2", nil))
	mustAdd(t, p, testutil.Upload("3", nil))

	next, commits, ok := p.GetCommits(1)
	require.True(t, ok)
	assert.Equal(t, ir.Token(3), next)
	assert.Equal(t, []ir.Commit{testutil.Commit("2"), testutil.Commit("3")}, commits)
}

func TestPageCloud_GetCommitsNegativeReadsFromStart(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p, testutil.Upload("1", nil))

	next, commits, ok := p.GetCommits(-5)
	require.True(t, ok)
	assert.Equal(t, ir.Token(1), next)
	assert.Len(t, commits, 1)
}

func TestPageCloud_ReturnedCommitsAreCopies(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p, testutil.Upload("1", nil))

	_, commits, _ := p.GetCommits(0)
	commits[0].Data[0] = 'X'

	_, again, _ := p.GetCommits(0)
	assert.Equal(t, "data-1", string(again[0].Data))
}

func TestPageCloud_UploadIsCopied(t *testing.T) {
	p := newTestPage()
	u := testutil.Upload("1", testutil.DiffFrom(ir.EmptyPage, testutil.Insert("a", "1")))
	mustAdd(t, p, u)

	u.Commit.Data[0] = 'X'
	u.Diff.Changes[0].EntryID[0] = 'z'
	u.Diff.Changes[0].Data[0] = '9'

	_, commits, _ := p.GetCommits(0)
	assert.Equal(t, "data-1", string(commits[0].Data))

	d, err := p.GetDiff("1", nil)
	require.NoError(t, err)
	testutil.AssertSameEntries(t, []ir.DiffEntry{testutil.Insert("a", "1")}, d.Changes)
}

func TestPageCloud_NoOpIdempotence(t *testing.T) {
	p := newTestPage()
	batch := []ir.CommitUpload{
		testutil.Upload("1", testutil.DiffFrom(ir.EmptyPage, testutil.Insert("a", "1"))),
		testutil.Upload("2", testutil.DiffFrom(ir.At("1"), testutil.Insert("b", "2"))),
	}

	n, err := p.AddCommits(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	w, ok := p.Watch(2)
	require.True(t, ok)

	n, err = p.AddCommits(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, p.Len())
	assert.False(t, w.Fired(), "a no-op upload must not raise the signal")
}

func TestPageCloud_KnownCommitsSkippedAmongNew(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p, testutil.Upload("1", nil))

	n := mustAdd(t, p, testutil.Upload("1", nil), testutil.Upload("2", nil))
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, p.Len())
}

func TestPageCloud_DuplicateInOneCallFails(t *testing.T) {
	p := newTestPage()

	_, err := p.AddCommits(context.Background(), []ir.CommitUpload{
		testutil.Upload("1", nil),
		testutil.Upload("2", nil),
		testutil.Upload("1", nil),
	})
	require.Error(t, err)
	assert.True(t, IsArgumentError(err))
	assert.Equal(t, 0, p.Len(), "failed call must not store anything")
}

func TestPageCloud_UnknownBaseFails(t *testing.T) {
	p := newTestPage()

	_, err := p.AddCommits(context.Background(), []ir.CommitUpload{
		testutil.Upload("1", nil),
		testutil.Upload("2", testutil.DiffFrom(ir.At("missing"))),
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "diff based on commit missing but missing is unknown")
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.HasCommit("1"))
}

func TestPageCloud_BaseUploadedEarlierInSameCall(t *testing.T) {
	p := newTestPage()

	n := mustAdd(t, p,
		testutil.Upload("1", testutil.DiffFrom(ir.EmptyPage, testutil.Insert("a", "1"))),
		testutil.Upload("2", testutil.DiffFrom(ir.At("1"), testutil.Insert("b", "2"))),
	)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, p.Depth("2"))
}

func TestPageCloud_SelfBaseRejected(t *testing.T) {
	p := newTestPage()

	_, err := p.AddCommits(context.Background(), []ir.CommitUpload{
		testutil.Upload("1", testutil.DiffFrom(ir.At("1"))),
	})
	assert.True(t, IsNotFound(err))
}

func TestPageCloud_CycleRejection(t *testing.T) {
	t.Run("same call", func(t *testing.T) {
		p := newTestPage()
		_, err := p.AddCommits(context.Background(), []ir.CommitUpload{
			testutil.Upload("1", testutil.DiffFrom(ir.At("2"))),
			testutil.Upload("2", testutil.DiffFrom(ir.At("1"))),
		})
		assert.True(t, IsNotFound(err))
		assert.Equal(t, 0, p.Len())
	})

	t.Run("sequential calls", func(t *testing.T) {
		p := newTestPage()
		_, err := p.AddCommits(context.Background(), []ir.CommitUpload{
			testutil.Upload("1", testutil.DiffFrom(ir.At("2"))),
		})
		assert.True(t, IsNotFound(err))

		mustAdd(t, p, testutil.Upload("2", nil))
		_, err = p.AddCommits(context.Background(), []ir.CommitUpload{
			testutil.Upload("2", testutil.DiffFrom(ir.At("1"))),
			testutil.Upload("1", testutil.DiffFrom(ir.At("2"))),
		})
		require.NoError(t, err, "2 is already stored and skipped; 1 is based on it")

		assert.Equal(t, 2, p.Len())
		assert.Equal(t, ir.At("2"), p.Origin("1"))
		assert.Equal(t, ir.At("2"), p.Origin("2"), "2 keeps its original (diff-less) identity")
	})
}

// =============================================================================
// Watching
// =============================================================================

func TestPageCloud_WatchWithUnreadData(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p, testutil.Upload("1", nil))

	w, ok := p.Watch(0)
	assert.False(t, ok)
	assert.Nil(t, w)
}

func TestPageCloud_WatchFiresOnAppend(t *testing.T) {
	p := newTestPage()

	w1, ok := p.Watch(0)
	require.True(t, ok)
	w2, ok := p.Watch(0)
	require.True(t, ok)

	mustAdd(t, p, testutil.Upload("1", nil))

	assert.True(t, w1.Fired())
	assert.True(t, w2.Fired())

	w3, ok := p.Watch(1)
	require.True(t, ok)
	assert.False(t, w3.Fired(), "new watchers wait for the next append")
}

func TestPageCloud_WatchNotFiredByFailedUpload(t *testing.T) {
	p := newTestPage()
	w, ok := p.Watch(0)
	require.True(t, ok)

	_, err := p.AddCommits(context.Background(), []ir.CommitUpload{
		testutil.Upload("1", testutil.DiffFrom(ir.At("missing"))),
	})
	require.Error(t, err)
	assert.False(t, w.Fired())
}

// =============================================================================
// Diff synthesis
// =============================================================================

func TestPageCloud_GetDiffUnknownCommit(t *testing.T) {
	p := newTestPage()

	_, err := p.GetDiff("nope", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestPageCloud_ShortestDiffSelection(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p,
		testutil.Upload("C1", testutil.DiffFrom(ir.EmptyPage, testutil.Insert("a", "1"))),
		testutil.Upload("C2", testutil.DiffFrom(ir.At("C1"), testutil.Insert("b", "2"))),
		testutil.Upload("C3", testutil.DiffFrom(ir.At("C2"), testutil.Delete("b", "2"))),
	)

	d, err := p.GetDiff("C1", []ir.CommitID{"C3"})
	require.NoError(t, err)
	assert.Equal(t, ir.At("C3"), d.BaseState)
	assert.Empty(t, d.Changes)

	d, err = p.GetDiff("C1", nil)
	require.NoError(t, err)
	assert.Equal(t, ir.EmptyPage, d.BaseState)
	testutil.AssertSameEntries(t, []ir.DiffEntry{testutil.Insert("a", "1")}, d.Changes)
}

func TestPageCloud_OriginPropagation(t *testing.T) {
	p := newTestPage()
	base := ir.EmptyPage
	ids := []ir.CommitID{"c1", "c2", "c3", "c4", "c5", "c6"}
	for _, id := range ids {
		mustAdd(t, p, ir.CommitUpload{
			Commit: ir.Commit{ID: id, Data: []byte(id)},
			Diff:   testutil.DiffFrom(base, testutil.Insert(string(id), "v")),
		})
		base = ir.At(id)
	}

	for i, id := range ids {
		assert.Equal(t, ir.EmptyPage, p.Origin(id))
		assert.Equal(t, i+1, p.Depth(id))
	}
}

// buildComplexTree uploads
//
//	empty -> anc -> A -> C
//	           \--> B -> D
func buildComplexTree(t *testing.T, p *PageCloud) {
	t.Helper()
	mustAdd(t, p,
		testutil.Upload("anc", testutil.DiffFrom(ir.EmptyPage,
			testutil.Insert("x0", "x"), testutil.Insert("y0", "y"), testutil.Insert("z0", "z"),
			testutil.Insert("w0", "w"), testutil.Insert("v0", "v"))),
		testutil.Upload("A", testutil.DiffFrom(ir.At("anc"), testutil.Insert("a1", "a"))),
		testutil.Upload("C", testutil.DiffFrom(ir.At("A"), testutil.Insert("c1", "c"))),
		testutil.Upload("B", testutil.DiffFrom(ir.At("anc"), testutil.Insert("b1", "b"))),
		testutil.Upload("D", testutil.DiffFrom(ir.At("B"), testutil.Insert("d1", "d"), testutil.Delete("w0", "w"))),
	)
}

func TestPageCloud_ComplexTreeFromOrigin(t *testing.T) {
	p := newTestPage()
	buildComplexTree(t, p)

	d, err := p.GetDiff("D", nil)
	require.NoError(t, err)
	assert.Equal(t, ir.EmptyPage, d.BaseState)
	testutil.AssertSameEntries(t, []ir.DiffEntry{
		testutil.Insert("x0", "x"),
		testutil.Insert("y0", "y"),
		testutil.Insert("z0", "z"),
		testutil.Insert("v0", "v"),
		testutil.Insert("b1", "b"),
		testutil.Insert("d1", "d"),
	}, d.Changes)
}

func TestPageCloud_ComplexTreeFromSibling(t *testing.T) {
	p := newTestPage()
	buildComplexTree(t, p)

	d, err := p.GetDiff("D", []ir.CommitID{"C"})
	require.NoError(t, err)
	assert.Equal(t, ir.At("C"), d.BaseState)
	testutil.AssertSameEntries(t, []ir.DiffEntry{
		testutil.Delete("c1", "c"),
		testutil.Delete("a1", "a"),
		testutil.Insert("b1", "b"),
		testutil.Insert("d1", "d"),
		testutil.Delete("w0", "w"),
	}, d.Changes)
}

func TestPageCloud_TieBreakPrefersEarliestBase(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p,
		testutil.Upload("C1", testutil.DiffFrom(ir.EmptyPage, testutil.Insert("a", "1"))),
		testutil.Upload("C2", testutil.DiffFrom(ir.At("C1"), testutil.Insert("b", "1"))),
		testutil.Upload("C3", testutil.DiffFrom(ir.At("C1"), testutil.Insert("c", "1"))),
		testutil.Upload("C4", testutil.DiffFrom(ir.At("C1"), testutil.Insert("d", "1"))),
	)

	// Every candidate for C3 yields two changes
	d, err := p.GetDiff("C3", []ir.CommitID{"C2", "C4"})
	require.NoError(t, err)
	assert.Equal(t, ir.At("C2"), d.BaseState)

	d, err = p.GetDiff("C3", []ir.CommitID{"C4", "C2"})
	require.NoError(t, err)
	assert.Equal(t, ir.At("C4"), d.BaseState)

	// A tied base beats the origin
	d, err = p.GetDiff("C3", []ir.CommitID{"C2"})
	require.NoError(t, err)
	assert.Equal(t, ir.At("C2"), d.BaseState)
	assert.Len(t, d.Changes, 2)
}

func TestPageCloud_ForeignOriginBasesDropped(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p,
		testutil.Upload("legacy", nil),
		testutil.Upload("L1", testutil.DiffFrom(ir.At("legacy"), testutil.Insert("a", "1"))),
		testutil.Upload("E1", testutil.DiffFrom(ir.EmptyPage)),
	)

	// E1 is zero changes from the empty page but unrelated to legacy
	d, err := p.GetDiff("L1", []ir.CommitID{"E1", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, ir.At("legacy"), d.BaseState)
	testutil.AssertSameEntries(t, []ir.DiffEntry{testutil.Insert("a", "1")}, d.Changes)
}

func TestPageCloud_DiffOfLegacyCommit(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p, testutil.Upload("legacy", nil))

	d, err := p.GetDiff("legacy", nil)
	require.NoError(t, err)
	assert.Equal(t, ir.At("legacy"), d.BaseState)
	assert.Empty(t, d.Changes)
}

func TestPageCloud_BaseEqualToTarget(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p, testutil.Upload("C1", testutil.DiffFrom(ir.EmptyPage, testutil.Insert("a", "1"))))

	d, err := p.GetDiff("C1", []ir.CommitID{"C1"})
	require.NoError(t, err)
	assert.Equal(t, ir.At("C1"), d.BaseState)
	assert.Empty(t, d.Changes)
}

func TestPageCloud_DiffCacheDisabledGivesSameResult(t *testing.T) {
	cached := newTestPage()
	uncached := newTestPage(WithDiffCacheSize(0))
	buildComplexTree(t, cached)
	buildComplexTree(t, uncached)

	for _, bases := range [][]ir.CommitID{nil, {"C"}, {"A", "B"}} {
		d1, err := cached.GetDiff("D", bases)
		require.NoError(t, err)
		d2, err := uncached.GetDiff("D", bases)
		require.NoError(t, err)

		assert.Equal(t, d1.BaseState, d2.BaseState)
		testutil.AssertSameEntries(t, d1.Changes, d2.Changes)
	}
}

func TestPageCloud_ReturnedDiffDoesNotAliasCache(t *testing.T) {
	p := newTestPage()
	mustAdd(t, p, testutil.Upload("C1", testutil.DiffFrom(ir.EmptyPage, testutil.Insert("a", "1"))))

	d, err := p.GetDiff("C1", nil)
	require.NoError(t, err)
	d.Changes[0].EntryID[0] = 'z'
	d.Changes[0].Data[0] = '9'

	again, err := p.GetDiff("C1", nil)
	require.NoError(t, err)
	testutil.AssertSameEntries(t, []ir.DiffEntry{testutil.Insert("a", "1")}, again.Changes)
}

// =============================================================================
// Objects
// =============================================================================

func TestPageCloud_Objects(t *testing.T) {
	p := newTestPage()
	ctx := context.Background()

	_, err := p.GetObject("o1")
	assert.True(t, IsNotFound(err))

	require.NoError(t, p.AddObject(ctx, "o1", ir.Object{Data: []byte("one")}))
	require.NoError(t, p.AddObject(ctx, "o1", ir.Object{Data: []byte("uno")}), "re-adding is not an error")

	obj, err := p.GetObject("o1")
	require.NoError(t, err)
	assert.Equal(t, "uno", string(obj.Data))
}

// =============================================================================
// Journal and metrics
// =============================================================================

func TestPageCloud_JournalReceivesAcceptedOnly(t *testing.T) {
	j := &fakeJournal{}
	p := newTestPage(WithJournal(j))

	mustAdd(t, p, testutil.Upload("1", nil))
	mustAdd(t, p, testutil.Upload("1", nil), testutil.Upload("2", nil))
	mustAdd(t, p, testutil.Upload("2", nil))

	require.Len(t, j.batches, 2, "no-op uploads are not journaled")
	assert.Equal(t, ir.CommitID("1"), j.batches[0][0].Commit.ID)
	require.Len(t, j.batches[1], 1)
	assert.Equal(t, ir.CommitID("2"), j.batches[1][0].Commit.ID)
}

func TestPageCloud_JournalFailureLeavesPageUnchanged(t *testing.T) {
	j := &fakeJournal{err: errors.New("disk full")}
	p := newTestPage(WithJournal(j))
	w, ok := p.Watch(0)
	require.True(t, ok)

	_, err := p.AddCommits(context.Background(), []ir.CommitUpload{testutil.Upload("1", nil)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, p.Len())
	assert.False(t, w.Fired())

	err = p.AddObject(context.Background(), "o1", ir.Object{Data: []byte("x")})
	require.Error(t, err)
	_, err = p.GetObject("o1")
	assert.True(t, IsNotFound(err))
}

func TestPageCloud_RestoreSkipsJournal(t *testing.T) {
	j := &fakeJournal{}
	p := newTestPage(WithJournal(j))

	n, err := p.Restore([]ir.CommitUpload{testutil.Upload("1", nil)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, j.batches)

	p.RestoreObject("o1", ir.Object{Data: []byte("x")})
	assert.Empty(t, j.objects)
	_, err = p.GetObject("o1")
	assert.NoError(t, err)
}

func TestPageCloud_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	p := newTestPage(WithMetrics(m))

	mustAdd(t, p,
		testutil.Upload("C1", testutil.DiffFrom(ir.EmptyPage, testutil.Insert("a", "1"))),
		testutil.Upload("C2", testutil.DiffFrom(ir.At("C1"), testutil.Insert("b", "2"))),
	)
	_, err := p.AddCommits(context.Background(), []ir.CommitUpload{testutil.Upload("X", testutil.DiffFrom(ir.At("nope")))})
	require.Error(t, err)

	_, err = p.GetDiff("C2", nil)
	require.NoError(t, err)
	_, err = p.GetDiff("C2", nil)
	require.NoError(t, err)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.CommitsAccepted))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.CommitsRejected.WithLabelValues(string(ErrCodeNotFound))))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.DiffRequests))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.DiffCacheHits))
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.accepted(1)
		m.rejected(ErrCodeArgument)
		m.diffServed(3)
		m.cacheHit()
	})
}
