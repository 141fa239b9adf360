package page

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/pagecloud/internal/difftree"
	"github.com/roach88/pagecloud/internal/ir"
	"github.com/roach88/pagecloud/internal/signal"
)

// diffKey identifies one synthesized diff in the cache.
type diffKey struct {
	from ir.PageState
	to   ir.PageState
}

// PageCloud stores the commits, diffs and objects of one page.
//
// Thread-safety model:
//   - Mutations (AddCommits, AddObject) take the write lock and are atomic:
//     readers never observe a partially applied upload
//   - Reads take the read lock
//   - Watchers only hold a signal.Watcher, never a reference into the page
//
// INVARIANTS:
//   - commitLog is append-only; a commit appears in it at most once
//   - every commit in commitLog is in commits, and vice versa
//   - a diff's base commit was stored before the diff's commit
type PageCloud struct {
	id ir.PageID

	mu        sync.RWMutex
	objects   map[ir.ObjectID]ir.Object
	commitLog []ir.CommitID
	commits   map[ir.CommitID]ir.Commit
	diffs     *difftree.Tree
	newCommit *signal.Signal

	logger    *slog.Logger
	journal   Journal
	metrics   *Metrics
	cacheSize int
	cache     *lru.Cache[diffKey, []ir.DiffEntry]
}

// New creates an empty page.
func New(id ir.PageID, opts ...Option) *PageCloud {
	p := &PageCloud{
		id:        id,
		objects:   make(map[ir.ObjectID]ir.Object),
		commits:   make(map[ir.CommitID]ir.Commit),
		diffs:     difftree.NewTree(),
		newCommit: signal.New(),
		logger:    slog.Default(),
		cacheSize: DefaultDiffCacheSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.cacheSize > 0 {
		// lru.New only fails for a non-positive size
		p.cache, _ = lru.New[diffKey, []ir.DiffEntry](p.cacheSize)
	}

	return p
}

// ID returns the page id.
func (p *PageCloud) ID() ir.PageID {
	return p.id
}

// AddCommits ingests uploaded commits in order and returns how many were
// appended to the commit log.
//
// Commits already stored are skipped silently. The call fails as a whole,
// leaving the page unchanged, if:
//   - a new commit id appears twice in uploads (ARGUMENT_ERROR)
//   - a diff is based on a commit that is neither stored nor uploaded
//     earlier in the same call (NOT_FOUND)
//
// The second rule is what keeps the diff tree acyclic: a commit can never be
// based on itself or on a later commit.
//
// When a journal is attached, accepted commits are journaled before they are
// applied; a journal error also leaves the page unchanged. ctx is only used
// by the journal.
//
// Watchers are woken when at least one commit was appended.
func (p *PageCloud) AddCommits(ctx context.Context, uploads []ir.CommitUpload) (int, error) {
	return p.addCommits(ctx, uploads, true)
}

// Restore ingests commits read back from the journal. It validates exactly
// like AddCommits but does not journal them again.
func (p *PageCloud) Restore(uploads []ir.CommitUpload) (int, error) {
	return p.addCommits(context.Background(), uploads, false)
}

func (p *PageCloud) addCommits(ctx context.Context, uploads []ir.CommitUpload, journal bool) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	accepted, err := p.validate(uploads)
	if err != nil {
		p.metrics.rejected(CodeOf(err))
		p.logger.Warn("upload rejected", "page", p.id, "error", err)
		return 0, err
	}
	if len(accepted) == 0 {
		return 0, nil
	}

	if journal && p.journal != nil {
		if err := p.journal.AppendCommits(ctx, accepted); err != nil {
			p.logger.Error("journal append failed", "page", p.id, "commits", len(accepted), "error", err)
			return 0, fmt.Errorf("add commits: %w", err)
		}
	}

	for _, u := range accepted {
		p.commitLog = append(p.commitLog, u.Commit.ID)
		if u.Diff != nil {
			p.diffs.Add(u.Commit.ID, *u.Diff)
		}
		p.commits[u.Commit.ID] = u.Commit
	}

	p.newCommit.SignalAndRearm()
	p.metrics.accepted(len(accepted))
	p.logger.Info("commits accepted",
		"page", p.id,
		"accepted", len(accepted),
		"skipped", len(uploads)-len(accepted),
		"log_length", len(p.commitLog),
	)

	return len(accepted), nil
}

// validate checks uploads against the current state without mutating it and
// returns private copies of the uploads to apply. Caller holds p.mu.
func (p *PageCloud) validate(uploads []ir.CommitUpload) ([]ir.CommitUpload, error) {
	pending := make(map[ir.CommitID]bool)
	var accepted []ir.CommitUpload

	for _, u := range uploads {
		id := u.Commit.ID
		if _, stored := p.commits[id]; stored {
			continue
		}
		if pending[id] {
			return nil, NewDuplicateCommitError(id)
		}
		if u.Diff != nil && u.Diff.BaseState.AtCommit {
			base := u.Diff.BaseState.Commit
			if _, stored := p.commits[base]; !stored && !pending[base] {
				return nil, NewUnknownBaseError(id, base)
			}
		}

		pending[id] = true
		accepted = append(accepted, cloneUpload(u))
	}

	return accepted, nil
}

func cloneUpload(u ir.CommitUpload) ir.CommitUpload {
	out := ir.CommitUpload{Commit: u.Commit.Clone()}
	if u.Diff != nil {
		out.Diff = &ir.Diff{
			BaseState: u.Diff.BaseState,
			Changes:   ir.CloneEntries(u.Diff.Changes),
		}
	}
	return out
}

// GetCommits returns every commit uploaded after position, in upload order,
// and the token to resume from. ok is false when there is nothing new.
// A negative position reads from the start.
//
// The returned commits are copies.
func (p *PageCloud) GetCommits(position ir.Token) (next ir.Token, commits []ir.Commit, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	start := max(int(position), 0)
	if start >= len(p.commitLog) {
		return position, nil, false
	}

	commits = make([]ir.Commit, 0, len(p.commitLog)-start)
	for _, id := range p.commitLog[start:] {
		commits = append(commits, p.commits[id].Clone())
	}
	return ir.Token(len(p.commitLog)), commits, true
}

// Watch returns a watcher that fires the next time commits are appended.
// ok is false when commits after position already exist: the caller should
// call GetCommits instead of waiting.
//
// A fired watcher does not guarantee new data past any particular position;
// callers re-check with GetCommits.
func (p *PageCloud) Watch(position ir.Token) (w *signal.Watcher, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if int(position) < len(p.commitLog) {
		return nil, false
	}
	return p.newCommit.Watch(), true
}

// Len returns the length of the commit log.
func (p *PageCloud) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.commitLog)
}

// HasCommit reports whether id is stored.
func (p *PageCloud) HasCommit(id ir.CommitID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.commits[id]
	return ok
}
