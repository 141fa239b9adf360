package cloud

import (
	"context"

	"github.com/roach88/pagecloud/internal/ir"
)

// Journal persists accepted mutations of a whole cloud before they are
// applied. Implemented by store.Store.
type Journal interface {
	AppendCommits(ctx context.Context, pageID ir.PageID, uploads []ir.CommitUpload) error
	PutObject(ctx context.Context, pageID ir.PageID, id ir.ObjectID, obj ir.Object) error
	PutFingerprint(ctx context.Context, fp ir.Fingerprint) error
	EraseFingerprints(ctx context.Context) error
}

// pageJournal scopes a Journal to one page, satisfying page.Journal.
type pageJournal struct {
	pageID  ir.PageID
	journal Journal
}

func (j pageJournal) AppendCommits(ctx context.Context, uploads []ir.CommitUpload) error {
	return j.journal.AppendCommits(ctx, j.pageID, uploads)
}

func (j pageJournal) PutObject(ctx context.Context, id ir.ObjectID, obj ir.Object) error {
	return j.journal.PutObject(ctx, j.pageID, id, obj)
}
