package cloud

import (
	"context"
	"fmt"

	"github.com/roach88/pagecloud/internal/ir"
)

// Snapshot reads back journaled state. Implemented by store.Store.
type Snapshot interface {
	PageIDs(ctx context.Context) ([]ir.PageID, error)
	ReadCommits(ctx context.Context, pageID ir.PageID) ([]ir.CommitUpload, error)
	ReadObjects(ctx context.Context, pageID ir.PageID) ([]ir.NamedObject, error)
	ReadFingerprints(ctx context.Context) ([]ir.Fingerprint, error)
}

// Restore loads src into the cloud without journaling it again.
//
// Commits are replayed in log order through the same validation as
// AddCommits, so a restored page has the same commit log, diff tree and
// tokens as the page that wrote the journal. A journal that fails
// validation is corrupt and aborts the restore.
func (c *Cloud) Restore(ctx context.Context, src Snapshot) error {
	ids, err := src.PageIDs(ctx)
	if err != nil {
		return fmt.Errorf("restore: list pages: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("restore: %w", err)
		}

		p := c.Page(id)

		uploads, err := src.ReadCommits(ctx, id)
		if err != nil {
			return fmt.Errorf("restore page %s: read commits: %w", id, err)
		}
		if _, err := p.Restore(uploads); err != nil {
			return fmt.Errorf("restore page %s: %w", id, err)
		}

		objects, err := src.ReadObjects(ctx, id)
		if err != nil {
			return fmt.Errorf("restore page %s: read objects: %w", id, err)
		}
		for _, obj := range objects {
			p.RestoreObject(obj.ID, obj.Object)
		}
	}

	fps, err := src.ReadFingerprints(ctx)
	if err != nil {
		return fmt.Errorf("restore: read fingerprints: %w", err)
	}
	for _, fp := range fps {
		c.devices.restore(fp)
	}

	c.logger.Info("cloud restored", "pages", len(ids), "fingerprints", len(fps))
	return nil
}
