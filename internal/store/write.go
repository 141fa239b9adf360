package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/pagecloud/internal/ir"
)

// AppendCommits journals uploads at the end of a page's commit log, in a
// single transaction. Either every upload is journaled or none is.
//
// Uses ON CONFLICT DO NOTHING for idempotency: a commit already journaled
// for the page is skipped along with its diff and keeps its position.
func (s *Store) AppendCommits(ctx context.Context, pageID ir.PageID, uploads []ir.CommitUpload) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var seq int64
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(seq) + 1, 0) FROM commits WHERE page_id = ?
		`, string(pageID)).Scan(&seq); err != nil {
			return fmt.Errorf("next seq: %w", err)
		}

		for _, u := range uploads {
			inserted, err := insertCommit(ctx, tx, pageID, u.Commit, seq)
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			seq++

			if u.Diff != nil {
				if err := insertDiff(ctx, tx, pageID, u.Commit.ID, *u.Diff); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append commits to page %s: %w", pageID, err)
	}
	return nil
}

// insertCommit returns whether a new row was inserted.
func insertCommit(ctx context.Context, tx *sql.Tx, pageID ir.PageID, c ir.Commit, seq int64) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO commits (page_id, id, data, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(page_id, id) DO NOTHING
	`, string(pageID), string(c.ID), nonNil(c.Data), seq)
	if err != nil {
		return false, fmt.Errorf("insert commit %s: %w", c.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert commit %s: rows affected: %w", c.ID, err)
	}
	return rowsAffected > 0, nil
}

func insertDiff(ctx context.Context, tx *sql.Tx, pageID ir.PageID, commitID ir.CommitID, d ir.Diff) error {
	digest, err := ir.DiffDigest(d)
	if err != nil {
		return fmt.Errorf("insert diff of %s: %w", commitID, err)
	}

	atCommit, base := marshalBase(d.BaseState)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO diffs (page_id, commit_id, base_at_commit, base_commit, digest)
		VALUES (?, ?, ?, ?, ?)
	`, string(pageID), string(commitID), atCommit, base, digest); err != nil {
		return fmt.Errorf("insert diff of %s: %w", commitID, err)
	}

	for ord, e := range d.Changes {
		op, err := marshalOp(e.Operation)
		if err != nil {
			return fmt.Errorf("insert diff of %s: %w", commitID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO diff_entries (page_id, commit_id, ord, entry_id, data, op)
			VALUES (?, ?, ?, ?, ?, ?)
		`, string(pageID), string(commitID), ord, nonNil(e.EntryID), nonNil(e.Data), op); err != nil {
			return fmt.Errorf("insert diff entry %d of %s: %w", ord, commitID, err)
		}
	}
	return nil
}

// PutObject journals an object, replacing any previous object with the same
// id on the page.
func (s *Store) PutObject(ctx context.Context, pageID ir.PageID, id ir.ObjectID, obj ir.Object) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objects (page_id, id, data)
		VALUES (?, ?, ?)
		ON CONFLICT(page_id, id) DO UPDATE SET data = excluded.data
	`, string(pageID), string(id), nonNil(obj.Data))
	if err != nil {
		return fmt.Errorf("put object %s on page %s: %w", id, pageID, err)
	}
	return nil
}

// PutFingerprint journals a device fingerprint. Idempotent.
func (s *Store) PutFingerprint(ctx context.Context, fp ir.Fingerprint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fingerprints (fp) VALUES (?)
		ON CONFLICT(fp) DO NOTHING
	`, string(fp))
	if err != nil {
		return fmt.Errorf("put fingerprint: %w", err)
	}
	return nil
}

// EraseFingerprints removes every journaled fingerprint.
func (s *Store) EraseFingerprints(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fingerprints`); err != nil {
		return fmt.Errorf("erase fingerprints: %w", err)
	}
	return nil
}
