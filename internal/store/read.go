package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/pagecloud/internal/ir"
)

// PageIDs returns every page with at least one journaled commit or object,
// sorted by id.
func (s *Store) PageIDs(ctx context.Context) ([]ir.PageID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT page_id FROM commits
		UNION
		SELECT page_id FROM objects
		ORDER BY page_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query page ids: %w", err)
	}
	defer rows.Close()

	ids := []ir.PageID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan page id: %w", err)
		}
		ids = append(ids, ir.PageID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page ids: %w", err)
	}
	return ids, nil
}

// ReadCommits returns a page's journaled commits in log order, each with
// the diff it was uploaded with.
//
// Every diff is checked against its stored digest; a mismatch means the
// journal was modified outside pagecloud and is reported as an error.
func (s *Store) ReadCommits(ctx context.Context, pageID ir.PageID) ([]ir.CommitUpload, error) {
	entries, err := s.readDiffEntries(ctx, pageID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.data, d.base_at_commit, d.base_commit, d.digest
		FROM commits c
		LEFT JOIN diffs d ON d.page_id = c.page_id AND d.commit_id = c.id
		WHERE c.page_id = ?
		ORDER BY c.seq ASC
	`, string(pageID))
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	uploads := []ir.CommitUpload{}
	for rows.Next() {
		var (
			id       string
			data     []byte
			atCommit sql.NullBool
			base     sql.NullString
			digest   sql.NullString
		)
		if err := rows.Scan(&id, &data, &atCommit, &base, &digest); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}

		u := ir.CommitUpload{Commit: ir.Commit{ID: ir.CommitID(id), Data: nonNil(data)}}
		if digest.Valid {
			changes := entries[u.Commit.ID]
			if changes == nil {
				changes = []ir.DiffEntry{}
			}
			d := ir.Diff{
				BaseState: unmarshalBase(atCommit.Bool, base.String),
				Changes:   changes,
			}
			if err := verifyDigest(d, digest.String); err != nil {
				return nil, fmt.Errorf("commit %s: %w", id, err)
			}
			u.Diff = &d
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}

	return uploads, nil
}

// readDiffEntries returns every diff entry of a page grouped by commit, in
// upload order.
func (s *Store) readDiffEntries(ctx context.Context, pageID ir.PageID) (map[ir.CommitID][]ir.DiffEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT commit_id, entry_id, data, op
		FROM diff_entries
		WHERE page_id = ?
		ORDER BY commit_id COLLATE BINARY ASC, ord ASC
	`, string(pageID))
	if err != nil {
		return nil, fmt.Errorf("query diff entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[ir.CommitID][]ir.DiffEntry)
	for rows.Next() {
		var (
			commitID string
			entryID  []byte
			data     []byte
			opText   string
		)
		if err := rows.Scan(&commitID, &entryID, &data, &opText); err != nil {
			return nil, fmt.Errorf("scan diff entry: %w", err)
		}
		op, err := unmarshalOp(opText)
		if err != nil {
			return nil, err
		}
		id := ir.CommitID(commitID)
		entries[id] = append(entries[id], ir.DiffEntry{
			EntryID:   nonNil(entryID),
			Data:      nonNil(data),
			Operation: op,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diff entries: %w", err)
	}
	return entries, nil
}

func verifyDigest(d ir.Diff, want string) error {
	got, err := ir.DiffDigest(d)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("diff digest mismatch: stored %s, computed %s", want, got)
	}
	return nil
}

// ReadObjects returns a page's journaled objects sorted by id.
func (s *Store) ReadObjects(ctx context.Context, pageID ir.PageID) ([]ir.NamedObject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data FROM objects
		WHERE page_id = ?
		ORDER BY id COLLATE BINARY ASC
	`, string(pageID))
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	objects := []ir.NamedObject{}
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		objects = append(objects, ir.NamedObject{ID: ir.ObjectID(id), Object: ir.Object{Data: nonNil(data)}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	return objects, nil
}

// ReadFingerprints returns the journaled device fingerprints, sorted.
func (s *Store) ReadFingerprints(ctx context.Context) ([]ir.Fingerprint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fp FROM fingerprints ORDER BY fp COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	fps := []ir.Fingerprint{}
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		fps = append(fps, ir.Fingerprint(fp))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fingerprints: %w", err)
	}
	return fps, nil
}

// Children returns the commits whose diffs are based on commitID, in log
// order.
func (s *Store) Children(ctx context.Context, pageID ir.PageID, commitID ir.CommitID) ([]ir.CommitID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.commit_id
		FROM diffs d
		JOIN commits c ON c.page_id = d.page_id AND c.id = d.commit_id
		WHERE d.page_id = ? AND d.base_at_commit = 1 AND d.base_commit = ?
		ORDER BY c.seq ASC
	`, string(pageID), string(commitID))
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	children := []ir.CommitID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, ir.CommitID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}
	return children, nil
}
