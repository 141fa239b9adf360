package store

import (
	"context"
	"fmt"
)

// Stats summarizes the contents of a journal.
type Stats struct {
	SchemaVersion  int    `json:"schema_version"`
	JournalVersion string `json:"journal_version"`
	Pages          int    `json:"pages"`
	Commits        int    `json:"commits"`
	Diffs          int    `json:"diffs"`
	DiffEntries    int    `json:"diff_entries"`
	Objects        int    `json:"objects"`
	Fingerprints   int    `json:"fingerprints"`
}

// Stats counts the rows of every journal table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&st.SchemaVersion); err != nil {
		return st, fmt.Errorf("stats: user_version: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'journal_version'`,
	).Scan(&st.JournalVersion); err != nil {
		return st, fmt.Errorf("stats: journal version: %w", err)
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM (SELECT page_id FROM commits UNION SELECT page_id FROM objects)`, &st.Pages},
		{`SELECT COUNT(*) FROM commits`, &st.Commits},
		{`SELECT COUNT(*) FROM diffs`, &st.Diffs},
		{`SELECT COUNT(*) FROM diff_entries`, &st.DiffEntries},
		{`SELECT COUNT(*) FROM objects`, &st.Objects},
		{`SELECT COUNT(*) FROM fingerprints`, &st.Fingerprints},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return st, fmt.Errorf("stats: %w", err)
		}
	}

	return st, nil
}
