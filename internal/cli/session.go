package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/pagecloud/internal/cloud"
	"github.com/roach88/pagecloud/internal/store"
)

// session is a cloud restored from the journal named by --db and
// journaling back to it.
type session struct {
	store    *store.Store
	cloud    *cloud.Cloud
	registry *prometheus.Registry
}

func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	logger := opts.Logger()

	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	reg := prometheus.NewRegistry()
	c := cloud.New(
		cloud.WithLogger(logger),
		cloud.WithJournal(st),
		cloud.WithMetrics(cloud.NewMetrics(reg)),
		cloud.WithDiffCacheSize(opts.DiffCacheSize),
	)

	if err := c.Restore(ctx, st); err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to restore journal", err)
	}
	logger.Debug("journal restored", "db", opts.Database, "pages", len(c.PageIDs()))

	return &session{store: st, cloud: c, registry: reg}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}
