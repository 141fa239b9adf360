package page

import (
	"context"
	"log/slog"

	"github.com/roach88/pagecloud/internal/ir"
)

// DefaultDiffCacheSize is the default number of synthesized diffs kept per
// page.
const DefaultDiffCacheSize = 256

// Journal persists accepted mutations of one page before they are applied.
// Implemented by the SQLite store (via the cloud package).
type Journal interface {
	AppendCommits(ctx context.Context, uploads []ir.CommitUpload) error
	PutObject(ctx context.Context, id ir.ObjectID, obj ir.Object) error
}

// Option configures a PageCloud.
type Option func(*PageCloud)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *PageCloud) {
		p.logger = logger
	}
}

// WithJournal attaches a write-ahead journal. Without one the page is purely
// in-memory.
func WithJournal(j Journal) Option {
	return func(p *PageCloud) {
		p.journal = j
	}
}

// WithDiffCacheSize sets how many synthesized diffs are memoized.
// Zero disables the cache.
func WithDiffCacheSize(n int) Option {
	return func(p *PageCloud) {
		p.cacheSize = n
	}
}

// WithMetrics sets the metrics sink. Default: no metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *PageCloud) {
		p.metrics = m
	}
}
