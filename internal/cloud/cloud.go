package cloud

import (
	"log/slog"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/roach88/pagecloud/internal/ir"
	"github.com/roach88/pagecloud/internal/page"
)

// Cloud holds every page of the service plus the device set.
//
// Pages are created on first reference and live as long as the Cloud.
// Concurrent first references to the same id yield the same page.
type Cloud struct {
	pages   *xsync.MapOf[ir.PageID, *page.PageCloud]
	devices *DeviceSet

	logger        *slog.Logger
	journal       Journal
	metrics       *Metrics
	diffCacheSize int
}

// Option configures a Cloud.
type Option func(*Cloud)

// WithLogger sets the logger used by the cloud and its pages.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cloud) {
		c.logger = logger
	}
}

// WithJournal attaches a write-ahead journal to the cloud, its pages and its
// device set.
func WithJournal(j Journal) Option {
	return func(c *Cloud) {
		c.journal = j
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(c *Cloud) {
		c.metrics = m
	}
}

// WithDiffCacheSize sets the per-page diff cache size.
// Default: page.DefaultDiffCacheSize.
func WithDiffCacheSize(n int) Option {
	return func(c *Cloud) {
		c.diffCacheSize = n
	}
}

// New creates an empty cloud.
func New(opts ...Option) *Cloud {
	c := &Cloud{
		pages:         xsync.NewMapOf[ir.PageID, *page.PageCloud](),
		logger:        slog.Default(),
		diffCacheSize: page.DefaultDiffCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.devices = newDeviceSet(c.logger, c.journal, c.metrics)
	return c
}

// Page returns the page with the given id, creating it if needed.
// Never fails.
func (c *Cloud) Page(id ir.PageID) *page.PageCloud {
	p, _ := c.pages.LoadOrCompute(id, func() *page.PageCloud {
		c.metrics.pageCreated()
		c.logger.Debug("page created", "page", id)
		return page.New(id, c.pageOptions(id)...)
	})
	return p
}

func (c *Cloud) pageOptions(id ir.PageID) []page.Option {
	opts := []page.Option{
		page.WithLogger(c.logger),
		page.WithDiffCacheSize(c.diffCacheSize),
		page.WithMetrics(c.metrics.pageMetrics()),
	}
	if c.journal != nil {
		opts = append(opts, page.WithJournal(pageJournal{pageID: id, journal: c.journal}))
	}
	return opts
}

// DeviceSet returns the cloud's device set.
func (c *Cloud) DeviceSet() *DeviceSet {
	return c.devices
}

// PageIDs returns the ids of every page created so far, sorted.
func (c *Cloud) PageIDs() []ir.PageID {
	ids := make([]ir.PageID, 0, c.pages.Size())
	c.pages.Range(func(id ir.PageID, _ *page.PageCloud) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
