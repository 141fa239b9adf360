package page

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the page collectors. One Metrics is shared by every page of
// a cloud. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CommitsAccepted prometheus.Counter
	CommitsRejected *prometheus.CounterVec
	DiffRequests    prometheus.Counter
	DiffSize        prometheus.Histogram
	DiffCacheHits   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg, if reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommitsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagecloud",
			Subsystem: "page",
			Name:      "commits_accepted_total",
			Help:      "Commits appended to page commit logs.",
		}),
		CommitsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagecloud",
			Subsystem: "page",
			Name:      "commits_rejected_total",
			Help:      "Upload batches rejected by validation.",
		}, []string{"code"}),
		DiffRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagecloud",
			Subsystem: "page",
			Name:      "diff_requests_total",
			Help:      "Successful diff synthesis requests.",
		}),
		DiffSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pagecloud",
			Subsystem: "page",
			Name:      "diff_size",
			Help:      "Number of changes in synthesized diffs.",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		}),
		DiffCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagecloud",
			Subsystem: "page",
			Name:      "diff_cache_hits_total",
			Help:      "Diff computations served from the cache.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CommitsAccepted, m.CommitsRejected, m.DiffRequests, m.DiffSize, m.DiffCacheHits)
	}
	return m
}

func (m *Metrics) accepted(n int) {
	if m != nil {
		m.CommitsAccepted.Add(float64(n))
	}
}

func (m *Metrics) rejected(code ErrorCode) {
	if m != nil {
		m.CommitsRejected.WithLabelValues(string(code)).Inc()
	}
}

func (m *Metrics) diffServed(size int) {
	if m != nil {
		m.DiffRequests.Inc()
		m.DiffSize.Observe(float64(size))
	}
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.DiffCacheHits.Inc()
	}
}
