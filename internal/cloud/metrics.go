package cloud

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/pagecloud/internal/page"
)

// Metrics holds the cloud collectors plus the page collectors shared by
// every page. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Page     *page.Metrics
	Pages    prometheus.Gauge
	Erasures prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg, if reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Pages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pagecloud",
			Name:      "pages",
			Help:      "Pages held by the cloud.",
		}),
		Erasures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagecloud",
			Name:      "erasures_total",
			Help:      "Device set erasures.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Pages, m.Erasures)
	}
	m.Page = page.NewMetrics(reg)
	return m
}

func (m *Metrics) pageMetrics() *page.Metrics {
	if m == nil {
		return nil
	}
	return m.Page
}

func (m *Metrics) pageCreated() {
	if m != nil {
		m.Pages.Inc()
	}
}

func (m *Metrics) erased() {
	if m != nil {
		m.Erasures.Inc()
	}
}
