package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/pagecloud/internal/store"
)

// StatsResult combines journal row counts with the metrics collected while
// restoring it.
type StatsResult struct {
	Journal store.Stats        `json:"journal"`
	Metrics map[string]float64 `json:"metrics"`
}

func (r StatsResult) String() string {
	var b strings.Builder
	j := r.Journal
	fmt.Fprintf(&b, "journal version %s (schema %d)\n", j.JournalVersion, j.SchemaVersion)
	fmt.Fprintf(&b, "pages         %d\n", j.Pages)
	fmt.Fprintf(&b, "commits       %d\n", j.Commits)
	fmt.Fprintf(&b, "diffs         %d\n", j.Diffs)
	fmt.Fprintf(&b, "diff entries  %d\n", j.DiffEntries)
	fmt.Fprintf(&b, "objects       %d\n", j.Objects)
	fmt.Fprintf(&b, "fingerprints  %d", j.Fingerprints)

	names := make([]string, 0, len(r.Metrics))
	for name := range r.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n%s %g", name, r.Metrics[name])
	}
	return b.String()
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the journal",
		Long: `Print row counts of the journal and the metrics recorded while restoring
it into memory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.store.Stats(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal stats", err)
	}

	metrics, err := gatherMetrics(s.registry)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to gather metrics", err)
	}

	return opts.formatter(cmd).Success(StatsResult{Journal: st, Metrics: metrics})
}

// gatherMetrics flattens counters and gauges to name{labels} -> value.
// Histograms contribute their sample count and sum.
func gatherMetrics(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				pairs := make([]string, len(labels))
				for i, lp := range labels {
					pairs[i] = fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
				}
				name += "{" + strings.Join(pairs, ",") + "}"
			}

			switch {
			case m.Counter != nil:
				out[name] = m.GetCounter().GetValue()
			case m.Gauge != nil:
				out[name] = m.GetGauge().GetValue()
			case m.Histogram != nil:
				out[name+"_count"] = float64(m.GetHistogram().GetSampleCount())
				out[name+"_sum"] = m.GetHistogram().GetSampleSum()
			}
		}
	}
	return out, nil
}
