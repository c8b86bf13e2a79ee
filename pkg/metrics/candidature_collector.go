package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/store"
	"go.uber.org/zap"
)

type candidatureStatusCollector struct {
	store    store.Store
	byStatus *prometheus.Desc
}

// NewCandidatureStatusCollector reports the number of candidatures in each
// status on every scrape.
func NewCandidatureStatusCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_candidatures_%s", recruitment, name)
	}

	return &candidatureStatusCollector{
		store: s,
		byStatus: prometheus.NewDesc(
			fqName("by_status"),
			"Number of candidatures in each status.",
			[]string{"status"},
			prometheus.Labels{},
		),
	}
}

func (c *candidatureStatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.byStatus
}

// Collect implements Collector.
func (c *candidatureStatusCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.store.Candidature().CountByStatus(context.Background(), nil)
	if err != nil {
		zap.S().Named("candidature_collector").Errorw("failed to count candidatures", "error", err)
		return
	}

	// every status is reported so dashboards see explicit zeros
	for _, status := range lifecycle.Statuses {
		ch <- prometheus.MustNewConstMetric(c.byStatus, prometheus.GaugeValue, float64(counts[status]), string(status))
	}
}
