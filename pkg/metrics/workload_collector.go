package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/careerlink/portal-engine/internal/stats"
)

// StatsSource provides the rollups exported on every scrape.
type StatsSource interface {
	VerificationStats(ctx context.Context) (stats.VerificationStats, error)
	ApplicationStats(ctx context.Context) (stats.ApplicationStats, error)
}

type workloadCollector struct {
	source                  StatsSource
	verificationsByStatus   *prometheus.Desc
	verificationsByPriority *prometheus.Desc
	pendingByAge            *prometheus.Desc
	avgDaysToResolution     *prometheus.Desc
	applicationsByStatus    *prometheus.Desc
	applicationRates        *prometheus.Desc
}

func NewWorkloadCollector(source StatsSource) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_workload_%s", portal, name)
	}

	return &workloadCollector{
		source: source,
		verificationsByStatus: prometheus.NewDesc(
			fqName("verifications"),
			"Verification records by status.",
			[]string{"status"},
			prometheus.Labels{},
		),
		verificationsByPriority: prometheus.NewDesc(
			fqName("verifications_by_priority"),
			"Verification records by stored priority.",
			[]string{"priority"},
			prometheus.Labels{},
		),
		pendingByAge: prometheus.NewDesc(
			fqName("pending_verifications_by_age"),
			"Open verification records by waiting time bucket.",
			[]string{"age"},
			prometheus.Labels{},
		),
		avgDaysToResolution: prometheus.NewDesc(
			fqName("verification_resolution_days_avg"),
			"Average days from request to decision over resolved records.",
			nil,
			prometheus.Labels{},
		),
		applicationsByStatus: prometheus.NewDesc(
			fqName("applications"),
			"Application records by status.",
			[]string{"status"},
			prometheus.Labels{},
		),
		applicationRates: prometheus.NewDesc(
			fqName("application_rate"),
			"Hiring funnel conversion rates.",
			[]string{"stage"},
			prometheus.Labels{},
		),
	}
}

func (c *workloadCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.verificationsByStatus
	ch <- c.verificationsByPriority
	ch <- c.pendingByAge
	ch <- c.avgDaysToResolution
	ch <- c.applicationsByStatus
	ch <- c.applicationRates
}

// Collect implements Collector.
func (c *workloadCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	v, err := c.source.VerificationStats(ctx)
	if err != nil {
		zap.S().Named("workload_collector").Errorf("failed to collect verification statistics: %s", err)
	} else {
		for status, total := range v.ByStatus {
			ch <- prometheus.MustNewConstMetric(c.verificationsByStatus, prometheus.GaugeValue, float64(total), string(status))
		}
		for priority, total := range v.ByPriority {
			ch <- prometheus.MustNewConstMetric(c.verificationsByPriority, prometheus.GaugeValue, float64(total), string(priority))
		}
		for age, total := range v.PendingAge {
			ch <- prometheus.MustNewConstMetric(c.pendingByAge, prometheus.GaugeValue, float64(total), age)
		}
		if v.HasResolutionData {
			ch <- prometheus.MustNewConstMetric(c.avgDaysToResolution, prometheus.GaugeValue, v.AverageDaysToResolution)
		}
	}

	a, err := c.source.ApplicationStats(ctx)
	if err != nil {
		zap.S().Named("workload_collector").Errorf("failed to collect application statistics: %s", err)
		return
	}
	for status, total := range a.ByStatus {
		ch <- prometheus.MustNewConstMetric(c.applicationsByStatus, prometheus.GaugeValue, float64(total), string(status))
	}
	ch <- prometheus.MustNewConstMetric(c.applicationRates, prometheus.GaugeValue, a.ShortlistRate, "shortlist")
	ch <- prometheus.MustNewConstMetric(c.applicationRates, prometheus.GaugeValue, a.SelectionRate, "selection")
	ch <- prometheus.MustNewConstMetric(c.applicationRates, prometheus.GaugeValue, a.AcceptanceRate, "acceptance")
}
