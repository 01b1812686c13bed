package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"github.com/prometheus/client_golang/prometheus"
)

type uniqueReviewers struct {
	counter prometheus.Gauge
	cache   map[string]struct{}
	mu      sync.RWMutex
}

const reviewerCountPerWeek = "reviewers_count_per_week"

var totalUniqueReviewersPerWeekMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: portal,
		Name:      reviewerCountPerWeek,
		Help:      "number of distinct administrators who acted on a record this week",
	},
)

var UniqueReviewersPerWeek = &uniqueReviewers{
	counter: totalUniqueReviewersPerWeekMetric,
	cache:   make(map[string]struct{}),
}

func (v *uniqueReviewers) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cache = make(map[string]struct{})
	v.counter.Set(0)
}

func (v *uniqueReviewers) Observe(reviewer string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.cache[reviewer]; exists {
		return
	}

	v.cache[reviewer] = struct{}{}
	v.counter.Inc()
}

func (v *uniqueReviewers) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.cache)
}

// RunWeeklyReset clears the reviewers gauge every interval until ctx is done.
func (v *uniqueReviewers) RunWeeklyReset(ctx context.Context, interval time.Duration) {
	ticker := jitterbug.New(interval, &jitterbug.Norm{Stdev: time.Second, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.Reset()
		}
	}
}
