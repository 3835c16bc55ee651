package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghstats_batches_total",
			Help: "Total number of batch runs",
		},
	)

	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ghstats_batch_size",
			Help:    "Number of accounts per batch run",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ghstats_batch_duration_seconds",
			Help:    "Wall time of batch runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	accountsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghstats_batch_accounts_resolved_total",
			Help: "Accounts resolved successfully across all batches",
		},
	)

	accountsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghstats_batch_accounts_failed_total",
			Help: "Accounts that failed to resolve across all batches",
		},
	)
)
