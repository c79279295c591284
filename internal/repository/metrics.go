package repository

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchDayTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "millkeeper_fetch_day_total",
		Help: "Day reads by serving store",
	}, []string{"source"})

	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "millkeeper_sync_runs_total",
		Help: "Mirror and cleanup runs by outcome",
	}, []string{"result"}) // ok, error, busy

	syncRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "millkeeper_sync_records_total",
		Help: "Records processed by mirror and cleanup",
	}, []string{"operation"}) // mirrored, deleted

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "millkeeper_sync_duration_seconds",
		Help:    "Duration of mirror and cleanup runs",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms … ~100s
	})
)
