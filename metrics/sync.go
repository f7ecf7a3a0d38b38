package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_records_total",
			Help: "Supplier records handled by sync passes, by outcome.",
		},
		[]string{"outcome"}, // new | updated | unchanged | error
	)
	syncPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_passes_total",
			Help: "Completed sync passes by type and final status.",
		},
		[]string{"type", "status"},
	)
	syncPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_sync_pass_duration_seconds",
			Help:    "Wall time of a sync pass.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800},
		},
	)
	realtimeLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_realtime_lookups_total",
			Help: "Price/stock cache lookups by result.",
		},
		[]string{"result"}, // hit | miss | fallback
	)
	realtimeCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_realtime_cache_entries",
			Help: "Entries currently held by the price/stock cache.",
		},
	)
)

func init() {
	prometheus.MustRegister(syncRecordsTotal, syncPassesTotal, syncPassDuration)
	prometheus.MustRegister(realtimeLookupsTotal, realtimeCacheEntries)
}

func RecordSyncRecords(newCount, updated, unchanged, errored int) {
	syncRecordsTotal.WithLabelValues("new").Add(float64(newCount))
	syncRecordsTotal.WithLabelValues("updated").Add(float64(updated))
	syncRecordsTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	syncRecordsTotal.WithLabelValues("error").Add(float64(errored))
}

func RecordSyncPass(passType, status string, duration time.Duration) {
	syncPassesTotal.WithLabelValues(passType, status).Inc()
	syncPassDuration.Observe(duration.Seconds())
}

func RecordCacheHit()      { realtimeLookupsTotal.WithLabelValues("hit").Inc() }
func RecordCacheMiss()     { realtimeLookupsTotal.WithLabelValues("miss").Inc() }
func RecordCacheFallback() { realtimeLookupsTotal.WithLabelValues("fallback").Inc() }

func SetCacheEntries(n int) {
	realtimeCacheEntries.Set(float64(n))
}
