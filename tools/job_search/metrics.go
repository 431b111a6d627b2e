package job_search

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	stageIdentifiers = "identifiers"
	stageDetail      = "detail"

	resultOK     = "ok"
	resultEmpty  = "empty"
	resultFailed = "failed"
)

var (
	fetchMetricsOnce sync.Once
	fetchTotal       *prometheus.CounterVec
	fetchSeconds     *prometheus.HistogramVec
)

func initFetchMetrics() {
	fetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "careerdesk",
		Name:      "listing_fetch_total",
		Help:      "Listing source calls by backend, stage and result.",
	}, []string{"backend", "stage", "result"})
	fetchSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "careerdesk",
		Name:      "listing_fetch_seconds",
		Help:      "Latency of listing source calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "stage"})
	prometheus.MustRegister(fetchTotal, fetchSeconds)
}

func recordFetch(backend Backend, stage, result string, elapsed time.Duration) {
	fetchMetricsOnce.Do(initFetchMetrics)
	b := string(backend)
	if b == "" {
		b = string(ScrapeBackend)
	}
	fetchTotal.WithLabelValues(b, stage, result).Inc()
	if elapsed > 0 {
		fetchSeconds.WithLabelValues(b, stage).Observe(elapsed.Seconds())
	}
}
