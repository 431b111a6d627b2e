package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce   sync.Once
	dispatchTotal *prometheus.CounterVec
	turnsTotal    *prometheus.CounterVec
	eventsTotal   *prometheus.CounterVec
	droppedTotal  prometheus.Counter
	turnSeconds   prometheus.Histogram
)

func initMetrics() {
	dispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "careerdesk",
		Name:      "dispatch_total",
		Help:      "Handler dispatches by handler name.",
	}, []string{"handler"})
	turnsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "careerdesk",
		Name:      "turns_total",
		Help:      "Completed turns by outcome.",
	}, []string{"outcome"})
	eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "careerdesk",
		Name:      "observability_events_total",
		Help:      "Fault reports accepted by the sink.",
	}, []string{"event"})
	droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "careerdesk",
		Name:      "observability_dropped_total",
		Help:      "Fault reports dropped because the sink buffer was full or closed.",
	})
	turnSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "careerdesk",
		Name:      "turn_seconds",
		Help:      "Wall time of one conversational turn.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
	prometheus.MustRegister(dispatchTotal, turnsTotal, eventsTotal, droppedTotal, turnSeconds)
}

// RecordDispatch counts one handler dispatch.
func RecordDispatch(handler string) {
	metricsOnce.Do(initMetrics)
	dispatchTotal.WithLabelValues(handler).Inc()
}

// RecordTurn counts one finished turn and its latency in seconds.
func RecordTurn(outcome string, seconds float64) {
	metricsOnce.Do(initMetrics)
	turnsTotal.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		turnSeconds.Observe(seconds)
	}
}

func recordEvent(event string) {
	metricsOnce.Do(initMetrics)
	eventsTotal.WithLabelValues(event).Inc()
}

func recordDropped() {
	metricsOnce.Do(initMetrics)
	droppedTotal.Inc()
}
