package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests             *prometheus.CounterVec
	CounterHandleRequestPanic   prometheus.Counter
	CounterRateLimitedRequests  prometheus.Counter
	CounterExerciseToggles      prometheus.Counter
	CounterDaysSealed           prometheus.Counter
	CounterDailyResets          prometheus.Counter
	CounterDayRollovers         prometheus.Counter
	CounterSnapshotWrites       *prometheus.CounterVec
	CounterSnapshotsSuperseded  prometheus.Counter
	CounterSnapshotLoadFailures prometheus.Counter

	// gauges
	GaugeRequests   prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge
	GaugeStreak     prometheus.Gauge

	// histograms
	HistogramRequestDuration      *prometheus.HistogramVec
	HistogramSnapshotWriteSeconds prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("dailyfit", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("dailyfit", "test", reg), reg
}

// SetupPrometheus creates the registry with the go runtime / process collectors,
// plus any extra collectors (e.g. the pgx pool collector).
func SetupPrometheus(extraCollectors ...prometheus.Collector) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	promRegistry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, c := range extraCollectors {
		promRegistry.MustRegister(c)
	}

	return promRegistry
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})
	counterExerciseToggles := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "exercise_toggles",
		Help:      "The total number of exercise completion toggles",
	})
	counterDaysSealed := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "days_sealed",
		Help:      "The total number of days sealed (all exercises completed)",
	})
	counterDailyResets := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "daily_resets",
		Help:      "The total number of manual daily resets",
	})
	counterDayRollovers := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "day_rollovers",
		Help:      "The total number of calendar day rollovers seen while running",
	})
	counterSnapshotWrites := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_writes",
		Help:      "The total number of tracker snapshot writes, by result",
	}, []string{"result"})
	counterSnapshotsSuperseded := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshots_superseded",
		Help:      "Snapshots dropped from the write slot because a newer one arrived",
	})
	counterSnapshotLoadFailures := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_load_failures",
		Help:      "Snapshot loads that fell back to the default state",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugeStreak := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "streak_days",
		Help:      "Current streak of consecutive sealed days",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histogramSnapshotWriteSeconds := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_write_duration_seconds",
		Help:      "Duration of a single tracker snapshot write in seconds",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
	})

	return &Manager{
		CounterRequests:               counterRequests,
		CounterHandleRequestPanic:     counterHandleRequestPanic,
		CounterRateLimitedRequests:    counterRateLimitedRequests,
		CounterExerciseToggles:        counterExerciseToggles,
		CounterDaysSealed:             counterDaysSealed,
		CounterDailyResets:            counterDailyResets,
		CounterDayRollovers:           counterDayRollovers,
		CounterSnapshotWrites:         counterSnapshotWrites,
		CounterSnapshotsSuperseded:    counterSnapshotsSuperseded,
		CounterSnapshotLoadFailures:   counterSnapshotLoadFailures,
		GaugeRequests:                 gaugeRequests,
		GaugeLifeSignal:               gaugeLifeSignal,
		GaugeStreak:                   gaugeStreak,
		HistogramRequestDuration:      histogramRequestDuration,
		HistogramSnapshotWriteSeconds: histogramSnapshotWriteSeconds,
	}
}
