package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntentsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_intents_total",
			Help: "The total number of intents dispatched to gallery sessions",
		},
		[]string{"intent"},
	)

	IntentsIgnored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_intents_ignored_total",
			Help: "Intents dropped by a session guard (e.g. load-more while loading)",
		},
		[]string{"intent"},
	)

	FetchesSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_fetches_superseded_total",
			Help: "In-flight fetches cancelled by a newer load or refresh",
		},
	)

	FetchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catapi_fetch_total",
			Help: "Terminal outcomes of cat API fetches by error class",
		},
		[]string{"outcome"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catapi_fetch_duration_seconds",
			Help:    "Duration of cat API requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_active_sessions",
			Help: "Number of open gallery sessions",
		},
	)

	SnapshotsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_snapshots_published_total",
			Help: "Gallery state snapshots shipped to the message queue",
		},
		[]string{"status"},
	)
)
