package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ArtifactsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiguard_artifacts_loaded_total",
		Help: "Total number of class files converted to type descriptors.",
	})

	ArtifactsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiguard_artifacts_skipped_total",
		Help: "Total number of classpath artifacts skipped as unparseable.",
	})

	LoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "apiguard_load_seconds",
		Help:    "Time spent loading the classpath.",
		Buckets: prometheus.DefBuckets,
	})

	HierarchyNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "apiguard_hierarchy_nodes",
		Help: "Number of nodes in the last hierarchy graph, phantoms included.",
	})

	HierarchyEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "apiguard_hierarchy_edges",
		Help: "Number of extends/implements edges in the last hierarchy graph.",
	})

	ResolverCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiguard_resolver_cache_hits_total",
		Help: "Effective restriction lookups answered from the run cache.",
	})

	ResolverCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiguard_resolver_cache_misses_total",
		Help: "Effective restriction lookups that had to be computed.",
	})

	TypesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiguard_types_scanned_total",
		Help: "Total number of consumer types scanned.",
	})

	ViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiguard_violations_total",
		Help: "Violations reported, by restriction kind.",
	}, []string{"kind"})

	NoticesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiguard_notices_total",
		Help: "Diagnostics reported, by notice kind.",
	}, []string{"kind"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apiguard_analysis_seconds",
		Help:    "Time spent in each analysis phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiguard_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RerunsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiguard_reruns_throttled_total",
		Help: "Watch-mode reruns delayed by the rerun limiter.",
	})
)
