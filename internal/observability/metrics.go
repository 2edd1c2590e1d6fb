package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for LandLedger.
type Metrics struct {
	// --- Core Processing ---
	CoreEventsApplied  *prometheus.CounterVec
	CoreEventsRejected *prometheus.CounterVec
	CoreEventDuration  *prometheus.HistogramVec
	CoreEventsTotal    prometheus.Gauge
	CoreLastBlock      prometheus.Gauge
	EventOutOfOrder    prometheus.Counter

	// --- Reducers ---
	RecordsSaved        *prometheus.CounterVec
	RecordsRemoved      *prometheus.CounterVec
	MissingRecords      *prometheus.CounterVec
	NoopEvents          *prometheus.CounterVec
	ContractReads       *prometheus.CounterVec
	ContractReverts     *prometheus.CounterVec
	ContractReadLatency *prometheus.HistogramVec

	// --- Persistence ---
	PersistCommitDur  prometheus.Histogram
	PersistErrors     *prometheus.CounterVec
	PersistRetry      prometheus.Counter
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter

	// --- Ingestion & Publishing ---
	IngestParseErrors *prometheus.CounterVec
	PublishDrops      prometheus.Counter
	PublishErrors     prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers all metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	applyBuckets := []float64{
		0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005,
		0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
	}

	rpcBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

	return &Metrics{
		// Core Processing
		CoreEventsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "land_core_events_applied_total",
			Help: "Events successfully applied and committed",
		}, []string{"event_type"}),

		CoreEventsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "land_core_events_rejected_total",
			Help: "Events that failed to apply (transport errors, commit aborted)",
		}, []string{"event_type", "reason"}),

		CoreEventDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "land_core_event_apply_duration_seconds",
			Help:    "Time to reduce and commit a single event",
			Buckets: applyBuckets,
		}, []string{"event_type"}),

		CoreEventsTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "land_core_events_committed",
			Help: "Events committed since genesis",
		}),

		CoreLastBlock: f.NewGauge(prometheus.GaugeOpts{
			Name: "land_core_last_block",
			Help: "Block number of the last committed event",
		}),

		EventOutOfOrder: f.NewCounter(prometheus.CounterOpts{
			Name: "land_core_events_out_of_order_total",
			Help: "Events delivered at or before the last committed position",
		}),

		// Reducers
		RecordsSaved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "land_records_saved_total",
			Help: "Records upserted, by kind",
		}, []string{"kind"}),

		RecordsRemoved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "land_records_removed_total",
			Help: "Records deleted, by kind",
		}, []string{"kind"}),

		MissingRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "land_missing_records_total",
			Help: "Events referencing a record that should already exist",
		}, []string{"event_type", "kind"}),

		NoopEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "land_noop_events_total",
			Help: "Events that are defined no-ops (zero-amount removals, empty revokes)",
		}, []string{"event_type"}),

		ContractReads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "land_contract_reads_total",
			Help: "Point-in-time contract calls",
		}, []string{"method"}),

		ContractReverts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "land_contract_reverts_total",
			Help: "Contract calls that reverted or returned undecodable data",
		}, []string{"method"}),

		ContractReadLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "land_contract_read_duration_seconds",
			Help:    "Contract call round trip",
			Buckets: rpcBuckets,
		}, []string{"method"}),

		// Persistence
		PersistCommitDur: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "land_persist_commit_duration_seconds",
			Help:    "Changeset commit duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "land_persist_errors_total",
			Help: "Commit errors by stage",
		}, []string{"stage"}),

		PersistRetry: f.NewCounter(prometheus.CounterOpts{
			Name: "land_persist_retries_total",
			Help: "Commit retry attempts",
		}),

		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "land_store_cache_hits_total",
			Help: "Record loads served from the document cache",
		}),

		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "land_store_cache_misses_total",
			Help: "Record loads that went to the database",
		}),

		// Ingestion & Publishing
		IngestParseErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "land_ingest_parse_errors_total",
			Help: "Inbound messages that could not be parsed",
		}, []string{"subject"}),

		PublishDrops: f.NewCounter(prometheus.CounterOpts{
			Name: "land_publish_drops_total",
			Help: "Change notifications dropped on a full channel",
		}),

		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "land_publish_errors_total",
			Help: "Change notifications that failed to publish",
		}),
	}
}
