package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wacrawl_pages_fetched_total",
		Help: "The total number of message pages fetched from the remote",
	})

	RemoteCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wacrawl_remote_calls_total",
		Help: "The total number of remote automation calls by operation and status",
	}, []string{"op", "status"})

	TransientRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wacrawl_transient_retries_total",
		Help: "The total number of retries triggered by transient automation faults",
	}, []string{"op"})

	MessagesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wacrawl_messages_collected_total",
		Help: "The total number of unique messages accumulated across crawls",
	})

	MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wacrawl_messages_dropped_total",
		Help: "Total number of messages excluded from bundles by reason",
	}, []string{"reason"})

	UnknownSenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wacrawl_unknown_senders_total",
		Help: "Total number of messages whose sender resolved to the unknown sentinel",
	})

	GroupsCrawled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wacrawl_groups_crawled_total",
		Help: "The total number of group crawls by terminal status",
	}, []string{"status"})

	GroupCrawlDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wacrawl_group_crawl_duration_seconds",
		Help:    "Duration of a single group crawl including enrichment and export",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	DataQualityFlags = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wacrawl_data_quality_flags_total",
		Help: "Total number of data-quality signals flagged during crawls, such as member-count discrepancies",
	})

	DiscoveredGroups = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wacrawl_discovered_groups",
		Help: "Number of groups in the discovery cache",
	})

	BundlesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wacrawl_bundles_written_total",
		Help: "The total number of export bundles written",
	})
)
