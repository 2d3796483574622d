package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Throughput metrics - Track processing volume
var (
	RequestsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdfund_requests_processed_total",
			Help: "Total number of requests processed by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdfund_rejections_total",
			Help: "Total number of rejected requests by code",
		},
		[]string{"code"},
	)

	ActionsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdfund_actions_executed_total",
			Help: "Total number of side-effect actions executed by type",
		},
		[]string{"type"},
	)

	ProjectsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crowdfund_projects_created_total",
		Help: "Total number of projects created",
	})

	RewardsMinted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crowdfund_rewards_minted_total",
		Help: "Total number of reward tokens minted",
	})
)

// Value metrics - Track funds moving through custody
var (
	ContributedStroops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crowdfund_contributed_stroops_total",
		Help: "Total stroops accepted as contributions",
	})

	PaidOutStroops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdfund_paid_out_stroops_total",
			Help: "Total stroops paid out of custody by request kind",
		},
		[]string{"kind"},
	)
)

// Performance metrics - Track processing speed and latency
var (
	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crowdfund_request_duration_seconds",
		Help:    "Time taken to process a single request, commit included",
		Buckets: prometheus.DefBuckets,
	})

	CommitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crowdfund_commit_duration_seconds",
		Help:    "Time taken to persist one request",
		Buckets: prometheus.DefBuckets,
	})

	LedgerWritesPerRequest = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crowdfund_ledger_writes_per_request",
		Help:    "Number of ledger entries written by each accepted request",
		Buckets: []float64{0, 1, 2, 5, 10, 20},
	})
)

// State metrics - Track current system state
var (
	CustodyBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crowdfund_custody_balance_stroops",
		Help: "Current custody balance in stroops",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crowdfund_queue_depth",
		Help: "Number of submissions waiting to be processed",
	})

	ProjectsByPhase = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crowdfund_projects_by_phase",
			Help: "Number of projects in each lifecycle phase",
		},
		[]string{"phase"},
	)

	LastPhaseSweep = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crowdfund_last_phase_sweep_timestamp_seconds",
		Help: "Unix time of the last completed phase sweep",
	})
)

// Error metrics - Track failures
var (
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdfund_errors_total",
			Help: "Total number of errors by component",
		},
		[]string{"component"},
	)

	CommitRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crowdfund_commit_retries_total",
		Help: "Total number of retried commits",
	})
)
