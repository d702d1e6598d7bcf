// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Total number of match scoring requests",
		},
		[]string{"source", "item_kind"},
	)

	MatchCandidatesScored = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_candidates_scored",
			Help:    "Number of candidates scored per match request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"source"},
	)

	MatchScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "match_scoring_duration_seconds",
			Help: "Duration of the full scoring pipeline in seconds",
		},
		[]string{"source"},
	)

	TextScoreFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_text_score_fallbacks_total",
			Help: "Times the TF-IDF batch scorer failed and lexical fallback was used",
		},
	)

	MatchNotificationsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_notifications_emitted_total",
			Help: "Match notifications handed to the notifier",
		},
		[]string{"channel"},
	)

	MatchNotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_notifications_failed_total",
			Help: "Match notifications the notifier failed to deliver",
		},
		[]string{"channel"},
	)

	ItemCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "item_cache_hits_total",
			Help: "Redis cache hits and misses for item lookups",
		},
		[]string{"result"},
	)
)
