// Package metrics exports Prometheus collectors for backend calls, the
// degradation loop and the bot front end.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/chatdigest/internal/degrade"
	"github.com/flemzord/chatdigest/internal/provider"
)

const namespace = "chatdigest"

// Recorder owns the collectors. It implements provider.Observer and
// degrade.Hook.
type Recorder struct {
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	attempts        *prometheus.CounterVec
	results         *prometheus.CounterVec
	finalLevel      *prometheus.HistogramVec
	messages        prometheus.Counter
	quotaRejections prometheus.Counter
	jobRuns         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Backend calls by backend and outcome.",
		}, []string{"backend", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_seconds",
			Help:      "Backend call latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
		}, []string{"backend"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degradation_attempts_total",
			Help:      "Generation attempts by operation, intensity level and outcome.",
		}, []string{"op", "level", "outcome"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degradation_results_total",
			Help:      "Finished generation runs by operation and outcome.",
		}, []string{"op", "outcome"}),
		finalLevel: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "degradation_final_level",
			Help:      "Intensity level a run ended at.",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}, []string{"op"}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_ingested_total",
			Help:      "Chat messages written to the log.",
		}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Replies refused by the daily quota.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
	}
	reg.MustRegister(
		r.providerCalls,
		r.providerLatency,
		r.attempts,
		r.results,
		r.finalLevel,
		r.messages,
		r.quotaRejections,
		r.jobRuns,
	)
	return r
}

// ObserveProviderCall implements provider.Observer.
func (r *Recorder) ObserveProviderCall(backend, outcome string, elapsed time.Duration) {
	r.providerCalls.WithLabelValues(backend, outcome).Inc()
	r.providerLatency.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// ObserveAttempt implements degrade.Hook.
func (r *Recorder) ObserveAttempt(op string, level int, outcome string) {
	r.attempts.WithLabelValues(op, strconv.Itoa(level), outcome).Inc()
}

// ObserveResult implements degrade.Hook.
func (r *Recorder) ObserveResult(op string, outcome degrade.Outcome, level int) {
	r.results.WithLabelValues(op, outcome.String()).Inc()
	if outcome == degrade.Done {
		r.finalLevel.WithLabelValues(op).Observe(float64(level))
	}
}

// MessageIngested counts one logged message.
func (r *Recorder) MessageIngested() { r.messages.Inc() }

// QuotaRejected counts one reply refused by the quota.
func (r *Recorder) QuotaRejected() { r.quotaRejections.Inc() }

// JobRun counts one scheduled job run.
func (r *Recorder) JobRun(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.jobRuns.WithLabelValues(job, result).Inc()
}

// Interface guards.
var (
	_ provider.Observer = (*Recorder)(nil)
	_ degrade.Hook      = (*Recorder)(nil)
)
