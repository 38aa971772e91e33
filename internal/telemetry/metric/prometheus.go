package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

const namespace = "govmesh"

// Registry holds all GovMesh metrics.
//
// It implements service.Metrics so a Governor can report into it directly.
type Registry struct {
	registry *prometheus.Registry

	// Governance activity
	ProposalsCreated  *prometheus.CounterVec
	VotesCast         *prometheus.CounterVec
	ProposalsResolved *prometheus.CounterVec
	DepositsRefunded  *prometheus.CounterVec
	CheckpointSeries  prometheus.Histogram

	// Governor calls
	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec

	// HTTP surface
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthFailures    *prometheus.CounterVec
	RateLimited     prometheus.Counter
}

// NewRegistry creates a registry with every GovMesh metric plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,

		ProposalsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proposals",
			Name:      "created_total",
			Help:      "Proposals created, by organization",
		}, []string{"org"}),
		VotesCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "votes",
			Name:      "cast_total",
			Help:      "Votes cast, by organization and direction",
		}, []string{"org", "direction"}),
		ProposalsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proposals",
			Name:      "resolved_total",
			Help:      "Proposal status transitions, by resulting status",
		}, []string{"org", "status"}),
		DepositsRefunded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reserve",
			Name:      "deposits_refunded_total",
			Help:      "Anti-spam deposits returned to proposal owners",
		}, []string{"org"}),
		CheckpointSeries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "checkpoint_series_length",
			Help:      "Length of a checkpoint series after a write",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),

		CallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "governor",
			Name:      "calls_total",
			Help:      "Governor calls, by operation and result code",
		}, []string{"op", "code"}),
		CallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "governor",
			Name:      "call_duration_seconds",
			Help:      "Governor call latency in seconds",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"op"}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "auth_failures_total",
			Help:      "Rejected admin or principal authentication, by reason",
		}, []string{"reason"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		r.ProposalsCreated,
		r.VotesCast,
		r.ProposalsResolved,
		r.DepositsRefunded,
		r.CheckpointSeries,
		r.CallsTotal,
		r.CallDuration,
		r.RequestsTotal,
		r.RequestDuration,
		r.AuthFailures,
		r.RateLimited,
	)

	return r
}

// Registerer exposes the underlying registry for components that register
// their own collectors, such as the Badger store.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// MustRegister adds extra collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Handler returns the /metrics handler of r.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveCall records one Governor call.
func (r *Registry) ObserveCall(op, code string, elapsed time.Duration) {
	r.CallsTotal.WithLabelValues(op, code).Inc()
	r.CallDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ProposalCreated records a new proposal.
func (r *Registry) ProposalCreated(org domain.Address) {
	r.ProposalsCreated.WithLabelValues(string(org)).Inc()
}

// VoteCast records a vote or a flip.
func (r *Registry) VoteCast(org domain.Address, inFavor bool) {
	direction := "against"
	if inFavor {
		direction = "in_favor"
	}
	r.VotesCast.WithLabelValues(string(org), direction).Inc()
}

// ProposalResolved records a status transition.
func (r *Registry) ProposalResolved(org domain.Address, status domain.Status) {
	r.ProposalsResolved.WithLabelValues(string(org), string(status)).Inc()
}

// DepositRefunded records a returned deposit.
func (r *Registry) DepositRefunded(org domain.Address) {
	r.DepositsRefunded.WithLabelValues(string(org)).Inc()
}

// CheckpointsWritten records the length of a series after a write.
func (r *Registry) CheckpointsWritten(seriesLen int) {
	r.CheckpointSeries.Observe(float64(seriesLen))
}

// RecordRequest records an HTTP request.
func (r *Registry) RecordRequest(method, route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncAuthFailure records a rejected credential.
func (r *Registry) IncAuthFailure(reason string) {
	r.AuthFailures.WithLabelValues(reason).Inc()
}

// IncRateLimited records a throttled request.
func (r *Registry) IncRateLimited() {
	r.RateLimited.Inc()
}
