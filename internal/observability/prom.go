package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Credentials and memberships
	AuthAttempts      *prometheus.CounterVec
	MembershipChanges *prometheus.CounterVec

	JobsProcessed *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projecthub",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "projecthub",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "projecthub",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "projecthub",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projecthub",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projecthub",
				Subsystem: "auth",
				Name:      "attempts_total",
				Help:      "Authentication attempts by outcome.",
			},
			[]string{"outcome"}, // outcome=ok|invalid
		),
		MembershipChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projecthub",
				Subsystem: "membership",
				Name:      "changes_total",
				Help:      "Membership operations by kind and whether they changed the roster.",
			},
			[]string{"op", "changed"},
		),
		JobsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projecthub",
				Subsystem: "jobs",
				Name:      "processed_total",
				Help:      "Background jobs by type and final status.",
			},
			[]string{"type", "status"}, // status=succeeded|failed|dropped
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.DbQueryDuration, p.DbErrorsTotal,
		p.AuthAttempts, p.MembershipChanges, p.JobsProcessed)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// nil-safe helpers so services can run without metrics in tests

func (p *Prom) ObserveAuth(ok bool) {
	if p == nil {
		return
	}
	outcome := "invalid"
	if ok {
		outcome = "ok"
	}
	p.AuthAttempts.WithLabelValues(outcome).Inc()
}

func (p *Prom) ObserveMembership(op string, changed bool) {
	if p == nil {
		return
	}
	p.MembershipChanges.WithLabelValues(op, strconv.FormatBool(changed)).Inc()
}

func (p *Prom) ObserveJob(jobType, status string) {
	if p == nil {
		return
	}
	p.JobsProcessed.WithLabelValues(jobType, status).Inc()
}
