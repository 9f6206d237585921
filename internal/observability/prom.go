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

	// Auth
	TokensIssued   *prometheus.CounterVec
	GateRejections *prometheus.CounterVec
	LoginFailures  prometheus.Counter
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bankly",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bankly",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "bankly",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bankly",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bankly",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		TokensIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bankly",
				Subsystem: "auth",
				Name:      "tokens_issued_total",
				Help:      "Tokens issued by flow.",
			},
			[]string{"flow"}, // flow=login|register
		),
		GateRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bankly",
				Subsystem: "auth",
				Name:      "gate_rejections_total",
				Help:      "Requests rejected by an auth gate.",
			},
			[]string{"gate", "status"},
		),
		LoginFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "bankly",
				Subsystem: "auth",
				Name:      "login_failures_total",
				Help:      "Logins rejected for bad credentials.",
			},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.TokensIssued, p.GateRejections, p.LoginFailures,
	)

	return p
}

// ObserveRejection lets the auth middleware report gate outcomes.
func (p *Prom) ObserveRejection(gate string, status int) {
	if p == nil {
		return
	}
	p.GateRejections.WithLabelValues(gate, strconv.Itoa(status)).Inc()
}

func (p *Prom) ObserveTokenIssued(flow string) {
	if p == nil {
		return
	}
	p.TokensIssued.WithLabelValues(flow).Inc()
}

func (p *Prom) ObserveLoginFailure() {
	if p == nil {
		return
	}
	p.LoginFailures.Inc()
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
