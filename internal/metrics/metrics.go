// Package metrics exposes contract activity and custody levels to
// Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"rentacar-ledger/internal/domain"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records contract metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	contractBalance prometheus.Gauge
	ownerBalances   prometheus.Gauge
	accumulatedFees prometheus.Gauge
	balanced        prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "rentacar"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "operations_total",
			Help:      "Contract operations by outcome (ok, or the contract error name)",
		},
		[]string{"operation", "result"},
	)
	c.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "operation_duration_seconds",
			Help:      "Contract operation latency including the store transaction",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	c.contractBalance = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "custody",
		Name:      "contract_balance",
		Help:      "Funds held by the contract, in the token's smallest unit",
	})
	c.ownerBalances = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "custody",
		Name:      "owner_balances",
		Help:      "Sum of owner withdrawable balances",
	})
	c.accumulatedFees = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "custody",
		Name:      "accumulated_fees",
		Help:      "Admin fees not yet withdrawn",
	})
	c.balanced = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "custody",
		Name:      "balanced",
		Help:      "1 if the last audit found no drift, 0 otherwise",
	})

	c.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	c.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	c.registry.MustRegister(
		c.operations,
		c.operationDuration,
		c.contractBalance,
		c.ownerBalances,
		c.accumulatedFees,
		c.balanced,
		c.httpRequests,
		c.httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordOperation(op string, duration time.Duration, err error) {
	c.operations.WithLabelValues(op, resultLabel(err)).Inc()
	c.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordCustody publishes the balances of the last audit. Values beyond
// float64 precision are approximated.
func (c *Collector) RecordCustody(contractBalance, ownerBalances, accumulatedFees domain.Amount, balanced bool) {
	c.contractBalance.Set(contractBalance.Float64())
	c.ownerBalances.Set(ownerBalances.Float64())
	c.accumulatedFees.Set(accumulatedFees.Float64())
	if balanced {
		c.balanced.Set(1)
	} else {
		c.balanced.Set(0)
	}
}

// InstrumentHandler records request counts and latency per mux route.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		method := strings.ToUpper(r.Method)
		c.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		c.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if e, ok := domain.AsError(err); ok {
		return e.Name
	}
	return "error"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
