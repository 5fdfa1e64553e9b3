package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	ledgerOpCounter       *prometheus.CounterVec
	idempotencyCounter    *prometheus.CounterVec
	approvalQueueGauge    prometheus.Gauge
	transitionCounter     *prometheus.CounterVec
	pollerRunCounter      *prometheus.CounterVec
	pollerCheckCounter    *prometheus.CounterVec
	breakerOpenGauge      prometheus.Gauge
	breakerTripCounter    prometheus.Counter
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerOpCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_ledger_operations_total",
			Help: "Wallet debit/credit outcomes",
		}, []string{"operation", "result"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		approvalQueueGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transactions_awaiting_approval",
			Help: "Current number of transactions waiting for admin approval",
		})

		transitionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transaction_transitions_total",
			Help: "Applied transaction state transitions",
		}, []string{"from", "to"})

		pollerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "status_poller_runs_total",
			Help: "Status poller run outcomes",
		}, []string{"result"})

		pollerCheckCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "status_poller_checks_total",
			Help: "Per-transaction provider status check outcomes",
		}, []string{"result"})

		breakerOpenGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "status_poller_breaker_open",
			Help: "1 while the status poller circuit breaker is open",
		})

		breakerTripCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "status_poller_breaker_trips_total",
			Help: "Times the status poller circuit breaker opened",
		})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerOpCounter,
			idempotencyCounter,
			approvalQueueGauge,
			transitionCounter,
			pollerRunCounter,
			pollerCheckCounter,
			breakerOpenGauge,
			breakerTripCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementLedgerOp(operation, result string) {
	if ledgerOpCounter == nil {
		return
	}
	ledgerOpCounter.WithLabelValues(operation, result).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func SetApprovalQueueSize(size int64) {
	if approvalQueueGauge == nil {
		return
	}
	approvalQueueGauge.Set(float64(size))
}

func IncrementTransition(from, to string) {
	if transitionCounter == nil {
		return
	}
	transitionCounter.WithLabelValues(from, to).Inc()
}

func IncrementPollerRun(result string) {
	if pollerRunCounter == nil {
		return
	}
	pollerRunCounter.WithLabelValues(result).Inc()
}

func IncrementPollerCheck(result string) {
	if pollerCheckCounter == nil {
		return
	}
	pollerCheckCounter.WithLabelValues(result).Inc()
}

func SetBreakerOpen(open bool) {
	if breakerOpenGauge == nil {
		return
	}
	if open {
		breakerOpenGauge.Set(1)
	} else {
		breakerOpenGauge.Set(0)
	}
}

func IncrementBreakerTrip() {
	if breakerTripCounter == nil {
		return
	}
	breakerTripCounter.Inc()
}
