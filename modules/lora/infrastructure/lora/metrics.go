package lora

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loraRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lora",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Total number of LoRa HTTP requests broken down by scope, method and status class.",
	}, []string{"scope", "method", "status"})

	loraRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lora",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Latency of LoRa HTTP requests broken down by scope and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"scope", "method"})

	loraCoalescedCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lora",
		Subsystem: "coalescer",
		Name:      "calls_total",
		Help:      "Total number of logical loads collected into batches, by scope.",
	}, []string{"scope"})

	loraCoalescedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lora",
		Subsystem: "coalescer",
		Name:      "fetches_total",
		Help:      "Total number of underlying fetches issued for batches, by scope and result.",
	}, []string{"scope", "result"})

	loraWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lora",
		Subsystem: "write",
		Name:      "operations_total",
		Help:      "Total number of LoRa writes broken down by scope, operation and result.",
	}, []string{"scope", "operation", "result"})
)

func recordRequest(scope, method string, status int, seconds float64) {
	class := "error"
	if status > 0 {
		class = strconv.Itoa(status/100) + "xx"
	}
	loraRequests.WithLabelValues(scope, method, class).Inc()
	loraRequestDuration.WithLabelValues(scope, method).Observe(seconds)
}

func recordCoalesced(scope string, calls int) {
	loraCoalescedCalls.WithLabelValues(scope).Add(float64(calls))
}

func recordFetch(scope string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	loraCoalescedFetches.WithLabelValues(scope, result).Inc()
}

func recordWrite(scope, operation, result string) {
	if result == "" {
		result = "ok"
	}
	loraWrites.WithLabelValues(scope, operation, result).Inc()
}
