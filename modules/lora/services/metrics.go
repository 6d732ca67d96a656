package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loraCoverageRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lora",
		Subsystem: "validation",
		Name:      "coverage_rejections_total",
		Help:      "Total number of writes rejected because the entity is not active in the requested range, by state field.",
	}, []string{"field"})
)

func recordCoverageRejection(field string) {
	if field == "" {
		field = "unknown"
	}
	loraCoverageRejections.WithLabelValues(field).Inc()
}
