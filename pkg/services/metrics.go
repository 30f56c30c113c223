package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var remoteCalls = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "chapter_cms",
		Subsystem: "remote",
		Name:      "calls_total",
		Help:      "Remote content API calls by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

func countRemoteCall(op, outcome string) {
	remoteCalls.WithLabelValues(op, outcome).Inc()
}
