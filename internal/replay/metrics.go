package replay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons a request is replayed.
const (
	ReasonWriteMethod = "write-method"
	ReasonThreshold   = "threshold"
	ReasonLag         = "lag"
	ReasonReadOnly    = "read-only"
)

var (
	replaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replay_requests_total",
			Help: "Requests answered with a replay directive",
		},
		[]string{"reason", "region"},
	)

	primaryReadOnlyTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "replay_primary_read_only_total",
			Help: "Read-only errors raised while running in the primary region",
		},
	)
)
