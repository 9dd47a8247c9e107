package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_total",
		Help: "Contractor update deliveries by outcome",
	}, []string{"outcome"})
	handleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "consumer_handle_duration_seconds",
		Help:    "Time taken to settle a contractor update delivery",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})
)
