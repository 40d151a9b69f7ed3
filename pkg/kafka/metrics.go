package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linernotes_kafka_published_total",
		Help: "Events written to Kafka, by topic and result.",
	}, []string{"topic", "result"})

	publishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linernotes_kafka_publish_duration_seconds",
		Help:    "Time spent writing an event to Kafka.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})

	consumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linernotes_kafka_consumed_total",
		Help: "Messages committed by consumers, by topic and outcome.",
	}, []string{"topic", "outcome"})

	handleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linernotes_kafka_handle_duration_seconds",
		Help:    "Time spent handling a message, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})

	duplicatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linernotes_kafka_duplicates_total",
		Help: "Redelivered events skipped by the idempotency guard.",
	}, []string{"event_type"})
)
