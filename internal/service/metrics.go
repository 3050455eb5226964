package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations by operation and result",
		},
		[]string{"op", "result"},
	)

	cartPersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_persist_failures_total",
			Help: "Total number of failed cart persistence attempts",
		},
		[]string{"stage"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cart_sessions_active",
			Help: "Number of carts currently held in memory",
		},
	)
)
