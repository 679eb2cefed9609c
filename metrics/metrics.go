// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "beamer_agent"

// Metrics collects the agent's operational counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	EventsFetched   *prometheus.CounterVec
	EventsRequeued  prometheus.Counter
	TxSubmitted     *prometheus.CounterVec
	TxReverted      *prometheus.CounterVec
	RequestsTracked prometheus.Gauge
	ClaimsTracked   prometheus.Gauge
	Challenges      prometheus.Counter
	L1Resolutions   prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		EventsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_fetched_total",
			Help:      "Confirmed contract events fetched, per contract.",
		}, []string{"contract"}),
		EventsRequeued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_requeued_total",
			Help:      "Events re-queued because their prerequisite was not yet known.",
		}),
		TxSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_submitted_total",
			Help:      "Transactions accepted on chain, per method.",
		}, []string{"method"}),
		TxReverted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_reverted_total",
			Help:      "Transactions refused by a contract, per method.",
		}, []string{"method"}),
		RequestsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_tracked",
			Help:      "Requests currently tracked.",
		}),
		ClaimsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "claims_tracked",
			Help:      "Claims currently tracked.",
		}),
		Challenges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_issued_total",
			Help:      "Challenge transactions issued.",
		}),
		L1Resolutions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "l1_resolutions_started_total",
			Help:      "L1 resolution relayer runs started.",
		}),
	}
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
