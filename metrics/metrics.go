// Package metrics holds the Prometheus collectors, served at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	LabelMethod  = "method"
	LabelPattern = "pattern"
	LabelStatus  = "status"
	LabelMode    = "mode"
	LabelKind    = "kind"
	LabelResult  = "result"
)

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homegame_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPattern, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homegame_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPattern},
	)
)

// Games and money
var (
	GamesEnded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "homegame_games_ended_total",
			Help: "Games that ran to completion",
		},
	)

	SettlementsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homegame_settlements_computed_total",
			Help: "Settlements computed, by accounting mode",
		},
		[]string{LabelMode},
	)

	SettlementTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homegame_settlement_transactions_total",
			Help: "Transactions produced by settlement, by kind",
		},
		[]string{LabelKind},
	)

	SettlementAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homegame_settlement_amount_total",
			Help: "Money moved by settlement transactions, by kind",
		},
		[]string{LabelKind},
	)

	ConservationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "homegame_conservation_failures_total",
			Help: "Settlements refused because balances did not net to zero",
		},
	)

	OptimisticLockRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "homegame_optimistic_lock_retries_total",
			Help: "Tournament writes retried after losing a race",
		},
	)
)

// Storage
var (
	TournamentCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homegame_tournament_cache_lookups_total",
			Help: "Tournament cache lookups, by hit or miss",
		},
		[]string{LabelResult},
	)

	TournamentCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "homegame_tournament_cache_invalidations_total",
			Help: "Cached tournaments dropped because the database changed",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
