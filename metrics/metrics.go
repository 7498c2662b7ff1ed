// Package metrics exposes the prometheus collectors of the registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AirlinesRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "surety",
		Subsystem: "registry",
		Name:      "airlines_registered",
		Help:      "Number of admitted airlines.",
	})
	OraclesRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "surety",
		Subsystem: "registry",
		Name:      "oracles_registered",
		Help:      "Number of registered oracles.",
	})
	FlightsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "surety",
		Subsystem: "registry",
		Name:      "flights_registered_total",
		Help:      "Flights registered since process start.",
	})
	FlightsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "surety",
		Subsystem: "registry",
		Name:      "flights_resolved_total",
		Help:      "Flights resolved by oracle consensus since process start.",
	})
	InsurancePurchases = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "surety",
		Subsystem: "registry",
		Name:      "insurance_purchases_total",
		Help:      "Insurance claims bought since process start.",
	})
	PayoutsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "surety",
		Subsystem: "registry",
		Name:      "payouts_credited_total",
		Help:      "Delay payouts credited since process start.",
	})
	PayoutsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "surety",
		Subsystem: "registry",
		Name:      "payouts_skipped_total",
		Help:      "Delay payouts skipped for lack of pool funds.",
	})
	CreditsWithdrawn = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "surety",
		Subsystem: "registry",
		Name:      "credits_withdrawn_total",
		Help:      "Passenger withdrawals processed since process start.",
	})
	RequestsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "surety",
		Subsystem: "registry",
		Name:      "status_requests_opened_total",
		Help:      "Oracle status requests opened since process start.",
	})
	OracleReports = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "surety",
		Subsystem: "registry",
		Name:      "oracle_reports_total",
		Help:      "Oracle status reports accepted since process start.",
	})

	EscrowBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "surety",
		Subsystem: "ledger",
		Name:      "escrow_balance",
		Help:      "Value held in airline membership escrow.",
	})
	PoolBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "surety",
		Subsystem: "ledger",
		Name:      "pool_balance",
		Help:      "Value held in the insurance pool.",
	})
	OracleFeeBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "surety",
		Subsystem: "ledger",
		Name:      "oracle_fee_balance",
		Help:      "Value held in the oracle fee pot.",
	})
	CreditBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "surety",
		Subsystem: "ledger",
		Name:      "credit_balance",
		Help:      "Value owed to passengers as withdrawable credit.",
	})

	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "surety",
		Subsystem: "node",
		Name:      "rpc_requests_total",
		Help:      "JSON-RPC requests served, by method.",
	}, []string{"method"})
	EventClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "surety",
		Subsystem: "node",
		Name:      "event_clients",
		Help:      "Connected websocket event subscribers.",
	})
)
