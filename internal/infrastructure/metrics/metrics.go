package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Trade metrics
	TradesExecuted *prometheus.CounterVec
	TradeErrors    *prometheus.CounterVec
	TradeDuration  *prometheus.HistogramVec
	TradeAmount    *prometheus.HistogramVec

	// Account metrics
	AccountsCreated prometheus.Counter
	TopUps          prometheus.Counter
	TopUpAmount     prometheus.Histogram

	// Catalog metrics
	StocksCreated  prometheus.Counter
	StocksUpserted prometheus.Counter
	StocksDeleted  prometheus.Counter
	StockCache     *prometheus.CounterVec

	// Holding metrics
	HoldingsReset prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TradesExecuted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_trades_executed_total",
				Help: "Total number of trades executed by side",
			},
			[]string{"side"},
		),
		TradeErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_trade_errors_total",
				Help: "Total number of rejected or failed trades by side and kind",
			},
			[]string{"side", "kind"},
		),
		TradeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockledger_trade_duration_seconds",
				Help:    "Duration of trade operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"side"},
		),
		TradeAmount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockledger_trade_amount",
				Help:    "Trade amounts in minor currency units",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"side"},
		),

		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		TopUps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_topups_total",
			Help: "Total number of balance top-ups",
		}),
		TopUpAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockledger_topup_amount",
			Help:    "Top-up amounts in minor currency units",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		StocksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_stocks_created_total",
			Help: "Total number of stock listings created",
		}),
		StocksUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_stocks_upserted_total",
			Help: "Total number of stock listings upserted",
		}),
		StocksDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_stocks_deleted_total",
			Help: "Total number of stock listings deleted",
		}),
		StockCache: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_stock_cache_lookups_total",
				Help: "Stock list cache lookups by result",
			},
			[]string{"result"},
		),

		HoldingsReset: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_holdings_reset_total",
			Help: "Total number of administrative holding resets",
		}),

		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_outbox_published_total",
			Help: "Total number of outbox events published",
		}),
		OutboxErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_outbox_errors_total",
			Help: "Total number of outbox publish failures",
		}),

		AuthFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stockledger_rate_limit_hits_total",
				Help: "Total requests rejected by the rate limiter",
			},
		),

		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
