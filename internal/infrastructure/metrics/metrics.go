package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/database"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloomie_http_requests_total",
		Help: "Total HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bloomie_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloomie_orders_created_total",
		Help: "Orders created at checkout by payment method.",
	}, []string{"payment_method"})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloomie_order_transitions_total",
		Help: "Order status transitions.",
	}, []string{"from", "to"})

	VoucherEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloomie_voucher_evaluations_total",
		Help: "Promotion evaluations by promotion type and result code.",
	}, []string{"type", "result"})

	PaymentCallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloomie_payment_callbacks_total",
		Help: "MoMo / VNPay callbacks by gateway and result.",
	}, []string{"gateway", "result"})

	ChatMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloomie_chat_messages_total",
		Help: "Support chat messages by sender role.",
	}, []string{"role"})

	ChatbotRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloomie_chatbot_requests_total",
		Help: "Chatbot requests by outcome.",
	}, []string{"outcome"})

	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bloomie_websocket_connections",
		Help: "Open websocket connections on this node.",
	})

	dbPoolConns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bloomie_db_pool_connections",
		Help: "pgx pool connections by state.",
	}, []string{"state"})
)

// Handler expose /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDBPool dùng làm callback cho PostgresDB.MonitorPoolHealth
func ObserveDBPool(stats database.PoolStats) {
	dbPoolConns.WithLabelValues("total").Set(float64(stats.TotalConns))
	dbPoolConns.WithLabelValues("idle").Set(float64(stats.IdleConns))
	dbPoolConns.WithLabelValues("acquired").Set(float64(stats.AcquiredConns))
	dbPoolConns.WithLabelValues("max").Set(float64(stats.MaxConns))
}
