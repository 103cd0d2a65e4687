package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 结账/对账核心的业务指标，通过 /metrics 暴露。
var (
	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "saregare",
		Subsystem: "checkout",
		Name:      "orders_created_total",
		Help:      "Orders created, labelled by gateway and license tier.",
	}, []string{"gateway", "tier"})

	ordersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "saregare",
		Subsystem: "checkout",
		Name:      "orders_completed_total",
		Help:      "Orders moved to completed by the payment verifier.",
	})

	ordersFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "saregare",
		Subsystem: "checkout",
		Name:      "orders_failed_total",
		Help:      "Orders moved to failed, labelled by reason.",
	}, []string{"reason"})

	ordersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "saregare",
		Subsystem: "checkout",
		Name:      "orders_cancelled_total",
		Help:      "Orders cancelled by the buyer while still pending.",
	})

	duplicateCallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "saregare",
		Subsystem: "checkout",
		Name:      "duplicate_callbacks_total",
		Help:      "Gateway callbacks absorbed as duplicates for terminal orders.",
	})
)
