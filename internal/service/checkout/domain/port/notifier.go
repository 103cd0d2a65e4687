package port

import (
	"context"

	"saregare/internal/service/checkout/domain"
)

// OrderNotifier 把订单状态变更事件发布出去（Kafka）。
// 发布失败只记日志，不影响订单主流程。
type OrderNotifier interface {
	PublishStatus(ctx context.Context, event *domain.OrderStatusChanged) error
}

// OrderLocker 对单个订单的状态变更做串行化，保证重复回调
// 与用户取消不会交错执行。
type OrderLocker interface {
	// WithLock 持有 orderID 的锁执行 fn，返回 fn 的错误。
	WithLock(ctx context.Context, orderID string, fn func() error) error
}
