package domain

import "context"

// OrderRepository 定义订单账本的持久化接口，由基础设施层实现。
// 订单只增不删，状态更新必须走 UpdateStatus 的条件更新。
type OrderRepository interface {
	// Create 落库一个新订单（pending）。
	Create(ctx context.Context, order *Order) error

	// FindByID 查找订单，不存在时返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id string) (*Order, error)

	// UpdateStatus 以 CAS 方式把订单从 from 更新到 to：
	// 只有当前状态仍然是 from 时才生效。并发回调输掉竞争、
	// 或者请求的边不在状态图里时返回 ErrInvalidTransition。
	UpdateStatus(ctx context.Context, id string, from, to Status) error
}

// TransactionRepository 持久化回调记录。记录不可变，只有 Record 一个写入口。
type TransactionRepository interface {
	Record(ctx context.Context, tx *Transaction) error

	// ListByOrder 按时间顺序返回一个订单的全部回调记录。
	ListByOrder(ctx context.Context, orderID string) ([]*Transaction, error)

	// CountVerified 返回某订单 verified 记录的数量，用于对账自检。
	CountVerified(ctx context.Context, orderID string) (int64, error)
}
