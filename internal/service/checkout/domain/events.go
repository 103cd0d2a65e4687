package domain

import "time"

// OrderStatusChanged 在订单状态每次变更后发布到 Kafka，
// push-gateway 据此向买家的 WebSocket 连接推送。
type OrderStatusChanged struct {
	OrderID   string    `json:"orderId"`
	BuyerID   string    `json:"buyerId"`
	ProductID string    `json:"productId"`
	Status    Status    `json:"status"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Gateway   string    `json:"gateway"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// NewStatusEvent 从订单当前快照构造事件。
func NewStatusEvent(o *Order, reason string) *OrderStatusChanged {
	return &OrderStatusChanged{
		OrderID:   o.ID,
		BuyerID:   o.BuyerID,
		ProductID: o.ProductID,
		Status:    o.Status,
		Amount:    o.Amount,
		Currency:  o.Currency,
		Gateway:   o.Gateway,
		Reason:    reason,
		At:        time.Now(),
	}
}
