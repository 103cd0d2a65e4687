package application

import (
	"saregare/internal/service/checkout/domain"
	"saregare/internal/service/checkout/domain/port"
)

// StartCheckoutRequest 是接口层传入的结账请求。
// BuyerID 由认证中间件填充，空值视为未登录。
type StartCheckoutRequest struct {
	BuyerID    string `json:"buyerId"`
	BuyerEmail string `json:"buyerEmail"`
	ProductID  string `json:"productId"`
	License    string `json:"license"`
	Gateway    string `json:"gateway"`
}

// StartCheckoutResponse 返回订单标识与网关收银台句柄。
// 前端的支付成功回调只是乐观提示，最终状态以 GetOrder 的结果为准。
type StartCheckoutResponse struct {
	OrderID string        `json:"orderId"`
	Status  domain.Status `json:"status"`
	Amount  int64         `json:"amount"`
	Promo   string        `json:"promo,omitempty"`
	Handle  *port.Handle  `json:"handle"`
}

// OrderView 是订单查询的响应。
type OrderView struct {
	OrderID      string             `json:"orderId"`
	ProductID    string             `json:"productId"`
	License      domain.LicenseTier `json:"license"`
	Amount       int64              `json:"amount"`
	Currency     string             `json:"currency"`
	Gateway      string             `json:"gateway"`
	Status       domain.Status      `json:"status"`
	Transactions []TransactionView  `json:"transactions,omitempty"`
}

type TransactionView struct {
	ProviderPaymentID string                    `json:"providerPaymentId"`
	Result            domain.VerificationResult `json:"result"`
	Reason            string                    `json:"reason,omitempty"`
}
