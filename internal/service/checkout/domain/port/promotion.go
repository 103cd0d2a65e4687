package port

import "context"

// CheckoutFact 是促销规则求值的输入。
type CheckoutFact struct {
	BuyerID   string `json:"buyer_id"`
	ProductID string `json:"product_id"`
	Genre     string `json:"genre"`
	Tier      string `json:"tier"`
	Amount    int64  `json:"amount"`
}

// PromotionEngine 计算一次结账可享受的减免。
// 规则求值失败不应阻断结账：实现方内部消化错误，返回零减免。
type PromotionEngine interface {
	// Discount 返回减免金额（最小货币单位）与命中的规则名。
	// 没有规则命中时返回 (0, "")。
	Discount(ctx context.Context, fact CheckoutFact) (int64, string)
}
