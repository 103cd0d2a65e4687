package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status 定义了订单的生命周期状态。
// 状态图: pending -> awaiting_confirmation -> completed | failed | cancelled，
// 外加 pending -> cancelled（用户在联系网关之前主动放弃）。
// 终态不可再变更。
type Status string

const (
	StatusPending              Status = "pending"               // 订单已落库，尚未联系网关
	StatusAwaitingConfirmation Status = "awaiting_confirmation" // 网关句柄已拿到，等待回调
	StatusCompleted            Status = "completed"             // 回调验证通过
	StatusFailed               Status = "failed"                // 验签或金额校验失败
	StatusCancelled            Status = "cancelled"             // 用户在 pending 阶段取消
)

// IsTerminal 终态一旦到达不再变更。
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// allowedTransitions 是状态图的唯一事实来源，仓储层的 CAS 更新
// 和聚合上的流转方法都以它为准。
var allowedTransitions = map[Status][]Status{
	StatusPending:              {StatusAwaitingConfirmation, StatusCancelled},
	StatusAwaitingConfirmation: {StatusCompleted, StatusFailed},
}

// CanTransitionTo 判断 from -> to 是否是状态图里的合法边。
func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range allowedTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// LicenseTier 是商品授权档位，每档对应一个价格。
type LicenseTier string

const (
	TierBasic     LicenseTier = "basic"
	TierPremium   LicenseTier = "premium"
	TierExclusive LicenseTier = "exclusive"
)

// ParseLicenseTier 校验外部传入的档位字符串。
func ParseLicenseTier(s string) (LicenseTier, bool) {
	switch LicenseTier(s) {
	case TierBasic, TierPremium, TierExclusive:
		return LicenseTier(s), true
	}
	return "", false
}

// Order 是一次购买意向的聚合根。金额一律用最小货币单位（paise）的
// 整数表示，禁止浮点。
type Order struct {
	ID          string
	BuyerID     string
	ProductID   string
	LicenseTier LicenseTier
	Amount      int64 // 最小货币单位
	Currency    string
	Gateway     string
	Status      Status
	PromoName   string // 命中的促销规则名，没有则为空
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrder 创建一个 pending 状态的新订单。
func NewOrder(buyerID, productID string, tier LicenseTier, amount int64, currency, gateway string) (*Order, error) {
	if buyerID == "" {
		return nil, ErrUnauthenticated
	}
	if productID == "" {
		return nil, ErrProductNotFound
	}
	if amount <= 0 {
		return nil, ErrInvalidLicense
	}
	now := time.Now()
	return &Order{
		ID:          uuid.New().String(),
		BuyerID:     buyerID,
		ProductID:   productID,
		LicenseTier: tier,
		Amount:      amount,
		Currency:    currency,
		Gateway:     gateway,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MarkAwaitingConfirmation 在网关句柄成功取得之后调用。
func (o *Order) MarkAwaitingConfirmation() error {
	return o.transition(StatusAwaitingConfirmation)
}

// Complete 只允许 Verifier 在回调验证通过后调用。
func (o *Order) Complete() error {
	return o.transition(StatusCompleted)
}

// Fail 回调验签失败或金额不符时调用。
func (o *Order) Fail() error {
	return o.transition(StatusFailed)
}

// Cancel 用户取消。只有 pending 可以取消；已经进入
// awaiting_confirmation 的订单必须等 Verifier 给出结论。
func (o *Order) Cancel() error {
	if o.Status == StatusAwaitingConfirmation {
		return ErrAlreadyInFlight
	}
	return o.transition(StatusCancelled)
}

func (o *Order) transition(to Status) error {
	if !o.Status.CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}
