package port

import (
	"context"

	"saregare/internal/service/checkout/domain"
)

// Handle 是发起支付后交给前端的信息，前端用它拉起网关的托管收银台。
// 它不包含任何密钥材料。
type Handle struct {
	Gateway        string `json:"gateway"`
	CheckoutKey    string `json:"checkoutKey"`    // 网关的公开 key（如 Razorpay key_id）
	GatewayOrderID string `json:"gatewayOrderId"` // 网关侧的订单标识
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Description    string `json:"description"`
	PrefillEmail   string `json:"prefillEmail,omitempty"`
	ThemeColor     string `json:"themeColor,omitempty"`
}

// Callback 是从网关原始回调报文中解析出的规范化字段。
type Callback struct {
	OrderID           string // 我们自己的订单 ID
	ProviderOrderID   string // 网关侧订单 ID，参与验签
	ProviderPaymentID string
	Signature         string
	Amount            int64
	Currency          string
	Raw               []byte
}

// InitiateRequest 携带发起支付所需的订单与展示信息。
type InitiateRequest struct {
	Order        *domain.Order
	ProductTitle string
	BuyerEmail   string
}

// PaymentGateway 是对异构支付服务商的统一能力面。
// 新增一个服务商只需要实现本接口并注册，不会触碰编排层。
type PaymentGateway interface {
	Name() string

	// Configured 报告启动时是否拿到了该网关必需的密钥。
	// 未配置的网关在任何状态变更发生之前就会被拒绝。
	Configured() bool

	// InitiatePayment 在网关侧创建订单并返回收银台句柄。
	// 网关不可达时返回 ErrGatewayUnavailable，调用方必须保证
	// 此时订单不会停留在 awaiting_confirmation。
	InitiatePayment(ctx context.Context, req *InitiateRequest) (*Handle, error)

	// ParseCallback 把网关原生报文解析为规范化回调。
	ParseCallback(raw []byte) (*Callback, error)

	// VerifySignature 校验回调确实出自网关。失败返回 ErrSignatureInvalid。
	VerifySignature(cb *Callback) error
}

// Registry 按名字索引网关实现，取代对网关名的 if/else 分支。
type Registry struct {
	gateways map[string]PaymentGateway
}

func NewRegistry(gateways ...PaymentGateway) *Registry {
	r := &Registry{gateways: make(map[string]PaymentGateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

// Lookup 返回一个可用的网关：未知名字返回 ErrUnsupportedGateway，
// 已注册但缺少密钥的返回 ErrGatewayNotConfigured。
func (r *Registry) Lookup(name string) (PaymentGateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, domain.ErrUnsupportedGateway
	}
	if !g.Configured() {
		return nil, domain.ErrGatewayNotConfigured
	}
	return g, nil
}
