package adapter

import (
	"context"

	"saregare/internal/service/checkout/domain"
	"saregare/internal/service/checkout/domain/port"
)

const stripeName = "stripe"

// StripeGateway 占位实现。Stripe 的收款流程需要服务端创建
// PaymentIntent，这部分尚未接入，所以无论是否配置了密钥，
// 该网关都按"未配置"处理：选择它的结账在建单之前就被拒绝，
// 绝不静默放行。
type StripeGateway struct {
	secretKey string
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{secretKey: secretKey}
}

func (g *StripeGateway) Name() string { return stripeName }

// Configured 在 PaymentIntent 流程接入之前恒为 false。
func (g *StripeGateway) Configured() bool { return false }

func (g *StripeGateway) InitiatePayment(ctx context.Context, req *port.InitiateRequest) (*port.Handle, error) {
	return nil, domain.ErrGatewayNotConfigured
}

func (g *StripeGateway) ParseCallback(raw []byte) (*port.Callback, error) {
	return nil, domain.ErrGatewayNotConfigured
}

func (g *StripeGateway) VerifySignature(cb *port.Callback) error {
	return domain.ErrGatewayNotConfigured
}
