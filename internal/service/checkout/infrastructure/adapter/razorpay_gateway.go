package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"saregare/internal/pkg/httpclient"
	"saregare/internal/service/checkout/domain"
	"saregare/internal/service/checkout/domain/port"
)

const (
	razorpayName       = "razorpay"
	razorpayAPIBase    = "https://api.razorpay.com"
	razorpayThemeColor = "#9333ea"
)

// RazorpayGateway 是 port.PaymentGateway 的 Razorpay 实现。
// 发起支付时在 Razorpay 侧创建订单；回调验签用 key_secret 对
// "order_id|payment_id" 做 HMAC-SHA256。
type RazorpayGateway struct {
	keyID     string
	keySecret string
	apiBase   string
	client    *httpclient.Client
}

// NewRazorpayGateway 创建适配器。密钥缺失时适配器依然可注册，
// 但 Configured() 为 false，注册表查找阶段就会拒绝它。
func NewRazorpayGateway(keyID, keySecret string, client *httpclient.Client) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		apiBase:   razorpayAPIBase,
		client:    client,
	}
}

func (g *RazorpayGateway) Name() string { return razorpayName }

func (g *RazorpayGateway) Configured() bool {
	return g.keyID != "" && g.keySecret != ""
}

// razorpayOrderResponse 是 Razorpay Orders API 响应中我们关心的字段。
type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// InitiatePayment 在 Razorpay 创建订单并返回收银台句柄。
// 网关不可达或响应异常时返回 ErrGatewayUnavailable，调用方保证
// 此时本地订单停留在 pending。
func (g *RazorpayGateway) InitiatePayment(ctx context.Context, req *port.InitiateRequest) (*port.Handle, error) {
	if !g.Configured() {
		return nil, domain.ErrGatewayNotConfigured
	}

	body := map[string]interface{}{
		"amount":   req.Order.Amount,
		"currency": req.Order.Currency,
		"receipt":  req.Order.ID,
		"notes": map[string]string{
			"product": req.ProductTitle,
			"license": string(req.Order.LicenseTier),
		},
	}

	var resp razorpayOrderResponse
	auth := &httpclient.BasicAuth{Username: g.keyID, Password: g.keySecret}
	if err := g.client.PostJSON(ctx, g.apiBase+"/v1/orders", body, auth, &resp); err != nil {
		return nil, fmt.Errorf("razorpay order creation failed: %w: %v", domain.ErrGatewayUnavailable, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("razorpay returned empty order id: %w", domain.ErrGatewayUnavailable)
	}

	return &port.Handle{
		Gateway:        razorpayName,
		CheckoutKey:    g.keyID,
		GatewayOrderID: resp.ID,
		Amount:         req.Order.Amount,
		Currency:       req.Order.Currency,
		Description:    fmt.Sprintf("%s - %s License", req.ProductTitle, req.Order.LicenseTier),
		PrefillEmail:   req.BuyerEmail,
		ThemeColor:     razorpayThemeColor,
	}, nil
}

// razorpayCallback 是 webhook/回调报文中我们消费的字段。
// receipt 字段回传我们自己的订单 ID。
type razorpayCallback struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	Receipt           string `json:"receipt"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
}

func (g *RazorpayGateway) ParseCallback(raw []byte) (*port.Callback, error) {
	var cb razorpayCallback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, fmt.Errorf("malformed razorpay callback: %w", err)
	}
	if cb.Receipt == "" || cb.RazorpayPaymentID == "" {
		return nil, fmt.Errorf("razorpay callback missing receipt or payment id")
	}
	return &port.Callback{
		OrderID:           cb.Receipt,
		ProviderOrderID:   cb.RazorpayOrderID,
		ProviderPaymentID: cb.RazorpayPaymentID,
		Signature:         cb.RazorpaySignature,
		Amount:            cb.Amount,
		Currency:          cb.Currency,
		Raw:               raw,
	}, nil
}

// VerifySignature 重算 HMAC-SHA256(order_id|payment_id, key_secret)
// 并与回调携带的签名做恒定时间比较。
func (g *RazorpayGateway) VerifySignature(cb *port.Callback) error {
	if cb.Signature == "" {
		return domain.ErrSignatureInvalid
	}
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(cb.ProviderOrderID + "|" + cb.ProviderPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(cb.Signature)) {
		return domain.ErrSignatureInvalid
	}
	return nil
}

// SetAPIBase 仅测试用，把请求指向本地的假服务。
func (g *RazorpayGateway) SetAPIBase(base string) { g.apiBase = base }
