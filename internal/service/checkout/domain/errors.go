package domain

import "errors"

// 结账/对账流程的错误分类。接口层依赖 errors.Is 把它们映射为对外的
// HTTP 状态码，所以这里必须是稳定的哨兵值。
var (
	ErrUnauthenticated      = errors.New("buyer is not authenticated")
	ErrInvalidLicense       = errors.New("license tier has no price for this product")
	ErrUnsupportedGateway   = errors.New("unsupported payment gateway")
	ErrGatewayNotConfigured = errors.New("payment gateway is not configured")
	ErrGatewayUnavailable   = errors.New("payment gateway is unavailable")
	ErrUnknownOrder         = errors.New("callback references an unknown order")
	ErrSignatureInvalid     = errors.New("callback signature verification failed")
	ErrAmountMismatch       = errors.New("callback amount does not match order")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrAlreadyInFlight      = errors.New("order is awaiting gateway confirmation")
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
)
