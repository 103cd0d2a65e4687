package application

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"saregare/internal/pkg/logger"
	"saregare/internal/service/checkout/domain"
	"saregare/internal/service/checkout/domain/port"
)

// VerificationOutcome 描述一次回调处理的结论，供 webhook 端点回复网关。
type VerificationOutcome struct {
	OrderID string                    `json:"orderId"`
	Result  domain.VerificationResult `json:"result"`
	Status  domain.Status             `json:"status"`
}

// PaymentVerifier 是唯一允许把订单从 awaiting_confirmation 推进到
// completed / failed 的组件。它只处理来自网关的服务端回调，
// 绝不信任浏览器侧的成功提示。
type PaymentVerifier struct {
	orders   domain.OrderRepository
	txs      domain.TransactionRepository
	gateways *port.Registry
	notifier port.OrderNotifier
	locker   port.OrderLocker
	tracer   trace.Tracer
}

func NewPaymentVerifier(
	orders domain.OrderRepository,
	txs domain.TransactionRepository,
	gateways *port.Registry,
	notifier port.OrderNotifier,
	locker port.OrderLocker,
	tracer trace.Tracer,
) *PaymentVerifier {
	return &PaymentVerifier{
		orders: orders, txs: txs, gateways: gateways,
		notifier: notifier, locker: locker, tracer: tracer,
	}
}

// HandleCallback 处理一条网关回调。同一订单的处理全程持锁，
// 重复回调是幂等的：终态订单的回调被记录为 duplicate 但不报错。
func (v *PaymentVerifier) HandleCallback(ctx context.Context, gatewayName string, raw []byte) (*VerificationOutcome, error) {
	ctx, span := v.tracer.Start(ctx, "verifier.HandleCallback", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(attribute.String("gateway", gatewayName))

	gw, err := v.gateways.Lookup(gatewayName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	cb, err := gw.ParseCallback(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed callback payload")
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", cb.OrderID))

	var outcome *VerificationOutcome
	err = v.locker.WithLock(ctx, cb.OrderID, func() error {
		var lockErr error
		outcome, lockErr = v.verifyLocked(ctx, gw, cb)
		return lockErr
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return outcome, nil
}

// verifyLocked 在持有订单锁的前提下执行验证流水线。
func (v *PaymentVerifier) verifyLocked(ctx context.Context, gw port.PaymentGateway, cb *port.Callback) (*VerificationOutcome, error) {
	order, err := v.orders.FindByID(ctx, cb.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.ErrUnknownOrder
		}
		return nil, err
	}

	// 终态订单：回调被吸收为 duplicate，不再生效
	if order.Status.IsTerminal() {
		duplicateCallbacks.Inc()
		logger.Ctx(ctx).Warn().
			Str("order_id", order.ID).
			Str("payment_id", cb.ProviderPaymentID).
			Str("status", string(order.Status)).
			Msg("duplicate gateway callback for terminal order")
		tx := domain.NewTransaction(order.ID, cb.ProviderPaymentID, domain.VerificationDuplicate, cb.Raw, "order already terminal")
		if err := v.txs.Record(ctx, tx); err != nil {
			return nil, err
		}
		return &VerificationOutcome{OrderID: order.ID, Result: domain.VerificationDuplicate, Status: order.Status}, nil
	}

	if err := gw.VerifySignature(cb); err != nil {
		return v.reject(ctx, order, cb, "signature verification failed", domain.ErrSignatureInvalid)
	}

	// 金额与币种必须与建单时完全一致，整数精确比较
	if cb.Amount != order.Amount || cb.Currency != order.Currency {
		return v.reject(ctx, order, cb, "amount or currency mismatch", domain.ErrAmountMismatch)
	}

	if err := v.orders.UpdateStatus(ctx, order.ID, domain.StatusAwaitingConfirmation, domain.StatusCompleted); err != nil {
		return nil, err
	}
	order.Status = domain.StatusCompleted

	tx := domain.NewTransaction(order.ID, cb.ProviderPaymentID, domain.VerificationVerified, cb.Raw, "")
	if err := v.txs.Record(ctx, tx); err != nil {
		return nil, err
	}
	ordersCompleted.Inc()
	v.publish(ctx, order, "payment verified")

	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("payment_id", cb.ProviderPaymentID).
		Msg("payment verified, order completed")

	return &VerificationOutcome{OrderID: order.ID, Result: domain.VerificationVerified, Status: order.Status}, nil
}

// reject 记录一条 rejected 回调并把订单置为 failed，然后返回对应的领域错误。
func (v *PaymentVerifier) reject(ctx context.Context, order *domain.Order, cb *port.Callback, reason string, cause error) (*VerificationOutcome, error) {
	tx := domain.NewTransaction(order.ID, cb.ProviderPaymentID, domain.VerificationRejected, cb.Raw, reason)
	if err := v.txs.Record(ctx, tx); err != nil {
		return nil, err
	}
	if err := v.orders.UpdateStatus(ctx, order.ID, domain.StatusAwaitingConfirmation, domain.StatusFailed); err != nil {
		return nil, err
	}
	order.Status = domain.StatusFailed
	ordersFailed.WithLabelValues(reason).Inc()
	v.publish(ctx, order, reason)

	logger.Ctx(ctx).Error().
		Str("order_id", order.ID).
		Str("payment_id", cb.ProviderPaymentID).
		Str("reason", reason).
		Msg("gateway callback rejected")

	return nil, cause
}

func (v *PaymentVerifier) publish(ctx context.Context, order *domain.Order, reason string) {
	if v.notifier == nil {
		return
	}
	if err := v.notifier.PublishStatus(ctx, domain.NewStatusEvent(order, reason)); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish order status event")
	}
}
