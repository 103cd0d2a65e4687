package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"saregare/internal/pkg/logger"
	"saregare/internal/service/checkout/domain"
	"saregare/internal/service/checkout/domain/port"
)

// CheckoutService 是暴露给接口层的结账编排器。
// 它负责从购买意向到 awaiting_confirmation 的前半程；
// 订单的完成与失败只属于 PaymentVerifier。
type CheckoutService struct {
	orders   domain.OrderRepository
	txs      domain.TransactionRepository
	gateways *port.Registry
	catalog  port.ProductCatalog
	promos   port.PromotionEngine
	notifier port.OrderNotifier
	locker   port.OrderLocker
	tracer   trace.Tracer
}

func NewCheckoutService(
	orders domain.OrderRepository,
	txs domain.TransactionRepository,
	gateways *port.Registry,
	catalog port.ProductCatalog,
	promos port.PromotionEngine,
	notifier port.OrderNotifier,
	locker port.OrderLocker,
	tracer trace.Tracer,
) *CheckoutService {
	return &CheckoutService{
		orders: orders, txs: txs, gateways: gateways, catalog: catalog,
		promos: promos, notifier: notifier, locker: locker, tracer: tracer,
	}
}

// StartCheckout 驱动一次购买尝试：鉴权 -> 定价 -> 建单(pending) ->
// 联系网关 -> awaiting_confirmation。网关句柄拿到之前订单绝不进入
// awaiting_confirmation；任何一步失败订单都停留在确定的状态上。
func (s *CheckoutService) StartCheckout(ctx context.Context, req *StartCheckoutRequest) (*StartCheckoutResponse, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.StartCheckout")
	defer span.End()

	if req.BuyerID == "" {
		return nil, domain.ErrUnauthenticated
	}

	tier, ok := domain.ParseLicenseTier(req.License)
	if !ok {
		return nil, domain.ErrInvalidLicense
	}

	// 未知或未配置的网关在任何状态落库之前就拒绝
	gw, err := s.gateways.Lookup(req.Gateway)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	product, err := s.catalog.Get(ctx, req.ProductID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	amount, priced, err := s.catalog.PriceFor(ctx, req.ProductID, tier)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !priced {
		// 该档位没有定价：不创建任何订单记录
		return nil, domain.ErrInvalidLicense
	}

	var promoName string
	if s.promos != nil {
		discount, name := s.promos.Discount(ctx, port.CheckoutFact{
			BuyerID:   req.BuyerID,
			ProductID: req.ProductID,
			Genre:     product.Genre,
			Tier:      string(tier),
			Amount:    amount,
		})
		if discount > 0 && discount < amount {
			amount -= discount
			promoName = name
			span.SetAttributes(attribute.String("promo.name", name), attribute.Int64("promo.discount", discount))
		}
	}

	order, err := domain.NewOrder(req.BuyerID, req.ProductID, tier, amount, "INR", gw.Name())
	if err != nil {
		return nil, err
	}
	order.PromoName = promoName

	if err := s.orders.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist pending order")
		return nil, err
	}
	ordersCreated.WithLabelValues(gw.Name(), string(tier)).Inc()
	span.SetAttributes(attribute.String("order.id", order.ID), attribute.Int64("order.amount", order.Amount))

	handle, err := gw.InitiatePayment(ctx, &port.InitiateRequest{
		Order:        order,
		ProductTitle: product.Title,
		BuyerEmail:   req.BuyerEmail,
	})
	if err != nil {
		// 网关不可达：订单保持 pending，不会悬挂在 awaiting_confirmation。
		// 买家可以取消后重试。
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway initiation failed")
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("payment initiation failed, order stays pending")
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, domain.StatusPending, domain.StatusAwaitingConfirmation); err != nil {
		span.RecordError(err)
		return nil, err
	}
	order.Status = domain.StatusAwaitingConfirmation
	s.publish(ctx, order, "awaiting gateway confirmation")

	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("gateway", gw.Name()).
		Int64("amount", order.Amount).
		Msg("checkout started")

	return &StartCheckoutResponse{
		OrderID: order.ID,
		Status:  order.Status,
		Amount:  order.Amount,
		Promo:   promoName,
		Handle:  handle,
	}, nil
}

// Cancel 取消一个订单。只有 pending 可取消；awaiting_confirmation
// 必须等 Verifier 的结论，返回 ErrAlreadyInFlight。
func (s *CheckoutService) Cancel(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "checkout.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	return s.locker.WithLock(ctx, orderID, func() error {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, orderID, domain.StatusPending, domain.StatusCancelled); err != nil {
			return err
		}
		ordersCancelled.Inc()
		s.publish(ctx, order, "cancelled by buyer")
		logger.Ctx(ctx).Info().Str("order_id", orderID).Msg("order cancelled")
		return nil
	})
}

// GetOrder 返回订单的权威状态，供前端把乐观的支付成功提示
// 与 Verifier 的结论对账。
func (s *CheckoutService) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.GetOrder")
	defer span.End()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	view := &OrderView{
		OrderID:   order.ID,
		ProductID: order.ProductID,
		License:   order.LicenseTier,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Gateway:   order.Gateway,
		Status:    order.Status,
	}
	txs, err := s.txs.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		view.Transactions = append(view.Transactions, TransactionView{
			ProviderPaymentID: tx.ProviderPaymentID,
			Result:            tx.Result,
			Reason:            tx.Reason,
		})
	}
	return view, nil
}

// publish 尽力发布状态事件，失败只记日志。
func (s *CheckoutService) publish(ctx context.Context, order *domain.Order, reason string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishStatus(ctx, domain.NewStatusEvent(order, reason)); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish order status event")
	}
}
